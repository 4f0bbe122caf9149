/*
Package user contains the identity a front-end reports for the person behind an inbound event.

Both the bot channel and the site chat refresh a session's names from it.
*/
package user

import "fmt"

// Profile is the identity information attached to an inbound event.
type Profile struct {
	// ID is the Telegram user id, the key of every session.
	ID int64 `json:"id"`

	// Username is the public handle. Empty when the account has none.
	Username string `json:"username"`

	// DisplayName is the human readable full name.
	DisplayName string `json:"display_name"`
}

// DefaultUsername is the handle used for users without one.
func DefaultUsername(id int64) string {
	return fmt.Sprintf("user_%d", id)
}

// Handle returns the username, falling back to DefaultUsername.
func (p Profile) Handle() string {
	if p.Username != "" {
		return p.Username
	}
	return DefaultUsername(p.ID)
}

// Name returns the display name, falling back to Handle.
func (p Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Handle()
}
