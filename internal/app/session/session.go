/*
Package session holds the authoritative in-memory state of every known user.

A session is hydrated from the store on first reference and then lives for the whole
process. All mutations go through Cache.Mutate, which works on a private copy under the
session's own lock and commits it only when the mutation succeeds.
*/
package session

import (
	"time"

	"github.com/samber/lo"
)

const (
	// DefaultColor is the star color of a user without a color skin.
	DefaultColor = "#ffffff"

	// DefaultShape is the star shape of a user without a shape skin.
	DefaultShape = "circle"

	// ActiveWindow is how recent the last activity must be for a user to count as active.
	ActiveWindow = 60 * time.Second

	// MaxInfoLength is the maximum bio length, in characters.
	MaxInfoLength = 100
)

// Session is one user's presence, activity and cosmetic state.
type Session struct {
	UserID        int64
	Username      string
	DisplayName   string
	ActivityScore float64
	StarColor     string
	StarShape     string
	OwnedSkins    []string
	Info          string
	LastActiveAt  time.Time
}

// IsActive reports whether the user did something within ActiveWindow of now.
func (s Session) IsActive(now time.Time) bool {
	if s.LastActiveAt.IsZero() {
		return false
	}
	return now.Sub(s.LastActiveAt) <= ActiveWindow
}

// Owns reports whether skinID is among the owned skins.
func (s Session) Owns(skinID string) bool {
	return lo.Contains(s.OwnedSkins, skinID)
}

// clone returns a copy that shares no mutable memory with s.
func (s Session) clone() Session {
	s.OwnedSkins = append([]string{}, s.OwnedSkins...)
	return s
}
