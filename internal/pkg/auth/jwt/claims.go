package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the claims of the session token issued after a successful
// one-time code login.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the Telegram user id the code was issued to.
	UserID int64 `json:"user_id"`

	// Username is the display handle at login time. Informational only.
	Username string `json:"username"`
}
