/*
Package randx provides functions for generating cryptographically secure random codes and unique identifiers.

It is primarily used to generate the one-time login codes handed out by the bot and the
UUIDs that identify socket connections and broadcast subscriptions.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// LoginCodeChars defines the character set used for login codes (A-Z, 0-9).
	LoginCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// LoginCodeLength is the fixed length of a generated login code.
	LoginCodeLength = 6
)

var loginCodeCharsLen = big.NewInt(int64(len(LoginCodeChars)))

// LoginCode generates a login code of LoginCodeLength characters using crypto/rand.
func LoginCode() (string, error) {
	result := make([]byte, LoginCodeLength)

	for i := range LoginCodeLength {
		num, err := rand.Int(rand.Reader, loginCodeCharsLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for login code: %w", err)
		}

		result[i] = LoginCodeChars[num.Int64()]
	}

	return string(result), nil
}

// NormalizeLoginCode trims surrounding whitespace and upper-cases a user-entered code.
func NormalizeLoginCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidLoginCode checks if the given string has the shape of a login code.
func IsValidLoginCode(code string) bool {
	if len(code) != LoginCodeLength {
		return false
	}

	for _, char := range code {
		if !strings.ContainsRune(LoginCodeChars, char) {
			return false
		}
	}

	return true
}

// ConnectionID generates a UUID v4 string identifying a socket connection or subscription.
func ConnectionID() string {
	return uuid.New().String()
}
