/*
Package store is the durable side of the presence service.

It persists two independent record kinds per user (the identity record and the star-state
record), the append-only public message log and the one-time login codes. Reads for an
unknown user return nil without an error; writes are last-writer-wins upserts.
*/
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a keyed lookup or update matches nothing.
	ErrNotFound = errors.New("store: record not found")

	// ErrCodeTaken is returned when a login code collides with one already issued.
	ErrCodeTaken = errors.New("store: login code already in use")
)

// Identity is the identity record of a user.
type Identity struct {
	UserID   int64
	Username string
	Info     string
	LastSeen *time.Time
}

// StarState is the score and cosmetic record of a user.
type StarState struct {
	UserID        int64
	ActivityScore float64
	StarColor     string
	StarShape     string
	Info          string
	SkinsOwned    []string
}

// PublicMessage is one row of the public chat log.
type PublicMessage struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRecord identifies the user a consumed login code belonged to.
type LoginRecord struct {
	UserID   int64
	Username string
}

// StarRecord is a star-state row joined with its identity, if any.
type StarRecord struct {
	StarState
	Username     string
	IdentityInfo string
}

// Store is the contract the rest of the service persists through.
type Store interface {
	LoadIdentity(ctx context.Context, userID int64) (*Identity, error)
	LoadStarState(ctx context.Context, userID int64) (*StarState, error)
	UpsertIdentity(ctx context.Context, identity Identity) error
	UpsertStarState(ctx context.Context, state StarState) error

	AppendPublicMessage(ctx context.Context, userID int64, username, text string) error
	// ListPublicMessages returns the newest limit messages, oldest first.
	ListPublicMessages(ctx context.Context, limit int) ([]PublicMessage, error)

	// IssueLoginCode stores code for the user, or clears it when code is nil.
	IssueLoginCode(ctx context.Context, userID int64, code *string) error
	// ResolveLoginCode looks up and consumes code in one step.
	ResolveLoginCode(ctx context.Context, code string) (*LoginRecord, error)

	ListStars(ctx context.Context) ([]StarRecord, error)
}
