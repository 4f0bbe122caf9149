/*
Package pairing runs the anonymous random-partner chat of the bot channel.

One waiting slot holds the user looking for a partner; the next distinct user to ask is
paired with them. Pair edges are symmetric and a user is never in the slot and in an
edge at the same time. Notifications go out after the lock is released.
*/
package pairing

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"starsky/internal/app/delivery"
	"starsky/internal/pkg/logx"
)

// Texts sent to the other side of a pairing.
const (
	MsgPartnerFound = "🎭 Partner found! Write away, messages are relayed anonymously."
	MsgPartnerLeft  = "❌ Your partner ended the dialog."
	relayFormat     = "💬 Partner: %s"
)

// Notifier delivers a text to a user over the bot channel.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) delivery.Result
}

// FindResult is the outcome of FindPartner.
type FindResult int

const (
	AlreadyPaired FindResult = iota
	AlreadyQueued
	Queued
	Paired
	PartnerUnreachable
)

func (r FindResult) String() string {
	return [...]string{"already_paired", "already_queued", "queued", "paired", "partner_unreachable"}[r]
}

// StopResult is the outcome of Stop.
type StopResult int

const (
	LeftQueue StopResult = iota
	Ended
	NotChatting
)

func (r StopResult) String() string {
	return [...]string{"left_queue", "ended", "not_chatting"}[r]
}

// RelayResult is the outcome of Relay.
type RelayResult int

const (
	NotPaired RelayResult = iota
	Relayed
	DialogEnded
)

func (r RelayResult) String() string {
	return [...]string{"not_paired", "relayed", "dialog_ended"}[r]
}

// Matchmaker owns the waiting slot and the pair edges.
type Matchmaker struct {
	notifier Notifier

	mu      sync.Mutex
	waiting *int64
	pairs   map[int64]int64

	logger zerolog.Logger
}

// NewMatchmaker creates an idle matchmaker.
func NewMatchmaker(notifier Notifier) *Matchmaker {
	return &Matchmaker{
		notifier: notifier,
		pairs:    make(map[int64]int64),
		logger:   logx.Component("pairing"),
	}
}

// FindPartner queues the user or pairs them with the waiting one. When the waiting user
// cannot be notified the new edge is broken again and PartnerUnreachable is returned.
func (m *Matchmaker) FindPartner(ctx context.Context, userID int64) FindResult {
	m.mu.Lock()

	if _, paired := m.pairs[userID]; paired {
		m.mu.Unlock()
		return AlreadyPaired
	}

	if m.waiting == nil {
		id := userID
		m.waiting = &id
		m.mu.Unlock()
		return Queued
	}

	if *m.waiting == userID {
		m.mu.Unlock()
		return AlreadyQueued
	}

	partnerID := *m.waiting
	m.waiting = nil
	m.link(userID, partnerID)
	m.mu.Unlock()

	if m.notifier.Notify(ctx, partnerID, MsgPartnerFound) == delivery.PeerUnreachable {
		m.breakIfLinked(userID, partnerID)
		m.logger.Info().Int64("user_id", userID).Int64("partner_id", partnerID).Msg("Waiting partner unreachable, pairing undone")
		return PartnerUnreachable
	}

	m.logger.Debug().Int64("user_id", userID).Int64("partner_id", partnerID).Msg("Users paired")
	return Paired
}

// Stop leaves the queue or ends the current dialog. The former partner is told
// best-effort.
func (m *Matchmaker) Stop(ctx context.Context, userID int64) StopResult {
	m.mu.Lock()

	if m.waiting != nil && *m.waiting == userID {
		m.waiting = nil
		m.mu.Unlock()
		return LeftQueue
	}

	partnerID, paired := m.pairs[userID]
	if !paired {
		m.mu.Unlock()
		return NotChatting
	}
	m.unlink(userID, partnerID)
	m.mu.Unlock()

	m.notifier.Notify(ctx, partnerID, MsgPartnerLeft)
	return Ended
}

// Relay forwards text to the user's partner. A failed forward ends the dialog.
func (m *Matchmaker) Relay(ctx context.Context, userID int64, text string) RelayResult {
	partnerID, paired := m.PartnerOf(userID)
	if !paired {
		return NotPaired
	}

	if m.notifier.Notify(ctx, partnerID, fmt.Sprintf(relayFormat, text)) == delivery.PeerUnreachable {
		m.breakIfLinked(userID, partnerID)
		return DialogEnded
	}

	return Relayed
}

// PartnerOf returns the current partner of userID.
func (m *Matchmaker) PartnerOf(userID int64) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	partnerID, ok := m.pairs[userID]
	return partnerID, ok
}

// Waiting returns the user in the waiting slot.
func (m *Matchmaker) Waiting() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiting == nil {
		return 0, false
	}
	return *m.waiting, true
}

func (m *Matchmaker) link(a, b int64) {
	m.pairs[a] = b
	m.pairs[b] = a
}

func (m *Matchmaker) unlink(a, b int64) {
	delete(m.pairs, a)
	delete(m.pairs, b)
}

// breakIfLinked removes the a-b edge only if it still exists, leaving any newer edge alone.
func (m *Matchmaker) breakIfLinked(a, b int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pairs[a] == b && m.pairs[b] == a {
		m.unlink(a, b)
	}
}
