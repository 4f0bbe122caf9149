/*
Package economy implements the activity score: earning points for messages, the periodic
decay and spending points on skins.

Every state change goes through the session cache, is queued for the store and, where
observers care, announced on the broadcast hub.
*/
package economy

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"starsky/internal/app/session"
	"starsky/internal/app/skin"
	"starsky/internal/app/user"
	"starsky/internal/pkg/errs"
	"starsky/internal/pkg/logx"
)

// Points granted per event kind.
const (
	PointsBotMessage   = 1.0
	PointsPublicPost   = 2.0
	PointsPrivatePost  = 3.0
	PointsRegistration = 3.0
)

// Default decay policy.
const (
	DefaultDecayInterval = 10 * time.Second
	DefaultDecayAmount   = 0.5
)

// Syncer queues session snapshots for the durable store. It is called with the session
// locked and must not block.
type Syncer interface {
	SyncStarState(s session.Session)
	SyncIdentity(s session.Session)
}

// Publisher fans an event out to passive observers. Like Syncer it runs under the session lock.
type Publisher interface {
	Publish(event any) int
}

// Option configures an Economy.
type Option func(*Economy)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Economy) {
		e.now = now
	}
}

// Economy applies the scoring rules.
type Economy struct {
	cache     *session.Cache
	catalog   *skin.Catalog
	syncer    Syncer
	publisher Publisher

	now    func() time.Time
	logger zerolog.Logger
}

// New creates an Economy.
func New(cache *session.Cache, catalog *skin.Catalog, syncer Syncer, publisher Publisher, opts ...Option) *Economy {
	e := &Economy{
		cache:     cache,
		catalog:   catalog,
		syncer:    syncer,
		publisher: publisher,
		now:       time.Now,
		logger:    logx.Component("economy"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Catalog returns the skin catalog purchases are checked against.
func (e *Economy) Catalog() *skin.Catalog {
	return e.catalog
}

// Now returns the economy's notion of the current time.
func (e *Economy) Now() time.Time {
	return e.now()
}

type activityOptions struct {
	profile  *user.Profile
	announce bool
	info     string
}

// ActivityOption adjusts a single RecordActivity call.
type ActivityOption func(*activityOptions)

// WithProfile refreshes the user's names in the same step and also syncs the identity record.
func WithProfile(p user.Profile) ActivityOption {
	return func(o *activityOptions) {
		o.profile = &p
	}
}

// AnnounceNew publishes a new_star event carrying info instead of an activity_update.
func AnnounceNew(info string) ActivityOption {
	return func(o *activityOptions) {
		o.announce = true
		o.info = info
	}
}

// RecordActivity adds amount to the user's score (floored at zero), marks the user active,
// queues the store write and publishes the new state.
func (e *Economy) RecordActivity(ctx context.Context, userID int64, amount float64, opts ...ActivityOption) (session.Session, error) {
	var o activityOptions
	for _, opt := range opts {
		opt(&o)
	}

	now := e.now()
	return e.cache.MutateThen(ctx, userID, func(s *session.Session) error {
		s.ActivityScore = max(s.ActivityScore+amount, 0)
		s.LastActiveAt = now
		if o.profile != nil {
			s.Username = o.profile.Handle()
			s.DisplayName = o.profile.Name()
		}
		return nil
	}, func(s session.Session) {
		e.syncer.SyncStarState(s)
		if o.profile != nil {
			e.syncer.SyncIdentity(s)
		}

		event := NewStarEvent(s, EventActivityUpdate, now)
		if o.announce {
			event.Type = EventNewStar
			event.Info = o.info
		}
		e.publisher.Publish(event)
	})
}

// DecayAll lowers every cached score by amount, floored at zero. Nothing is synced or published.
func (e *Economy) DecayAll(amount float64) {
	e.cache.MutateAll(func(s *session.Session) {
		s.ActivityScore = max(s.ActivityScore-amount, 0)
	})
}

// RunDecay calls DecayAll every interval until ctx is done.
func (e *Economy) RunDecay(ctx context.Context, interval time.Duration, amount float64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info().Dur("interval", interval).Float64("amount", amount).Msg("Activity decay started")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Activity decay stopped")
			return
		case <-ticker.C:
			e.DecayAll(amount)
		}
	}
}

// Purchase buys or re-equips skinID for the user.
// Re-equipping an owned skin is free. Success always queues one star-state write and
// publishes one activity_update.
func (e *Economy) Purchase(ctx context.Context, userID int64, skinID string) (session.Session, error) {
	entry, ok := e.catalog.Lookup(skinID)
	if !ok {
		return session.Session{}, errs.NewError(errs.ErrUnknownSkin, skinID)
	}

	s, err := e.cache.MutateThen(ctx, userID, func(s *session.Session) error {
		if s.Owns(skinID) {
			entry.Apply(s)
			return nil
		}

		if s.ActivityScore < entry.Cost {
			return errs.NewError(errs.ErrInsufficientActivity)
		}

		s.ActivityScore -= entry.Cost
		s.OwnedSkins = append(s.OwnedSkins, skinID)
		entry.Apply(s)
		return nil
	}, func(s session.Session) {
		e.syncer.SyncStarState(s)
		e.publisher.Publish(NewStarEvent(s, EventActivityUpdate, e.now()))
	})
	if err != nil {
		return s, err
	}

	e.logger.Info().Int64("user_id", userID).Str("skin_id", skinID).Float64("activity_score", s.ActivityScore).Msg("Skin equipped")
	return s, nil
}

// UpdateInfo replaces the user's bio and syncs both records. It is not broadcast.
func (e *Economy) UpdateInfo(ctx context.Context, userID int64, info string) (session.Session, error) {
	info = strings.TrimSpace(info)
	if utf8.RuneCountInString(info) > session.MaxInfoLength {
		return session.Session{}, errs.NewError(errs.ErrInfoTooLong, session.MaxInfoLength)
	}

	return e.cache.MutateThen(ctx, userID, func(s *session.Session) error {
		s.Info = info
		return nil
	}, func(s session.Session) {
		e.syncer.SyncStarState(s)
		e.syncer.SyncIdentity(s)
	})
}
