/*
Package presence is the entry point the bot channel and the login endpoint use.

It turns bot events into activity, hands out and redeems one-time login codes, and
builds the star listing of the sky page from the store and the session cache.
*/
package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"starsky/internal/app/economy"
	"starsky/internal/app/session"
	"starsky/internal/app/store"
	"starsky/internal/app/user"
	"starsky/internal/pkg/errs"
	"starsky/internal/pkg/logx"
	"starsky/internal/pkg/randx"
)

const maxCodeAttempts = 5

// ErrNotRegistered is returned when a user asks for a login code before /start.
var ErrNotRegistered = errors.New("presence: user is not registered")

// Store is the part of the durable store presence needs directly.
type Store interface {
	LoadIdentity(ctx context.Context, userID int64) (*store.Identity, error)
	UpsertIdentity(ctx context.Context, identity store.Identity) error
	IssueLoginCode(ctx context.Context, userID int64, code *string) error
	ResolveLoginCode(ctx context.Context, code string) (*store.LoginRecord, error)
	ListStars(ctx context.Context) ([]store.StarRecord, error)
}

// Activity credits points and reports the current time.
type Activity interface {
	RecordActivity(ctx context.Context, userID int64, amount float64, opts ...economy.ActivityOption) (session.Session, error)
	Now() time.Time
}

// Service implements the bot and login flows.
type Service struct {
	cache    *session.Cache
	activity Activity
	store    Store
	logger   zerolog.Logger
}

// NewService creates a Service.
func NewService(cache *session.Cache, activity Activity, st Store) *Service {
	return &Service{
		cache:    cache,
		activity: activity,
		store:    st,
		logger:   logx.Component("presence"),
	}
}

// StartResult is the outcome of OnStart.
type StartResult struct {
	Session session.Session
	// New is true when the user was not in the session cache before.
	New bool
}

// OnStart registers the user: +3 points, names refreshed, and a new_star announcement
// when the process has not seen the user before.
func (s *Service) OnStart(ctx context.Context, p user.Profile) (StartResult, error) {
	_, cached := s.cache.Peek(p.ID)

	opts := []economy.ActivityOption{economy.WithProfile(p)}
	if !cached {
		opts = append(opts, economy.AnnounceNew(fmt.Sprintf("%s just appeared in the sky", p.Name())))
	}

	sess, err := s.activity.RecordActivity(ctx, p.ID, economy.PointsRegistration, opts...)
	if err != nil {
		return StartResult{}, err
	}

	// Login codes are attached to the identity row, so it is written before /login can run.
	if err := s.store.UpsertIdentity(ctx, identityOf(sess)); err != nil {
		s.logger.Error().Err(err).Int64("user_id", p.ID).Msg("Failed to register identity")
	}

	return StartResult{Session: sess, New: !cached}, nil
}

// OnTextMessage credits a plain bot message.
func (s *Service) OnTextMessage(ctx context.Context, p user.Profile) (session.Session, error) {
	return s.activity.RecordActivity(ctx, p.ID, economy.PointsBotMessage, economy.WithProfile(p))
}

// OnLoginRequested issues a fresh one-time code, replacing any earlier one.
func (s *Service) OnLoginRequested(ctx context.Context, userID int64) (string, error) {
	for range maxCodeAttempts {
		code, err := randx.LoginCode()
		if err != nil {
			return "", err
		}

		err = s.store.IssueLoginCode(ctx, userID, &code)
		switch {
		case err == nil:
			return code, nil
		case errors.Is(err, store.ErrNotFound):
			return "", ErrNotRegistered
		case errors.Is(err, store.ErrCodeTaken):
			s.logger.Debug().Int64("user_id", userID).Msg("Login code collision, drawing another")
			continue
		default:
			return "", fmt.Errorf("issue login code: %w", err)
		}
	}

	return "", fmt.Errorf("issue login code: no unique code after %d attempts", maxCodeAttempts)
}

// Login redeems a code and returns the user's current session.
func (s *Service) Login(ctx context.Context, code string) (session.Session, error) {
	code = randx.NormalizeLoginCode(code)
	if code == "" {
		return session.Session{}, errs.NewError(errs.ErrEmptyCode)
	}

	record, err := s.store.ResolveLoginCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return session.Session{}, errs.NewError(errs.ErrInvalidCode)
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("resolve login code: %w", err)
	}

	s.logger.Info().Int64("user_id", record.UserID).Msg("User logged in with code")
	return s.cache.Ensure(ctx, record.UserID)
}

// Profile returns the user's session. Users neither cached nor stored get ErrNotRegistered.
func (s *Service) Profile(ctx context.Context, userID int64) (session.Session, error) {
	if sess, ok := s.cache.Peek(userID); ok {
		return sess, nil
	}

	identity, err := s.store.LoadIdentity(ctx, userID)
	if err != nil {
		return session.Session{}, fmt.Errorf("load identity: %w", err)
	}
	if identity == nil {
		return session.Session{}, ErrNotRegistered
	}

	return s.cache.Ensure(ctx, userID)
}

// StarView is one star of the sky listing.
type StarView struct {
	ID            int64   `json:"id"`
	Username      string  `json:"username"`
	Info          string  `json:"info"`
	Active        bool    `json:"active"`
	ActivityScore float64 `json:"activity_score"`
	StarColor     string  `json:"star_color"`
	StarShape     string  `json:"star_shape"`
}

// Stars lists every stored star. Users the process holds in memory are shown with their
// live state, which may be ahead of the store.
func (s *Service) Stars(ctx context.Context) ([]StarView, error) {
	records, err := s.store.ListStars(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stars: %w", err)
	}

	now := s.activity.Now()
	views := make([]StarView, 0, len(records))

	for _, r := range records {
		view := StarView{
			ID:            r.UserID,
			Username:      r.Username,
			ActivityScore: r.ActivityScore,
			StarColor:     r.StarColor,
			StarShape:     r.StarShape,
			Info:          r.Info,
		}
		displayName := ""

		if live, ok := s.cache.Peek(r.UserID); ok {
			view.Username = live.Username
			view.ActivityScore = live.ActivityScore
			view.StarColor = live.StarColor
			view.StarShape = live.StarShape
			view.Active = live.IsActive(now)
			displayName = live.DisplayName
			if view.Info == "" {
				view.Info = live.Info
			}
		}

		if view.Username == "" {
			view.Username = user.DefaultUsername(r.UserID)
		}
		if displayName == "" {
			displayName = view.Username
		}
		if view.Info == "" {
			view.Info = r.IdentityInfo
		}
		if view.Info == "" {
			view.Info = fmt.Sprintf("%s is already in the sky", displayName)
		}
		if view.StarColor == "" {
			view.StarColor = session.DefaultColor
		}
		if view.StarShape == "" {
			view.StarShape = session.DefaultShape
		}

		views = append(views, view)
	}

	return views, nil
}

func identityOf(sess session.Session) store.Identity {
	identity := store.Identity{UserID: sess.UserID, Username: sess.Username, Info: sess.Info}
	if !sess.LastActiveAt.IsZero() {
		lastSeen := sess.LastActiveAt
		identity.LastSeen = &lastSeen
	}
	return identity
}
