package presence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"starsky/internal/app/economy"
	"starsky/internal/app/session"
	"starsky/internal/app/skin"
	"starsky/internal/app/store"
	"starsky/internal/app/user"
	"starsky/internal/pkg/errs"
	"starsky/internal/pkg/randx"
)

type nopSyncer struct{}

func (nopSyncer) SyncStarState(session.Session) {}
func (nopSyncer) SyncIdentity(session.Session)  {}

type recordingPublisher struct {
	mu     sync.Mutex
	events []economy.StarEvent
}

func (p *recordingPublisher) Publish(event any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(economy.StarEvent))
	return 1
}

func (p *recordingPublisher) last() economy.StarEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

// takenStore reports a collision for the first collisions code issues.
type takenStore struct {
	*store.Memory
	collisions int
	attempts   int
}

func (s *takenStore) IssueLoginCode(ctx context.Context, userID int64, code *string) error {
	s.attempts++
	if s.attempts <= s.collisions {
		return store.ErrCodeTaken
	}
	return s.Memory.IssueLoginCode(ctx, userID, code)
}

type fixture struct {
	store     *store.Memory
	cache     *session.Cache
	publisher *recordingPublisher
	service   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{store: store.NewMemory(), publisher: &recordingPublisher{}}
	f.cache = session.NewCache(f.store)
	eco := economy.New(f.cache, skin.Default(), nopSyncer{}, f.publisher, economy.WithClock(func() time.Time { return now }))
	f.service = NewService(f.cache, eco, f.store)
	return f
}

var ann = user.Profile{ID: 1, Username: "ann", DisplayName: "Ann"}

func TestOnStartAnnouncesOnlyNewUsers(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.OnStart(ctx, ann)
	req.NoError(err)
	req.True(first.New)
	req.Equal(economy.PointsRegistration, first.Session.ActivityScore)
	req.Equal("ann", first.Session.Username)

	event := f.publisher.last()
	req.Equal(economy.EventNewStar, event.Type)
	req.Equal("Ann just appeared in the sky", event.Info)

	identity, err := f.store.LoadIdentity(ctx, ann.ID)
	req.NoError(err)
	req.NotNil(identity)
	req.Equal("ann", identity.Username)

	second, err := f.service.OnStart(ctx, ann)
	req.NoError(err)
	req.False(second.New)
	req.Equal(6.0, second.Session.ActivityScore)
	req.Equal(economy.EventActivityUpdate, f.publisher.last().Type)
}

func TestProfileRequiresRegistration(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Profile(ctx, ann.ID)
	req.ErrorIs(err, ErrNotRegistered)
	req.Equal(0, f.cache.Len())

	req.NoError(f.store.UpsertIdentity(ctx, store.Identity{UserID: ann.ID, Username: "ann", Info: "hello"}))
	s, err := f.service.Profile(ctx, ann.ID)
	req.NoError(err)
	req.Equal("hello", s.Info)
	req.Equal(1, f.cache.Len())
}

func TestOnTextMessageCreditsOnePoint(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	s, err := f.service.OnTextMessage(context.Background(), ann)
	req.NoError(err)
	req.Equal(economy.PointsBotMessage, s.ActivityScore)
	req.Equal("Ann", s.DisplayName)
}

func TestLoginCodeLifecycle(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.OnLoginRequested(ctx, ann.ID)
	req.ErrorIs(err, ErrNotRegistered)

	_, err = f.service.OnStart(ctx, ann)
	req.NoError(err)

	stale, err := f.service.OnLoginRequested(ctx, ann.ID)
	req.NoError(err)
	code, err := f.service.OnLoginRequested(ctx, ann.ID)
	req.NoError(err)
	req.True(randx.IsValidLoginCode(code))

	if stale != code {
		_, err = f.service.Login(ctx, stale)
		req.True(errs.HasCode(err, errs.ErrInvalidCode))
	}

	s, err := f.service.Login(ctx, "  "+strings.ToLower(code)+" ")
	req.NoError(err)
	req.Equal(ann.ID, s.UserID)
	req.Equal(economy.PointsRegistration, s.ActivityScore)

	_, err = f.service.Login(ctx, code)
	req.True(errs.HasCode(err, errs.ErrInvalidCode))

	_, err = f.service.Login(ctx, "   ")
	req.True(errs.HasCode(err, errs.ErrEmptyCode))
}

func TestOnLoginRequestedRetriesCollisions(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.OnStart(ctx, ann)
	req.NoError(err)

	taken := &takenStore{Memory: f.store, collisions: 2}
	f.service.store = taken

	code, err := f.service.OnLoginRequested(ctx, ann.ID)
	req.NoError(err)
	req.Equal(3, taken.attempts)

	_, err = f.service.Login(ctx, code)
	req.NoError(err)

	taken.attempts, taken.collisions = 0, maxCodeAttempts
	_, err = f.service.OnLoginRequested(ctx, ann.ID)
	req.Error(err)
	req.False(errors.Is(err, ErrNotRegistered))
	req.Equal(maxCodeAttempts, taken.attempts)
}

func TestStarsOverlaysLiveSessions(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	req.NoError(f.store.UpsertStarState(ctx, store.StarState{UserID: ann.ID, StarColor: "#ffd700", StarShape: "star"}))
	req.NoError(f.store.UpsertStarState(ctx, store.StarState{UserID: 7, ActivityScore: 4}))

	_, err := f.service.OnStart(ctx, ann)
	req.NoError(err)

	stars, err := f.service.Stars(ctx)
	req.NoError(err)
	req.Len(stars, 2)

	live := stars[0]
	req.Equal(ann.ID, live.ID)
	req.Equal("ann", live.Username)
	req.True(live.Active)
	req.Equal(economy.PointsRegistration, live.ActivityScore)
	req.Equal("#ffd700", live.StarColor)
	req.Equal("star", live.StarShape)
	req.Equal("Ann is already in the sky", live.Info)

	idle := stars[1]
	req.Equal(int64(7), idle.ID)
	req.Equal("user_7", idle.Username)
	req.False(idle.Active)
	req.Equal(4.0, idle.ActivityScore)
	req.Equal(session.DefaultColor, idle.StarColor)
	req.Equal(session.DefaultShape, idle.StarShape)
	req.Equal("user_7 is already in the sky", idle.Info)

	_, cached := f.cache.Peek(7)
	req.False(cached)
}
