package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"starsky/internal/app/store"
)

// countingLoader wraps a memory store and counts identity loads.
type countingLoader struct {
	*store.Memory
	loads atomic.Int32
	gate  chan struct{}
	fail  error
}

func (l *countingLoader) LoadIdentity(ctx context.Context, userID int64) (*store.Identity, error) {
	l.loads.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	if l.fail != nil {
		return nil, l.fail
	}
	return l.Memory.LoadIdentity(ctx, userID)
}

func newLoader() *countingLoader {
	return &countingLoader{Memory: store.NewMemory()}
}

func TestEnsureSynthesizesDefaults(t *testing.T) {
	req := require.New(t)
	cache := NewCache(newLoader())

	s, err := cache.Ensure(context.Background(), 42)
	req.NoError(err)

	req.Equal(int64(42), s.UserID)
	req.Equal("user_42", s.Username)
	req.Equal("user_42", s.DisplayName)
	req.Zero(s.ActivityScore)
	req.Equal(DefaultColor, s.StarColor)
	req.Equal(DefaultShape, s.StarShape)
	req.Empty(s.OwnedSkins)
	req.Empty(s.Info)
	req.False(s.IsActive(time.Now()))
}

func TestEnsureHydratesWithInfoPrecedence(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	loader := newLoader()

	req.NoError(loader.UpsertIdentity(ctx, store.Identity{UserID: 7, Username: "seven", Info: "identity bio"}))
	req.NoError(loader.UpsertStarState(ctx, store.StarState{
		UserID: 7, ActivityScore: 12.5, StarColor: "#facc15", SkinsOwned: []string{"gold_color"},
	}))

	cache := NewCache(loader)
	s, err := cache.Ensure(ctx, 7)
	req.NoError(err)
	req.Equal("seven", s.Username)
	req.Equal(12.5, s.ActivityScore)
	req.Equal("#facc15", s.StarColor)
	req.Equal(DefaultShape, s.StarShape)
	req.Equal([]string{"gold_color"}, s.OwnedSkins)
	req.Equal("identity bio", s.Info)

	req.NoError(loader.UpsertStarState(ctx, store.StarState{UserID: 8, Info: "star bio"}))
	req.NoError(loader.UpsertIdentity(ctx, store.Identity{UserID: 8, Info: "identity bio"}))
	s, err = cache.Ensure(ctx, 8)
	req.NoError(err)
	req.Equal("star bio", s.Info)
}

func TestEnsureLoadsOncePerUser(t *testing.T) {
	req := require.New(t)
	loader := newLoader()
	loader.gate = make(chan struct{})
	cache := NewCache(loader)

	var wg sync.WaitGroup
	errCh := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Ensure(context.Background(), 1)
			errCh <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(loader.gate)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		req.NoError(err)
	}

	_, err := cache.Ensure(context.Background(), 1)
	req.NoError(err)
	req.Equal(int32(1), loader.loads.Load())
	req.Equal(1, cache.Len())
}

func TestEnsureDoesNotCacheStoreErrors(t *testing.T) {
	req := require.New(t)
	loader := newLoader()
	loader.fail = errors.New("connection refused")
	cache := NewCache(loader)

	_, err := cache.Ensure(context.Background(), 3)
	req.Error(err)
	req.Zero(cache.Len())

	loader.fail = nil
	_, err = cache.Ensure(context.Background(), 3)
	req.NoError(err)
	req.Equal(int32(2), loader.loads.Load())
}

func TestMutateCommitsOnlyOnSuccess(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cache := NewCache(newLoader())

	s, err := cache.Mutate(ctx, 1, func(s *Session) error {
		s.ActivityScore = 10
		s.OwnedSkins = append(s.OwnedSkins, "gold_color")
		return nil
	})
	req.NoError(err)
	req.Equal(10.0, s.ActivityScore)

	boom := errors.New("rejected")
	s, err = cache.Mutate(ctx, 1, func(s *Session) error {
		s.ActivityScore = 0
		s.OwnedSkins[0] = "tampered"
		return boom
	})
	req.ErrorIs(err, boom)
	req.Equal(10.0, s.ActivityScore)

	got, ok := cache.Peek(1)
	req.True(ok)
	req.Equal(10.0, got.ActivityScore)
	req.Equal([]string{"gold_color"}, got.OwnedSkins)
}

func TestPeekDoesNotHydrate(t *testing.T) {
	req := require.New(t)
	loader := newLoader()
	cache := NewCache(loader)

	_, ok := cache.Peek(5)
	req.False(ok)
	req.Zero(loader.loads.Load())
}

func TestMutateAllAndSnapshot(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cache := NewCache(newLoader())

	for _, id := range []int64{3, 1, 2} {
		_, err := cache.Mutate(ctx, id, func(s *Session) error {
			s.ActivityScore = float64(id)
			return nil
		})
		req.NoError(err)
	}

	cache.MutateAll(func(s *Session) { s.ActivityScore = max(s.ActivityScore-1.5, 0) })

	snapshot := cache.Snapshot()
	req.Len(snapshot, 3)
	req.Equal([]int64{1, 2, 3}, []int64{snapshot[0].UserID, snapshot[1].UserID, snapshot[2].UserID})
	req.Equal([]float64{0, 0.5, 1.5}, []float64{snapshot[0].ActivityScore, snapshot[1].ActivityScore, snapshot[2].ActivityScore})
}

func TestIsActiveWindow(t *testing.T) {
	req := require.New(t)
	now := time.Now()

	req.True(Session{LastActiveAt: now.Add(-59 * time.Second)}.IsActive(now))
	req.True(Session{LastActiveAt: now.Add(-60 * time.Second)}.IsActive(now))
	req.False(Session{LastActiveAt: now.Add(-61 * time.Second)}.IsActive(now))
	req.False(Session{}.IsActive(now))
}

func TestMutateThenRunsOnlyAfterCommit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	cache := NewCache(newLoader())

	var seen []float64
	record := func(s Session) { seen = append(seen, s.ActivityScore) }

	_, err := cache.MutateThen(ctx, 1, func(s *Session) error {
		s.ActivityScore = 4
		return nil
	}, record)
	req.NoError(err)

	_, err = cache.MutateThen(ctx, 1, func(s *Session) error {
		s.ActivityScore = 99
		return errors.New("rejected")
	}, record)
	req.Error(err)

	req.Equal([]float64{4}, seen)
}
