package session

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"starsky/internal/app/store"
	"starsky/internal/app/user"
)

// Loader reads the durable records a session is hydrated from.
// Both methods return nil without an error when the user is unknown.
type Loader interface {
	LoadIdentity(ctx context.Context, userID int64) (*store.Identity, error)
	LoadStarState(ctx context.Context, userID int64) (*store.StarState, error)
}

type entry struct {
	mu      sync.Mutex
	session Session
}

// Cache is the process-wide session directory. Entries are never removed.
type Cache struct {
	loader Loader

	mu      sync.RWMutex
	entries map[int64]*entry

	loads singleflight.Group
}

// NewCache creates an empty cache hydrating from loader.
func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[int64]*entry),
	}
}

func (c *Cache) lookup(userID int64) *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[userID]
}

// get returns the entry for userID, hydrating it at most once. Concurrent first
// references share a single load; a failed load is not cached.
func (c *Cache) get(ctx context.Context, userID int64) (*entry, error) {
	if e := c.lookup(userID); e != nil {
		return e, nil
	}

	v, err, _ := c.loads.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		if e := c.lookup(userID); e != nil {
			return e, nil
		}

		s, err := c.hydrate(ctx, userID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		if e, ok := c.entries[userID]; ok {
			return e, nil
		}
		e := &entry{session: s}
		c.entries[userID] = e
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*entry), nil
}

func (c *Cache) hydrate(ctx context.Context, userID int64) (Session, error) {
	identity, err := c.loader.LoadIdentity(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("hydrate session %d: %w", userID, err)
	}

	star, err := c.loader.LoadStarState(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("hydrate session %d: %w", userID, err)
	}

	s := Session{
		UserID:     userID,
		Username:   user.DefaultUsername(userID),
		StarColor:  DefaultColor,
		StarShape:  DefaultShape,
		OwnedSkins: []string{},
	}

	if identity != nil {
		if identity.Username != "" {
			s.Username = identity.Username
		}
		s.Info = identity.Info
	}
	s.DisplayName = s.Username

	if star != nil {
		s.ActivityScore = max(star.ActivityScore, 0)
		if star.StarColor != "" {
			s.StarColor = star.StarColor
		}
		if star.StarShape != "" {
			s.StarShape = star.StarShape
		}
		if star.Info != "" {
			s.Info = star.Info
		}
		s.OwnedSkins = append(s.OwnedSkins, star.SkinsOwned...)
	}

	return s, nil
}

// Ensure returns the session for userID, hydrating it from the store on first use.
func (c *Cache) Ensure(ctx context.Context, userID int64) (Session, error) {
	e, err := c.get(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.clone(), nil
}

// Mutate applies fn to a copy of the session under the session's lock and commits the
// copy only if fn returns nil. It returns the session as it stands afterwards.
func (c *Cache) Mutate(ctx context.Context, userID int64, fn func(*Session) error) (Session, error) {
	return c.MutateThen(ctx, userID, fn, nil)
}

// MutateThen is Mutate with a callback run on the committed session before the lock is
// released, so whatever then queues for one user follows commit order. then must not block
// or touch the cache.
func (c *Cache) MutateThen(ctx context.Context, userID int64, fn func(*Session) error, then func(Session)) (Session, error) {
	e, err := c.get(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.session.clone()
	if err := fn(&draft); err != nil {
		return e.session.clone(), err
	}

	e.session = draft
	if then != nil {
		then(draft.clone())
	}
	return draft.clone(), nil
}

// MutateAll applies fn to every cached session, locking one session at a time.
func (c *Cache) MutateAll(fn func(*Session)) {
	c.mu.RLock()
	entries := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		fn(&e.session)
		e.mu.Unlock()
	}
}

// Peek returns the cached session without hydrating it.
func (c *Cache) Peek(userID int64) (Session, bool) {
	e := c.lookup(userID)
	if e == nil {
		return Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.clone(), true
}

// Len returns the number of cached sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of every cached session ordered by user id.
func (c *Cache) Snapshot() []Session {
	c.mu.RLock()
	entries := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	sessions := make([]Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		sessions = append(sessions, e.session.clone())
		e.mu.Unlock()
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].UserID < sessions[j].UserID })
	return sessions
}
