package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Memory is an in-process Store. Used by tests and STORE_DRIVER=memory.
type Memory struct {
	mu sync.Mutex

	identities map[int64]Identity
	stars      map[int64]StarState
	codes      map[string]int64
	messages   []PublicMessage

	now func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		identities: make(map[int64]Identity),
		stars:      make(map[int64]StarState),
		codes:      make(map[string]int64),
		now:        time.Now,
	}
}

func (m *Memory) LoadIdentity(_ context.Context, userID int64) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, ok := m.identities[userID]
	if !ok {
		return nil, nil
	}
	return &identity, nil
}

func (m *Memory) LoadStarState(_ context.Context, userID int64) (*StarState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.stars[userID]
	if !ok {
		return nil, nil
	}
	state.SkinsOwned = slices.Clone(state.SkinsOwned)
	return &state, nil
}

func (m *Memory) UpsertIdentity(_ context.Context, identity Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if identity.LastSeen == nil {
		if prev, ok := m.identities[identity.UserID]; ok {
			identity.LastSeen = prev.LastSeen
		}
	}
	m.identities[identity.UserID] = identity
	return nil
}

func (m *Memory) UpsertStarState(_ context.Context, state StarState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state.SkinsOwned = slices.Clone(state.SkinsOwned)
	m.stars[state.UserID] = state
	return nil
}

func (m *Memory) AppendPublicMessage(_ context.Context, userID int64, username, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, PublicMessage{
		UserID:    userID,
		Username:  username,
		Text:      text,
		CreatedAt: m.now(),
	})
	return nil
}

func (m *Memory) ListPublicMessages(_ context.Context, limit int) ([]PublicMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := max(len(m.messages)-max(limit, 0), 0)
	return slices.Clone(m.messages[start:]), nil
}

func (m *Memory) IssueLoginCode(_ context.Context, userID int64, code *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.identities[userID]; !ok {
		return ErrNotFound
	}

	if code != nil {
		if owner, taken := m.codes[*code]; taken && owner != userID {
			return ErrCodeTaken
		}
	}

	for c, owner := range m.codes {
		if owner == userID {
			delete(m.codes, c)
		}
	}

	if code != nil {
		m.codes[*code] = userID
	}
	return nil
}

func (m *Memory) ResolveLoginCode(_ context.Context, code string) (*LoginRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.codes[code]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.codes, code)

	return &LoginRecord{UserID: userID, Username: m.identities[userID].Username}, nil
}

func (m *Memory) ListStars(_ context.Context) ([]StarRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := lo.MapToSlice(m.stars, func(id int64, state StarState) StarRecord {
		state.SkinsOwned = slices.Clone(state.SkinsOwned)
		identity := m.identities[id]
		return StarRecord{StarState: state, Username: identity.Username, IdentityInfo: identity.Info}
	})
	sort.Slice(records, func(i, j int) bool { return records[i].UserID < records[j].UserID })

	return records, nil
}
