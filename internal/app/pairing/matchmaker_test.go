package pairing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"starsky/internal/app/delivery"
)

type note struct {
	userID int64
	text   string
}

type fakeNotifier struct {
	mu          sync.Mutex
	notes       []note
	unreachable map[int64]bool
}

func newNotifier() *fakeNotifier {
	return &fakeNotifier{unreachable: make(map[int64]bool)}
}

func (f *fakeNotifier) Notify(_ context.Context, userID int64, text string) delivery.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unreachable[userID] {
		return delivery.PeerUnreachable
	}
	f.notes = append(f.notes, note{userID, text})
	return delivery.Delivered
}

func (f *fakeNotifier) sent() []note {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]note(nil), f.notes...)
}

// assertExclusive checks that no user is both waiting and paired and that edges are symmetric.
func assertExclusive(t *testing.T, m *Matchmaker) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	for a, b := range m.pairs {
		require.Equal(t, a, m.pairs[b], "edge %d->%d is not symmetric", a, b)
		if m.waiting != nil {
			require.NotEqual(t, *m.waiting, a)
		}
	}
}

func TestFindStopScenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	n := newNotifier()
	m := NewMatchmaker(n)

	const a, b int64 = 1, 2

	req.Equal(Queued, m.FindPartner(ctx, a))
	waiting, ok := m.Waiting()
	req.True(ok)
	req.Equal(a, waiting)
	_, paired := m.PartnerOf(a)
	req.False(paired)
	assertExclusive(t, m)

	req.Equal(Paired, m.FindPartner(ctx, b))
	_, ok = m.Waiting()
	req.False(ok)
	partner, _ := m.PartnerOf(a)
	req.Equal(b, partner)
	partner, _ = m.PartnerOf(b)
	req.Equal(a, partner)
	req.Equal([]note{{a, MsgPartnerFound}}, n.sent())
	assertExclusive(t, m)

	req.Equal(Ended, m.Stop(ctx, b))
	_, paired = m.PartnerOf(a)
	req.False(paired)
	_, paired = m.PartnerOf(b)
	req.False(paired)
	req.Equal(note{a, MsgPartnerLeft}, n.sent()[1])
}

func TestFindPartnerIdempotentStates(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m := NewMatchmaker(newNotifier())

	req.Equal(Queued, m.FindPartner(ctx, 1))
	req.Equal(AlreadyQueued, m.FindPartner(ctx, 1))
	req.Equal(Paired, m.FindPartner(ctx, 2))
	req.Equal(AlreadyPaired, m.FindPartner(ctx, 1))
	req.Equal(AlreadyPaired, m.FindPartner(ctx, 2))

	req.Equal(Queued, m.FindPartner(ctx, 3))
	assertExclusive(t, m)
}

func TestFindPartnerUnreachableBreaksEdge(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	n := newNotifier()
	n.unreachable[1] = true
	m := NewMatchmaker(n)

	req.Equal(Queued, m.FindPartner(ctx, 1))
	req.Equal(PartnerUnreachable, m.FindPartner(ctx, 2))

	_, paired := m.PartnerOf(1)
	req.False(paired)
	_, paired = m.PartnerOf(2)
	req.False(paired)
	_, waiting := m.Waiting()
	req.False(waiting)
}

func TestStopWhileQueuedAndIdle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	n := newNotifier()
	m := NewMatchmaker(n)

	req.Equal(NotChatting, m.Stop(ctx, 1))
	req.Equal(Queued, m.FindPartner(ctx, 1))
	req.Equal(LeftQueue, m.Stop(ctx, 1))
	_, waiting := m.Waiting()
	req.False(waiting)
	req.Empty(n.sent())
}

func TestStopSwallowsNotifyFailure(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	n := newNotifier()
	m := NewMatchmaker(n)

	m.FindPartner(ctx, 1)
	m.FindPartner(ctx, 2)
	n.unreachable[1] = true

	req.Equal(Ended, m.Stop(ctx, 2))
	_, paired := m.PartnerOf(1)
	req.False(paired)
}

func TestRelay(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	n := newNotifier()
	m := NewMatchmaker(n)

	req.Equal(NotPaired, m.Relay(ctx, 1, "hello"))

	m.FindPartner(ctx, 1)
	m.FindPartner(ctx, 2)

	req.Equal(Relayed, m.Relay(ctx, 2, "hello"))
	req.Equal(note{1, "💬 Partner: hello"}, n.sent()[len(n.sent())-1])

	n.unreachable[1] = true
	req.Equal(DialogEnded, m.Relay(ctx, 2, "are you there?"))
	_, paired := m.PartnerOf(2)
	req.False(paired)
}

func TestConcurrentFindKeepsInvariants(t *testing.T) {
	ctx := context.Background()
	m := NewMatchmaker(newNotifier())

	var wg sync.WaitGroup
	for id := int64(1); id <= 50; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.FindPartner(ctx, id)
			if id%3 == 0 {
				m.Stop(ctx, id)
			}
		}()
	}
	wg.Wait()

	assertExclusive(t, m)
}
