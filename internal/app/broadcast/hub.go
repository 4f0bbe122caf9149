/*
Package broadcast fans state-change events out to passive observers such as the sky page.

Publishing is best-effort: a subscriber whose peer is unreachable is dropped and the
publisher never sees an error.
*/
package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"starsky/internal/app/delivery"
	"starsky/internal/pkg/logx"
	"starsky/internal/pkg/randx"
)

// Handle identifies one subscription.
type Handle string

// Hub is the set of current subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[Handle]delivery.Peer
	logger      zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[Handle]delivery.Peer),
		logger:      logx.Component("broadcast"),
	}
}

// Subscribe adds peer and returns its handle.
func (h *Hub) Subscribe(peer delivery.Peer) Handle {
	handle := Handle(randx.ConnectionID())

	h.mu.Lock()
	h.subscribers[handle] = peer
	h.mu.Unlock()

	return handle
}

// Unsubscribe removes the subscription. Unknown handles are ignored.
func (h *Hub) Unsubscribe(handle Handle) {
	h.mu.Lock()
	delete(h.subscribers, handle)
	h.mu.Unlock()
}

// Publish serializes event once and delivers it to every subscriber, dropping the
// unreachable ones. It returns the number of successful deliveries.
// The lock is held for the whole pass so each subscriber sees events in publish order.
func (h *Hub) Publish(event any) int {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal broadcast event")
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for handle, peer := range h.subscribers {
		if peer.Send(payload) == delivery.PeerUnreachable {
			delete(h.subscribers, handle)
			h.logger.Debug().Str("peer_id", peer.ID()).Msg("Dropped unreachable subscriber")
			continue
		}
		delivered++
	}

	return delivered
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
