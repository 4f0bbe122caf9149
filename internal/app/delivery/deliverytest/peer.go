// Package deliverytest provides an in-memory delivery.Peer for tests.
package deliverytest

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"starsky/internal/app/delivery"
)

var nextID atomic.Int64

// Peer records every payload it accepts.
type Peer struct {
	id string

	mu          sync.Mutex
	frames      [][]byte
	unreachable bool
}

// NewPeer returns a reachable peer with a unique id.
func NewPeer() *Peer {
	return &Peer{id: fmt.Sprintf("peer-%d", nextID.Add(1))}
}

func (p *Peer) ID() string { return p.id }

func (p *Peer) Send(payload []byte) delivery.Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unreachable {
		return delivery.PeerUnreachable
	}
	p.frames = append(p.frames, append([]byte(nil), payload...))
	return delivery.Delivered
}

// SetUnreachable makes every following Send fail.
func (p *Peer) SetUnreachable() {
	p.mu.Lock()
	p.unreachable = true
	p.mu.Unlock()
}

// Frames returns a copy of the accepted payloads.
func (p *Peer) Frames() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.frames...)
}

// Decoded unmarshals every accepted payload into a generic map.
func (p *Peer) Decoded() []map[string]any {
	frames := p.Frames()
	out := make([]map[string]any, 0, len(frames))
	for _, f := range frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent decoded frame, or nil.
func (p *Peer) Last() map[string]any {
	decoded := p.Decoded()
	if len(decoded) == 0 {
		return nil
	}
	return decoded[len(decoded)-1]
}
