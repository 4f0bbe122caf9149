// Package delivery defines the outcome of pushing a payload to a single
// connected peer, shared by every component that talks to sockets or the bot.
package delivery

// Result is the outcome of a single send attempt.
type Result int

const (
	// Delivered means the payload was accepted by the peer's transport.
	Delivered Result = iota

	// PeerUnreachable means the peer is gone or cannot accept more data.
	PeerUnreachable
)

func (r Result) String() string {
	switch r {
	case Delivered:
		return "delivered"
	case PeerUnreachable:
		return "peer_unreachable"
	default:
		return "unknown"
	}
}

// Peer is a live connection that can receive serialized frames.
type Peer interface {
	// ID identifies the connection for logging and map keys.
	ID() string

	// Send hands payload to the transport without blocking.
	Send(payload []byte) Result
}
