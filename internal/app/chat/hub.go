/*
Package chat implements the site chat: a public room every socket listens to, plus
private one-to-one chats opened through a request/response handshake.

The Hub owns three relations under one lock: the set of connected sockets, the socket
each user is currently bound to (the last bind wins) and the symmetric private pairs.
Sends happen without blocking, so fan-out runs while the lock is held.
*/
package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"starsky/internal/app/delivery"
	"starsky/internal/app/economy"
	"starsky/internal/app/session"
	"starsky/internal/pkg/logx"
)

// ActivityRecorder credits points for chat posts.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, userID int64, amount float64, opts ...economy.ActivityOption) (session.Session, error)
}

// MessageLog is the durable public chat log.
type MessageLog interface {
	AppendPublicMessage(ctx context.Context, userID int64, username, text string) error
}

// Hub is the site chat state.
type Hub struct {
	cache    *session.Cache
	activity ActivityRecorder
	log      MessageLog

	mu           sync.Mutex
	clients      map[string]delivery.Peer
	userPeers    map[int64]delivery.Peer
	privatePairs map[int64]int64

	logger zerolog.Logger
}

// NewHub creates an empty site chat hub.
func NewHub(cache *session.Cache, activity ActivityRecorder, log MessageLog) *Hub {
	return &Hub{
		cache:        cache,
		activity:     activity,
		log:          log,
		clients:      make(map[string]delivery.Peer),
		userPeers:    make(map[int64]delivery.Peer),
		privatePairs: make(map[int64]int64),
		logger:       logx.Component("chat"),
	}
}

// Connect adds peer to the public room.
func (h *Hub) Connect(peer delivery.Peer) {
	h.mu.Lock()
	h.clients[peer.ID()] = peer
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Str("peer_id", peer.ID()).Int("clients", count).Msg("Chat socket connected")
}

// Bind makes peer the socket of userID, replacing any previous one.
func (h *Hub) Bind(userID int64, peer delivery.Peer) {
	h.mu.Lock()
	h.userPeers[userID] = peer
	h.mu.Unlock()
}

// Disconnect releases peer: it leaves the public room, every user bound to it is
// unbound and their private pairs are broken on both sides.
func (h *Hub) Disconnect(peer delivery.Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, peer.ID())

	for userID, bound := range h.userPeers {
		if bound.ID() != peer.ID() {
			continue
		}
		delete(h.userPeers, userID)
		h.breakPairLocked(userID)
	}
}

// PeerOf returns the socket userID is bound to.
func (h *Hub) PeerOf(userID int64) (delivery.Peer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	peer, ok := h.userPeers[userID]
	return peer, ok
}

// PrivatePartner returns the confirmed private partner of userID.
func (h *Hub) PrivatePartner(userID int64) (int64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	partnerID, ok := h.privatePairs[userID]
	return partnerID, ok
}

// Clients returns the number of sockets in the public room.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Public logs text, sends it to every socket in the public room (including the sender)
// and credits the author. A failed log write does not stop the message.
func (h *Hub) Public(ctx context.Context, userID int64, text string) error {
	s, err := h.cache.Ensure(ctx, userID)
	if err != nil {
		return err
	}

	if err := h.log.AppendPublicMessage(ctx, userID, s.Username, text); err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to append public message")
	}

	payload, err := json.Marshal(publicFrame{Type: TypePublic, Username: s.Username, Text: text})
	if err != nil {
		return err
	}

	h.mu.Lock()
	for id, peer := range h.clients {
		if peer.Send(payload) == delivery.PeerUnreachable {
			delete(h.clients, id)
		}
	}
	h.mu.Unlock()

	_, err = h.activity.RecordActivity(ctx, userID, economy.PointsPublicPost)
	return err
}

// PrivateRequest asks toID to open a private chat with fromID. Nothing is stored.
func (h *Hub) PrivateRequest(ctx context.Context, from delivery.Peer, fromID, toID int64) {
	target, ok := h.PeerOf(toID)
	if !ok {
		h.notice(from, MsgUserNotInChat)
		return
	}

	frame := privateRequestFrame{
		Type:         TypePrivateRequest,
		FromID:       fromID,
		FromUsername: h.usernameOf(fromID),
		ToID:         toID,
	}
	if send(target, frame) == delivery.PeerUnreachable {
		h.notice(from, MsgUserOffline)
	}
}

// PrivateResponse answers a request from toID. An accepted answer that reaches toID
// pairs the two users, dropping any pairs either had before.
func (h *Hub) PrivateResponse(ctx context.Context, fromID, toID int64, accepted bool) {
	target, ok := h.PeerOf(toID)
	if !ok {
		return
	}

	frame := privateResponseFrame{
		Type:         TypePrivateResponse,
		Accepted:     accepted,
		FromID:       fromID,
		FromUsername: h.usernameOf(fromID),
		ToID:         toID,
	}
	if send(target, frame) == delivery.PeerUnreachable || !accepted || fromID == toID {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// toID may have reconnected elsewhere while the answer was in flight.
	if current, ok := h.userPeers[toID]; !ok || current.ID() != target.ID() {
		return
	}

	h.breakPairLocked(fromID)
	h.breakPairLocked(toID)
	h.privatePairs[fromID] = toID
	h.privatePairs[toID] = fromID
}

// PrivateMessage sends text to the confirmed partner and credits the author.
// Every failure is reported to the sender as a system notice.
func (h *Hub) PrivateMessage(ctx context.Context, from delivery.Peer, userID int64, partnerID *int64, text string) {
	if partnerID == nil {
		h.notice(from, MsgNoPartnerSelected)
		return
	}

	s, err := h.cache.Ensure(ctx, userID)
	if err != nil {
		h.notice(from, MsgPartnerNotFound)
		return
	}
	if _, err := h.cache.Ensure(ctx, *partnerID); err != nil {
		h.notice(from, MsgPartnerNotFound)
		return
	}

	h.mu.Lock()
	confirmed, paired := h.privatePairs[userID]
	target, online := h.userPeers[*partnerID]
	h.mu.Unlock()

	if !paired || confirmed != *partnerID {
		h.notice(from, MsgPrivateNotConfirmed)
		return
	}
	if !online {
		h.notice(from, MsgPartnerOffline)
		return
	}

	frame := privateFrame{
		Type:     TypePrivate,
		FromID:   userID,
		ToID:     *partnerID,
		Username: s.Username,
		Text:     text,
	}
	if send(target, frame) == delivery.PeerUnreachable {
		h.notice(from, MsgPartnerOffline)
		return
	}

	if _, err := h.activity.RecordActivity(ctx, userID, economy.PointsPrivatePost); err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to credit private message")
	}
}

// breakPairLocked removes userID's private pair on both sides. h.mu must be held.
func (h *Hub) breakPairLocked(userID int64) {
	partnerID, ok := h.privatePairs[userID]
	if !ok {
		return
	}
	delete(h.privatePairs, userID)
	if h.privatePairs[partnerID] == userID {
		delete(h.privatePairs, partnerID)
	}
}

func (h *Hub) usernameOf(userID int64) string {
	if s, ok := h.cache.Peek(userID); ok {
		return s.Username
	}
	return fallbackUsername
}

func (h *Hub) notice(peer delivery.Peer, message string) {
	send(peer, systemFrame{Type: TypeSystem, Message: message})
}

func send(peer delivery.Peer, v any) delivery.Result {
	payload, err := json.Marshal(v)
	if err != nil {
		return delivery.PeerUnreachable
	}
	return peer.Send(payload)
}
