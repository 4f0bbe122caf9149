package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"starsky/internal/app/delivery"
	"starsky/internal/pkg/errs"
)

// flexID accepts an identifier sent either as a JSON number or as a numeric string.
// Anything else leaves it unset.
type flexID struct {
	value int64
	set   bool
}

func (f *flexID) UnmarshalJSON(data []byte) error {
	*f = flexID{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*f = flexID{value: v, set: true}
	}
	return nil
}

func (f flexID) ptr() *int64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

// flexBool reads a truthy value: true, a non-zero number, a non-empty array or object, or a
// string that parses as true (other non-empty strings count as true too). It never fails.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	*f = false

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case 'n', 'f':
		return nil
	case 't':
		*f = true
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if b, err := strconv.ParseBool(s); err == nil {
			*f = flexBool(b)
		} else {
			*f = s != ""
		}
	case '[':
		var v []json.RawMessage
		*f = json.Unmarshal(data, &v) == nil && len(v) > 0
	case '{':
		var v map[string]json.RawMessage
		*f = json.Unmarshal(data, &v) == nil && len(v) > 0
	default:
		if v, err := strconv.ParseFloat(string(data), 64); err == nil {
			*f = v != 0
		}
	}
	return nil
}

type inboundFrame struct {
	Type      string   `json:"type"`
	Mode      string   `json:"mode"`
	Text      string   `json:"text"`
	UserID    flexID   `json:"user_id"`
	ToID      flexID   `json:"to_id"`
	PartnerID flexID   `json:"partner_id"`
	Accepted  flexBool `json:"accepted"`
}

// HandleFrame decodes one frame from peer and dispatches it. authUserID, when set, is the
// user the socket authenticated as and overrides any user_id in the frame.
func (h *Hub) HandleFrame(ctx context.Context, peer delivery.Peer, authUserID *int64, raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.logger.Debug().Err(err).Str("peer_id", peer.ID()).Msg("Ignoring malformed chat frame")
		return
	}

	userID := frame.UserID.ptr()
	if authUserID != nil {
		if userID != nil && *userID != *authUserID {
			h.logger.Warn().Int64("claimed", *userID).Int64("authenticated", *authUserID).Msg("Frame user_id does not match socket identity")
		}
		userID = authUserID
	}

	if userID != nil {
		h.Bind(*userID, peer)
		if _, err := h.cache.Ensure(ctx, *userID); err != nil {
			h.logger.Error().Err(err).Int64("user_id", *userID).Msg("Failed to load chat user")
		}
	}

	switch frame.Type {
	case TypePrivateRequest:
		if userID != nil && frame.ToID.set {
			h.PrivateRequest(ctx, peer, *userID, frame.ToID.value)
		}

	case TypePrivateResponse:
		if userID != nil && frame.ToID.set {
			h.PrivateResponse(ctx, *userID, frame.ToID.value, bool(frame.Accepted))
		}

	case TypeMessage:
		h.handleMessage(ctx, peer, userID, frame)

	default:
		h.logger.Debug().Str("frame_type", frame.Type).Msg("Ignoring unsupported chat frame")
	}
}

func (h *Hub) handleMessage(ctx context.Context, peer delivery.Peer, userID *int64, frame inboundFrame) {
	text := strings.TrimSpace(frame.Text)
	if text == "" {
		return
	}

	if len(text) > MaxContentBytes {
		tooLong := errs.NewError(errs.ErrMessageTooLong)
		send(peer, errorFrame{Type: TypeError, Code: tooLong.Code, Reason: tooLong.Reason, Message: tooLong.Message})
		return
	}

	if userID == nil {
		h.notice(peer, MsgLoginRequired)
		return
	}

	if frame.Mode == ModePublic {
		if err := h.Public(ctx, *userID, text); err != nil {
			h.logger.Error().Err(err).Int64("user_id", *userID).Msg("Public message failed")
			h.notice(peer, MsgChatUnavailable)
		}
		return
	}

	h.PrivateMessage(ctx, peer, *userID, frame.PartnerID.ptr(), text)
}
