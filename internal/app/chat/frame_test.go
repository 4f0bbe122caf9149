package chat

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"starsky/internal/app/delivery/deliverytest"
	"starsky/internal/pkg/errs"
)

func TestFlexIDDecoding(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want *int64
	}{
		"number":         {`{"user_id": 42}`, ptr(42)},
		"numeric string": {`{"user_id": " 42 "}`, ptr(42)},
		"null":           {`{"user_id": null}`, nil},
		"missing":        {`{}`, nil},
		"garbage string": {`{"user_id": "abc"}`, nil},
		"float":          {`{"user_id": 4.2}`, nil},
		"object":         {`{"user_id": {}}`, nil},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var frame inboundFrame
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &frame))
			require.Equal(t, tc.want, frame.UserID.ptr())
		})
	}
}

func ptr(v int64) *int64 { return &v }

func TestFlexBoolDecoding(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want bool
	}{
		"true":           {`{"accepted": true}`, true},
		"false":          {`{"accepted": false}`, false},
		"one":            {`{"accepted": 1}`, true},
		"zero":           {`{"accepted": 0}`, false},
		"string true":    {`{"accepted": "true"}`, true},
		"string false":   {`{"accepted": "false"}`, false},
		"string yes":     {`{"accepted": "yes"}`, true},
		"empty string":   {`{"accepted": ""}`, false},
		"null":           {`{"accepted": null}`, false},
		"missing":        {`{}`, false},
		"empty object":   {`{"accepted": {}}`, false},
		"non-empty list": {`{"accepted": [1]}`, true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var frame inboundFrame
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &frame))
			require.Equal(t, tc.want, bool(frame.Accepted))
		})
	}
}

func TestHandleFramePublicMessage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	peer := deliverytest.NewPeer()
	f.hub.Connect(peer)

	f.hub.HandleFrame(ctx, peer, nil, []byte(`{"type":"message","mode":"public","text":"  hi  ","user_id":"42"}`))

	req.Equal(map[string]any{"type": "public", "username": "user_42", "text": "hi"}, peer.Last())
	bound, ok := f.hub.PeerOf(42)
	req.True(ok)
	req.Equal(peer.ID(), bound.ID())
}

func TestHandleFrameRequiresUser(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	peer := deliverytest.NewPeer()
	f.hub.Connect(peer)

	f.hub.HandleFrame(context.Background(), peer, nil, []byte(`{"type":"message","mode":"public","text":"hi"}`))
	req.Equal(MsgLoginRequired, peer.Last()["message"])

	f.hub.HandleFrame(context.Background(), peer, nil, []byte(`{"type":"message","mode":"public","text":"   "}`))
	req.Len(peer.Frames(), 1)
}

func TestHandleFrameRejectsLongMessage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	peer := deliverytest.NewPeer()
	f.hub.Connect(peer)

	raw, err := json.Marshal(map[string]any{
		"type": "message", "mode": "public", "user_id": 1, "text": strings.Repeat("x", MaxContentBytes+1),
	})
	req.NoError(err)

	f.hub.HandleFrame(context.Background(), peer, nil, raw)

	last := peer.Last()
	req.Equal(TypeError, last["type"])
	req.Equal(float64(errs.ErrMessageTooLong), last["code"])
	req.Equal("too_long", last["reason"])
}

func TestHandleFrameAuthenticatedUserOverridesFrame(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	peer := deliverytest.NewPeer()
	f.hub.Connect(peer)

	auth := int64(7)
	f.hub.HandleFrame(context.Background(), peer, &auth, []byte(`{"type":"message","mode":"public","text":"hi","user_id":99}`))

	req.Equal("user_7", peer.Last()["username"])
	_, bound := f.hub.PeerOf(99)
	req.False(bound)
}

func TestHandleFramePrivateHandshake(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	alice, bob := deliverytest.NewPeer(), deliverytest.NewPeer()
	f.hub.Connect(alice)
	f.hub.Connect(bob)
	f.hub.HandleFrame(ctx, bob, nil, []byte(`{"type":"hello","user_id":2}`))

	f.hub.HandleFrame(ctx, alice, nil, []byte(`{"type":"private_request","user_id":1,"to_id":"2"}`))
	req.Equal(TypePrivateRequest, bob.Last()["type"])

	f.hub.HandleFrame(ctx, bob, nil, []byte(`{"type":"private_response","user_id":2,"to_id":1,"accepted":true}`))
	req.Equal(TypePrivateResponse, alice.Last()["type"])
	req.Equal(true, alice.Last()["accepted"])

	f.hub.HandleFrame(ctx, alice, nil, []byte(`{"type":"message","text":"psst","user_id":1,"partner_id":2}`))
	req.Equal("psst", bob.Last()["text"])
}

func TestHandleFrameIgnoresMalformedJSON(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	peer := deliverytest.NewPeer()
	f.hub.Connect(peer)
	f.hub.HandleFrame(context.Background(), peer, nil, []byte(`not json`))

	req.Empty(peer.Frames())
}

func TestHandleFramePrivateResponseAcceptsTruthyValues(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	alice, bob := deliverytest.NewPeer(), deliverytest.NewPeer()
	f.hub.Connect(alice)
	f.hub.Connect(bob)
	f.hub.HandleFrame(ctx, alice, nil, []byte(`{"type":"hello","user_id":1}`))
	f.hub.HandleFrame(ctx, bob, nil, []byte(`{"type":"hello","user_id":2}`))

	f.hub.HandleFrame(ctx, bob, nil, []byte(`{"type":"private_response","user_id":2,"to_id":1,"accepted":"true"}`))
	req.Equal(TypePrivateResponse, alice.Last()["type"])
	req.Equal(true, alice.Last()["accepted"])

	partner, ok := f.hub.PrivatePartner(1)
	req.True(ok)
	req.Equal(int64(2), partner)
}
