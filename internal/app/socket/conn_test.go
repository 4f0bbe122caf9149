package socket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"starsky/internal/app/delivery"
)

// serve upgrades one connection and hands the wrapped Conn to the test.
func serve(t *testing.T) (*websocket.Conn, *Conn, chan []byte) {
	t.Helper()

	conns := make(chan *Conn, 1)
	inbound := make(chan []byte, 8)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewConn(ws, "test")
		conns <- c
		go c.WritePump()
		c.ReadPump(func(b []byte) { inbound <- b })
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case c := <-conns:
		return client, c, inbound
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
		return nil, nil, nil
	}
}

func TestConnRoundTrip(t *testing.T) {
	req := require.New(t)
	client, conn, inbound := serve(t)

	req.Equal(delivery.Delivered, conn.Send([]byte(`{"type":"ping"}`)))

	req.NoError(client.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, msg, err := client.ReadMessage()
	req.NoError(err)
	req.JSONEq(`{"type":"ping"}`, string(msg))

	req.NoError(client.WriteMessage(websocket.TextMessage, []byte(`hello`)))
	select {
	case got := <-inbound:
		req.Equal("hello", string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("inbound frame not delivered")
	}
}

func TestSendAfterCloseIsUnreachable(t *testing.T) {
	req := require.New(t)
	_, conn, _ := serve(t)

	conn.Close()
	conn.Close()

	req.Equal(delivery.PeerUnreachable, conn.Send([]byte(`{}`)))
	select {
	case <-conn.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestClientDisconnectClosesConn(t *testing.T) {
	client, conn, _ := serve(t)

	_ = client.Close()

	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("conn not closed after client went away")
	}
}
