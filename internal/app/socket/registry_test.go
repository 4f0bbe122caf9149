package socket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistryCloseAllWaitsForRelease(t *testing.T) {
	req := require.New(t)
	client, conn, _ := serve(t)
	reg := NewRegistry()

	req.True(reg.Track(conn))
	req.Equal(1, reg.Len())

	released := make(chan struct{})
	go func() {
		<-conn.Done()
		reg.Release(conn)
		close(released)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req.NoError(reg.CloseAll(ctx))

	select {
	case <-released:
	default:
		t.Fatal("CloseAll returned before the handler released its connection")
	}
	req.Zero(reg.Len())

	req.NoError(client.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := client.ReadMessage()
	req.Error(err)

	_, late, _ := serve(t)
	req.False(reg.Track(late))
}

func TestRegistryCloseAllGivesUpWithContext(t *testing.T) {
	req := require.New(t)
	_, conn, _ := serve(t)
	reg := NewRegistry()

	req.True(reg.Track(conn))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req.ErrorIs(reg.CloseAll(ctx), context.DeadlineExceeded)

	reg.Release(conn)
	reg.Release(conn)
	req.Zero(reg.Len())
}
