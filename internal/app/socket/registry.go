package socket

import (
	"context"
	"sync"
)

// Registry tracks live connections so shutdown can close them. http.Server.Shutdown does not
// wait for hijacked connections, so their handlers are counted here instead.
type Registry struct {
	mu     sync.Mutex
	conns  map[*Conn]struct{}
	closed bool

	handlers sync.WaitGroup
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[*Conn]struct{})}
}

// Track registers c for the lifetime of its handler. It returns false after CloseAll, in
// which case the caller must close c and return. Every successful Track needs a Release.
func (r *Registry) Track(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	r.conns[c] = struct{}{}
	r.handlers.Add(1)
	return true
}

// Release marks the handler of c as finished.
func (r *Registry) Release(c *Conn) {
	r.mu.Lock()
	_, ok := r.conns[c]
	delete(r.conns, c)
	r.mu.Unlock()

	if ok {
		r.handlers.Done()
	}
}

// Len returns the number of tracked connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// CloseAll closes every tracked connection, refuses new ones and waits until their handlers
// have released them or ctx ends.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	conns := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	finished := make(chan struct{})
	go func() {
		r.handlers.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
