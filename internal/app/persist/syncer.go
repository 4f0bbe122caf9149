/*
Package persist writes session state to the durable store off the request path.

Every mutation enqueues a snapshot; one worker goroutine applies the writes in enqueue
order, so the store sees each user's states in the order they were committed in memory.
Failures are reported to a hook and never retried.
*/
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"starsky/internal/app/session"
	"starsky/internal/app/store"
	"starsky/internal/pkg/logx"
)

const (
	defaultQueueSize    = 1024
	defaultWriteTimeout = 5 * time.Second
)

var (
	// ErrQueueFull is reported when a write is dropped because the queue is full.
	ErrQueueFull = errors.New("persist: write queue full")

	// ErrClosed is reported when a write arrives after Shutdown.
	ErrClosed = errors.New("persist: syncer closed")
)

// Writer is the subset of the store the syncer writes to.
type Writer interface {
	UpsertIdentity(ctx context.Context, identity store.Identity) error
	UpsertStarState(ctx context.Context, state store.StarState) error
}

// FailureHook observes a write that did not reach the store.
type FailureHook func(op string, userID int64, err error)

// Option configures a Syncer.
type Option func(*Syncer)

// WithQueueSize sets the number of pending writes before new ones are dropped.
func WithQueueSize(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithWriteTimeout bounds a single store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithFailureHook adds a hook called after the built-in log line and counter.
func WithFailureHook(hook FailureHook) Option {
	return func(s *Syncer) {
		s.hook = hook
	}
}

type job struct {
	op     string
	userID int64
	run    func(ctx context.Context) error
}

// Syncer is the asynchronous, ordered writer of session snapshots.
type Syncer struct {
	writer       Writer
	queueSize    int
	writeTimeout time.Duration
	hook         FailureHook

	mu      sync.RWMutex
	queue   chan job
	closed  bool
	started bool
	done    chan struct{}

	failures atomic.Int64
	logger   zerolog.Logger
}

// NewSyncer creates a syncer writing to w. Call Start before use.
func NewSyncer(w Writer, opts ...Option) *Syncer {
	s := &Syncer{
		writer:       w,
		queueSize:    defaultQueueSize,
		writeTimeout: defaultWriteTimeout,
		done:         make(chan struct{}),
		logger:       logx.Component("persist"),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.queue = make(chan job, s.queueSize)
	return s
}

// Start launches the worker. It is a no-op when already started.
func (s *Syncer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	go s.run()
}

func (s *Syncer) run() {
	defer close(s.done)

	for j := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		err := j.run(ctx)
		cancel()

		if err != nil {
			s.fail(j.op, j.userID, err)
		}
	}
}

// SyncStarState queues a write of the score and cosmetic record.
func (s *Syncer) SyncStarState(sess session.Session) {
	state := store.StarState{
		UserID:        sess.UserID,
		ActivityScore: sess.ActivityScore,
		StarColor:     sess.StarColor,
		StarShape:     sess.StarShape,
		Info:          sess.Info,
		SkinsOwned:    append([]string{}, sess.OwnedSkins...),
	}

	s.enqueue(job{
		op:     "upsert_star_state",
		userID: sess.UserID,
		run: func(ctx context.Context) error {
			return s.writer.UpsertStarState(ctx, state)
		},
	})
}

// SyncIdentity queues a write of the identity record.
func (s *Syncer) SyncIdentity(sess session.Session) {
	identity := store.Identity{
		UserID:   sess.UserID,
		Username: sess.Username,
		Info:     sess.Info,
	}
	if !sess.LastActiveAt.IsZero() {
		lastSeen := sess.LastActiveAt
		identity.LastSeen = &lastSeen
	}

	s.enqueue(job{
		op:     "upsert_identity",
		userID: sess.UserID,
		run: func(ctx context.Context) error {
			return s.writer.UpsertIdentity(ctx, identity)
		},
	})
}

func (s *Syncer) enqueue(j job) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.fail(j.op, j.userID, ErrClosed)
		return
	}

	select {
	case s.queue <- j:
	default:
		s.fail(j.op, j.userID, ErrQueueFull)
	}
}

func (s *Syncer) fail(op string, userID int64, err error) {
	s.failures.Add(1)
	s.logger.Error().Err(err).Str("op", op).Int64("user_id", userID).Msg("Store write failed")

	if s.hook != nil {
		s.hook(op, userID, err)
	}
}

// Failures returns how many writes did not reach the store.
func (s *Syncer) Failures() int64 {
	return s.failures.Load()
}

// Pending returns the number of queued writes.
func (s *Syncer) Pending() int {
	return len(s.queue)
}

// Shutdown stops accepting writes and waits for the queued ones to finish.
func (s *Syncer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	close(s.queue)
	s.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("persist: shutdown interrupted with %d writes pending: %w", len(s.queue), ctx.Err())
	}
}
