// Package uiloop marshals work onto the single UI goroutine.
//
// Every widget mutation and every pending-request bookkeeping step runs on
// the UI goroutine. Other goroutines Post closures which the loop executes in
// FIFO order, either on its own goroutine after Start or on the owner's
// goroutine through Drain (the terminal front end drains between screen
// events, tests drain explicitly).
package uiloop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Sentinel errors for the loop.
var (
	ErrAlreadyRunning = errors.New("loop is already running")
	ErrNotRunning     = errors.New("loop is not running")
	ErrQueueFull      = errors.New("loop queue is full")
	ErrStopped        = errors.New("loop is stopped")
)

// Loop is a FIFO of closures executed one at a time.
type Loop struct {
	capacity int
	logger   *slog.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool
	ready   chan struct{}

	running atomic.Bool
	done    chan struct{}
	quit    chan struct{}

	posted   atomic.Uint64
	executed atomic.Uint64
	panicked atomic.Uint64
	dropped  atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithCapacity bounds the number of queued closures.
func WithCapacity(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithLogger sets the logger used to report panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		capacity: 1 << 16,
		logger:   slog.New(slog.DiscardHandler),
		ready:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn. It never blocks.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	if len(l.queue) >= l.capacity {
		l.mu.Unlock()
		l.dropped.Add(1)
		return ErrQueueFull
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	l.posted.Add(1)
	select {
	case l.ready <- struct{}{}:
	default:
	}
	return nil
}

// Ready is signalled whenever work is posted. Owners that drain the loop
// themselves select on it.
func (l *Loop) Ready() <-chan struct{} {
	return l.ready
}

// Drain runs every queued closure, including ones posted while draining, on
// the calling goroutine. It returns the number executed.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			l.exec(fn)
			n++
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panicked.Add(1)
			l.logger.Error("ui task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
	l.executed.Add(1)
}

// Start runs the loop on its own goroutine.
func (l *Loop) Start() error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	l.done = make(chan struct{})
	l.quit = make(chan struct{})
	go l.run()
	return nil
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.ready:
			l.Drain()
		case <-l.quit:
			l.Drain()
			return
		}
	}
}

// Stop refuses further posts, runs what is queued and waits for the loop
// goroutine to exit or for ctx to be done.
func (l *Loop) Stop(ctx context.Context) error {
	if !l.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	close(l.quit)

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loop runs on its own goroutine.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Call runs fn on the UI goroutine and waits for it. When the loop is not
// running, queued work is drained and fn runs on the calling goroutine.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	if !l.running.Load() {
		l.Drain()
		l.exec(fn)
		return nil
	}
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of queued closures.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Stats contains loop statistics.
type Stats struct {
	Posted   uint64
	Executed uint64
	Panicked uint64
	Dropped  uint64
	Queued   int
}

// Stats returns loop statistics.
func (l *Loop) Stats() Stats {
	return Stats{
		Posted:   l.posted.Load(),
		Executed: l.executed.Load(),
		Panicked: l.panicked.Load(),
		Dropped:  l.dropped.Load(),
		Queued:   l.Len(),
	}
}
