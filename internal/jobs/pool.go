package jobs

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Job is a unit of model work.
type Job func(ctx context.Context) error

// PanicHandler is called with the recovered value and stack of a panicking
// job.
type PanicHandler func(name string, recovered any, stack []byte)

// Pool runs jobs on a fixed set of worker goroutines.
type Pool struct {
	queueSize   int
	workerCount int
	timeout     time.Duration
	logger      *slog.Logger

	mu      sync.Mutex // protects queue creation/destruction
	queue   chan task
	running atomic.Bool
	wg      sync.WaitGroup

	panicHandler PanicHandler

	submitted   atomic.Uint64
	processed   atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	dropped     atomic.Uint64
	timedOut    atomic.Uint64
	totalTimeNs atomic.Int64
}

type task struct {
	ctx     context.Context
	name    string
	job     Job
	timeout time.Duration
}

// New creates a pool. It must be started before jobs are submitted.
func New(opts ...Option) *Pool {
	p := &Pool{
		queueSize:   1024,
		workerCount: 4,
		timeout:     30 * time.Second,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.panicHandler == nil {
		p.panicHandler = func(name string, r any, stack []byte) {
			p.logger.Error("job panicked", "job", name, "panic", r, "stack", string(stack))
		}
	}
	return p
}

// Option configures a Pool.
type Option func(*Pool)

// WithQueueSize sets the job queue size.
func WithQueueSize(size int) Option {
	return func(p *Pool) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithWorkers sets the number of worker goroutines.
func WithWorkers(count int) Option {
	return func(p *Pool) {
		if count > 0 {
			p.workerCount = count
		}
	}
}

// WithTimeout sets the per-job timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pool) {
		p.timeout = timeout
	}
}

// WithPanicHandler sets the panic handler.
func WithPanicHandler(h PanicHandler) Option {
	return func(p *Pool) {
		p.panicHandler = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// Start starts the workers.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return ErrAlreadyRunning
	}

	p.queue = make(chan task, p.queueSize)
	p.running.Store(true)
	for range p.workerCount {
		p.wg.Add(1)
		go p.worker()
	}
	p.logger.Debug("pool started", "workers", p.workerCount, "queue", p.queueSize)
	return nil
}

// Stop stops accepting jobs and waits for queued jobs to finish or for ctx to
// be done.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running.Load() {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.running.Store(false)
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues a job. It never blocks: a full queue returns ErrQueueFull.
func (p *Pool) Submit(ctx context.Context, name string, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return ErrNotRunning
	}
	select {
	case p.queue <- task{ctx: ctx, name: name, job: job, timeout: p.timeout}:
		p.submitted.Add(1)
		return nil
	default:
		p.dropped.Add(1)
		return ErrQueueFull
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.queue {
		p.run(t)
	}
}

func (p *Pool) run(t task) {
	p.processed.Add(1)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			stack := debug.Stack()
			func() {
				defer func() { _ = recover() }()
				p.panicHandler(t.name, r, stack)
			}()
		}
		p.totalTimeNs.Add(time.Since(start).Nanoseconds())
	}()

	if t.ctx.Err() != nil {
		p.failed.Add(1)
		return
	}

	ctx := t.ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	switch err := t.job(ctx); {
	case err == nil:
		p.succeeded.Add(1)
	case errors.Is(err, context.DeadlineExceeded):
		p.timedOut.Add(1)
		p.failed.Add(1)
	default:
		p.failed.Add(1)
		p.logger.Debug("job failed", "job", t.name, "error", err)
	}
}

// IsRunning reports whether the pool accepts jobs.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// QueueDepth returns the number of queued jobs.
func (p *Pool) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running.Load() {
		return 0
	}
	return len(p.queue)
}

// Stats contains pool statistics.
type Stats struct {
	Submitted     uint64
	Processed     uint64
	Succeeded     uint64
	Failed        uint64
	Panicked      uint64
	Dropped       uint64
	TimedOut      uint64
	QueueDepth    int
	TotalDuration time.Duration
	AvgDuration   time.Duration
}

// Stats returns pool statistics.
func (p *Pool) Stats() Stats {
	processed := p.processed.Load()
	totalNs := p.totalTimeNs.Load()

	var avgNs int64
	if processed > 0 {
		avgNs = totalNs / int64(processed)
	}

	return Stats{
		Submitted:     p.submitted.Load(),
		Processed:     processed,
		Succeeded:     p.succeeded.Load(),
		Failed:        p.failed.Load(),
		Panicked:      p.panicked.Load(),
		Dropped:       p.dropped.Load(),
		TimedOut:      p.timedOut.Load(),
		QueueDepth:    p.QueueDepth(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
	}
}
