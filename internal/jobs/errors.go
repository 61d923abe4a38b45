package jobs

import "errors"

// Sentinel errors for the jobs package.
var (
	// ErrAlreadyRunning is returned when Start is called on a running pool.
	ErrAlreadyRunning = errors.New("pool is already running")

	// ErrNotRunning is returned when jobs are submitted to a stopped pool.
	ErrNotRunning = errors.New("pool is not running")

	// ErrQueueFull is returned when the queue cannot accept more jobs.
	ErrQueueFull = errors.New("job queue is full")
)
