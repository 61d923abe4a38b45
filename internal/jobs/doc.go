// Package jobs provides the worker pool that plays the model thread.
//
// Model capabilities that fetch content or labels synchronously run on a Pool
// so the UI thread never blocks on them. The pool has a bounded queue, a fixed
// number of workers, a per-job timeout and panic recovery; a panicking job is
// counted and reported, never allowed to take the process down.
package jobs
