// Package sample provides a small debugger-like model for demonstrating the
// viewer: a session holds targets, targets hold threads, suspended threads
// hold stack frames and frames hold variables.
//
// Content and labels are served asynchronously through model/async on a
// jobs.Pool. The session also offers the other capabilities the viewer
// consumes: a name/value/type column presentation, element mementos, a
// selection policy that keeps a suspended thread's frame selected, a value
// editor for scalar variables and a model proxy that turns debug events
// (suspend, resume, step, thread start and exit, value edits) into deltas.
package sample
