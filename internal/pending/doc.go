// Package pending tracks in-flight update requests and orders their results.
//
// A Coalescer owns every request the viewer has dispatched and not yet seen
// complete. Requests for the same element path, kind and column set are
// merged: the first one is dispatched to the model, later ones only register
// as waiters. Results are grouped in passes. Each pass hands out sequence
// numbers in visitation order and applies results strictly in that order, so
// a model answering out of order can never reorder the widget tree.
//
// Starting a superseding pass discards the results the previous one still
// buffers and cancels the requests only it waits on: the last reconciliation
// pass wins. Invalidating a path marks every request at or below it stale and
// releases the sequence slots its waiters held, so a late completion is
// dropped and never stalls a pass.
//
// Everything in this package runs on the UI goroutine and takes no locks.
package pending
