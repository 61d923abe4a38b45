// Package widget defines the abstract widget tree the viewer drives and an
// in-memory implementation of it.
//
// The viewer never talks to a toolkit directly. It mutates a Tree: items
// identified by never-reused ItemIDs, each carrying the model element it
// shows, one text and image per column, a has-children hint and an expanded
// flag. Children may be placeholders (no data) until the viewer materializes
// them. The Tree also owns the physical columns and reports user column moves,
// resizes, expansions and the first paint through listeners.
//
// Tree implementations are confined to the UI goroutine.
package widget
