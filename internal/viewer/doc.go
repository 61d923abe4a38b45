// Package viewer ties the reconciliation engine together behind one facade.
//
// A Viewer shows a model input in a widget.Tree. It fetches content and
// labels through update requests, coalesces them, applies their results in
// order and reconciles model deltas against the tree. It also owns the
// column layout, the selection policy checks, cell editing and state
// persistence.
//
// Threading: every method runs on the UI goroutine, the goroutine that drains
// the viewer's uiloop.Loop. The exception is ModelChanged, which model
// proxies call from any goroutine. Model capabilities may complete requests
// on any goroutine; completions are posted back to the loop before any
// widget is touched.
//
// Basic usage:
//
//	loop := uiloop.New()
//	tree := widget.NewMemory(80)
//	v := viewer.New(tree, presentation.NewContext("variables"), viewer.WithLoop(loop))
//	v.SetInput(root)
//	loop.Drain()
package viewer
