package viewer

import (
	"slices"

	"github.com/dshills/modelview/internal/delta"
	"github.com/dshills/modelview/internal/request"
)

// UpdateListener observes request activity. UpdatesBegin and
// UpdatesComplete bracket a period with at least one unfinished pass.
type UpdateListener interface {
	UpdatesBegin()
	UpdatesComplete()
	UpdateStarted(u request.Update)
	// UpdateComplete is called for every completion, including failed and
	// discarded ones.
	UpdateComplete(u request.Update)
}

// ModelChangedListener is notified after a delta was applied.
type ModelChangedListener interface {
	ModelChanged(d *delta.Delta)
}

// UpdateFuncs is an UpdateListener built from optional functions.
type UpdateFuncs struct {
	OnBegin    func()
	OnComplete func()
	OnStarted  func(u request.Update)
	OnDone     func(u request.Update)
}

func (f *UpdateFuncs) UpdatesBegin() {
	if f.OnBegin != nil {
		f.OnBegin()
	}
}

func (f *UpdateFuncs) UpdatesComplete() {
	if f.OnComplete != nil {
		f.OnComplete()
	}
}

func (f *UpdateFuncs) UpdateStarted(u request.Update) {
	if f.OnStarted != nil {
		f.OnStarted(u)
	}
}

func (f *UpdateFuncs) UpdateComplete(u request.Update) {
	if f.OnDone != nil {
		f.OnDone(u)
	}
}

// ModelChangedFunc adapts a function to ModelChangedListener.
type ModelChangedFunc func(d *delta.Delta)

// ModelChanged calls f(d).
func (f ModelChangedFunc) ModelChanged(d *delta.Delta) { f(d) }

// AddViewerUpdateListener registers l.
func (v *Viewer) AddViewerUpdateListener(l UpdateListener) {
	v.updateListeners = append(v.updateListeners, l)
}

// RemoveViewerUpdateListener unregisters l.
func (v *Viewer) RemoveViewerUpdateListener(l UpdateListener) {
	v.updateListeners = slices.DeleteFunc(v.updateListeners, func(x UpdateListener) bool { return x == l })
}

// AddModelChangedListener registers l.
func (v *Viewer) AddModelChangedListener(l ModelChangedListener) {
	v.modelListeners = append(v.modelListeners, l)
}

// RemoveModelChangedListener unregisters l. A ModelChangedFunc cannot be
// compared and is never removed.
func (v *Viewer) RemoveModelChangedListener(l ModelChangedListener) {
	v.modelListeners = slices.DeleteFunc(v.modelListeners, func(x ModelChangedListener) bool {
		return sameListener(x, l)
	})
}

func sameListener(a, b ModelChangedListener) bool {
	_, fa := a.(ModelChangedFunc)
	_, fb := b.(ModelChangedFunc)
	if fa || fb {
		return false
	}
	return a == b
}

func (v *Viewer) fireBegin() {
	for _, l := range slices.Clone(v.updateListeners) {
		l.UpdatesBegin()
	}
}

func (v *Viewer) fireEnd() {
	for _, l := range slices.Clone(v.updateListeners) {
		l.UpdatesComplete()
	}
}

func (v *Viewer) fireStarted(u request.Update) {
	for _, l := range slices.Clone(v.updateListeners) {
		l.UpdateStarted(u)
	}
}

func (v *Viewer) fireComplete(u request.Update) {
	for _, l := range slices.Clone(v.updateListeners) {
		l.UpdateComplete(u)
	}
}

func (v *Viewer) fireModelChanged(d *delta.Delta) {
	for _, l := range slices.Clone(v.modelListeners) {
		l.ModelChanged(d)
	}
}
