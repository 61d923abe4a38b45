package viewer

import (
	"github.com/dshills/modelview/internal/delta"
)

// ModelChanged accepts a delta from any goroutine and applies it on the UI
// loop. It is the sink handed to installed model proxies.
func (v *Viewer) ModelChanged(d *delta.Delta) {
	if d == nil {
		return
	}
	if err := v.loop.Post(func() { v.ApplyDelta(d) }); err != nil {
		v.logger.Warn("delta dropped", "delta", d.Element(), "error", err)
	}
}

// ApplyDelta applies d in a new reconciliation pass. Results still pending
// from an earlier pass are dropped in favour of this one. Model changed
// listeners are notified once the synchronous part of the delta is applied.
func (v *Viewer) ApplyDelta(d *delta.Delta) {
	if v.disposed || d == nil {
		return
	}
	pass := v.beginPass(true, "delta")
	st := v.applier.Apply(pass, d)
	if v.metrics != nil {
		pass.OnIdle(func() {
			v.metrics.DeltaApplied(st.Visited, st.Added, st.Removed, st.Replaced, st.Skipped)
		})
	}
	pass.Close()
	v.logger.Debug("delta applied", "pass", pass.ID(), "visited", st.Visited, "skipped", st.Skipped)
	v.fireModelChanged(d)
}
