// Package selection decides whether an incoming selection may replace the
// current one.
package selection

import (
	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/presentation"
)

// Arbiter consults the selection policy of the currently selected element.
// Policies are created per decision and never retained.
type Arbiter struct {
	ctx *presentation.Context
}

// NewArbiter creates an arbiter for a presentation context.
func NewArbiter(ctx *presentation.Context) *Arbiter {
	return &Arbiter{ctx: ctx}
}

// Overrides reports whether candidate should replace current. Without a
// policy on current's first element the candidate always wins. A policy that
// contains the candidate decides directly; otherwise a sticky current
// selection is kept.
func (a *Arbiter) Overrides(current, candidate model.Selection) bool {
	policy := a.policy(current)
	if policy == nil {
		return true
	}
	if policy.Contains(candidate, a.ctx) {
		return policy.Overrides(current, candidate, a.ctx)
	}
	return !policy.IsSticky(current, a.ctx)
}

func (a *Arbiter) policy(current model.Selection) model.SelectionPolicy {
	first := current.First()
	if first == nil {
		return nil
	}
	f, ok := model.SelectionPolicies(first)
	if !ok {
		return nil
	}
	return f.CreateSelectionPolicy(first, a.ctx)
}
