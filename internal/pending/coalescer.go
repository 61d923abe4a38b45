package pending

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/modelview/internal/request"
	"github.com/dshills/modelview/internal/treepath"
)

// ApplyFunc consumes a completed request on the UI goroutine. Failed
// requests are delivered too, with Err set.
type ApplyFunc func(u request.Update)

// Observer is notified of coalescer activity.
type Observer interface {
	Issued(kind request.Kind)
	Coalesced(kind request.Kind)
	Completed(kind request.Kind, failed bool)
	// Discarded is called for completions that were stale, superseded or
	// unknown.
	Discarded(kind request.Kind)
	// Duplicated is called for terminal calls made on a request that had
	// already completed.
	Duplicated(kind request.Kind)
	PassDone(superseded bool, elapsed time.Duration)
}

type key struct {
	path    uint64
	kind    request.Kind
	columns string
}

type entry struct {
	key     key
	update  request.Update
	epoch   uint64
	waiters []waiter
	stale   bool
}

type waiter struct {
	pass  *Pass
	seq   int
	apply ApplyFunc
}

// Coalescer tracks in-flight requests.
type Coalescer struct {
	live     map[key][]*entry
	byID     map[uuid.UUID]*entry
	passes   map[*Pass]struct{}
	current  *Pass
	serial   uint64
	epoch    uint64
	dups     int
	observer Observer
}

// New creates a coalescer. The observer may be nil.
func New(observer Observer) *Coalescer {
	return &Coalescer{
		live:     make(map[key][]*entry),
		byID:     make(map[uuid.UUID]*entry),
		passes:   make(map[*Pass]struct{}),
		observer: observer,
	}
}

// BeginPass starts a pass. A superseding pass becomes the current
// reconciliation pass and supersedes the previous one.
func (c *Coalescer) BeginPass(supersede bool) *Pass {
	c.serial++
	p := &Pass{
		c:         c,
		id:        uuid.New(),
		serial:    c.serial,
		supersede: supersede,
		started:   time.Now(),
		slots:     make(map[int]*slot),
	}
	c.passes[p] = struct{}{}
	if supersede {
		if prev := c.current; prev != nil && !prev.finished {
			c.supersede(prev)
		}
		c.current = p
		c.epoch = p.serial
	}
	return p
}

// Current returns the current reconciliation pass, or nil.
func (c *Coalescer) Current() *Pass {
	if c.current == nil || c.current.finished {
		return nil
	}
	return c.current
}

// Epoch returns the serial of the latest superseding pass. A superseding
// pass follows a model change, so requests issued in an earlier epoch may
// answer from the model as it was before.
func (c *Coalescer) Epoch() uint64 {
	return c.epoch
}

func (c *Coalescer) supersede(p *Pass) {
	for k, entries := range c.live {
		kept := entries[:0]
		for _, e := range entries {
			e.dropWaiters(p)
			if len(e.waiters) == 0 {
				c.markStale(e)
				continue
			}
			kept = append(kept, e)
		}
		c.setLive(k, kept)
	}
	p.supersedeBy()
}

func (e *entry) dropWaiters(p *Pass) {
	kept := e.waiters[:0]
	for _, w := range e.waiters {
		if w.pass != p {
			kept = append(kept, w)
		}
	}
	e.waiters = kept
}

func (c *Coalescer) setLive(k key, entries []*entry) {
	if len(entries) == 0 {
		delete(c.live, k)
		return
	}
	c.live[k] = entries
}

func (c *Coalescer) markStale(e *entry) {
	e.stale = true
	e.update.Cancel()
	for _, w := range e.waiters {
		w.pass.release(w.seq)
	}
	e.waiters = nil
}

func keyOf(u request.Update) key {
	k := key{path: u.Path().Hash(), kind: u.Kind()}
	if lu, ok := u.(*request.LabelUpdate); ok {
		k.columns = strings.Join(lu.Columns(), "\x1f")
	}
	return k
}

func coalescable(kind request.Kind) bool {
	switch kind {
	case request.KindChildren, request.KindChildCount, request.KindHasChildren, request.KindLabel:
		return true
	}
	return false
}

// Issue registers u in pass p and reports whether the caller must dispatch
// it to the model. When an equal request issued in the same epoch is already
// in flight u is merged into it: apply will receive the in-flight request
// once it completes. Requests issued into a finished pass are ignored.
func (c *Coalescer) Issue(p *Pass, u request.Update, apply ApplyFunc) bool {
	if p.finished {
		u.Cancel()
		return false
	}
	seq := p.reserve(u.Path())
	w := waiter{pass: p, seq: seq, apply: apply}
	k := keyOf(u)

	if coalescable(u.Kind()) {
		for _, e := range c.live[k] {
			if !e.stale && e.epoch == c.epoch && e.update.Path().Equals(u.Path()) {
				e.waiters = append(e.waiters, w)
				if c.observer != nil {
					c.observer.Coalesced(u.Kind())
				}
				return false
			}
		}
	}

	e := &entry{key: k, update: u, epoch: c.epoch, waiters: []waiter{w}}
	c.live[k] = append(c.live[k], e)
	c.byID[u.ID()] = e
	if c.observer != nil {
		c.observer.Issued(u.Kind())
	}
	return true
}

// Complete delivers a completed request to its waiters. It must run on the
// UI goroutine. Completions of unknown, stale or fully superseded requests
// are discarded and reported false.
func (c *Coalescer) Complete(u request.Update) bool {
	e, ok := c.byID[u.ID()]
	if !ok {
		c.discarded(u)
		return false
	}
	delete(c.byID, u.ID())
	c.removeLive(e)

	if e.stale || len(e.waiters) == 0 {
		c.discarded(u)
		return false
	}
	if c.observer != nil {
		c.observer.Completed(u.Kind(), u.Err() != nil)
	}
	waiters := e.waiters
	e.waiters = nil
	for _, w := range waiters {
		apply := w.apply
		w.pass.deliver(w.seq, e, func() { apply(u) })
	}
	return true
}

// Duplicated records a terminal call made on u after it had completed. It
// must run on the UI goroutine.
func (c *Coalescer) Duplicated(u request.Update) {
	c.dups++
	if c.observer != nil {
		c.observer.Duplicated(u.Kind())
	}
}

// Duplicates returns the number of duplicate terminal calls recorded.
func (c *Coalescer) Duplicates() int {
	return c.dups
}

func (c *Coalescer) discarded(u request.Update) {
	if c.observer != nil {
		c.observer.Discarded(u.Kind())
	}
}

func (c *Coalescer) removeLive(e *entry) {
	entries := c.live[e.key]
	kept := entries[:0]
	for _, x := range entries {
		if x != e {
			kept = append(kept, x)
		}
	}
	c.setLive(e.key, kept)
}

// Invalidate marks every request at or below path stale and cancels it. The
// sequence slots of its waiters, and any buffered result at or below path,
// are released. It returns the number of requests invalidated.
func (c *Coalescer) Invalidate(path treepath.Path) int {
	var stale []*entry
	for k, entries := range c.live {
		var kept []*entry
		for _, e := range entries {
			if e.update.Path().StartsWith(path) {
				stale = append(stale, e)
				continue
			}
			kept = append(kept, e)
		}
		c.setLive(k, kept)
	}
	// Releasing slots may flush results that issue new requests, so the
	// live table is settled first.
	for _, e := range stale {
		c.markStale(e)
	}
	for p := range c.passes {
		p.releasePath(path)
	}
	return len(stale)
}

// Pending returns the number of live requests at or below path.
func (c *Coalescer) Pending(path treepath.Path) int {
	n := 0
	for _, entries := range c.live {
		for _, e := range entries {
			if e.update.Path().StartsWith(path) {
				n++
			}
		}
	}
	return n
}

// Len returns the number of live requests.
func (c *Coalescer) Len() int {
	n := 0
	for _, entries := range c.live {
		n += len(entries)
	}
	return n
}

// Passes returns the number of passes that have not finished.
func (c *Coalescer) Passes() int {
	return len(c.passes)
}

// Reset cancels every request and supersedes every pass.
func (c *Coalescer) Reset() {
	for _, entries := range c.live {
		for _, e := range entries {
			e.stale = true
			e.waiters = nil
			e.update.Cancel()
		}
	}
	clear(c.live)
	clear(c.byID)
	for p := range c.passes {
		p.supersedeBy()
	}
	c.current = nil
}

func (c *Coalescer) passDone(p *Pass) {
	delete(c.passes, p)
	if c.observer != nil {
		c.observer.PassDone(p.superseded, time.Since(p.started))
	}
}
