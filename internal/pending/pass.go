package pending

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/modelview/internal/treepath"
)

// Pass orders the results of one reconciliation or refresh.
type Pass struct {
	c         *Coalescer
	id        uuid.UUID
	serial    uint64
	supersede bool
	started   time.Time

	next       int
	head       int
	slots      map[int]*slot
	flushing   bool
	closed     bool
	superseded bool
	finished   bool
	onIdle     []func()
}

type slot struct {
	ready    bool
	released bool
	path     treepath.Path
	entry    *entry
	run      func()
}

// ID returns the pass correlation id.
func (p *Pass) ID() uuid.UUID { return p.id }

// Serial returns the pass number, increasing per Coalescer.
func (p *Pass) Serial() uint64 { return p.serial }

// Superseded reports whether a later pass replaced this one.
func (p *Pass) Superseded() bool { return p.superseded }

// Idle reports whether the pass is closed and every slot has been flushed.
func (p *Pass) Idle() bool {
	return p.finished
}

// Pending returns the number of unflushed slots.
func (p *Pass) Pending() int {
	return p.next - p.head
}

// OnIdle registers fn to run once the pass goes idle or is superseded. If the
// pass already finished fn runs immediately.
func (p *Pass) OnIdle(fn func()) {
	if p.finished {
		fn()
		return
	}
	p.onIdle = append(p.onIdle, fn)
}

// Enqueue schedules step to run after every result issued before it.
// Steps of a superseded pass never run.
func (p *Pass) Enqueue(step func()) {
	if p.superseded || p.finished {
		return
	}
	seq := p.reserve(treepath.Empty)
	p.deliver(seq, nil, step)
}

// Close marks the end of synchronous issuing. The pass goes idle once every
// slot issued so far, and every slot issued by the steps it runs, has been
// flushed.
func (p *Pass) Close() {
	p.closed = true
	p.flush()
}

func (p *Pass) reserve(path treepath.Path) int {
	seq := p.next
	p.next++
	p.slots[seq] = &slot{path: path}
	return seq
}

func (p *Pass) deliver(seq int, e *entry, run func()) {
	s, ok := p.slots[seq]
	if !ok {
		return
	}
	s.ready = true
	s.entry = e
	s.run = run
	p.flush()
}

func (p *Pass) release(seq int) {
	if s, ok := p.slots[seq]; ok {
		s.ready = true
		s.released = true
		p.flush()
	}
}

// releasePath releases every unflushed slot whose path lies at or below
// prefix.
func (p *Pass) releasePath(prefix treepath.Path) int {
	n := 0
	for seq, s := range p.slots {
		if !s.released && !s.path.IsEmpty() && s.path.StartsWith(prefix) && seq >= p.head {
			s.ready = true
			s.released = true
			n++
		}
	}
	if n > 0 {
		p.flush()
	}
	return n
}

func (p *Pass) flush() {
	if p.flushing || p.finished {
		return
	}
	p.flushing = true
	defer func() { p.flushing = false }()

	for !p.superseded {
		s, ok := p.slots[p.head]
		if !ok || !s.ready {
			break
		}
		delete(p.slots, p.head)
		p.head++
		if s.released || s.run == nil || (s.entry != nil && s.entry.stale) {
			continue
		}
		s.run()
	}
	if p.closed && !p.superseded && p.head == p.next {
		p.finish()
	}
}

func (p *Pass) supersedeBy() {
	p.superseded = true
	clear(p.slots)
	p.finish()
}

func (p *Pass) finish() {
	if p.finished {
		return
	}
	p.finished = true
	p.c.passDone(p)
	hooks := p.onIdle
	p.onIdle = nil
	for _, fn := range hooks {
		fn()
	}
}
