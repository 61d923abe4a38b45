package sample

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/dshills/modelview/internal/delta"
)

// AddTarget adds a target with no threads. Installed proxies receive an
// ADDED delta.
func (s *Session) AddTarget(name string) *Target {
	s.mu.Lock()
	t := &Target{session: s, Name: name}
	s.targets = append(s.targets, t)
	index := len(s.targets) - 1
	s.mu.Unlock()

	root := delta.New(s, delta.NoChange)
	root.AddNodeAt(t, index, delta.Added, 0)
	s.emit(root)
	return t
}

// StartThread starts a running thread in t.
func (s *Session) StartThread(t *Target, name string) *Thread {
	th := s.addThread(t, name)

	s.mu.RLock()
	index := slices.Index(t.threads, th)
	s.mu.RUnlock()

	root, td := s.targetDelta(t)
	td.AddNodeAt(th, index, delta.Added|delta.Reveal, 0)
	s.emit(root)
	return th
}

func (s *Session) addThread(t *Target, name string) *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	th := &Thread{target: t, ID: s.nextID, Name: name}
	t.threads = append(t.threads, th)
	return th
}

// ExitThread removes th from its target.
func (s *Session) ExitThread(th *Thread) {
	s.mu.Lock()
	t := th.target
	index := slices.Index(t.threads, th)
	if index < 0 {
		s.mu.Unlock()
		return
	}
	t.threads = append(t.threads[:index:index], t.threads[index+1:]...)
	s.mu.Unlock()

	root, td := s.targetDelta(t)
	td.AddNodeAt(th, index, delta.Removed, 0)
	s.emit(root)
}

// Suspend suspends th. Its stack is revealed and the top frame selected.
func (s *Session) Suspend(th *Thread) {
	s.mu.Lock()
	if th.suspended {
		s.mu.Unlock()
		return
	}
	th.suspend()
	top := th.frames[0]
	nvars := len(top.vars)
	s.mu.Unlock()

	root, thd := s.threadDelta(th, delta.Content|delta.State|delta.Expand)
	thd.AddNodeAt(top, 0, delta.Select|delta.Reveal, nvars)
	s.emit(root)
}

// Resume resumes th, discarding its stack.
func (s *Session) Resume(th *Thread) {
	s.mu.Lock()
	if !th.suspended {
		s.mu.Unlock()
		return
	}
	th.suspended = false
	th.frames = nil
	s.mu.Unlock()

	root, _ := s.threadDelta(th, delta.Content|delta.State)
	s.emit(root)
}

// Step advances th by one line. The top frame is relabelled, its variables
// refreshed and selected.
func (s *Session) Step(th *Thread) error {
	s.mu.Lock()
	if !th.suspended || len(th.frames) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotSuspended, th.Name)
	}
	top := th.frames[0]
	top.line++
	for _, v := range top.vars {
		if v.Name == "i" {
			n, _ := strconv.Atoi(v.value)
			v.value = strconv.Itoa(n + 1)
		}
	}
	nvars := len(top.vars)
	s.mu.Unlock()

	root, thd := s.threadDelta(th, delta.NoChange)
	thd.AddNodeAt(top, 0, delta.State|delta.Content|delta.Select|delta.Reveal, nvars)
	s.emit(root)
	return nil
}

// SetValue changes the value of a scalar variable.
func (s *Session) SetValue(v *Variable, value string) error {
	s.mu.Lock()
	if len(v.fields) > 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotEditable, v.Name)
	}
	v.value = value
	s.mu.Unlock()

	root, vd := s.variableDelta(v)
	vd.SetFlags(vd.Flags() | delta.State)
	s.emit(root)
	return nil
}

// Simulate produces random debug events every interval until ctx is done.
func (s *Session) Simulate(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	started := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		var threads []*Thread
		targets := s.Targets()
		for _, t := range targets {
			threads = append(threads, t.Threads()...)
		}
		if len(threads) == 0 {
			continue
		}
		th := threads[rand.IntN(len(threads))]

		switch n := rand.IntN(10); {
		case n < 4 && th.Suspended():
			_ = s.Step(th)
		case n < 6:
			if th.Suspended() {
				s.Resume(th)
			} else {
				s.Suspend(th)
			}
		case n < 7 && len(threads) < 8:
			started++
			s.StartThread(targets[rand.IntN(len(targets))], "spawned-"+strconv.Itoa(started))
		case n < 8 && len(threads) > 2 && !th.Suspended():
			s.ExitThread(th)
		default:
			continue
		}
		s.logger.Debug("simulated event", slog.String("thread", th.Name))
	}
}

// suspend builds the stack of a newly suspended thread. The caller holds
// the session lock.
func (th *Thread) suspend() {
	th.suspended = true
	top := &Frame{thread: th, Function: th.Name + ".step", line: 10 + th.ID}
	top.vars = []*Variable{
		{parent: top, Name: "i", Type: "int", value: "0"},
		{parent: top, Name: "name", Type: "string", value: strconv.Quote(th.Name)},
	}
	cfg := &Variable{parent: top, Name: "cfg", Type: "*Config", value: "{...}"}
	cfg.fields = []*Variable{
		{parent: cfg, Name: "Workers", Type: "int", value: "4"},
		{parent: cfg, Name: "Verbose", Type: "bool", value: "false"},
	}
	top.vars = append(top.vars, cfg)

	run := &Frame{thread: th, Function: th.Name + ".run", line: 42}
	run.vars = []*Variable{{parent: run, Name: "n", Type: "int", value: "3"}}

	th.frames = []*Frame{top, run, {thread: th, Function: "runtime.goexit", line: 1}}
}

func (s *Session) targetDelta(t *Target) (root, td *delta.Delta) {
	s.mu.RLock()
	index := slices.Index(s.targets, t)
	count := len(t.threads)
	s.mu.RUnlock()

	root = delta.New(s, delta.NoChange)
	return root, root.AddNodeAt(t, index, delta.NoChange, count)
}

func (s *Session) threadDelta(th *Thread, flags delta.Flags) (root, thd *delta.Delta) {
	root, td := s.targetDelta(th.target)

	s.mu.RLock()
	index := slices.Index(th.target.threads, th)
	count := len(th.frames)
	s.mu.RUnlock()

	return root, td.AddNodeAt(th, index, flags, count)
}

func (s *Session) variableDelta(v *Variable) (root, vd *delta.Delta) {
	f := v.frame()
	root, thd := s.threadDelta(f.thread, delta.NoChange)

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Path from the frame down to v.
	var chain []*Variable
	for p := v; ; {
		chain = append([]*Variable{p}, chain...)
		parent, ok := p.parent.(*Variable)
		if !ok {
			break
		}
		p = parent
	}

	vd = thd.AddNodeAt(f, slices.Index(f.thread.frames, f), delta.NoChange, len(f.vars))
	siblings := f.vars
	for _, p := range chain {
		vd = vd.AddNodeAt(p, slices.Index(siblings, p), delta.NoChange, len(p.fields))
		siblings = p.fields
	}
	return root, vd
}
