package sample

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/dshills/modelview/internal/jobs"
	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/model/async"
	"github.com/dshills/modelview/internal/model/capability"
)

// Column ids of the variables presentation.
const (
	ColumnName  = "name"
	ColumnValue = "value"
	ColumnType  = "type"
)

// Session is the root of the model and the viewer input.
type Session struct {
	mu      sync.RWMutex
	targets []*Target
	nextID  int

	caps   *capability.Table
	logger *slog.Logger

	sinkMu sync.Mutex
	sinks  map[*proxy]model.DeltaSink
}

// Target is a debugged program.
type Target struct {
	session *Session
	Name    string
	threads []*Thread
}

// Thread is a thread of a target. Only suspended threads have frames.
type Thread struct {
	target    *Target
	ID        int
	Name      string
	suspended bool
	frames    []*Frame
}

// Frame is a stack frame of a suspended thread.
type Frame struct {
	thread   *Thread
	Function string
	line     int
	vars     []*Variable
}

// Variable is a named value. Structured variables have fields.
type Variable struct {
	parent any
	Name   string
	Type   string
	value  string
	fields []*Variable
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates an empty session whose content and label requests run
// on pool.
func NewSession(pool *jobs.Pool, opts ...Option) *Session {
	s := &Session{
		caps:   capability.NewTable(),
		logger: slog.New(slog.DiscardHandler),
		sinks:  make(map[*proxy]model.DeltaSink),
	}
	for _, opt := range opts {
		opt(s)
	}
	adapter := async.New(s, pool, async.WithLogger(s.logger))
	capability.Register[model.ContentProvider](s.caps, model.ContentKey, adapter)
	capability.Register[model.LabelProvider](s.caps, model.LabelKey, adapter)
	capability.Register[model.MementoProvider](s.caps, model.MementoKey, s)
	capability.Register[model.ColumnPresentationFactory](s.caps, model.ColumnFactoryKey, s)
	capability.Register[model.SelectionPolicyFactory](s.caps, model.SelectionPolicyKey, s)
	capability.Register[model.ColumnEditorFactory](s.caps, model.ColumnEditorFactoryKey, s)
	capability.Register[model.ModelProxyFactory](s.caps, model.ModelProxyKey, s)
	return s
}

// NewDemo creates a session with two targets, some running and some
// suspended threads.
func NewDemo(pool *jobs.Pool, opts ...Option) *Session {
	s := NewSession(pool, opts...)
	app := s.AddTarget("app")
	main := s.addThread(app, "main")
	s.addThread(app, "worker-1")
	s.addThread(app, "worker-2")
	srv := s.AddTarget("server")
	accept := s.addThread(srv, "accept")

	s.mu.Lock()
	main.suspend()
	accept.suspend()
	s.mu.Unlock()
	return s
}

// Capabilities returns the capability table shared by all elements.
func (s *Session) Capabilities() *capability.Table { return s.caps }

func (t *Target) Capabilities() *capability.Table   { return t.session.caps }
func (th *Thread) Capabilities() *capability.Table  { return th.target.session.caps }
func (f *Frame) Capabilities() *capability.Table    { return f.thread.target.session.caps }
func (v *Variable) Capabilities() *capability.Table { return v.frame().thread.target.session.caps }

// Targets returns the targets.
func (s *Session) Targets() []*Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.targets)
}

// Threads returns the threads of t.
func (t *Target) Threads() []*Thread {
	t.session.mu.RLock()
	defer t.session.mu.RUnlock()
	return slices.Clone(t.threads)
}

// Target returns the owning target.
func (th *Thread) Target() *Target { return th.target }

// Suspended reports whether the thread is suspended.
func (th *Thread) Suspended() bool {
	th.target.session.mu.RLock()
	defer th.target.session.mu.RUnlock()
	return th.suspended
}

// Frames returns the stack of a suspended thread, top first.
func (th *Thread) Frames() []*Frame {
	th.target.session.mu.RLock()
	defer th.target.session.mu.RUnlock()
	return slices.Clone(th.frames)
}

// Thread returns the owning thread.
func (f *Frame) Thread() *Thread { return f.thread }

// Line returns the current line.
func (f *Frame) Line() int {
	f.thread.target.session.mu.RLock()
	defer f.thread.target.session.mu.RUnlock()
	return f.line
}

// Variables returns the frame's local variables.
func (f *Frame) Variables() []*Variable {
	f.thread.target.session.mu.RLock()
	defer f.thread.target.session.mu.RUnlock()
	return slices.Clone(f.vars)
}

// Value returns the current value.
func (v *Variable) Value() string {
	s := v.frame().thread.target.session
	s.mu.RLock()
	defer s.mu.RUnlock()
	return v.value
}

// Fields returns the fields of a structured variable.
func (v *Variable) Fields() []*Variable {
	s := v.frame().thread.target.session
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(v.fields)
}

// Structured reports whether the variable has fields.
func (v *Variable) Structured() bool { return len(v.fields) > 0 }

func (v *Variable) frame() *Frame {
	switch p := v.parent.(type) {
	case *Frame:
		return p
	case *Variable:
		return p.frame()
	}
	panic(fmt.Sprintf("variable %s has no frame", v.Name))
}

// Children implements async.Source.
func (s *Session) Children(ctx context.Context, element any) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch e := element.(type) {
	case *Session:
		return toAny(e.targets), nil
	case *Target:
		return toAny(e.threads), nil
	case *Thread:
		return toAny(e.frames), nil
	case *Frame:
		return toAny(e.vars), nil
	case *Variable:
		return toAny(e.fields), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownElement, element)
}

// Label implements async.Labeler. Without columns only the name is
// produced.
func (s *Session) Label(ctx context.Context, element any, columns []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, value, typ := s.describe(element)
	if len(columns) == 0 {
		if value != "" {
			return []string{name + " = " + value}, nil
		}
		return []string{name}, nil
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		switch c {
		case ColumnName:
			out[i] = name
		case ColumnValue:
			out[i] = value
		case ColumnType:
			out[i] = typ
		}
	}
	return out, nil
}

// describe returns the name, value and type texts of element. The caller
// holds s.mu.
func (s *Session) describe(element any) (name, value, typ string) {
	switch e := element.(type) {
	case *Target:
		return e.Name, "", "target"
	case *Thread:
		state := "running"
		if e.suspended {
			state = "suspended"
		}
		return fmt.Sprintf("Thread [%d] %s (%s)", e.ID, e.Name, state), "", "thread"
	case *Frame:
		return e.Function + ":" + strconv.Itoa(e.line), "", "frame"
	case *Variable:
		return e.Name, e.value, e.Type
	}
	return fmt.Sprint(element), "", ""
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

var _ async.Labeler = (*Session)(nil)
