package sample

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/dshills/modelview/internal/delta"
	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/request"
)

// PresentationID is the id of the variables column presentation.
const PresentationID = "sample.variables"

// Memento attribute holding an element's stable key.
const keyAttr = "key"

// key returns a key identifying element across model rebuilds: frames are
// identified by function, other elements by name.
func (s *Session) key(element any) string {
	switch e := element.(type) {
	case *Target:
		return "target:" + e.Name
	case *Thread:
		return "thread:" + strconv.Itoa(e.ID)
	case *Frame:
		return "frame:" + e.Function
	case *Variable:
		return "var:" + e.Name
	}
	return ""
}

// Encode implements model.MementoProvider.
func (s *Session) Encode(u *request.MementoUpdate) {
	k := s.key(u.Element())
	if k == "" {
		u.Fail(fmt.Errorf("%w: %T", ErrUnknownElement, u.Element()))
		return
	}
	u.Memento().PutString(keyAttr, k)
	u.Done()
}

// Compare implements model.MementoProvider.
func (s *Session) Compare(u *request.CompareUpdate) {
	saved, _ := u.Memento().GetString(keyAttr)
	u.SetEqual(saved != "" && saved == s.key(u.Element()))
	u.Done()
}

// PresentationID implements model.ColumnPresentationFactory.
func (s *Session) PresentationID(*presentation.Context, any) string { return PresentationID }

// CreatePresentation implements model.ColumnPresentationFactory.
func (s *Session) CreatePresentation(*presentation.Context, any) model.ColumnPresentation {
	return &variablesPresentation{}
}

type variablesPresentation struct {
	ctx *presentation.Context
}

var headers = map[string]string{
	ColumnName:  "Name",
	ColumnValue: "Value",
	ColumnType:  "Type",
}

func (p *variablesPresentation) ID() string                     { return PresentationID }
func (p *variablesPresentation) Init(ctx *presentation.Context) { p.ctx = ctx }
func (p *variablesPresentation) Dispose()                       { p.ctx = nil }
func (p *variablesPresentation) AvailableColumns() []string     { return []string{ColumnName, ColumnValue, ColumnType} }
func (p *variablesPresentation) InitialColumns() []string       { return []string{ColumnName, ColumnValue} }
func (p *variablesPresentation) Header(id string) string        { return headers[id] }
func (p *variablesPresentation) Image(string) string            { return "" }
func (p *variablesPresentation) Optional() bool                 { return true }

// CreateSelectionPolicy implements model.SelectionPolicyFactory for frames
// and threads.
func (s *Session) CreateSelectionPolicy(element any, _ *presentation.Context) model.SelectionPolicy {
	switch e := element.(type) {
	case *Frame:
		return &threadPolicy{session: s, thread: e.thread}
	case *Thread:
		return &threadPolicy{session: s, thread: e}
	}
	return nil
}

// threadPolicy keeps a frame of a suspended thread selected. Within the same
// target an element of another suspended thread replaces it; nothing from
// another target does.
type threadPolicy struct {
	session *Session
	thread  *Thread
}

func (p *threadPolicy) IsSticky(current model.Selection, _ *presentation.Context) bool {
	return p.thread.Suspended()
}

func (p *threadPolicy) Contains(candidate model.Selection, _ *presentation.Context) bool {
	th := p.session.threadOf(candidate.First())
	return th != nil && th.target == p.thread.target
}

func (p *threadPolicy) Overrides(current, candidate model.Selection, _ *presentation.Context) bool {
	th := p.session.threadOf(candidate.First())
	return th != nil && th.Suspended()
}

func (s *Session) threadOf(element any) *Thread {
	switch e := element.(type) {
	case *Thread:
		return e
	case *Frame:
		return e.thread
	case *Variable:
		return e.frame().thread
	}
	return nil
}

// EditorID implements model.ColumnEditorFactory.
func (s *Session) EditorID(*presentation.Context, any) string { return "sample.values" }

// CreateEditor implements model.ColumnEditorFactory.
func (s *Session) CreateEditor(*presentation.Context, any) model.ColumnEditor {
	return &valueEditor{session: s}
}

// valueEditor edits the value column of scalar variables.
type valueEditor struct {
	session *Session
}

func (e *valueEditor) ID() string                 { return "sample.values" }
func (e *valueEditor) Init(*presentation.Context) {}
func (e *valueEditor) Dispose()                   {}

func (e *valueEditor) CanModify(element any, column string) bool {
	v, ok := element.(*Variable)
	return ok && column == ColumnValue && !v.Structured()
}

func (e *valueEditor) Value(element any, column string) any {
	if v, ok := element.(*Variable); ok && column == ColumnValue {
		return v.Value()
	}
	return nil
}

func (e *valueEditor) Modify(element any, column string, value any) {
	v, ok := element.(*Variable)
	if !ok || column != ColumnValue {
		return
	}
	if err := e.session.SetValue(v, fmt.Sprint(value)); err != nil {
		e.session.logger.Warn("modify failed", "variable", v.Name, "error", err)
	}
}

func (e *valueEditor) CellEditor(column string, element any) model.CellEditor {
	if !e.CanModify(element, column) {
		return nil
	}
	return &textCell{value: e.Value(element, column)}
}

type textCell struct {
	value any
}

func (c *textCell) Value() any     { return c.value }
func (c *textCell) SetValue(v any) { c.value = v }
func (c *textCell) Dispose()       {}

// CreateModelProxy implements model.ModelProxyFactory. Only the session has
// a proxy; it reports every debug event.
func (s *Session) CreateModelProxy(element any, _ *presentation.Context) model.ModelProxy {
	if element != s {
		return nil
	}
	return &proxy{session: s}
}

type proxy struct {
	session *Session
}

func (p *proxy) Init(*presentation.Context) {}

func (p *proxy) Install(sink model.DeltaSink) {
	p.session.sinkMu.Lock()
	p.session.sinks[p] = sink
	p.session.sinkMu.Unlock()
}

func (p *proxy) Dispose() {
	p.session.sinkMu.Lock()
	delete(p.session.sinks, p)
	p.session.sinkMu.Unlock()
}

// emit sends d to every installed proxy sink.
func (s *Session) emit(d *delta.Delta) {
	s.sinkMu.Lock()
	sinks := slices.Collect(maps.Values(s.sinks))
	s.sinkMu.Unlock()

	s.logger.Debug("model delta", "delta", d.String(), "sinks", len(sinks))
	for _, sink := range sinks {
		sink(d)
	}
}

var (
	_ model.MementoProvider           = (*Session)(nil)
	_ model.ColumnPresentationFactory = (*Session)(nil)
	_ model.SelectionPolicyFactory    = (*Session)(nil)
	_ model.ColumnEditorFactory       = (*Session)(nil)
	_ model.ModelProxyFactory         = (*Session)(nil)
)
