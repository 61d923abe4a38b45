package columns

import (
	"log/slog"
	"slices"

	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/widget"
)

// Choice describes one available column of the active presentation.
type Choice struct {
	ID      string
	Header  string
	Image   string
	Visible bool
}

// Manager keeps the physical columns of a tree in line with the active column
// presentation and the persisted State. It is confined to the UI goroutine.
type Manager struct {
	tree    widget.Tree
	ctx     *presentation.Context
	state   *State
	logger  *slog.Logger
	refresh func()

	pres       model.ColumnPresentation
	listener   *widget.Listeners
	awaitPaint bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithState shares an existing State.
func WithState(s *State) Option {
	return func(m *Manager) {
		if s != nil {
			m.state = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRefresh sets the function Refresh calls after rebuilding columns, so
// labels are requested again for the new column set.
func WithRefresh(fn func()) Option {
	return func(m *Manager) {
		m.refresh = fn
	}
}

// NewManager creates a manager for tree.
func NewManager(tree widget.Tree, ctx *presentation.Context, opts ...Option) *Manager {
	m := &Manager{
		tree:   tree,
		ctx:    ctx,
		state:  NewState(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.listener = &widget.Listeners{
		OnColumnMoved:   m.persistOrder,
		OnColumnResized: func(int) { m.persistSizes() },
		OnPainted:       m.painted,
	}
	tree.AddListener(m.listener)
	return m
}

// State returns the persisted customizations.
func (m *Manager) State() *State {
	return m.state
}

// Presentation returns the active presentation, or nil.
func (m *Manager) Presentation() model.ColumnPresentation {
	return m.pres
}

// SetInput resolves the presentation for input. A new presentation is only
// created when the presentation id changes. A nil input keeps the current
// columns. It reports whether the columns were rebuilt.
func (m *Manager) SetInput(input any) bool {
	if input == nil {
		return false
	}
	var id string
	factory, ok := model.ColumnFactory(input)
	if ok {
		id = factory.PresentationID(m.ctx, input)
	}

	if id == "" {
		if m.pres == nil {
			return false
		}
		m.disposePresentation()
		m.Configure()
		return true
	}
	if m.pres != nil && m.pres.ID() == id {
		return false
	}
	m.disposePresentation()
	m.pres = factory.CreatePresentation(m.ctx, input)
	if m.pres == nil {
		m.Configure()
		return true
	}
	m.pres.Init(m.ctx)
	m.logger.Debug("column presentation changed", "presentation", id)
	m.Configure()
	return true
}

func (m *Manager) disposePresentation() {
	if m.pres != nil {
		m.pres.Dispose()
		m.pres = nil
	}
}

// Configure rebuilds the physical columns from the current settings.
func (m *Manager) Configure() {
	if m.IsShowColumns() {
		m.build(m.pres)
		return
	}
	m.build(nil)
}

func (m *Manager) build(pres model.ColumnPresentation) {
	m.awaitPaint = false
	if pres == nil {
		m.tree.SetColumns(nil)
		m.tree.SetHeaderVisible(false)
		m.ctx.SetColumns(nil)
		return
	}

	ids := m.VisibleColumns()
	cols := make([]widget.Column, len(ids))
	for i, id := range ids {
		cols[i] = widget.Column{
			ID:     id,
			Header: pres.Header(id),
			Image:  pres.Image(id),
			Width:  1,
		}
	}
	m.tree.SetColumns(cols)
	if order, ok := m.state.Order(pres.ID()); ok && len(order) == len(cols) {
		m.tree.SetColumnOrder(order)
	}
	m.tree.SetHeaderVisible(true)
	m.ctx.SetColumns(ids)

	if len(ids) == 0 {
		return
	}
	avg := m.tree.Width() / len(ids)
	if avg == 0 {
		m.awaitPaint = true
		return
	}
	m.initWidths(avg)
}

func (m *Manager) initWidths(hint int) {
	pid := m.pres.ID()
	for i, col := range m.tree.Columns() {
		w, ok := m.state.Width(pid, col.ID)
		if !ok {
			w = hint
		}
		m.tree.SetColumnWidth(i, w)
	}
}

func (m *Manager) painted() {
	if !m.awaitPaint {
		return
	}
	m.awaitPaint = false
	if n := len(m.tree.Columns()); n > 0 && m.pres != nil {
		m.initWidths(m.tree.Width() / n)
	}
}

func (m *Manager) persistSizes() {
	if m.pres == nil {
		return
	}
	pid := m.pres.ID()
	for _, col := range m.tree.Columns() {
		m.state.SetWidth(pid, col.ID, col.Width)
	}
}

func (m *Manager) persistOrder() {
	if m.pres == nil {
		return
	}
	m.state.SetOrder(m.pres.ID(), m.tree.ColumnOrder())
}

// Refresh rebuilds the columns and refreshes the viewer.
func (m *Manager) Refresh() {
	m.Configure()
	if m.refresh != nil {
		m.refresh()
	}
}

// IsShowColumns reports whether columns are currently displayed.
func (m *Manager) IsShowColumns() bool {
	return m.pres != nil && m.state.Show(m.pres.ID())
}

// CanToggleColumns reports whether the user may turn columns off.
func (m *Manager) CanToggleColumns() bool {
	return m.pres != nil && m.pres.Optional()
}

// SetShowColumns turns columns on or off for the active presentation.
func (m *Manager) SetShowColumns(show bool) {
	if m.pres == nil {
		return
	}
	m.state.SetShow(m.pres.ID(), show)
	m.Refresh()
}

// VisibleColumns returns the visible column ids, or nil when no columns are
// shown.
func (m *Manager) VisibleColumns() []string {
	if !m.IsShowColumns() {
		return nil
	}
	if ids, ok := m.state.Visible(m.pres.ID()); ok {
		return ids
	}
	return m.pres.InitialColumns()
}

// SetVisibleColumns sets the visible columns of the active presentation. Nil
// restores the defaults, as does a list equal to the defaults. Any column
// order override is cleared.
func (m *Manager) SetVisibleColumns(ids []string) {
	if m.pres == nil {
		return
	}
	pid := m.pres.ID()
	m.state.SetOrder(pid, nil)
	m.state.SetVisible(pid, nil)
	if ids != nil && !slices.Equal(ids, m.pres.InitialColumns()) {
		m.state.SetVisible(pid, ids)
	}
	m.ctx.SetColumns(m.VisibleColumns())
	m.Refresh()
}

// ResetColumnSizes forgets the persisted widths of columns.
func (m *Manager) ResetColumnSizes(ids []string) {
	if m.pres == nil {
		return
	}
	m.state.ResetWidths(m.pres.ID(), ids...)
}

// ConfigureColumns applies the result of a column chooser: the chosen
// columns lose their persisted widths and become the visible set.
func (m *Manager) ConfigureColumns(ids []string) {
	m.ResetColumnSizes(ids)
	m.SetVisibleColumns(ids)
}

// AvailableColumns lists every column of the active presentation.
func (m *Manager) AvailableColumns() []Choice {
	if m.pres == nil {
		return nil
	}
	visible := m.VisibleColumns()
	ids := m.pres.AvailableColumns()
	out := make([]Choice, len(ids))
	for i, id := range ids {
		out[i] = Choice{
			ID:      id,
			Header:  m.pres.Header(id),
			Image:   m.pres.Image(id),
			Visible: slices.Contains(visible, id),
		}
	}
	return out
}

// Dispose disposes the presentation and detaches from the tree.
func (m *Manager) Dispose() {
	m.disposePresentation()
	m.tree.RemoveListener(m.listener)
	m.awaitPaint = false
}
