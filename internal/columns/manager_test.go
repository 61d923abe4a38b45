package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/widget"
)

type fakePresentation struct {
	id       string
	initial  []string
	optional bool
	disposed bool
}

func (p *fakePresentation) ID() string                 { return p.id }
func (p *fakePresentation) Init(*presentation.Context) {}
func (p *fakePresentation) Dispose()                   { p.disposed = true }
func (p *fakePresentation) AvailableColumns() []string { return []string{"name", "value", "type"} }
func (p *fakePresentation) InitialColumns() []string   { return p.initial }
func (p *fakePresentation) Header(id string) string    { return "H:" + id }
func (p *fakePresentation) Image(string) string        { return "" }
func (p *fakePresentation) Optional() bool             { return p.optional }

// input is a viewer input advertising a column presentation id.
type input struct {
	pid     string
	created []*fakePresentation
}

func (in *input) PresentationID(*presentation.Context, any) string { return in.pid }

func (in *input) CreatePresentation(*presentation.Context, any) model.ColumnPresentation {
	p := &fakePresentation{id: in.pid, initial: []string{"name", "value"}, optional: true}
	in.created = append(in.created, p)
	return p
}

func newManager(t *testing.T, width int) (*Manager, *widget.Memory, *presentation.Context) {
	t.Helper()
	tree := widget.NewMemory(width)
	ctx := presentation.NewContext("variables")
	return NewManager(tree, ctx), tree, ctx
}

func headers(tree *widget.Memory) []string {
	var out []string
	for _, c := range tree.Columns() {
		out = append(out, c.ID)
	}
	return out
}

func TestManager_BuildsDefaults(t *testing.T) {
	m, tree, ctx := newManager(t, 100)
	in := &input{pid: "P"}
	require.True(t, m.SetInput(in))

	assert.Equal(t, []string{"name", "value"}, headers(tree))
	assert.Equal(t, []string{"name", "value"}, ctx.Columns())
	assert.True(t, tree.HeaderVisible())
	assert.Equal(t, 50, tree.Columns()[0].Width, "even split")
	assert.Equal(t, "H:name", tree.Columns()[0].Header)

	assert.False(t, m.SetInput(&input{pid: "P"}), "same id keeps the presentation")
	assert.Len(t, in.created, 1)
	assert.False(t, m.SetInput(nil))
}

func TestManager_PresentationSwitchAndTeardown(t *testing.T) {
	m, tree, ctx := newManager(t, 100)
	a := &input{pid: "A"}
	m.SetInput(a)
	m.SetInput(&input{pid: "B"})
	assert.True(t, a.created[0].disposed)
	assert.Equal(t, "B", m.Presentation().ID())

	assert.True(t, m.SetInput("no columns"))
	assert.Nil(t, m.Presentation())
	assert.Empty(t, tree.Columns())
	assert.False(t, tree.HeaderVisible())
	assert.Nil(t, ctx.Columns())
}

func TestManager_WidthDeferredToFirstPaint(t *testing.T) {
	m, tree, _ := newManager(t, 0)
	m.SetInput(&input{pid: "P"})
	assert.Equal(t, 1, tree.Columns()[0].Width)

	tree.SetWidth(60)
	tree.Paint()
	assert.Equal(t, 30, tree.Columns()[0].Width)

	tree.UserResizeColumn(0, 10)
	tree.Paint()
	assert.Equal(t, 10, tree.Columns()[0].Width, "only the first paint splits")
}

func TestManager_VisibleColumnsNormalization(t *testing.T) {
	m, tree, _ := newManager(t, 100)
	m.SetInput(&input{pid: "P"})

	m.SetVisibleColumns([]string{"name", "value"})
	_, ok := m.State().Visible("P")
	assert.False(t, ok, "defaults are not stored")

	m.SetVisibleColumns([]string{"value", "name"})
	ids, ok := m.State().Visible("P")
	require.True(t, ok)
	assert.Equal(t, []string{"value", "name"}, ids)
	assert.Equal(t, []string{"value", "name"}, headers(tree))

	m.SetVisibleColumns(nil)
	assert.Equal(t, []string{"name", "value"}, m.VisibleColumns())
}

func TestManager_PersistsUserLayout(t *testing.T) {
	m, tree, _ := newManager(t, 100)
	m.SetInput(&input{pid: "P"})

	tree.UserResizeColumn(1, 70)
	w, ok := m.State().Width("P", "value")
	require.True(t, ok)
	assert.Equal(t, 70, w)

	tree.UserMoveColumns([]int{1, 0})
	order, ok := m.State().Order("P")
	require.True(t, ok)
	assert.Equal(t, []int{1, 0}, order)

	// A rebuild applies the persisted layout.
	m.Configure()
	assert.Equal(t, 70, tree.Columns()[1].Width)
	assert.Equal(t, []int{1, 0}, tree.ColumnOrder())

	tree.UserMoveColumns([]int{0, 1})
	_, ok = m.State().Order("P")
	assert.False(t, ok, "default order stored as no override")
}

func TestManager_ShowColumnsToggle(t *testing.T) {
	refreshed := 0
	tree := widget.NewMemory(100)
	m := NewManager(tree, presentation.NewContext("v"), WithRefresh(func() { refreshed++ }))
	m.SetInput(&input{pid: "P"})
	require.True(t, m.CanToggleColumns())

	m.SetShowColumns(false)
	assert.False(t, m.IsShowColumns())
	assert.NotNil(t, m.Presentation(), "presentation stays alive")
	assert.Empty(t, tree.Columns())
	assert.Nil(t, m.VisibleColumns())
	assert.Equal(t, 1, refreshed)

	m.SetShowColumns(true)
	assert.Len(t, tree.Columns(), 2)
}

func TestManager_ConfigureColumns(t *testing.T) {
	m, tree, _ := newManager(t, 90)
	m.SetInput(&input{pid: "P"})
	tree.UserResizeColumn(0, 5)

	m.ConfigureColumns([]string{"name", "value", "type"})
	assert.Equal(t, []string{"name", "value", "type"}, headers(tree))
	assert.Equal(t, 30, tree.Columns()[0].Width, "reset size falls back to the split")

	choices := m.AvailableColumns()
	require.Len(t, choices, 3)
	assert.True(t, choices[2].Visible)
	assert.Equal(t, "H:type", choices[2].Header)

	m.Dispose()
	tree.UserResizeColumn(0, 1)
	_, ok := m.State().Width("P", "name")
	assert.False(t, ok, "detached after dispose")
}
