package termview

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modelview/internal/widget"
)

func item(m *widget.Memory, parent widget.ItemID, texts ...string) widget.ItemID {
	id := m.Insert(parent, m.ChildCount(parent))
	m.SetData(id, texts[0])
	for i, t := range texts {
		m.SetText(id, i, t)
	}
	return id
}

func sample() (*widget.Memory, widget.ItemID) {
	m := widget.NewMemory(20)
	a := item(m, m.Root(), "a", "1")
	m.SetHasChildren(a, true)
	item(m, a, "a1", "2")
	item(m, m.Root(), "b", "3")
	return m, a
}

func screen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)
	s.SetSize(w, h)
	return s
}

func TestRender(t *testing.T) {
	m, _ := sample()
	m.Insert(m.Root(), 2)

	out, err := Render(m, 20, 5)
	require.NoError(t, err)
	assert.Equal(t, "▸ a\n  b\n  …", out)
}

func TestDraw_Columns(t *testing.T) {
	m, _ := sample()
	m.SetColumns([]widget.Column{
		{ID: "name", Header: "Name", Width: 8},
		{ID: "value", Header: "Value", Width: 6},
	})
	m.SetHeaderVisible(true)

	s := screen(t, 20, 4)
	New(m).Draw(s)
	assert.Equal(t, "Name     Value\n▸ a      1\n  b      3", Snapshot(s))

	m.SetColumnOrder([]int{1, 0})
	New(m).Draw(s)
	assert.Equal(t, "Value  Name\n1      ▸ a\n3        b", Snapshot(s))
}

func TestHandleEvent_ExpandCollapse(t *testing.T) {
	m, a := sample()
	var expanded []widget.ItemID
	m.AddListener(&widget.Listeners{OnExpanded: func(id widget.ItemID) { expanded = append(expanded, id) }})

	s := screen(t, 20, 5)
	v := New(m)
	v.Draw(s)

	assert.True(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone)))
	v.Draw(s)
	assert.Equal(t, "▾ a\n    a1\n  b", Snapshot(s))
	assert.Equal(t, []widget.ItemID{a}, expanded)

	v.HandleEvent(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	assert.Equal(t, "a1", m.Data(v.Cursor()))

	// Left on a leaf moves to its parent, then collapses it.
	v.HandleEvent(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	assert.Equal(t, a, v.Cursor())
	v.HandleEvent(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	assert.False(t, m.Expanded(a))
}

func TestHandleEvent_Select(t *testing.T) {
	m, _ := sample()
	var got []widget.ItemID
	v := New(m, WithSelectHandler(func(ids []widget.ItemID) { got = ids }))
	v.Draw(screen(t, 20, 5))

	v.HandleEvent(tcell.NewEventKey(tcell.KeyEnd, 0, tcell.ModNone))
	assert.True(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
	require.Len(t, got, 1)
	assert.Equal(t, "b", m.Data(got[0]))
	assert.Equal(t, got, m.Selection())

	assert.False(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))
}

func TestDraw_FollowsShownItem(t *testing.T) {
	m := widget.NewMemory(10)
	var last widget.ItemID
	for i := 0; i < 10; i++ {
		last = item(m, m.Root(), string(rune('a'+i)))
	}
	m.ShowItem(last)

	s := screen(t, 10, 3)
	v := New(m)
	v.Draw(s)
	assert.Equal(t, last, v.Cursor())
	assert.Equal(t, "  h\n  i\n  j", Snapshot(s))
}

func TestDraw_NotifiesPaint(t *testing.T) {
	m, _ := sample()
	painted := 0
	m.AddListener(&widget.Listeners{OnPainted: func() { painted++ }})
	New(m).Draw(screen(t, 10, 2))
	assert.Equal(t, 1, painted)
}
