package viewer

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modelview/internal/delta"
	"github.com/dshills/modelview/internal/memento"
	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/request"
	"github.com/dshills/modelview/internal/treepath"
	"github.com/dshills/modelview/internal/widget"
)

// fakeModel completes requests inline, or holds them until released. A
// snapshot model reads its state when a request arrives, otherwise when the
// request is answered.
type fakeModel struct {
	mu       sync.Mutex
	hold     bool
	snapshot bool
	held     []func()
}

// answer completes a request with the reply built by read.
func (m *fakeModel) answer(read func() func()) {
	if m.snapshot {
		m.run(read())
		return
	}
	m.run(func() { read()() })
}

func (m *fakeModel) run(fn func()) {
	m.mu.Lock()
	if m.hold {
		m.held = append(m.held, fn)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	fn()
}

func (m *fakeModel) pause() {
	m.mu.Lock()
	m.hold = true
	m.mu.Unlock()
}

// release completes every held request, last issued first when reverse is
// set.
func (m *fakeModel) release(reverse bool) {
	m.mu.Lock()
	held := m.held
	m.held = nil
	m.hold = false
	m.mu.Unlock()
	if reverse {
		slices.Reverse(held)
	}
	for _, fn := range held {
		fn()
	}
}

type node struct {
	m        *fakeModel
	name     string
	label    string
	children []*node
	panics   bool
	repeat   bool
}

func (n *node) add(kids ...*node) *node {
	n.children = append(n.children, kids...)
	return n
}

func (n *node) Children(u *request.ChildrenUpdate) {
	n.m.answer(func() func() {
		kids := make([]any, len(n.children))
		for i, c := range n.children {
			kids[i] = c
		}
		return func() {
			u.SetChildren(kids)
			u.Done()
		}
	})
}

func (n *node) ChildCount(u *request.CountUpdate) {
	n.m.answer(func() func() {
		count := len(n.children)
		return func() {
			u.SetCount(count)
			u.Done()
		}
	})
}

func (n *node) HasChildren(u *request.HasChildrenUpdate) {
	n.m.answer(func() func() {
		has := len(n.children) > 0
		return func() {
			u.SetHasChildren(has)
			u.Done()
		}
	})
}

func (n *node) Label(u *request.LabelUpdate) {
	if n.panics {
		panic("label exploded")
	}
	n.m.answer(func() func() {
		text := n.name
		if n.label != "" {
			text = n.label
		}
		return func() {
			if cols := u.Columns(); len(cols) > 0 {
				for i, col := range cols {
					u.SetLabel(i, text+"/"+col)
				}
			} else {
				u.SetLabel(0, text)
			}
			u.Done()
			if n.repeat {
				u.Done()
			}
		}
	})
}

func (n *node) Encode(u *request.MementoUpdate) {
	n.m.run(func() {
		u.Memento().PutString("name", n.name)
		u.Done()
	})
}

func (n *node) Compare(u *request.CompareUpdate) {
	n.m.run(func() {
		name, _ := u.Memento().GetString("name")
		u.SetEqual(name == n.name)
		u.Done()
	})
}

// sampleTree builds root -> a(a1, a2), b, c.
func sampleTree(m *fakeModel) (root, a, b, c *node) {
	a = &node{m: m, name: "a"}
	a.add(&node{m: m, name: "a1"}, &node{m: m, name: "a2"})
	b = &node{m: m, name: "b"}
	c = &node{m: m, name: "c"}
	root = (&node{m: m, name: "root"}).add(a, b, c)
	return root, a, b, c
}

func newViewer(opts ...Option) (*Viewer, *widget.Memory) {
	tree := widget.NewMemory(90)
	return New(tree, presentation.NewContext("test"), opts...), tree
}

func itemOf(t *testing.T, v *Viewer, elems ...any) widget.ItemID {
	t.Helper()
	item := v.Item(treepath.New(elems...))
	require.NotEqual(t, widget.NoItem, item, "no item for %v", elems)
	return item
}

func TestViewer_SetInputPopulatesFirstLevel(t *testing.T) {
	m := &fakeModel{}
	root, a, b, _ := sampleTree(m)
	v, tree := newViewer()

	v.SetInput(root)
	assert.True(t, v.Busy())
	v.Loop().Drain()

	assert.Equal(t, "a\nb\nc\n", tree.Dump())
	assert.True(t, tree.HasChildren(itemOf(t, v, a)))
	assert.False(t, tree.HasChildren(itemOf(t, v, b)))
	assert.False(t, v.Busy())
	assert.Zero(t, v.Pending())
	assert.Equal(t, root, v.Input())
}

func TestViewer_ExpandAndCollapse(t *testing.T) {
	m := &fakeModel{}
	root, a, _, _ := sampleTree(m)
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()

	require.NoError(t, v.Expand(treepath.New(a, a.children[1])))
	v.Loop().Drain()

	assert.Equal(t, "a\n  a1\n  a2\nb\nc\n", tree.Dump())
	item := itemOf(t, v, a)
	assert.True(t, tree.Expanded(item))

	require.NoError(t, v.Collapse(treepath.New(a)))
	assert.False(t, tree.Expanded(item))

	err := v.Collapse(treepath.New("missing"))
	assert.ErrorIs(t, err, ErrNoItem)
}

func TestViewer_UserExpandFetchesChildren(t *testing.T) {
	m := &fakeModel{}
	root, a, _, _ := sampleTree(m)
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()

	tree.UserExpand(itemOf(t, v, a), true)
	v.Loop().Drain()

	assert.Equal(t, "a\n  a1\n  a2\nb\nc\n", tree.Dump())
	paths := v.TreePaths(a.children[0])
	require.Len(t, paths, 1)
	assert.True(t, paths[0].Equals(treepath.New(a, a.children[0])))
}

func TestViewer_PlaceholdersUntilChildrenArrive(t *testing.T) {
	m := &fakeModel{}
	root, _, _, _ := sampleTree(m)
	v, tree := newViewer()
	m.pause()
	v.SetInput(root)
	v.Loop().Drain()
	assert.Empty(t, tree.Dump())

	// The count arrives first and shows placeholders.
	m.mu.Lock()
	count := m.held[0]
	m.held = m.held[1:]
	m.mu.Unlock()
	count()
	v.Loop().Drain()
	assert.Equal(t, "?\n?\n?\n", tree.Dump())

	m.release(false)
	v.Loop().Drain()
	assert.Equal(t, "a\nb\nc\n", tree.Dump())
}

func TestViewer_OutOfOrderCompletionsApplyInIssueOrder(t *testing.T) {
	m := &fakeModel{}
	root, a, _, _ := sampleTree(m)
	v, tree := newViewer(WithAutoExpand(AutoExpandAll))
	m.pause()
	v.SetInput(root)
	for {
		m.mu.Lock()
		n := len(m.held)
		m.mu.Unlock()
		if n == 0 {
			break
		}
		m.release(true)
		m.pause()
		v.Loop().Drain()
	}
	m.release(false)
	v.Loop().Drain()

	assert.Equal(t, "a\n  a1\n  a2\nb\nc\n", tree.Dump())
	assert.True(t, tree.Expanded(itemOf(t, v, a)))
}

func TestViewer_DeltaAddAndRemove(t *testing.T) {
	for _, tt := range []struct {
		name     string
		snapshot bool
		hold     bool
	}{
		{name: "inline"},
		{name: "held", hold: true},
		{name: "snapshot held", snapshot: true, hold: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModel{snapshot: tt.snapshot}
			root, a, b, c := sampleTree(m)
			v, tree := newViewer()
			v.SetInput(root)
			v.Loop().Drain()

			x := &node{m: m, name: "x"}
			root.children = []*node{a, x, c}

			d := delta.New(root, delta.NoChange)
			d.AddNodeAt(b, 1, delta.Removed, 0)
			d.AddNodeAt(x, 1, delta.Inserted, 0)

			var changed []*delta.Delta
			v.AddModelChangedListener(ModelChangedFunc(func(d *delta.Delta) { changed = append(changed, d) }))
			if tt.hold {
				m.pause()
			}
			v.ApplyDelta(d)
			v.Loop().Drain()
			m.release(true)
			v.Loop().Drain()

			assert.Equal(t, "a\nx\nc\n", tree.Dump())
			assert.Empty(t, v.TreePaths(b))
			require.Len(t, changed, 1)
			assert.Same(t, d, changed[0])
			assert.False(t, v.Busy())
		})
	}
}

func TestViewer_DeltaWithUnknownTargetLeavesTree(t *testing.T) {
	m := &fakeModel{}
	root, _, _, _ := sampleTree(m)
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()
	before := tree.Dump()

	stranger := &node{m: m, name: "stranger"}
	d := delta.New(root, delta.NoChange)
	d.AddNode(stranger, delta.State|delta.Select)
	assert.NotPanics(t, func() { v.ApplyDelta(d) })
	v.ApplyDelta(delta.New(stranger, delta.Content))
	v.Loop().Drain()

	assert.Equal(t, before, tree.Dump())
}

func TestViewer_LateCompletionOfRemovedItemIsDiscarded(t *testing.T) {
	m := &fakeModel{}
	root, a, b, c := sampleTree(m)
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()

	m.pause()
	tree.UserExpand(itemOf(t, v, a), true)
	v.Loop().Drain()
	require.Positive(t, v.Pending())

	root.children = []*node{b, c}
	d := delta.New(root, delta.NoChange)
	d.AddNodeAt(a, 0, delta.Removed, 0)
	v.ApplyDelta(d)

	var completed []request.Update
	v.AddViewerUpdateListener(&UpdateFuncs{OnDone: func(u request.Update) { completed = append(completed, u) }})
	m.release(false)
	v.Loop().Drain()

	assert.Equal(t, "b\nc\n", tree.Dump())
	assert.NotEmpty(t, completed, "completions are still reported")
	assert.Zero(t, v.Pending())
}

func TestViewer_SecondPassWins(t *testing.T) {
	for _, snapshot := range []bool{false, true} {
		m := &fakeModel{snapshot: snapshot}
		root, _, b, c := sampleTree(m)
		v, tree := newViewer()
		v.SetInput(root)
		v.Loop().Drain()

		m.pause()
		b.label = "b*"
		c.label = "c*"
		first := delta.New(root, delta.NoChange)
		first.AddNode(b, delta.State)
		v.ApplyDelta(first)
		second := delta.New(root, delta.NoChange)
		second.AddNode(c, delta.State)
		v.ApplyDelta(second)

		m.release(false)
		v.Loop().Drain()

		assert.Equal(t, "b", tree.Text(itemOf(t, v, b), 0), "snapshot=%v", snapshot)
		assert.Equal(t, "c*", tree.Text(itemOf(t, v, c), 0), "snapshot=%v", snapshot)
		assert.False(t, v.Busy())
	}
}

func TestViewer_SupersededLabelsAreRequestedAgain(t *testing.T) {
	m := &fakeModel{}
	root, a, b, c := sampleTree(m)
	v, tree := newViewer()
	m.pause()
	v.SetInput(root)
	v.Loop().Drain()

	// The children arrive; their labels are held.
	m.release(false)
	m.pause()
	v.Loop().Drain()
	require.Equal(t, "\n\n\n", tree.Dump())

	c.label = "c*"
	d := delta.New(root, delta.NoChange)
	d.AddNode(c, delta.State)
	v.ApplyDelta(d)
	m.release(false)
	v.Loop().Drain()

	assert.Equal(t, "a\nb\nc*\n", tree.Dump())
	assert.True(t, tree.HasChildren(itemOf(t, v, a)))
	assert.False(t, tree.HasChildren(itemOf(t, v, b)))
	assert.False(t, tree.HasChildren(itemOf(t, v, c)))
	assert.False(t, v.Busy())
}

func TestViewer_ChangeWhileExpanding(t *testing.T) {
	for _, reverse := range []bool{false, true} {
		m := &fakeModel{snapshot: true}
		a1 := &node{m: m, name: "a1"}
		a := (&node{m: m, name: "a"}).add(a1)
		b := &node{m: m, name: "b"}
		root := (&node{m: m, name: "root"}).add(a, b)
		v, tree := newViewer()
		v.SetInput(root)
		v.Loop().Drain()

		// The expansion is answered from the model as it was before a2.
		m.pause()
		tree.UserExpand(itemOf(t, v, a), true)
		v.Loop().Drain()

		a2 := &node{m: m, name: "a2"}
		a.add(a2)
		d := delta.New(root, delta.NoChange)
		d.AddNode(a, delta.NoChange).AddNodeAt(a2, 1, delta.Added, 0)
		v.ApplyDelta(d)
		v.Loop().Drain()

		m.release(reverse)
		v.Loop().Drain()

		assert.Equal(t, "a\n  a1\n  a2\nb\n", tree.Dump(), "reverse=%v", reverse)
		assert.False(t, v.Busy())
		assert.Zero(t, v.Pending())
	}
}

func TestViewer_RemoveOneOfDuplicates(t *testing.T) {
	m := &fakeModel{}
	x := &node{m: m, name: "x"}
	root := (&node{m: m, name: "root"}).add(x, x)
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()
	require.Len(t, v.TreePaths(x), 2)

	x.label = "x2"
	m.pause()
	v.RefreshElement(x)
	v.Loop().Drain()

	root.children = []*node{x}
	d := delta.New(root, delta.NoChange)
	d.AddNodeAt(x, 1, delta.Removed, 0)
	v.ApplyDelta(d)
	v.Loop().Drain()
	require.Equal(t, 1, tree.ChildCount(tree.Root()))

	m.release(false)
	v.Loop().Drain()

	assert.Equal(t, "x2\n", tree.Dump(), "the surviving duplicate keeps its refresh")
	assert.Len(t, v.TreePaths(x), 1)
	assert.Zero(t, v.Pending())
	assert.False(t, v.Busy())
}

func TestViewer_InsertUnderDuplicateParents(t *testing.T) {
	m := &fakeModel{}
	p := (&node{m: m, name: "p"}).add(&node{m: m, name: "p1"})
	root := (&node{m: m, name: "root"}).add(p, p)
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()

	first, second := tree.Child(tree.Root(), 0), tree.Child(tree.Root(), 1)
	tree.UserExpand(first, true)
	v.Loop().Drain()
	p.add(&node{m: m, name: "p2"})
	tree.UserExpand(second, true)
	v.Loop().Drain()
	require.Equal(t, "p\n  p1\np\n  p1\n  p2\n", tree.Dump())

	v.Insert(p, &node{m: m, name: "z"}, -1)
	v.Loop().Drain()
	assert.Equal(t, "p\n  p1\n  z\np\n  p1\n  p2\n  z\n", tree.Dump())
}

func TestViewer_RefreshKeepsExpansion(t *testing.T) {
	m := &fakeModel{}
	root, a, _, c := sampleTree(m)
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()
	require.NoError(t, v.Expand(treepath.New(a)))
	v.Loop().Drain()
	aItem := itemOf(t, v, a)

	a.children = a.children[:1]
	a.label = "A"
	root.children = []*node{a, c}
	v.Refresh()
	v.Loop().Drain()

	assert.Equal(t, "A\n  a1\nc\n", tree.Dump())
	assert.Equal(t, aItem, itemOf(t, v, a), "kept items are reused")
	assert.True(t, tree.Expanded(aItem))
}

func TestViewer_RefreshElement(t *testing.T) {
	m := &fakeModel{}
	root, _, b, _ := sampleTree(m)
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()

	b.label = "bee"
	b.add(&node{m: m, name: "b1"})
	v.RefreshElement(b)
	v.Loop().Drain()

	item := itemOf(t, v, b)
	assert.Equal(t, "bee", tree.Text(item, 0))
	assert.True(t, tree.HasChildren(item))
}

func TestViewer_UpdateListenersBracketPasses(t *testing.T) {
	m := &fakeModel{}
	root, _, _, _ := sampleTree(m)
	v, _ := newViewer()

	var begins, ends, started, done int
	l := &UpdateFuncs{
		OnBegin:    func() { begins++ },
		OnComplete: func() { ends++ },
		OnStarted:  func(request.Update) { started++ },
		OnDone:     func(request.Update) { done++ },
	}
	v.AddViewerUpdateListener(l)
	v.SetInput(root)
	v.Loop().Drain()

	assert.Equal(t, 1, begins)
	assert.Equal(t, 1, ends)
	assert.Positive(t, started)
	assert.Equal(t, started, done)

	v.RemoveViewerUpdateListener(l)
	v.Refresh()
	v.Loop().Drain()
	assert.Equal(t, 1, begins)
}

func TestViewer_ModelPanicFailsRequest(t *testing.T) {
	m := &fakeModel{}
	root, _, b, _ := sampleTree(m)
	b.panics = true
	v, tree := newViewer()

	var errs []error
	v.AddViewerUpdateListener(&UpdateFuncs{OnDone: func(u request.Update) {
		if u.Err() != nil {
			errs = append(errs, u.Err())
		}
	}})
	assert.NotPanics(t, func() {
		v.SetInput(root)
		v.Loop().Drain()
	})

	assert.Equal(t, "a\n\nc\n", tree.Dump())
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrModelPanic))
}

func TestViewer_CountsDuplicateCompletions(t *testing.T) {
	m := &fakeModel{}
	root, _, b, _ := sampleTree(m)
	b.repeat = true
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()

	assert.Equal(t, "a\nb\nc\n", tree.Dump())
	assert.Equal(t, 1, v.Duplicates())

	other, _ := newViewer()
	assert.Zero(t, other.Duplicates(), "counted per viewer")
}

func TestViewer_MissingCapabilitiesFallBack(t *testing.T) {
	v, tree := newViewer()
	parent := &node{m: &fakeModel{}, name: "p"}
	parent.children = nil
	v.SetInput(parent)
	v.Loop().Drain()
	assert.Empty(t, tree.Dump())

	v.Insert(parent, "plain", 0)
	v.Loop().Drain()
	assert.Equal(t, "plain\n", tree.Dump())
	assert.False(t, tree.HasChildren(itemOf(t, v, "plain")))
}

func TestViewer_InsertAndRemoveKeepSelection(t *testing.T) {
	m := &fakeModel{}
	root, _, b, c := sampleTree(m)
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()
	v.ForceSelection(model.NewSelection(c), false)

	y := &node{m: m, name: "y"}
	v.Insert(root, y, 0)
	v.Loop().Drain()
	assert.Equal(t, "y\na\nb\nc\n", tree.Dump())
	assert.True(t, v.Selection().Equal(model.NewSelection(c)))

	v.Remove(root, 2)
	v.Loop().Drain()
	assert.Equal(t, "y\na\nc\n", tree.Dump())
	assert.Empty(t, v.TreePaths(b))
	assert.True(t, v.Selection().Equal(model.NewSelection(c)))
}

type stickyPolicy struct{}

func (stickyPolicy) IsSticky(model.Selection, *presentation.Context) bool { return true }
func (stickyPolicy) Contains(candidate model.Selection, _ *presentation.Context) bool {
	s, ok := candidate.First().(*stickyNode)
	return ok && s.name == "s2"
}
func (stickyPolicy) Overrides(model.Selection, model.Selection, *presentation.Context) bool {
	return true
}

type stickyNode struct {
	node
}

func (*stickyNode) CreateSelectionPolicy(any, *presentation.Context) model.SelectionPolicy {
	return stickyPolicy{}
}

func TestViewer_SelectionPolicy(t *testing.T) {
	m := &fakeModel{}
	s1 := &stickyNode{node{m: m, name: "s1"}}
	s2 := &stickyNode{node{m: m, name: "s2"}}
	plain := &node{m: m, name: "plain"}
	root := &node{m: m, name: "root"}
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()
	v.Insert(root, s1, -1)
	v.Insert(root, s2, -1)
	v.Insert(root, plain, -1)
	v.Loop().Drain()

	assert.True(t, v.SetSelection(model.NewSelection(s1), true))
	assert.Equal(t, itemOf(t, v, s1), tree.Shown())

	assert.False(t, v.SetSelection(model.NewSelection(plain), false), "sticky selection is kept")
	assert.True(t, v.Selection().Equal(model.NewSelection(s1)))

	assert.True(t, v.SetSelection(model.NewSelection(s2), false), "contained selection overrides")

	v.ForceSelection(model.NewSelection(plain), false)
	assert.True(t, v.Selection().Equal(model.NewSelection(plain)))

	d := delta.New(root, delta.NoChange)
	d.AddNode(s1, delta.Select|delta.Reveal)
	v.ApplyDelta(d)
	v.Loop().Drain()
	assert.True(t, v.Selection().Equal(model.NewSelection(s1)))
}

type columnsInput struct {
	node
	pres *testPresentation
}

func (in *columnsInput) PresentationID(*presentation.Context, any) string { return in.pres.id }
func (in *columnsInput) CreatePresentation(*presentation.Context, any) model.ColumnPresentation {
	return in.pres
}

type testPresentation struct {
	id       string
	disposed bool
}

func (p *testPresentation) ID() string                 { return p.id }
func (p *testPresentation) Init(*presentation.Context) {}
func (p *testPresentation) Dispose()                   { p.disposed = true }
func (p *testPresentation) AvailableColumns() []string { return []string{"name", "value", "type"} }
func (p *testPresentation) InitialColumns() []string   { return []string{"name", "value"} }
func (p *testPresentation) Header(id string) string    { return id }
func (p *testPresentation) Image(string) string        { return "" }
func (p *testPresentation) Optional() bool             { return true }

func TestViewer_ColumnsDriveLabels(t *testing.T) {
	m := &fakeModel{}
	in := &columnsInput{node: node{m: m, name: "in"}, pres: &testPresentation{id: "vars"}}
	x := &node{m: m, name: "x"}
	in.add(x)
	v, tree := newViewer()
	v.SetInput(in)
	v.Loop().Drain()

	require.Len(t, tree.Columns(), 2)
	assert.Equal(t, []string{"name", "value"}, v.VisibleColumns())
	item := itemOf(t, v, x)
	assert.Equal(t, "x/name", tree.Text(item, 0))
	assert.Equal(t, "x/value", tree.Text(item, 1))

	v.SetVisibleColumns([]string{"type"})
	v.Loop().Drain()
	assert.Equal(t, "x/type", tree.Text(item, 0))
	assert.Len(t, v.AvailableColumns(), 3)

	v.SetShowColumns(false)
	v.Loop().Drain()
	assert.False(t, v.IsShowColumns())
	assert.Equal(t, "x", tree.Text(item, 0))
	assert.True(t, v.CanToggleColumns())

	mem := memento.New()
	v.SaveState(mem)
	other, _ := newViewer()
	other.InitState(mem)
	_, visible := other.ColumnState().Visible("vars")
	assert.True(t, visible)
	assert.False(t, other.ColumnState().Show("vars"))

	v.Dispose()
	assert.True(t, in.pres.disposed)
	assert.True(t, v.Disposed())
}

type editableNode struct {
	node
	editorID string
}

func (n *editableNode) EditorID(*presentation.Context, any) string { return n.editorID }
func (n *editableNode) CreateEditor(*presentation.Context, any) model.ColumnEditor {
	return &testEditor{id: n.editorID, values: map[string]any{}}
}

type testEditor struct {
	id       string
	values   map[string]any
	disposed bool
}

func (e *testEditor) ID() string                 { return e.id }
func (e *testEditor) Init(*presentation.Context) {}
func (e *testEditor) Dispose()                   { e.disposed = true }
func (e *testEditor) CanModify(_ any, column string) bool {
	return column == "value"
}
func (e *testEditor) Value(_ any, column string) any { return e.values[column] }
func (e *testEditor) Modify(element any, column string, value any) {
	e.values[column] = value
	element.(*editableNode).label = value.(string)
}
func (e *testEditor) CellEditor(column string, _ any) model.CellEditor {
	if column != "value" {
		return nil
	}
	return &testCell{}
}

type testCell struct {
	value    any
	disposed bool
}

func (c *testCell) Value() any     { return c.value }
func (c *testCell) SetValue(v any) { c.value = v }
func (c *testCell) Dispose()       { c.disposed = true }

func TestViewer_CellEditing(t *testing.T) {
	m := &fakeModel{}
	root := &node{m: m, name: "root"}
	e1 := &editableNode{node: node{m: m, name: "e1"}, editorID: "text"}
	e2 := &editableNode{node: node{m: m, name: "e2"}, editorID: "text"}
	e3 := &editableNode{node: node{m: m, name: "e3"}, editorID: "number"}
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()
	v.Insert(root, e1, -1)
	v.Loop().Drain()

	assert.True(t, v.CanModify(e1, "value"))
	assert.False(t, v.CanModify(e1, "name"))
	first := v.cells.editor.(*testEditor)

	v.Modify(e1, "value", "edited")
	v.Loop().Drain()
	assert.Equal(t, "edited", v.Value(e1, "value"))
	assert.Equal(t, "edited", tree.Text(itemOf(t, v, e1), 0))

	assert.True(t, v.CanModify(e2, "value"))
	assert.Same(t, first, v.cells.editor, "same editor id keeps the editor")

	v.ctx.SetColumns([]string{"name", "value"})
	cells := v.CellEditors(e3)
	require.Len(t, cells, 2)
	assert.Nil(t, cells[0])
	assert.NotNil(t, cells[1])
	assert.True(t, first.disposed, "a new editor id disposes the old editor")

	v.Dispose()
	assert.True(t, cells[1].(*testCell).disposed)
	assert.True(t, v.cells.editor == nil)
	assert.Nil(t, v.CellEditors("plain"))
}

func TestViewer_ElementStateRoundTrip(t *testing.T) {
	m := &fakeModel{}
	root, a, b, _ := sampleTree(m)
	v, _ := newViewer()
	v.SetInput(root)
	v.Loop().Drain()
	require.NoError(t, v.Expand(treepath.New(a)))
	v.Loop().Drain()
	v.ForceSelection(model.NewSelection(b), false)

	var saved *memento.Node
	v.SaveElementState(func(n *memento.Node) { saved = n })
	v.Loop().Drain()
	require.NotNil(t, saved)
	require.Len(t, saved.Children(TypePath), 2)

	// A fresh model with equal elements.
	m2 := &fakeModel{}
	root2, a2, b2, _ := sampleTree(m2)
	w, tree := newViewer()
	w.RestoreElementState(saved)
	w.SetInput(root2)
	w.Loop().Drain()

	assert.True(t, tree.Expanded(itemOf(t, w, a2)))
	assert.Equal(t, "a\n  a1\n  a2\nb\nc\n", tree.Dump())
	assert.True(t, w.Selection().Equal(model.NewSelection(b2)))
}

func TestViewer_SaveElementStateSkipsUnencodable(t *testing.T) {
	v, _ := newViewer()
	root := &node{m: &fakeModel{}, name: "root"}
	v.SetInput(root)
	v.Loop().Drain()
	v.Insert(root, "plain", 0)
	v.ForceSelection(model.NewSelection("plain"), false)

	var saved *memento.Node
	v.SaveElementState(func(n *memento.Node) { saved = n })
	v.Loop().Drain()
	require.NotNil(t, saved)
	assert.Empty(t, saved.Children(TypePath))
}

type proxyInput struct {
	node
	proxy *testProxy
}

func (in *proxyInput) CreateModelProxy(any, *presentation.Context) model.ModelProxy {
	return in.proxy
}

type testProxy struct {
	sink     model.DeltaSink
	disposed bool
}

func (p *testProxy) Init(*presentation.Context)   {}
func (p *testProxy) Install(sink model.DeltaSink) { p.sink = sink }
func (p *testProxy) Dispose()                     { p.disposed = true }

func TestViewer_ModelProxyDeltasFromAnyGoroutine(t *testing.T) {
	m := &fakeModel{}
	in := &proxyInput{node: node{m: m, name: "in"}, proxy: &testProxy{}}
	v, tree := newViewer()
	v.SetInput(in)
	v.Loop().Drain()
	require.NotNil(t, in.proxy.sink)

	z := &node{m: m, name: "z"}
	in.add(z)
	d := delta.New(in, delta.Content)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		in.proxy.sink(d)
	}()
	wg.Wait()
	v.Loop().Drain()

	assert.Equal(t, "z\n", tree.Dump())

	v.SetInput(nil)
	assert.True(t, in.proxy.disposed)
	assert.Empty(t, tree.Dump())
}

func TestViewer_ApplyLabels(t *testing.T) {
	m := &fakeModel{}
	root, a, b, _ := sampleTree(m)
	v, tree := newViewer()
	v.SetInput(root)
	v.Loop().Drain()

	ua := request.NewLabelUpdate(a, treepath.Empty, nil, v.Presentation(), nil)
	ua.SetLabel(0, "alpha")
	ua.Done()
	ub := request.NewLabelUpdate(b, treepath.New("elsewhere", b), nil, v.Presentation(), nil)
	ub.SetLabel(0, "beta")
	ub.Done()
	v.ApplyLabels([]*request.LabelUpdate{ua, ub})

	assert.Equal(t, "alpha", tree.Text(itemOf(t, v, a), 0))
	assert.Equal(t, "b", tree.Text(itemOf(t, v, b), 0), "path mismatch is ignored")
}

func TestViewer_DisposeCancelsPending(t *testing.T) {
	m := &fakeModel{}
	root, _, _, _ := sampleTree(m)
	v, tree := newViewer()
	m.pause()
	v.SetInput(root)
	v.Dispose()
	m.release(false)
	v.Loop().Drain()

	assert.Empty(t, tree.Dump())
	assert.Zero(t, v.Pending())
	assert.ErrorIs(t, v.Expand(treepath.Empty), ErrDisposed)
}
