package viewer

import (
	"slices"

	"github.com/dshills/modelview/internal/memento"
	"github.com/dshills/modelview/internal/pending"
	"github.com/dshills/modelview/internal/request"
	"github.com/dshills/modelview/internal/treepath"
	"github.com/dshills/modelview/internal/widget"
)

// Element state memento layout.
const (
	TypePath    = "PATH"
	TypeElement = "ELEMENT"
	KeyExpanded = "EXPANDED"
	KeySelected = "SELECTED"
)

// SaveState writes the column customizations to m.
func (v *Viewer) SaveState(m memento.Memento) {
	v.columns.State().Save(m)
}

// InitState reads column customizations from m and rebuilds the columns.
func (v *Viewer) InitState(m memento.Memento) {
	v.columns.State().Restore(m)
	if v.columns.Presentation() != nil {
		v.columns.Configure()
	}
}

// SaveElementState encodes the expanded and selected items. Each item is
// stored as a PATH node holding one ELEMENT node per path segment, filled by
// the segment's memento capability. Paths with a segment that cannot be
// encoded are left out. done receives the memento once every encode request
// has completed, or nil when the viewer was reset meanwhile.
func (v *Viewer) SaveElementState(done func(m *memento.Node)) {
	if v.disposed {
		done(nil)
		return
	}
	root := memento.New()
	var paths []*savedPath
	selected := v.tree.Selection()

	var walk func(item widget.ItemID)
	walk = func(item widget.ItemID) {
		for _, c := range v.tree.Children(item) {
			if v.tree.Data(c) == nil {
				continue
			}
			expanded := v.tree.Expanded(c) && v.materialized[c]
			sel := slices.Contains(selected, c)
			if expanded || sel {
				sp := &savedPath{node: memento.NewNode(TypePath, ""), path: v.pathOf(c)}
				sp.node.PutBool(KeyExpanded, expanded)
				sp.node.PutBool(KeySelected, sel)
				paths = append(paths, sp)
			}
			if expanded {
				walk(c)
			}
		}
	}
	walk(v.tree.Root())

	pass := v.beginPass(false, "save-state")
	for _, sp := range paths {
		segs := sp.path.Segments()
		for i, e := range segs {
			en := sp.node.CreateChild(TypeElement, "")
			u := request.NewMementoUpdate(e, treepath.New(segs[:i+1]...), en, v.ctx, v.notifier)
			v.issue(pass, u, func(u request.Update) {
				if u.Err() != nil {
					sp.failed = true
				}
			})
		}
	}
	pass.OnIdle(func() {
		if pass.Superseded() {
			done(nil)
			return
		}
		for _, sp := range paths {
			if !sp.failed {
				root.AddChild(sp.node)
			}
		}
		done(root)
	})
	pass.Close()
}

type savedPath struct {
	node   *memento.Node
	path   treepath.Path
	failed bool
}

// restorePath is an element state entry being matched against the tree one
// level at a time.
type restorePath struct {
	elements []memento.Memento
	expanded bool
	selected bool

	at     widget.ItemID
	depth  int
	probed map[widget.ItemID]bool
}

func (r *restorePath) reset(root widget.ItemID) {
	r.at = root
	r.depth = 0
	r.probed = make(map[widget.ItemID]bool)
}

// RestoreElementState schedules the element state in m to be restored.
// Items are matched as their content arrives, through the compare capability
// of the model, so the state also applies to an input set later.
func (v *Viewer) RestoreElementState(m memento.Memento) {
	if v.disposed || m == nil {
		return
	}
	v.restore = nil
	for _, pn := range m.Children(TypePath) {
		elems := pn.Children(TypeElement)
		if len(elems) == 0 {
			continue
		}
		r := &restorePath{elements: elems}
		r.expanded, _ = pn.GetBool(KeyExpanded)
		r.selected, _ = pn.GetBool(KeySelected)
		r.reset(v.tree.Root())
		v.restore = append(v.restore, r)
	}
	root := v.tree.Root()
	if v.input == nil || !v.materialized[root] || len(v.restore) == 0 {
		return
	}
	pass := v.beginPass(false, "restore-state")
	v.restoreUnder(pass, root)
	pass.Close()
}

func (v *Viewer) resetRestore() {
	for _, r := range v.restore {
		r.reset(v.tree.Root())
	}
}

// restoreUnder compares the children of item against the next element of
// every restore entry that has matched item.
func (v *Viewer) restoreUnder(pass *pending.Pass, item widget.ItemID) {
	for _, r := range slices.Clone(v.restore) {
		if r.at != item || r.depth >= len(r.elements) {
			continue
		}
		for _, c := range v.tree.Children(item) {
			elem := v.tree.Data(c)
			if elem == nil || r.probed[c] {
				continue
			}
			r.probed[c] = true
			path := v.pathOf(c)
			depth := r.depth
			u := request.NewCompareUpdate(elem, path, r.elements[depth], v.ctx, v.notifier)
			v.issue(pass, u, func(u request.Update) {
				if u.Err() != nil || !u.(*request.CompareUpdate).Equal() {
					return
				}
				if r.at != item || r.depth != depth || !v.current(c, path) {
					return
				}
				v.matched(pass, r, c)
			})
		}
	}
}

func (v *Viewer) matched(pass *pending.Pass, r *restorePath, item widget.ItemID) {
	r.at = item
	r.depth++
	clear(r.probed)
	if r.depth < len(r.elements) {
		if v.materialized[item] {
			v.restoreUnder(pass, item)
			return
		}
		v.materialize(pass, item, nil)
		return
	}

	v.restore = slices.DeleteFunc(v.restore, func(x *restorePath) bool { return x == r })
	if r.expanded {
		v.materialize(pass, item, func() {
			if v.tree.Valid(item) {
				v.tree.SetExpanded(item, true)
			}
		})
	}
	if r.selected {
		sel := v.tree.Selection()
		if !slices.Contains(sel, item) {
			v.tree.SetSelection(append(slices.Clone(sel), item))
		}
	}
}
