package reconcile

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/dshills/modelview/internal/delta"
	"github.com/dshills/modelview/internal/pending"
	"github.com/dshills/modelview/internal/treepath"
	"github.com/dshills/modelview/internal/widget"
)

// Host is the viewer side of reconciliation: it owns request issuing and the
// item bookkeeping the Applier must not duplicate.
type Host interface {
	// Input returns the element shown by the tree root.
	Input() any
	// Materialized reports whether the children of item were fetched.
	Materialized(item widget.ItemID) bool
	// Materialize fetches the children of item within pass and runs then
	// once they are in place. Materialized items run then in pass order.
	Materialize(pass *pending.Pass, item widget.ItemID, then func())
	// RefreshStructure fetches the children of item again and runs then
	// once they are reconciled.
	RefreshStructure(pass *pending.Pass, item widget.ItemID, then func())
	// RefreshLabel requests the label of item again.
	RefreshLabel(pass *pending.Pass, item widget.ItemID)
	// Populate requests the label and has-children state of a new item.
	Populate(pass *pending.Pass, item widget.ItemID)
	// MapItem records the path of item.
	MapItem(item widget.ItemID, path treepath.Path)
	// DisposeItem forgets item and its subtree and invalidates their
	// pending requests. The Applier removes the widget afterwards.
	DisposeItem(item widget.ItemID)
	// Select applies a selection of item, through the selection policy
	// unless force is set.
	Select(item widget.ItemID, force bool)
	// Reveal scrolls item into view.
	Reveal(item widget.ItemID)
	// Install installs the model proxy of element.
	Install(element any, path treepath.Path)
}

// Stats counts what one application did.
type Stats struct {
	Visited  int
	Added    int
	Removed  int
	Replaced int
	Skipped  int
}

// Applier applies deltas. It is confined to the UI goroutine.
type Applier struct {
	tree   widget.Tree
	cache  *treepath.Cache[widget.ItemID]
	host   Host
	logger *slog.Logger
}

// New creates an applier.
func New(tree widget.Tree, cache *treepath.Cache[widget.ItemID], host Host, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{tree: tree, cache: cache, host: host, logger: logger}
}

// Apply applies the delta tree rooted at root within pass. The returned Stats
// keep counting while deferred parts of the delta run.
func (a *Applier) Apply(pass *pending.Pass, root *delta.Delta) *Stats {
	st := &Stats{}
	if root == nil {
		return st
	}
	items := a.locateRoot(root.Element())
	if len(items) == 0 {
		st.Skipped++
		a.logger.Debug("delta target not found", "element", root.Element())
		return st
	}
	for _, item := range items {
		a.applyNode(pass, st, root, item)
	}
	return st
}

func (a *Applier) locateRoot(element any) []widget.ItemID {
	if treepath.ElementsEqual(element, a.host.Input()) {
		return []widget.ItemID{a.tree.Root()}
	}
	var out []widget.ItemID
	for _, h := range a.cache.Handles(element) {
		if a.tree.Valid(h) {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return out
}

// PathOf returns the path of item: its cached path when mapped, otherwise
// the elements of its ancestors.
func (a *Applier) PathOf(item widget.ItemID) treepath.Path {
	if p, ok := a.cache.Path(item); ok {
		return p
	}
	var elems []any
	for it := item; it != widget.NoItem && it != a.tree.Root(); it = a.tree.Parent(it) {
		elems = append(elems, a.tree.Data(it))
	}
	slices.Reverse(elems)
	return treepath.New(elems...)
}

func (a *Applier) applyNode(pass *pending.Pass, st *Stats, d *delta.Delta, item widget.ItemID) {
	st.Visited++
	flags := d.Flags()

	if flags.Has(delta.Install) {
		a.host.Install(d.Element(), a.PathOf(item))
	}
	if flags.Has(delta.State) {
		a.host.RefreshLabel(pass, item)
	}

	children := func(structural bool) {
		if !a.tree.Valid(item) {
			return
		}
		a.applyChildren(pass, st, d, item, structural)
	}

	switch {
	case flags.Has(delta.Content):
		a.host.RefreshStructure(pass, item, func() {
			a.expand(flags, item)
			children(false)
		})
	case len(d.Children()) > 0 && !a.host.Materialized(item):
		a.host.Materialize(pass, item, func() {
			a.expand(flags, item)
			children(false)
		})
	case flags.Has(delta.Expand):
		a.host.Materialize(pass, item, func() { a.expand(flags, item) })
		children(true)
	default:
		children(true)
	}

	if flags.Has(delta.Select) {
		force := flags.Has(delta.Force)
		pass.Enqueue(func() {
			if a.tree.Valid(item) {
				a.host.Select(item, force)
			}
		})
	}
	if flags.Has(delta.Reveal) {
		pass.Enqueue(func() {
			if a.tree.Valid(item) {
				a.host.Reveal(item)
			}
		})
	}
}

func (a *Applier) expand(flags delta.Flags, item widget.ItemID) {
	if flags.Has(delta.Expand) && a.tree.Valid(item) && item != a.tree.Root() {
		a.tree.SetExpanded(item, true)
	}
}

// applyChildren handles the child deltas of d under item. When structural is
// false the children were just fetched from the model, which already
// reflects every addition and removal; only targets are located.
func (a *Applier) applyChildren(pass *pending.Pass, st *Stats, d *delta.Delta, item widget.ItemID, structural bool) {
	targets := make(map[*delta.Delta]widget.ItemID)
	if structural {
		a.remove(st, d, item)
		a.insert(pass, st, d, item, targets)
	}

	for _, cd := range d.Children() {
		f := cd.Flags()
		if f.Has(delta.Removed) {
			continue
		}
		child, ok := targets[cd]
		if !ok {
			child = a.findChild(item, cd.Element(), cd.Index())
			if child == widget.NoItem && f.Has(delta.Replaced) {
				child = a.findChild(item, cd.Replacement(), cd.Index())
				f &^= delta.Replaced
			}
		}
		if child == widget.NoItem {
			st.Skipped++
			a.logger.Debug("delta target not found", "element", cd.Element(), "flags", f)
			continue
		}
		if f.Has(delta.Replaced) {
			a.replace(pass, st, child, cd.Replacement())
		}
		a.applyNode(pass, st, cd, child)
	}
}

type removal struct {
	item  widget.ItemID
	index int
}

func (a *Applier) remove(st *Stats, d *delta.Delta, parent widget.ItemID) {
	var rs []removal
	for _, cd := range d.Children() {
		if !cd.Flags().Has(delta.Removed) {
			continue
		}
		child := a.findChild(parent, cd.Element(), cd.Index())
		if child == widget.NoItem || slices.ContainsFunc(rs, func(r removal) bool { return r.item == child }) {
			st.Skipped++
			continue
		}
		rs = append(rs, removal{item: child, index: a.tree.IndexOf(child)})
	}
	slices.SortFunc(rs, func(x, y removal) int { return cmp.Compare(y.index, x.index) })
	for _, r := range rs {
		a.host.DisposeItem(r.item)
		a.tree.Remove(r.item)
		st.Removed++
	}
}

func (a *Applier) insert(pass *pending.Pass, st *Stats, d *delta.Delta, parent widget.ItemID, targets map[*delta.Delta]widget.ItemID) {
	var adds []*delta.Delta
	for _, cd := range d.Children() {
		if cd.Flags().Any(delta.Added|delta.Inserted) && !cd.Flags().Has(delta.Removed) {
			adds = append(adds, cd)
		}
	}
	// Unknown indexes append, after every known one.
	slices.SortStableFunc(adds, func(x, y *delta.Delta) int {
		return cmp.Compare(insertKey(x.Index()), insertKey(y.Index()))
	})

	parentPath := a.PathOf(parent)
	for _, cd := range adds {
		n := a.tree.ChildCount(parent)
		index := cd.Index()
		if index < 0 || index > n {
			index = n
		}
		if existing := a.tree.Child(parent, index); existing != widget.NoItem &&
			treepath.ElementsEqual(a.tree.Data(existing), cd.Element()) {
			targets[cd] = existing
			continue
		}
		item := a.tree.Insert(parent, index)
		a.tree.SetData(item, cd.Element())
		a.host.MapItem(item, parentPath.Append(cd.Element()))
		a.host.Populate(pass, item)
		targets[cd] = item
		st.Added++
	}
}

func insertKey(index int) int {
	if index < 0 {
		return math.MaxInt
	}
	return index
}

func (a *Applier) replace(pass *pending.Pass, st *Stats, item widget.ItemID, replacement any) {
	a.tree.SetData(item, replacement)
	a.remap(item, a.PathOf(a.tree.Parent(item)).Append(replacement))
	a.host.RefreshLabel(pass, item)
	st.Replaced++
}

// remap rewrites the cached paths of item and its subtree.
func (a *Applier) remap(item widget.ItemID, path treepath.Path) {
	a.host.MapItem(item, path)
	for _, c := range a.tree.Children(item) {
		if data := a.tree.Data(c); data != nil {
			a.remap(c, path.Append(data))
		}
	}
}

// findChild returns the child of parent showing element, preferring the one
// closest to hint when the element appears more than once.
func (a *Applier) findChild(parent widget.ItemID, element any, hint int) widget.ItemID {
	best, bestDist := widget.NoItem, -1
	for i, c := range a.tree.Children(parent) {
		if !treepath.ElementsEqual(a.tree.Data(c), element) {
			continue
		}
		if hint < 0 {
			return c
		}
		dist := i - hint
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}
