package viewer

import (
	"fmt"
	"slices"

	"github.com/dshills/modelview/internal/pending"
	"github.com/dshills/modelview/internal/treepath"
	"github.com/dshills/modelview/internal/widget"
)

// Expand fetches and expands every item along path. Missing content is
// requested on the way down.
func (v *Viewer) Expand(path treepath.Path) error {
	if v.disposed {
		return ErrDisposed
	}
	pass := v.beginPass(false, "expand")
	v.expandFrom(pass, v.tree.Root(), path, 0)
	pass.Close()
	return nil
}

func (v *Viewer) expandFrom(pass *pending.Pass, item widget.ItemID, path treepath.Path, depth int) {
	v.materialize(pass, item, func() {
		if !v.tree.Valid(item) {
			return
		}
		if item != v.tree.Root() {
			v.tree.SetExpanded(item, true)
		}
		if depth == path.Len() {
			return
		}
		child := v.childOf(item, path.Segment(depth))
		if child == widget.NoItem {
			v.logger.Debug("expand target missing", "path", path, "depth", depth)
			return
		}
		v.expandFrom(pass, child, path, depth+1)
	})
}

// Collapse collapses the item showing path.
func (v *Viewer) Collapse(path treepath.Path) error {
	item := v.Item(path)
	if item == widget.NoItem {
		return fmt.Errorf("collapse %s: %w", path, ErrNoItem)
	}
	v.tree.SetExpanded(item, false)
	return nil
}

// Refresh fetches the whole visible structure and every label again in a
// new reconciliation pass.
func (v *Viewer) Refresh() {
	if v.disposed || v.input == nil {
		return
	}
	pass := v.beginPass(true, "refresh")
	v.refreshStructure(pass, v.tree.Root(), nil)
	pass.Close()
}

// RefreshElement refreshes every item showing element.
func (v *Viewer) RefreshElement(element any) {
	if v.disposed {
		return
	}
	if treepath.ElementsEqual(element, v.input) {
		v.Refresh()
		return
	}
	items := v.items(element)
	if len(items) == 0 {
		return
	}
	pass := v.beginPass(false, "refresh-element")
	for _, item := range items {
		v.refreshLabel(pass, item)
		if v.materialized[item] {
			v.refreshStructure(pass, item, nil)
		} else {
			v.refreshHasChildren(pass, item)
		}
	}
	pass.Close()
}

// Insert inserts element at index under every materialized item showing
// parent. The selection is kept.
func (v *Viewer) Insert(parent, element any, index int) {
	if v.disposed {
		return
	}
	sel := v.tree.Selection()
	pass := v.beginPass(false, "insert")
	for _, p := range v.parentItems(parent) {
		if !v.materialized[p] {
			v.tree.SetHasChildren(p, true)
			continue
		}
		at := index
		if at < 0 {
			at = v.tree.ChildCount(p)
		}
		v.newChild(pass, v.tree.Insert(p, at), v.pathOf(p), element)
		v.tree.SetHasChildren(p, true)
	}
	pass.Close()
	v.keepSelection(sel)
}

// Remove removes the child at index of every item showing parent. The
// selection is kept as far as its items survive.
func (v *Viewer) Remove(parent any, index int) {
	if v.disposed {
		return
	}
	sel := v.tree.Selection()
	for _, p := range v.parentItems(parent) {
		child := v.tree.Child(p, index)
		if child == widget.NoItem {
			continue
		}
		v.disposeItem(child)
		v.tree.Remove(child)
		if v.tree.ChildCount(p) == 0 {
			v.tree.SetHasChildren(p, false)
		}
	}
	v.keepSelection(sel)
}

func (v *Viewer) keepSelection(sel []widget.ItemID) {
	kept := slices.DeleteFunc(slices.Clone(sel), func(it widget.ItemID) bool {
		return !v.tree.Valid(it)
	})
	if !slices.Equal(kept, v.tree.Selection()) {
		v.tree.SetSelection(kept)
	}
}

// TreePaths returns the paths of every item showing element.
func (v *Viewer) TreePaths(element any) []treepath.Path {
	var out []treepath.Path
	for _, item := range v.items(element) {
		if p, ok := v.cache.Path(item); ok {
			out = append(out, p)
		}
	}
	return out
}

// Item returns the item showing path, or widget.NoItem.
func (v *Viewer) Item(path treepath.Path) widget.ItemID {
	if path.IsEmpty() {
		return v.tree.Root()
	}
	for _, item := range v.cache.HandlesAt(path) {
		if v.tree.Valid(item) {
			return item
		}
	}
	return widget.NoItem
}

// items returns the live items showing element in item order.
func (v *Viewer) items(element any) []widget.ItemID {
	var out []widget.ItemID
	for _, item := range v.cache.Handles(element) {
		if v.tree.Valid(item) && item != v.tree.Root() {
			out = append(out, item)
		}
	}
	slices.Sort(out)
	return out
}

func (v *Viewer) parentItems(parent any) []widget.ItemID {
	if treepath.ElementsEqual(parent, v.input) {
		return []widget.ItemID{v.tree.Root()}
	}
	return v.items(parent)
}

func (v *Viewer) childOf(item widget.ItemID, element any) widget.ItemID {
	for _, c := range v.tree.Children(item) {
		if treepath.ElementsEqual(v.tree.Data(c), element) {
			return c
		}
	}
	return widget.NoItem
}
