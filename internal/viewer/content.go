package viewer

import (
	"fmt"
	"slices"

	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/pending"
	"github.com/dshills/modelview/internal/request"
	"github.com/dshills/modelview/internal/treepath"
	"github.com/dshills/modelview/internal/widget"
)

// notifier hands completions, and terminal calls repeated on completed
// requests, to the UI loop.
type notifier struct {
	v *Viewer
}

func (n notifier) Completed(u request.Update) { n.v.completed(u) }

func (n notifier) Duplicate(u request.Update) {
	if err := n.v.loop.Post(func() { n.v.coalescer.Duplicated(u) }); err != nil {
		n.v.logger.Warn("duplicate completion dropped", "kind", u.Kind(), "error", err)
	}
}

// completed runs on the completing goroutine and hands the request to the
// UI loop.
func (v *Viewer) completed(u request.Update) {
	if err := v.loop.Post(func() { v.complete(u) }); err != nil {
		v.logger.Warn("completion dropped", "kind", u.Kind(), "path", u.Path(), "error", err)
	}
}

func (v *Viewer) complete(u request.Update) {
	if err := u.Err(); err != nil {
		v.logger.Debug("request failed", "kind", u.Kind(), "path", u.Path(), "error", err)
	}
	if !v.coalescer.Complete(u) {
		v.logger.Debug("completion discarded", "kind", u.Kind(), "path", u.Path())
	}
	v.fireComplete(u)
}

// issue registers u in pass and dispatches it to the model unless an equal
// request is already in flight.
func (v *Viewer) issue(pass *pending.Pass, u request.Update, apply pending.ApplyFunc) {
	if v.coalescer.Issue(pass, u, apply) {
		v.dispatch(u)
	}
}

// dispatch hands u to the capability of its element. A missing capability
// answers with a neutral result: no children, the element's default
// formatting as label, not equal.
func (v *Viewer) dispatch(u request.Update) {
	v.fireStarted(u)
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("model capability panicked", "kind", u.Kind(), "path", u.Path(), "panic", r)
			u.Fail(fmt.Errorf("%w: %v", ErrModelPanic, r))
		}
	}()

	elem := u.Element()
	switch u := u.(type) {
	case *request.ChildrenUpdate:
		if cp, ok := model.Content(elem); ok {
			cp.Children(u)
			return
		}
		u.Done()
	case *request.CountUpdate:
		if cp, ok := model.Content(elem); ok {
			cp.ChildCount(u)
			return
		}
		u.Done()
	case *request.HasChildrenUpdate:
		if cp, ok := model.Content(elem); ok {
			cp.HasChildren(u)
			return
		}
		u.Done()
	case *request.LabelUpdate:
		if lp, ok := model.Labels(elem); ok {
			lp.Label(u)
			return
		}
		u.SetLabel(0, fmt.Sprint(elem))
		u.Done()
	case *request.MementoUpdate:
		if mp, ok := model.Mementos(elem); ok {
			mp.Encode(u)
			return
		}
		u.Fail(request.ErrNotSupported)
	case *request.CompareUpdate:
		if mp, ok := model.Mementos(elem); ok {
			mp.Compare(u)
			return
		}
		u.Done()
	default:
		u.Fail(request.ErrNotSupported)
	}
}

// element returns the element item shows: the input for the root.
func (v *Viewer) element(item widget.ItemID) any {
	if item == v.tree.Root() {
		return v.input
	}
	return v.tree.Data(item)
}

func (v *Viewer) pathOf(item widget.ItemID) treepath.Path {
	return v.applier.PathOf(item)
}

// current reports whether item still shows the element at path.
func (v *Viewer) current(item widget.ItemID, path treepath.Path) bool {
	if !v.tree.Valid(item) {
		return false
	}
	p, ok := v.cache.Path(item)
	return ok && p.Equals(path)
}

// materialize fetches the children of item unless they are already in
// place, then runs then in pass order.
func (v *Viewer) materialize(pass *pending.Pass, item widget.ItemID, then func()) {
	if !v.materialized[item] {
		v.fetchChildren(pass, item, false)
	}
	if then != nil {
		pass.Enqueue(then)
	}
}

func (v *Viewer) refreshStructure(pass *pending.Pass, item widget.ItemID, then func()) {
	v.fetchChildren(pass, item, true)
	if then != nil {
		pass.Enqueue(then)
	}
}

// fetchChildren asks for the child count, shown as placeholders until the
// children arrive, and then for the children themselves.
func (v *Viewer) fetchChildren(pass *pending.Pass, item widget.ItemID, refresh bool) {
	elem := v.element(item)
	if elem == nil {
		return
	}
	path := v.pathOf(item)
	epoch := v.coalescer.Epoch()

	v.issue(pass, request.NewCountUpdate(elem, path, v.ctx, v.notifier), func(u request.Update) {
		if u.Err() != nil || !v.current(item, path) || v.materialized[item] {
			return
		}
		n := u.(*request.CountUpdate).Count()
		if n > v.tree.ChildCount(item) {
			v.tree.SetItemCount(item, n)
		}
		v.tree.SetHasChildren(item, n > 0)
	})
	v.issue(pass, request.NewChildrenUpdate(elem, path, v.ctx, v.notifier), func(u request.Update) {
		if !v.current(item, path) || !v.fresh(item, u.Kind(), epoch) {
			return
		}
		if u.Err() != nil {
			v.dropPlaceholders(item)
			return
		}
		v.setChildren(pass, item, path, u.(*request.ChildrenUpdate).Children(), refresh)
		v.materialized[item] = true
		v.restoreUnder(pass, item)
	})
}

func (v *Viewer) dropPlaceholders(item widget.ItemID) {
	for i := v.tree.ChildCount(item) - 1; i >= 0; i-- {
		if c := v.tree.Child(item, i); v.tree.Data(c) == nil {
			v.tree.Remove(c)
		}
	}
}

// setChildren reconciles the children of item with the list the model
// reported. Items still showing a listed element are kept with their
// expansion and selection; placeholders are filled; other items are
// disposed.
func (v *Viewer) setChildren(pass *pending.Pass, item widget.ItemID, path treepath.Path, children []any, refresh bool) {
	i := 0
	for i < len(children) {
		elem := children[i]
		cur := v.tree.Child(item, i)
		switch {
		case cur == widget.NoItem:
			v.newChild(pass, v.tree.Insert(item, i), path, elem)
			i++
		case v.tree.Data(cur) == nil:
			v.newChild(pass, cur, path, elem)
			i++
		case treepath.ElementsEqual(v.tree.Data(cur), elem):
			if refresh {
				v.refreshKept(pass, cur)
			}
			i++
		case !slices.ContainsFunc(children[i+1:], func(e any) bool {
			return treepath.ElementsEqual(e, v.tree.Data(cur))
		}):
			v.disposeItem(cur)
			v.tree.Remove(cur)
		default:
			v.newChild(pass, v.tree.Insert(item, i), path, elem)
			i++
		}
	}
	for n := v.tree.ChildCount(item); n > len(children); n-- {
		last := v.tree.Child(item, n-1)
		v.disposeItem(last)
		v.tree.Remove(last)
	}
	v.tree.SetHasChildren(item, len(children) > 0)
}

func (v *Viewer) newChild(pass *pending.Pass, item widget.ItemID, parent treepath.Path, elem any) {
	v.tree.SetData(item, elem)
	v.cache.Map(item, parent.Append(elem))
	v.populate(pass, item)
}

// refreshKept refreshes an item that survived a structure refresh. Expanded
// items are refreshed in depth; collapsed ones forget their children and
// fetch them again when expanded.
func (v *Viewer) refreshKept(pass *pending.Pass, item widget.ItemID) {
	v.refreshLabel(pass, item)
	if !v.materialized[item] {
		v.refreshHasChildren(pass, item)
		return
	}
	if v.tree.Expanded(item) {
		v.fetchChildren(pass, item, true)
		return
	}
	for _, c := range v.tree.Children(item) {
		v.disposeItem(c)
	}
	v.tree.Clear(item)
	delete(v.materialized, item)
	v.refreshHasChildren(pass, item)
}

// populate requests the label and has-children state of a new item.
func (v *Viewer) populate(pass *pending.Pass, item widget.ItemID) {
	v.refreshLabel(pass, item)
	v.refreshHasChildren(pass, item)
}

func (v *Viewer) refreshLabel(pass *pending.Pass, item widget.ItemID) {
	if item == v.tree.Root() {
		return
	}
	elem := v.tree.Data(item)
	path := v.pathOf(item)
	epoch := v.coalescer.Epoch()
	v.issue(pass, request.NewLabelUpdate(elem, path, v.ctx.Columns(), v.ctx, v.notifier), func(u request.Update) {
		if !v.current(item, path) || !v.fresh(item, u.Kind(), epoch) || u.Err() != nil {
			return
		}
		u.(*request.LabelUpdate).Apply(widget.Row{Tree: v.tree, Item: item})
	})
}

func (v *Viewer) refreshHasChildren(pass *pending.Pass, item widget.ItemID) {
	elem := v.tree.Data(item)
	path := v.pathOf(item)
	epoch := v.coalescer.Epoch()
	v.issue(pass, request.NewHasChildrenUpdate(elem, path, v.ctx, v.notifier), func(u request.Update) {
		if !v.current(item, path) || !v.fresh(item, u.Kind(), epoch) || u.Err() != nil {
			return
		}
		has := u.(*request.HasChildrenUpdate).HasChildren()
		if !v.materialized[item] {
			v.tree.SetHasChildren(item, has)
		}
		if has && v.shouldAutoExpand(path) {
			v.materialize(pass, item, func() {
				if v.tree.Valid(item) {
					v.tree.SetExpanded(item, true)
				}
			})
		}
	})
}

type appliedKey struct {
	item widget.ItemID
	kind request.Kind
}

// fresh reports whether a result of kind issued in epoch may still be
// applied to item and records its epoch. A result issued before the last
// one applied describes an older model and is dropped.
func (v *Viewer) fresh(item widget.ItemID, kind request.Kind, epoch uint64) bool {
	k := appliedKey{item: item, kind: kind}
	if epoch < v.applied[k] {
		v.logger.Debug("outdated result dropped", "kind", kind, "item", item)
		return false
	}
	v.applied[k] = epoch
	return true
}

// repopulate requests the label and has-children state of items that never
// got an answer because the pass that asked was superseded.
func (v *Viewer) repopulate() {
	var missing []widget.ItemID
	var walk func(item widget.ItemID)
	walk = func(item widget.ItemID) {
		for _, c := range v.tree.Children(item) {
			if v.tree.Data(c) == nil {
				continue
			}
			if !v.answered(c) {
				if path, ok := v.cache.Path(c); ok && v.coalescer.Pending(path) == 0 {
					missing = append(missing, c)
				}
			}
			walk(c)
		}
	}
	walk(v.tree.Root())
	if len(missing) == 0 {
		return
	}
	pass := v.beginPass(false, "repopulate")
	for _, item := range missing {
		v.populate(pass, item)
	}
	pass.Close()
}

func (v *Viewer) answered(item widget.ItemID) bool {
	_, label := v.applied[appliedKey{item: item, kind: request.KindLabel}]
	_, has := v.applied[appliedKey{item: item, kind: request.KindHasChildren}]
	return label && has
}

func (v *Viewer) shouldAutoExpand(path treepath.Path) bool {
	return v.autoExpand == AutoExpandAll || path.Len() < v.autoExpand
}

// disposeItem forgets item and its subtree, invalidates their requests and
// disposes model proxies installed below it. The widget itself is left to
// the caller. While a duplicate of item shows the same path its requests
// and proxies are shared and stay live; results for item are then dropped
// because it is no longer mapped.
func (v *Viewer) disposeItem(item widget.ItemID) {
	if path, ok := v.cache.Path(item); ok && !v.shared(item, path) {
		v.coalescer.Invalidate(path)
		v.disposeProxies(path)
	}
	v.unmap(item)
}

// shared reports whether an item other than item is mapped to path.
func (v *Viewer) shared(item widget.ItemID, path treepath.Path) bool {
	for _, h := range v.cache.HandlesAt(path) {
		if h != item {
			return true
		}
	}
	return false
}

func (v *Viewer) unmap(item widget.ItemID) {
	for _, c := range v.tree.Children(item) {
		v.unmap(c)
	}
	v.cache.Unmap(item)
	delete(v.materialized, item)
	for _, kind := range []request.Kind{request.KindChildren, request.KindHasChildren, request.KindLabel} {
		delete(v.applied, appliedKey{item: item, kind: kind})
	}
}

// install installs the model proxy of element, once per path.
func (v *Viewer) install(element any, path treepath.Path) {
	f, ok := model.ModelProxies(element)
	if !ok {
		return
	}
	for _, p := range v.proxies {
		if p.path.Equals(path) {
			return
		}
	}
	proxy := f.CreateModelProxy(element, v.ctx)
	if proxy == nil {
		return
	}
	proxy.Init(v.ctx)
	proxy.Install(v.ModelChanged)
	v.proxies = append(v.proxies, installedProxy{path: path, proxy: proxy})
	v.logger.Debug("model proxy installed", "path", path)
}

// disposeProxies disposes the proxies installed at or below path.
func (v *Viewer) disposeProxies(path treepath.Path) {
	kept := v.proxies[:0]
	for _, p := range v.proxies {
		if p.path.StartsWith(path) {
			p.proxy.Dispose()
			continue
		}
		kept = append(kept, p)
	}
	clear(v.proxies[len(kept):])
	v.proxies = kept
}

func (v *Viewer) userExpanded(item widget.ItemID) {
	if v.disposed || v.materialized[item] {
		return
	}
	pass := v.beginPass(false, "expand")
	v.materialize(pass, item, nil)
	pass.Close()
}

// reconcileHost exposes the viewer to the delta applier.
type reconcileHost struct {
	v *Viewer
}

func (h reconcileHost) Input() any { return h.v.input }

func (h reconcileHost) Materialized(item widget.ItemID) bool { return h.v.materialized[item] }

func (h reconcileHost) Materialize(pass *pending.Pass, item widget.ItemID, then func()) {
	h.v.materialize(pass, item, then)
}

func (h reconcileHost) RefreshStructure(pass *pending.Pass, item widget.ItemID, then func()) {
	h.v.refreshStructure(pass, item, then)
}

func (h reconcileHost) RefreshLabel(pass *pending.Pass, item widget.ItemID) {
	h.v.refreshLabel(pass, item)
}

func (h reconcileHost) Populate(pass *pending.Pass, item widget.ItemID) {
	h.v.populate(pass, item)
}

func (h reconcileHost) MapItem(item widget.ItemID, path treepath.Path) {
	h.v.cache.Map(item, path)
}

func (h reconcileHost) DisposeItem(item widget.ItemID) {
	h.v.disposeItem(item)
}

func (h reconcileHost) Select(item widget.ItemID, force bool) {
	h.v.selectItems([]widget.ItemID{item}, false, force)
}

func (h reconcileHost) Reveal(item widget.ItemID) {
	h.v.tree.ShowItem(item)
}

func (h reconcileHost) Install(element any, path treepath.Path) {
	h.v.install(element, path)
}
