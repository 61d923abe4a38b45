package viewer

import (
	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/widget"
)

// Selection returns the selected elements.
func (v *Viewer) Selection() model.Selection {
	items := v.tree.Selection()
	sel := make(model.Selection, 0, len(items))
	for _, item := range items {
		if e := v.tree.Data(item); e != nil {
			sel = append(sel, e)
		}
	}
	return sel
}

// SetSelection selects the items showing sel unless the selection policy of
// the current selection keeps it. It reports whether the selection was
// applied.
func (v *Viewer) SetSelection(sel model.Selection, reveal bool) bool {
	return v.selectElements(sel, reveal, false)
}

// ForceSelection selects the items showing sel regardless of policy.
func (v *Viewer) ForceSelection(sel model.Selection, reveal bool) {
	v.selectElements(sel, reveal, true)
}

func (v *Viewer) selectElements(sel model.Selection, reveal, force bool) bool {
	if v.disposed {
		return false
	}
	var items []widget.ItemID
	for _, e := range sel {
		if found := v.items(e); len(found) > 0 {
			items = append(items, found[0])
		}
	}
	return v.selectItems(items, reveal, force)
}

func (v *Viewer) selectItems(items []widget.ItemID, reveal, force bool) bool {
	candidate := make(model.Selection, 0, len(items))
	for _, item := range items {
		candidate = append(candidate, v.tree.Data(item))
	}
	if !force && !v.arbiter.Overrides(v.Selection(), candidate) {
		v.logger.Debug("selection kept by policy", "candidate", len(candidate))
		return false
	}
	v.tree.SetSelection(items)
	if reveal && len(items) > 0 {
		v.tree.ShowItem(items[0])
	}
	return true
}
