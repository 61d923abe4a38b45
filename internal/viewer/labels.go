package viewer

import (
	"github.com/dshills/modelview/internal/request"
	"github.com/dshills/modelview/internal/treepath"
	"github.com/dshills/modelview/internal/widget"
)

type labelGroup struct {
	element any
	updates []*request.LabelUpdate
}

// ApplyLabels applies completed label updates to the items showing their
// element. Updates are grouped by element so an element shown more than
// once is looked up once. An update with a path only touches the item at
// that path.
func (v *Viewer) ApplyLabels(updates []*request.LabelUpdate) {
	if v.disposed {
		return
	}
	var groups []*labelGroup
	for _, u := range updates {
		if u == nil || u.Err() != nil {
			continue
		}
		g := findGroup(groups, u.Element())
		if g == nil {
			g = &labelGroup{element: u.Element()}
			groups = append(groups, g)
		}
		g.updates = append(g.updates, u)
	}
	for _, g := range groups {
		items := v.items(g.element)
		for _, u := range g.updates {
			for _, item := range items {
				if !u.Path().IsEmpty() && !v.current(item, u.Path()) {
					continue
				}
				u.Apply(widget.Row{Tree: v.tree, Item: item})
			}
		}
	}
}

func findGroup(groups []*labelGroup, element any) *labelGroup {
	for _, g := range groups {
		if treepath.ElementsEqual(g.element, element) {
			return g
		}
	}
	return nil
}
