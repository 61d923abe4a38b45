package viewer

import (
	"github.com/dshills/modelview/internal/model"
)

// cellProxy resolves the column editor of the element being edited. One
// editor is live at a time; it is swapped when an element reports a
// different editor id.
type cellProxy struct {
	v        *Viewer
	editor   model.ColumnEditor
	editorID string
	cells    []model.CellEditor
}

func (c *cellProxy) editorFor(element any) model.ColumnEditor {
	f, ok := model.ColumnEditors(element)
	if !ok {
		return nil
	}
	id := f.EditorID(c.v.ctx, element)
	if id == "" {
		return nil
	}
	if c.editor != nil && c.editorID == id {
		return c.editor
	}
	c.dispose()
	ed := f.CreateEditor(c.v.ctx, element)
	if ed == nil {
		return nil
	}
	ed.Init(c.v.ctx)
	c.editor = ed
	c.editorID = id
	c.v.logger.Debug("column editor created", "editor", id)
	return ed
}

func (c *cellProxy) dispose() {
	for _, ce := range c.cells {
		if ce != nil {
			ce.Dispose()
		}
	}
	c.cells = nil
	if c.editor != nil {
		c.editor.Dispose()
		c.editor = nil
		c.editorID = ""
	}
}

// CanModify reports whether the column of element can be edited in place.
func (v *Viewer) CanModify(element any, column string) bool {
	ed := v.cells.editorFor(element)
	return ed != nil && ed.CanModify(element, column)
}

// Value returns the editable value of a cell, or nil.
func (v *Viewer) Value(element any, column string) any {
	ed := v.cells.editorFor(element)
	if ed == nil {
		return nil
	}
	return ed.Value(element, column)
}

// Modify writes value to a cell and requests the labels of element again.
func (v *Viewer) Modify(element any, column string, value any) {
	ed := v.cells.editorFor(element)
	if ed == nil || !ed.CanModify(element, column) {
		return
	}
	ed.Modify(element, column, value)

	items := v.items(element)
	if len(items) == 0 || v.disposed {
		return
	}
	pass := v.beginPass(false, "modify")
	for _, item := range items {
		v.refreshLabel(pass, item)
	}
	pass.Close()
}

// CellEditors returns the cell editors of element for the visible columns,
// nil where a column has none. Editors returned earlier are disposed.
func (v *Viewer) CellEditors(element any) []model.CellEditor {
	ed := v.cells.editorFor(element)
	for _, ce := range v.cells.cells {
		if ce != nil {
			ce.Dispose()
		}
	}
	v.cells.cells = nil
	if ed == nil {
		return nil
	}
	ids := v.ctx.Columns()
	out := make([]model.CellEditor, len(ids))
	for i, id := range ids {
		out[i] = ed.CellEditor(id, element)
	}
	v.cells.cells = out
	return out
}
