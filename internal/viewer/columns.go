package viewer

import (
	"github.com/dshills/modelview/internal/columns"
	"github.com/dshills/modelview/internal/model"
)

// ColumnPresentation returns the active column presentation, or nil.
func (v *Viewer) ColumnPresentation() model.ColumnPresentation {
	return v.columns.Presentation()
}

// ColumnState returns the persisted column customizations.
func (v *Viewer) ColumnState() *columns.State {
	return v.columns.State()
}

// IsShowColumns reports whether columns are displayed.
func (v *Viewer) IsShowColumns() bool {
	return v.columns.IsShowColumns()
}

// CanToggleColumns reports whether the user may turn columns off.
func (v *Viewer) CanToggleColumns() bool {
	return v.columns.CanToggleColumns()
}

// SetShowColumns turns columns on or off and refreshes the viewer.
func (v *Viewer) SetShowColumns(show bool) {
	v.columns.SetShowColumns(show)
}

// VisibleColumns returns the visible column ids.
func (v *Viewer) VisibleColumns() []string {
	return v.columns.VisibleColumns()
}

// SetVisibleColumns sets the visible columns and refreshes the viewer.
func (v *Viewer) SetVisibleColumns(ids []string) {
	v.columns.SetVisibleColumns(ids)
}

// ResetColumnSizes forgets the persisted widths of ids.
func (v *Viewer) ResetColumnSizes(ids []string) {
	v.columns.ResetColumnSizes(ids)
}

// ConfigureColumns resets the widths of ids and makes them the visible
// columns.
func (v *Viewer) ConfigureColumns(ids []string) {
	v.columns.ConfigureColumns(ids)
}

// AvailableColumns lists the columns of the active presentation.
func (v *Viewer) AvailableColumns() []columns.Choice {
	return v.columns.AvailableColumns()
}

// RefreshColumns rebuilds the columns and refreshes every label.
func (v *Viewer) RefreshColumns() {
	v.columns.Refresh()
}
