// Package columns manages the column layout of a viewer.
//
// A Manager resolves the column presentation of the viewer input through the
// input's ColumnPresentationFactory capability and rebuilds the physical
// columns of the widget tree whenever the presentation or the user's
// customization changes. Customizations (visible columns, order, widths and
// whether columns are shown at all) live in a State keyed by presentation id.
// The State survives input changes and is saved to and restored from a
// memento.
//
// User column moves and resizes are written back to the State as they
// happen.
package columns
