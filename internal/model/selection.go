package model

import (
	"slices"

	"github.com/dshills/modelview/internal/treepath"
)

// Selection is an ordered list of selected elements.
type Selection []any

// NewSelection creates a selection of the given elements.
func NewSelection(elems ...any) Selection {
	return Selection(slices.Clone(elems))
}

// First returns the first selected element, or nil.
func (s Selection) First() any {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return len(s) == 0
}

// Contains reports whether element is selected.
func (s Selection) Contains(element any) bool {
	return slices.ContainsFunc(s, func(e any) bool {
		return treepath.ElementsEqual(e, element)
	})
}

// Equal reports whether both selections hold equal elements in the same
// order.
func (s Selection) Equal(other Selection) bool {
	return slices.EqualFunc(s, other, treepath.ElementsEqual)
}
