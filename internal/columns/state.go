package columns

import (
	"maps"
	"slices"
	"strconv"

	"github.com/dshills/modelview/internal/memento"
)

// Memento node types and keys of persisted column state.
const (
	TypeColumnSizes    = "COLUMN_SIZES"
	TypeShowColumns    = "SHOW_COLUMNS"
	TypeVisibleColumns = "VISIBLE_COLUMNS"
	TypeColumnOrder    = "COLUMN_ORDER"

	keySize   = "SIZE"
	keyColumn = "COLUMN"
	keyShow   = "SHOW_COLUMNS"
)

// State holds per-presentation column customizations. Every mapping is
// optional; an absent entry means the presentation's default.
type State struct {
	visible map[string][]string
	order   map[string][]int
	widths  map[string]map[string]int
	hidden  map[string]bool
}

// NewState creates empty state.
func NewState() *State {
	return &State{
		visible: make(map[string][]string),
		order:   make(map[string][]int),
		widths:  make(map[string]map[string]int),
		hidden:  make(map[string]bool),
	}
}

// Visible returns the visible column override of a presentation.
func (s *State) Visible(pid string) ([]string, bool) {
	ids, ok := s.visible[pid]
	return slices.Clone(ids), ok
}

// SetVisible stores a visible column override. Nil removes it.
func (s *State) SetVisible(pid string, ids []string) {
	if ids == nil {
		delete(s.visible, pid)
		return
	}
	s.visible[pid] = slices.Clone(ids)
}

// Order returns the column order override of a presentation.
func (s *State) Order(pid string) ([]int, bool) {
	order, ok := s.order[pid]
	return slices.Clone(order), ok
}

// SetOrder stores a column order. Nil or the identity permutation removes the
// override.
func (s *State) SetOrder(pid string, order []int) {
	if isIdentity(order) {
		delete(s.order, pid)
		return
	}
	s.order[pid] = slices.Clone(order)
}

func isIdentity(order []int) bool {
	for i, v := range order {
		if i != v {
			return false
		}
	}
	return true
}

// Width returns the persisted width of a column.
func (s *State) Width(pid, column string) (int, bool) {
	w, ok := s.widths[pid][column]
	return w, ok
}

// SetWidth persists the width of a column.
func (s *State) SetWidth(pid, column string, width int) {
	m, ok := s.widths[pid]
	if !ok {
		m = make(map[string]int)
		s.widths[pid] = m
	}
	m[column] = width
}

// ResetWidths forgets the persisted widths of columns.
func (s *State) ResetWidths(pid string, columns ...string) {
	m, ok := s.widths[pid]
	if !ok {
		return
	}
	for _, c := range columns {
		delete(m, c)
	}
	if len(m) == 0 {
		delete(s.widths, pid)
	}
}

// Show reports whether columns are shown for a presentation. The default is
// true.
func (s *State) Show(pid string) bool {
	return !s.hidden[pid]
}

// SetShow records whether columns are shown.
func (s *State) SetShow(pid string, show bool) {
	if show {
		delete(s.hidden, pid)
		return
	}
	s.hidden[pid] = true
}

// IsEmpty reports whether no customization is stored.
func (s *State) IsEmpty() bool {
	return len(s.visible) == 0 && len(s.order) == 0 && len(s.widths) == 0 && len(s.hidden) == 0
}

// Save writes the state as children of m, one child per presentation id and
// category.
func (s *State) Save(m memento.Memento) {
	for _, pid := range slices.Sorted(maps.Keys(s.widths)) {
		sizes := m.CreateChild(TypeColumnSizes, pid)
		cols := s.widths[pid]
		for _, col := range slices.Sorted(maps.Keys(cols)) {
			sizes.CreateChild(keyColumn, col).PutInt(keySize, cols[col])
		}
	}
	for _, pid := range slices.Sorted(maps.Keys(s.hidden)) {
		m.CreateChild(TypeShowColumns, pid).PutBool(keyShow, false)
	}
	for _, pid := range slices.Sorted(maps.Keys(s.visible)) {
		ids := s.visible[pid]
		child := m.CreateChild(TypeVisibleColumns, pid)
		child.PutInt(keySize, len(ids))
		for i, id := range ids {
			child.PutString(keyColumn+strconv.Itoa(i), id)
		}
	}
	for _, pid := range slices.Sorted(maps.Keys(s.order)) {
		order := s.order[pid]
		child := m.CreateChild(TypeColumnOrder, pid)
		child.PutInt(keySize, len(order))
		for i, v := range order {
			child.PutInt(keyColumn+strconv.Itoa(i), v)
		}
	}
}

// Restore merges the state saved in m. Malformed entries are skipped.
func (s *State) Restore(m memento.Memento) {
	for _, sizes := range m.Children(TypeColumnSizes) {
		for _, col := range sizes.Children(keyColumn) {
			if w, ok := col.GetInt(keySize); ok {
				s.SetWidth(sizes.ID(), col.ID(), w)
			}
		}
	}
	for _, child := range m.Children(TypeShowColumns) {
		if show, ok := child.GetBool(keyShow); ok && !show {
			s.SetShow(child.ID(), false)
		}
	}
	for _, child := range m.Children(TypeVisibleColumns) {
		n, ok := child.GetInt(keySize)
		if !ok || n < 0 {
			continue
		}
		ids := make([]string, 0, n)
		for i := range n {
			id, ok := child.GetString(keyColumn + strconv.Itoa(i))
			if !ok {
				break
			}
			ids = append(ids, id)
		}
		if len(ids) == n {
			s.SetVisible(child.ID(), ids)
		}
	}
	for _, child := range m.Children(TypeColumnOrder) {
		n, ok := child.GetInt(keySize)
		if !ok || n < 0 {
			continue
		}
		order := make([]int, 0, n)
		for i := range n {
			v, ok := child.GetInt(keyColumn + strconv.Itoa(i))
			if !ok {
				break
			}
			order = append(order, v)
		}
		if len(order) == n {
			s.SetOrder(child.ID(), order)
		}
	}
}
