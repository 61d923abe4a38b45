package widget

import (
	"fmt"
	"slices"
	"strings"
)

type node struct {
	id          ItemID
	parent      ItemID
	children    []ItemID
	data        any
	texts       []string
	images      []string
	hasChildren bool
	expanded    bool
}

// Memory is an in-memory Tree. It backs tests and the terminal front end.
type Memory struct {
	nodes     map[ItemID]*node
	root      ItemID
	next      ItemID
	selection []ItemID
	shown     ItemID

	columns   []Column
	order     []int
	header    bool
	width     int
	listeners []Listener
}

// NewMemory creates an empty tree of the given client width.
func NewMemory(width int) *Memory {
	m := &Memory{
		nodes: make(map[ItemID]*node),
		width: width,
	}
	m.root = m.alloc(NoItem)
	return m
}

func (m *Memory) alloc(parent ItemID) ItemID {
	m.next++
	m.nodes[m.next] = &node{id: m.next, parent: parent}
	return m.next
}

func (m *Memory) Root() ItemID { return m.root }

func (m *Memory) Valid(item ItemID) bool {
	_, ok := m.nodes[item]
	return ok
}

func (m *Memory) Parent(item ItemID) ItemID {
	if n, ok := m.nodes[item]; ok {
		return n.parent
	}
	return NoItem
}

func (m *Memory) ChildCount(item ItemID) int {
	if n, ok := m.nodes[item]; ok {
		return len(n.children)
	}
	return 0
}

func (m *Memory) Child(item ItemID, index int) ItemID {
	n, ok := m.nodes[item]
	if !ok || index < 0 || index >= len(n.children) {
		return NoItem
	}
	return n.children[index]
}

func (m *Memory) Children(item ItemID) []ItemID {
	if n, ok := m.nodes[item]; ok {
		return slices.Clone(n.children)
	}
	return nil
}

func (m *Memory) IndexOf(item ItemID) int {
	n, ok := m.nodes[item]
	if !ok {
		return -1
	}
	p, ok := m.nodes[n.parent]
	if !ok {
		return -1
	}
	return slices.Index(p.children, item)
}

func (m *Memory) Insert(parent ItemID, index int) ItemID {
	p, ok := m.nodes[parent]
	if !ok {
		return NoItem
	}
	index = min(max(index, 0), len(p.children))
	id := m.alloc(parent)
	p.children = slices.Insert(p.children, index, id)
	return id
}

func (m *Memory) Remove(item ItemID) {
	n, ok := m.nodes[item]
	if !ok || item == m.root {
		return
	}
	if p, ok := m.nodes[n.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(c ItemID) bool { return c == item })
	}
	m.dispose(item)
}

func (m *Memory) dispose(item ItemID) {
	n, ok := m.nodes[item]
	if !ok {
		return
	}
	for _, c := range n.children {
		m.dispose(c)
	}
	delete(m.nodes, item)
	m.selection = slices.DeleteFunc(m.selection, func(s ItemID) bool { return s == item })
	if m.shown == item {
		m.shown = NoItem
	}
}

func (m *Memory) SetItemCount(item ItemID, count int) {
	n, ok := m.nodes[item]
	if !ok {
		return
	}
	count = max(count, 0)
	for len(n.children) > count {
		last := n.children[len(n.children)-1]
		n.children = n.children[:len(n.children)-1]
		m.dispose(last)
	}
	for len(n.children) < count {
		n.children = append(n.children, m.alloc(item))
	}
}

func (m *Memory) Clear(item ItemID) {
	m.SetItemCount(item, 0)
}

func (m *Memory) Data(item ItemID) any {
	if n, ok := m.nodes[item]; ok {
		return n.data
	}
	return nil
}

func (m *Memory) SetData(item ItemID, data any) {
	if n, ok := m.nodes[item]; ok {
		n.data = data
	}
}

func (m *Memory) Text(item ItemID, column int) string {
	if n, ok := m.nodes[item]; ok && column >= 0 && column < len(n.texts) {
		return n.texts[column]
	}
	return ""
}

func (m *Memory) SetText(item ItemID, column int, text string) {
	n, ok := m.nodes[item]
	if !ok || column < 0 {
		return
	}
	n.texts = grow(n.texts, column)
	n.texts[column] = text
}

func (m *Memory) Image(item ItemID, column int) string {
	if n, ok := m.nodes[item]; ok && column >= 0 && column < len(n.images) {
		return n.images[column]
	}
	return ""
}

func (m *Memory) SetImage(item ItemID, column int, image string) {
	n, ok := m.nodes[item]
	if !ok || column < 0 {
		return
	}
	n.images = grow(n.images, column)
	n.images[column] = image
}

func grow(s []string, index int) []string {
	if index < len(s) {
		return s
	}
	return append(s, make([]string, index+1-len(s))...)
}

func (m *Memory) HasChildren(item ItemID) bool {
	if n, ok := m.nodes[item]; ok {
		return n.hasChildren || len(n.children) > 0
	}
	return false
}

func (m *Memory) SetHasChildren(item ItemID, has bool) {
	n, ok := m.nodes[item]
	if !ok {
		return
	}
	n.hasChildren = has
	if !has {
		n.expanded = false
	}
}

func (m *Memory) Expanded(item ItemID) bool {
	if n, ok := m.nodes[item]; ok {
		return n.expanded
	}
	return false
}

func (m *Memory) SetExpanded(item ItemID, expanded bool) {
	if n, ok := m.nodes[item]; ok {
		n.expanded = expanded
	}
}

func (m *Memory) Selection() []ItemID {
	return slices.Clone(m.selection)
}

func (m *Memory) SetSelection(items []ItemID) {
	m.selection = m.selection[:0]
	for _, it := range items {
		if m.Valid(it) && it != m.root && !slices.Contains(m.selection, it) {
			m.selection = append(m.selection, it)
		}
	}
}

func (m *Memory) ShowItem(item ItemID) {
	if !m.Valid(item) {
		return
	}
	m.shown = item
	for p := m.Parent(item); p != NoItem; p = m.Parent(p) {
		m.SetExpanded(p, true)
	}
}

// Shown returns the item last scrolled into view.
func (m *Memory) Shown() ItemID {
	return m.shown
}

func (m *Memory) Columns() []Column {
	return slices.Clone(m.columns)
}

func (m *Memory) SetColumns(cols []Column) {
	m.columns = slices.Clone(cols)
	m.order = nil
	if len(cols) == 0 {
		m.columns = nil
	}
}

func (m *Memory) SetColumnWidth(index, width int) {
	if index >= 0 && index < len(m.columns) {
		m.columns[index].Width = width
	}
}

func (m *Memory) ColumnOrder() []int {
	if m.order != nil {
		return slices.Clone(m.order)
	}
	order := make([]int, len(m.columns))
	for i := range order {
		order[i] = i
	}
	return order
}

func (m *Memory) SetColumnOrder(order []int) {
	if len(order) != len(m.columns) {
		return
	}
	seen := make([]bool, len(order))
	for _, i := range order {
		if i < 0 || i >= len(order) || seen[i] {
			return
		}
		seen[i] = true
	}
	m.order = slices.Clone(order)
}

func (m *Memory) HeaderVisible() bool { return m.header }

func (m *Memory) SetHeaderVisible(visible bool) { m.header = visible }

func (m *Memory) Width() int { return m.width }

// SetWidth changes the client width, as a layout pass would.
func (m *Memory) SetWidth(width int) { m.width = width }

func (m *Memory) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

func (m *Memory) RemoveListener(l Listener) {
	m.listeners = slices.DeleteFunc(m.listeners, func(x Listener) bool { return x == l })
}

// Paint notifies listeners that the tree was painted.
func (m *Memory) Paint() {
	for _, l := range slices.Clone(m.listeners) {
		l.Painted()
	}
}

// UserResizeColumn resizes a column as the user dragging its edge would.
func (m *Memory) UserResizeColumn(index, width int) {
	if index < 0 || index >= len(m.columns) {
		return
	}
	m.columns[index].Width = width
	for _, l := range slices.Clone(m.listeners) {
		l.ColumnResized(index)
	}
}

// UserMoveColumns reorders columns as the user dragging a header would.
func (m *Memory) UserMoveColumns(order []int) {
	before := m.ColumnOrder()
	m.SetColumnOrder(order)
	if slices.Equal(before, m.ColumnOrder()) {
		return
	}
	for _, l := range slices.Clone(m.listeners) {
		l.ColumnMoved()
	}
}

// UserExpand expands or collapses an item as the user clicking its expander
// would.
func (m *Memory) UserExpand(item ItemID, expanded bool) {
	if !m.Valid(item) || m.Expanded(item) == expanded {
		return
	}
	m.SetExpanded(item, expanded)
	for _, l := range slices.Clone(m.listeners) {
		if expanded {
			l.Expanded(item)
		} else {
			l.Collapsed(item)
		}
	}
}

// Visible returns the items a user would see, in display order: the root's
// children and the children of every expanded item.
func (m *Memory) Visible() []ItemID {
	var out []ItemID
	var walk func(ItemID)
	walk = func(id ItemID) {
		for _, c := range m.nodes[id].children {
			out = append(out, c)
			if m.nodes[c].expanded {
				walk(c)
			}
		}
	}
	walk(m.root)
	return out
}

// Depth returns the depth of item below the root, starting at 0.
func (m *Memory) Depth(item ItemID) int {
	d := -1
	for p := item; p != NoItem && p != m.root; p = m.Parent(p) {
		d++
	}
	return d
}

// Dump renders every item's column-0 text, indented by depth. Placeholders
// are rendered as "?".
func (m *Memory) Dump() string {
	var b strings.Builder
	var walk func(ItemID, int)
	walk = func(id ItemID, depth int) {
		for _, c := range m.nodes[id].children {
			text := m.Text(c, 0)
			if m.nodes[c].data == nil {
				text = "?"
			}
			fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", depth), text)
			walk(c, depth+1)
		}
	}
	walk(m.root, 0)
	return b.String()
}

// Len returns the number of live items, the root included.
func (m *Memory) Len() int {
	return len(m.nodes)
}

var _ Tree = (*Memory)(nil)
