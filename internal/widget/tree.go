package widget

// ItemID identifies a widget item. IDs are never reused, so an ID held after
// its item was disposed can never name another item.
type ItemID uint64

// NoItem is the zero ItemID. It never names an item.
const NoItem ItemID = 0

// Column describes one physical column.
type Column struct {
	ID     string
	Header string
	Image  string
	Width  int
}

// Tree is the mutation and query surface of a widget tree.
type Tree interface {
	// Root returns the invisible root item that shows the input.
	Root() ItemID
	Valid(item ItemID) bool
	Parent(item ItemID) ItemID
	// ChildCount returns the number of child slots, placeholders included.
	ChildCount(item ItemID) int
	Child(item ItemID, index int) ItemID
	Children(item ItemID) []ItemID
	// IndexOf returns the index of item under its parent, or -1.
	IndexOf(item ItemID) int

	// Insert creates an item at index under parent. The index is clamped to
	// the child count.
	Insert(parent ItemID, index int) ItemID
	// Remove disposes item and its subtree.
	Remove(item ItemID)
	// SetItemCount truncates or pads the children of item with placeholders.
	SetItemCount(item ItemID, n int)
	// Clear disposes every child of item.
	Clear(item ItemID)

	Data(item ItemID) any
	SetData(item ItemID, data any)
	Text(item ItemID, column int) string
	SetText(item ItemID, column int, text string)
	Image(item ItemID, column int) string
	SetImage(item ItemID, column int, image string)
	HasChildren(item ItemID) bool
	SetHasChildren(item ItemID, has bool)
	Expanded(item ItemID) bool
	SetExpanded(item ItemID, expanded bool)

	Selection() []ItemID
	SetSelection(items []ItemID)
	// ShowItem scrolls item into view.
	ShowItem(item ItemID)

	Columns() []Column
	// SetColumns replaces the physical columns. Nil removes them.
	SetColumns(cols []Column)
	SetColumnWidth(index, width int)
	// ColumnOrder returns the display order as a permutation of column
	// indexes.
	ColumnOrder() []int
	SetColumnOrder(order []int)
	HeaderVisible() bool
	SetHeaderVisible(visible bool)
	// Width returns the client width, zero before the first layout.
	Width() int

	AddListener(l Listener)
	RemoveListener(l Listener)
}

// Listener receives user-driven tree events.
type Listener interface {
	ColumnMoved()
	ColumnResized(index int)
	// Painted is called after every paint.
	Painted()
	// Expanded is called when the user expands an item.
	Expanded(item ItemID)
	// Collapsed is called when the user collapses an item.
	Collapsed(item ItemID)
}

// Row adapts one item to a sink of column texts and images.
type Row struct {
	Tree Tree
	Item ItemID
}

// SetText sets the text of a column.
func (r Row) SetText(column int, text string) {
	r.Tree.SetText(r.Item, column, text)
}

// SetImage sets the image of a column.
func (r Row) SetImage(column int, image string) {
	r.Tree.SetImage(r.Item, column, image)
}

// Listeners is a Listener built from optional functions.
type Listeners struct {
	OnColumnMoved   func()
	OnColumnResized func(index int)
	OnPainted       func()
	OnExpanded      func(item ItemID)
	OnCollapsed     func(item ItemID)
}

func (l *Listeners) ColumnMoved() {
	if l.OnColumnMoved != nil {
		l.OnColumnMoved()
	}
}

func (l *Listeners) ColumnResized(index int) {
	if l.OnColumnResized != nil {
		l.OnColumnResized(index)
	}
}

func (l *Listeners) Painted() {
	if l.OnPainted != nil {
		l.OnPainted()
	}
}

func (l *Listeners) Expanded(item ItemID) {
	if l.OnExpanded != nil {
		l.OnExpanded(item)
	}
}

func (l *Listeners) Collapsed(item ItemID) {
	if l.OnCollapsed != nil {
		l.OnCollapsed(item)
	}
}
