// Package memento provides the hierarchical keyed store used to persist
// viewer state and encoded element state.
//
// A memento is a node with a type, an optional id, typed attributes and an
// ordered list of child mementos. The store is abstract; Node is the in-memory
// implementation and the badgerstore subpackage persists Node trees as flat
// keys.
package memento

import (
	"maps"
	"slices"
	"strconv"
)

// Memento is a node of a hierarchical keyed store.
type Memento interface {
	// Type returns the node type.
	Type() string
	// ID returns the node id, or "" when none was given.
	ID() string

	// CreateChild appends a child node of the given type and id.
	CreateChild(typ, id string) Memento
	// Child returns the first child of the given type.
	Child(typ string) (Memento, bool)
	// Children returns the children of the given type in creation order.
	Children(typ string) []Memento

	PutString(key, value string)
	GetString(key string) (string, bool)
	PutInt(key string, value int)
	GetInt(key string) (int, bool)
	PutBool(key string, value bool)
	GetBool(key string) (bool, bool)

	// Keys returns the attribute keys in sorted order.
	Keys() []string
}

// Root is the node type of a root memento.
const Root = "memento"

// Node is the in-memory Memento. Attribute values are stored as strings, as a
// keyed store would; typed getters parse them on read.
type Node struct {
	typ      string
	id       string
	attrs    map[string]string
	children []*Node
}

var _ Memento = (*Node)(nil)

// New creates a root node.
func New() *Node {
	return NewNode(Root, "")
}

// NewNode creates a detached node.
func NewNode(typ, id string) *Node {
	return &Node{typ: typ, id: id, attrs: make(map[string]string)}
}

// Type returns the node type.
func (n *Node) Type() string { return n.typ }

// ID returns the node id.
func (n *Node) ID() string { return n.id }

// CreateChild appends a new child node.
func (n *Node) CreateChild(typ, id string) Memento {
	return n.AddChild(NewNode(typ, id))
}

// AddChild appends an existing node as a child and returns it.
func (n *Node) AddChild(child *Node) *Node {
	n.children = append(n.children, child)
	return child
}

// Child returns the first child of the given type.
func (n *Node) Child(typ string) (Memento, bool) {
	for _, c := range n.children {
		if c.typ == typ {
			return c, true
		}
	}
	return nil, false
}

// Children returns the children of the given type.
func (n *Node) Children(typ string) []Memento {
	var out []Memento
	for _, c := range n.children {
		if c.typ == typ {
			out = append(out, c)
		}
	}
	return out
}

// Nodes returns all children regardless of type.
func (n *Node) Nodes() []*Node {
	return slices.Clone(n.children)
}

// PutString sets a string attribute.
func (n *Node) PutString(key, value string) { n.attrs[key] = value }

// GetString returns a string attribute.
func (n *Node) GetString(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// PutInt sets an integer attribute.
func (n *Node) PutInt(key string, value int) { n.attrs[key] = strconv.Itoa(value) }

// GetInt returns an integer attribute. A value that does not parse is treated as
// absent.
func (n *Node) GetInt(key string) (int, bool) {
	v, ok := n.attrs[key]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

// PutBool sets a boolean attribute.
func (n *Node) PutBool(key string, value bool) { n.attrs[key] = strconv.FormatBool(value) }

// GetBool returns a boolean attribute.
func (n *Node) GetBool(key string) (bool, bool) {
	v, ok := n.attrs[key]
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Keys returns the attribute keys in sorted order.
func (n *Node) Keys() []string {
	return slices.Sorted(maps.Keys(n.attrs))
}

// Copy returns a deep copy of the node.
func (n *Node) Copy() *Node {
	out := &Node{typ: n.typ, id: n.id, attrs: maps.Clone(n.attrs)}
	for _, c := range n.children {
		out.children = append(out.children, c.Copy())
	}
	return out
}

// Equal reports whether two nodes have the same type, id, attributes and
// children in the same order.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.typ != other.typ || n.id != other.id || !maps.Equal(n.attrs, other.attrs) {
		return false
	}
	return slices.EqualFunc(n.children, other.children, (*Node).Equal)
}
