// Package delta describes model changes as a tree of delta nodes.
//
// A delta tree mirrors the part of the model tree that changed. The root node
// is the viewer input; each child node names a child element, its index among
// its siblings and the number of children it had when the delta was built.
// Flags say what happened to the node and what the viewer should do with it.
//
// A delta is built by the model, handed once to the viewer and consumed by a
// single reconciliation pass. Indexes describe the model after the change;
// they are hints, not stable handles, once earlier siblings move.
package delta

import (
	"fmt"
	"strings"

	"github.com/dshills/modelview/internal/treepath"
)

// Flags is the set of changes carried by a delta node.
type Flags uint32

const (
	// NoChange marks a node that only leads to changed descendants.
	NoChange Flags = 0
	// Added marks an element appended to its parent.
	Added Flags = 1 << iota
	// Removed marks an element removed from its parent.
	Removed
	// Content marks an element whose children must be refreshed.
	Content
	// State marks an element whose label must be refreshed.
	State
	// Inserted marks an element inserted at Index.
	Inserted
	// Replaced marks an element replaced by Replacement.
	Replaced
	// Install asks the viewer to install the element's model proxy.
	Install
	// Uninstall asks the viewer to dispose the element's model proxy.
	Uninstall
	// Reveal asks the viewer to scroll the element into view.
	Reveal
	// Select asks the viewer to select the element.
	Select
	// Expand asks the viewer to expand the element.
	Expand
	// Force makes Select bypass the selection policy.
	Force
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{Added, "ADDED"},
	{Removed, "REMOVED"},
	{Content, "CONTENT"},
	{State, "STATE"},
	{Inserted, "INSERTED"},
	{Replaced, "REPLACED"},
	{Install, "INSTALL"},
	{Uninstall, "UNINSTALL"},
	{Reveal, "REVEAL"},
	{Select, "SELECT"},
	{Expand, "EXPAND"},
	{Force, "FORCE"},
}

// Has reports whether every flag in mask is set.
func (f Flags) Has(mask Flags) bool {
	return mask != 0 && f&mask == mask
}

// Any reports whether at least one flag in mask is set.
func (f Flags) Any(mask Flags) bool {
	return f&mask != 0
}

// String returns the flags as "ADDED|EXPAND", or "NO_CHANGE".
func (f Flags) String() string {
	if f == NoChange {
		return "NO_CHANGE"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// Unknown marks an index or child count the model did not provide.
const Unknown = -1

// Delta is a node of a delta tree.
type Delta struct {
	parent      *Delta
	element     any
	replacement any
	index       int
	childCount  int
	flags       Flags
	children    []*Delta
}

// New creates a root delta node for the viewer input.
func New(element any, flags Flags) *Delta {
	return &Delta{element: element, flags: flags, index: Unknown, childCount: Unknown}
}

// AddNode adds a child node with unknown index and child count.
func (d *Delta) AddNode(element any, flags Flags) *Delta {
	return d.add(&Delta{element: element, flags: flags, index: Unknown, childCount: Unknown})
}

// AddNodeAt adds a child node with a known index and child count.
func (d *Delta) AddNodeAt(element any, index int, flags Flags, childCount int) *Delta {
	return d.add(&Delta{element: element, flags: flags, index: index, childCount: childCount})
}

// AddReplaced adds a child node recording that element was replaced by
// replacement. Replaced is added to flags.
func (d *Delta) AddReplaced(element, replacement any, index int, flags Flags) *Delta {
	return d.add(&Delta{
		element:     element,
		replacement: replacement,
		flags:       flags | Replaced,
		index:       index,
		childCount:  Unknown,
	})
}

func (d *Delta) add(child *Delta) *Delta {
	child.parent = d
	d.children = append(d.children, child)
	return child
}

// Parent returns the parent node, or nil for the root.
func (d *Delta) Parent() *Delta { return d.parent }

// Element returns the element the node describes.
func (d *Delta) Element() any { return d.element }

// SetElement changes the element the node describes. Used when a saved state
// node is matched against a live element.
func (d *Delta) SetElement(e any) { d.element = e }

// Replacement returns the replacing element of a Replaced node.
func (d *Delta) Replacement() any { return d.replacement }

// Index returns the index among siblings, or Unknown.
func (d *Delta) Index() int { return d.index }

// ChildCount returns the child count at construction time, or Unknown.
func (d *Delta) ChildCount() int { return d.childCount }

// Flags returns the node flags.
func (d *Delta) Flags() Flags { return d.flags }

// SetFlags replaces the node flags.
func (d *Delta) SetFlags(f Flags) { d.flags = f }

// Children returns the child nodes in insertion order.
func (d *Delta) Children() []*Delta { return d.children }

// ChildNode returns the first child node describing element.
func (d *Delta) ChildNode(element any) *Delta {
	for _, c := range d.children {
		if treepath.ElementsEqual(c.element, element) {
			return c
		}
	}
	return nil
}

// Path returns the elements from the root's child down to d. The root itself
// is the viewer input and is not part of the path.
func (d *Delta) Path() treepath.Path {
	var elems []any
	for n := d; n.parent != nil; n = n.parent {
		elems = append(elems, n.element)
	}
	for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
		elems[i], elems[j] = elems[j], elems[i]
	}
	return treepath.New(elems...)
}

// Visitor is called for each node during Accept. Returning false skips the
// node's children.
type Visitor func(d *Delta, depth int) bool

// Accept walks the tree depth first in insertion order.
func (d *Delta) Accept(v Visitor) {
	d.accept(v, 0)
}

func (d *Delta) accept(v Visitor, depth int) {
	if !v(d, depth) {
		return
	}
	for _, c := range d.children {
		c.accept(v, depth+1)
	}
}

// String returns an indented dump of the tree.
func (d *Delta) String() string {
	var sb strings.Builder
	d.Accept(func(n *Delta, depth int) bool {
		fmt.Fprintf(&sb, "%s%v %s", strings.Repeat("  ", depth), n.element, n.flags)
		if n.index != Unknown {
			fmt.Fprintf(&sb, " index=%d", n.index)
		}
		if n.childCount != Unknown {
			fmt.Fprintf(&sb, " children=%d", n.childCount)
		}
		if n.flags.Any(Replaced) {
			fmt.Fprintf(&sb, " replacement=%v", n.replacement)
		}
		sb.WriteByte('\n')
		return true
	})
	return sb.String()
}
