// Package treepath provides immutable tree paths and the path/handle identity
// cache used to map widget items back to the model elements they display.
//
// A Path is an ordered sequence of opaque model elements, starting below the
// viewer input. Paths compare structurally: two paths are equal when they have
// the same length and every segment is equal (see ElementsEqual). Paths never
// share mutable storage, so a Path handed out by the cache cannot be altered by
// later tree edits.
package treepath

import (
	"fmt"
	"hash/maphash"
	"reflect"
	"strings"
)

// Equaler is implemented by elements that define their own equality.
// Elements that do not implement it are compared with ==.
type Equaler interface {
	Equal(other any) bool
}

// Hasher is implemented by elements that define their own hash. It must be
// consistent with Equal.
type Hasher interface {
	Hash() uint64
}

var seed = maphash.MakeSeed()

// ElementsEqual reports whether two model elements are equal.
func ElementsEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if eq, ok := a.(Equaler); ok {
		return eq.Equal(b)
	}
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

// ElementHash returns a hash for a model element that is consistent with
// ElementsEqual.
func ElementHash(e any) uint64 {
	if e == nil {
		return 0
	}
	if h, ok := e.(Hasher); ok {
		return h.Hash()
	}
	if _, ok := e.(Equaler); ok || !isComparable(e) {
		// Custom equality without a custom hash: bucket by type only.
		return maphash.String(seed, reflect.TypeOf(e).String())
	}
	return maphash.Comparable(seed, e)
}

func isComparable(v any) bool {
	return reflect.TypeOf(v).Comparable()
}

// Path is an immutable ordered sequence of model elements.
type Path struct {
	segments []any
}

// Empty is the path of the viewer input itself.
var Empty = Path{}

// New creates a path from the given elements. The slice is copied.
func New(elems ...any) Path {
	if len(elems) == 0 {
		return Empty
	}
	segs := make([]any, len(elems))
	copy(segs, elems)
	return Path{segments: segs}
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// IsEmpty reports whether the path has no segments.
func (p Path) IsEmpty() bool {
	return len(p.segments) == 0
}

// Segment returns the element at index i.
func (p Path) Segment(i int) any {
	return p.segments[i]
}

// First returns the first segment, or nil for the empty path.
func (p Path) First() any {
	if len(p.segments) == 0 {
		return nil
	}
	return p.segments[0]
}

// Last returns the last segment, or nil for the empty path.
func (p Path) Last() any {
	if len(p.segments) == 0 {
		return nil
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns the path without its last segment. The parent of the empty
// path is the empty path.
func (p Path) Parent() Path {
	if len(p.segments) <= 1 {
		return Empty
	}
	return Path{segments: p.segments[:len(p.segments)-1:len(p.segments)-1]}
}

// Append returns a new path with elem added as the last segment.
func (p Path) Append(elem any) Path {
	segs := make([]any, len(p.segments)+1)
	copy(segs, p.segments)
	segs[len(p.segments)] = elem
	return Path{segments: segs}
}

// Segments returns a copy of the path's elements.
func (p Path) Segments() []any {
	out := make([]any, len(p.segments))
	copy(out, p.segments)
	return out
}

// Equals reports whether both paths have equal segments.
func (p Path) Equals(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := len(p.segments) - 1; i >= 0; i-- {
		if !ElementsEqual(p.segments[i], other.segments[i]) {
			return false
		}
	}
	return true
}

// StartsWith reports whether prefix is a leading sub-path of p. Every path
// starts with the empty path.
func (p Path) StartsWith(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i, s := range prefix.segments {
		if !ElementsEqual(p.segments[i], s) {
			return false
		}
	}
	return true
}

// Hash returns a hash consistent with Equals.
func (p Path) Hash() uint64 {
	var h uint64 = 14695981039346656037
	for _, s := range p.segments {
		h ^= ElementHash(s)
		h *= 1099511628211
	}
	return h
}

// String renders the path as "/a/b/c".
func (p Path) String() string {
	if len(p.segments) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, s := range p.segments {
		sb.WriteByte('/')
		fmt.Fprint(&sb, s)
	}
	return sb.String()
}
