package treepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type named struct {
	id   string
	name string
}

// Equal compares by id only, so two distinct pointers can be equal.
func (n *named) Equal(other any) bool {
	o, ok := other.(*named)
	return ok && o.id == n.id
}

func TestPath_Basics(t *testing.T) {
	p := New("a", "b", "c")

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, "a", p.First())
	assert.Equal(t, "c", p.Last())
	assert.Equal(t, "b", p.Segment(1))
	assert.True(t, p.Parent().Equals(New("a", "b")))
	assert.True(t, Empty.Parent().IsEmpty())
	assert.True(t, New("a").Parent().IsEmpty())
	assert.Nil(t, Empty.Last())
	assert.Equal(t, "/a/b/c", p.String())
	assert.Equal(t, "/", Empty.String())
}

func TestPath_Immutable(t *testing.T) {
	elems := []any{"a", "b"}
	p := New(elems...)
	elems[0] = "z"
	assert.Equal(t, "a", p.First())

	parent := p.Parent()
	child := parent.Append("x")
	assert.Equal(t, "b", p.Last(), "append on a parent must not write into the original")
	assert.Equal(t, "x", child.Last())

	segs := p.Segments()
	segs[1] = "mutated"
	assert.Equal(t, "b", p.Last())
}

func TestPath_EqualsIsStructural(t *testing.T) {
	a1 := &named{id: "a", name: "first"}
	a2 := &named{id: "a", name: "second"}

	tests := []struct {
		name string
		x, y Path
		want bool
	}{
		{"same strings", New("a", "b"), New("a", "b"), true},
		{"different length", New("a"), New("a", "b"), false},
		{"different segment", New("a", "b"), New("a", "c"), false},
		{"custom equality", New(a1, "x"), New(a2, "x"), true},
		{"empty", Empty, New(), true},
		{"uncomparable segments", New([]int{1}), New([]int{1}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.x.Equals(tt.y))
			if tt.want {
				assert.Equal(t, tt.x.Hash(), tt.y.Hash())
			}
		})
	}
}

func TestPath_StartsWith(t *testing.T) {
	p := New("a", "b", "c")
	assert.True(t, p.StartsWith(Empty))
	assert.True(t, p.StartsWith(New("a", "b")))
	assert.True(t, p.StartsWith(p))
	assert.False(t, p.StartsWith(New("b")))
	assert.False(t, New("a").StartsWith(p))
}

func TestCache_MapUnmap(t *testing.T) {
	c := NewCache[int]()
	c.Map(1, New("a"))
	c.Map(2, New("a", "b"))
	c.Map(3, New("x", "b"))

	assert.Equal(t, []int{2, 3}, c.Handles("b"))
	assert.Equal(t, []int{2}, c.HandlesAt(New("a", "b")))

	path, ok := c.Path(2)
	require.True(t, ok)
	assert.True(t, path.Equals(New("a", "b")))

	// Parent unmapped first: the child's cached path still answers.
	_, ok = c.Unmap(1)
	require.True(t, ok)
	path, ok = c.Path(2)
	require.True(t, ok)
	assert.True(t, path.Equals(New("a", "b")))

	_, ok = c.Unmap(2)
	require.True(t, ok)
	assert.Equal(t, []int{3}, c.Handles("b"))
	assert.Empty(t, c.HandlesAt(New("a", "b")))
	_, ok = c.Path(2)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestCache_UnmappedHandleNeverAnswers(t *testing.T) {
	c := NewCache[int]()
	c.Map(1, New("a", "b"))
	c.Unmap(1)

	// A different live handle now shows the same path.
	c.Map(7, New("a", "b"))
	assert.Equal(t, []int{7}, c.HandlesAt(New("a", "b")))
	assert.False(t, c.Contains(1))

	// Remapping replaces the previous entry.
	c.Map(7, New("a", "c"))
	assert.Empty(t, c.Handles("b"))
	assert.Equal(t, []int{7}, c.Handles("c"))

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Handles("c"))
}
