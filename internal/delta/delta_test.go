package delta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modelview/internal/treepath"
)

func TestFlags(t *testing.T) {
	f := Added | Expand | Select
	assert.True(t, f.Has(Added))
	assert.True(t, f.Has(Expand|Select))
	assert.False(t, f.Has(Expand|Force))
	assert.True(t, f.Any(Force|Select))
	assert.False(t, f.Has(NoChange))
	assert.Equal(t, "ADDED|SELECT|EXPAND", f.String())
	assert.Equal(t, "NO_CHANGE", NoChange.String())
}

func TestDelta_Tree(t *testing.T) {
	root := New("launch", NoChange)
	target := root.AddNode("target", NoChange)
	thread := target.AddNodeAt("thread-1", 0, Content|Expand, 3)
	frame := thread.AddNodeAt("frame-0", 0, Select|Force, 0)
	repl := target.AddReplaced("thread-2", "thread-2b", 1, State)

	assert.Nil(t, root.Parent())
	assert.Same(t, thread, frame.Parent())
	assert.Equal(t, 3, thread.ChildCount())
	assert.Equal(t, Unknown, target.Index())
	assert.True(t, repl.Flags().Has(Replaced|State))
	assert.Equal(t, "thread-2b", repl.Replacement())

	assert.True(t, frame.Path().Equals(treepath.New("target", "thread-1", "frame-0")))
	assert.True(t, root.Path().IsEmpty())

	assert.Same(t, thread, target.ChildNode("thread-1"))
	assert.Nil(t, target.ChildNode("nope"))

	frame.SetElement("frame-0b")
	assert.Equal(t, "frame-0b", frame.Element())
}

func TestDelta_AcceptAndString(t *testing.T) {
	root := New("in", NoChange)
	a := root.AddNode("a", Added)
	a.AddNode("a1", Select)
	root.AddNode("b", Removed)

	var visited []string
	root.Accept(func(d *Delta, depth int) bool {
		visited = append(visited, strings.Repeat(">", depth)+d.Element().(string))
		return d.Element() != "a"
	})
	assert.Equal(t, []string{"in", ">a", ">b"}, visited)

	dump := root.String()
	require.Contains(t, dump, "in NO_CHANGE")
	assert.Contains(t, dump, "    a1 SELECT")
}
