package request

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/modelview/internal/memento"
	"github.com/dshills/modelview/internal/presentation"
	"github.com/dshills/modelview/internal/treepath"
)

type recorder struct {
	mu   sync.Mutex
	got  []Update
	dups int
}

func (r *recorder) Duplicate(Update) {
	r.mu.Lock()
	r.dups++
	r.mu.Unlock()
}

func (r *recorder) Completed(u Update) {
	r.mu.Lock()
	r.got = append(r.got, u)
	r.mu.Unlock()
}

func TestUpdate_CompletesOnce(t *testing.T) {
	rec := &recorder{}
	ctx := presentation.NewContext("debug")
	u := NewChildrenUpdate("thread", treepath.New("target", "thread"), ctx, rec)

	assert.False(t, u.IsComplete())
	assert.Equal(t, KindChildren, u.Kind())
	assert.Equal(t, "thread", u.Element())
	assert.Same(t, ctx, u.Presentation())

	u.SetChildren([]any{"f1", "f2"})
	u.Done()
	u.Done()
	u.Fail(errors.New("late"))

	assert.True(t, u.IsComplete())
	require.NoError(t, u.Err(), "a repeat terminal call must not overwrite the outcome")
	assert.Equal(t, 2, rec.dups)
	require.Len(t, rec.got, 1)
	assert.Same(t, u, rec.got[0].(*ChildrenUpdate))
	assert.Equal(t, []any{"f1", "f2"}, u.Children())
}

func TestUpdate_ConcurrentCompletion(t *testing.T) {
	rec := &recorder{}
	u := NewCountUpdate("e", treepath.New("e"), nil, rec)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.Done()
		}()
	}
	wg.Wait()
	assert.Len(t, rec.got, 1)
}

func TestUpdate_FailNilError(t *testing.T) {
	u := NewHasChildrenUpdate("e", treepath.New("e"), nil, nil)
	u.Fail(nil)
	assert.ErrorIs(t, u.Err(), ErrFailed)
}

func TestUpdate_Cancel(t *testing.T) {
	u := NewLabelUpdate("e", treepath.New("e"), nil, nil, nil)
	assert.False(t, u.IsCanceled())
	u.Cancel()
	assert.True(t, u.IsCanceled())
	assert.False(t, u.IsComplete())
}

type row struct {
	texts  map[int]string
	images map[int]string
}

func (r *row) SetText(c int, s string)  { r.texts[c] = s }
func (r *row) SetImage(c int, s string) { r.images[c] = s }

func TestLabelUpdate(t *testing.T) {
	u := NewLabelUpdate("x", treepath.New("x"), []string{"name", "value"}, nil, nil)
	u.SetLabel(0, "x")
	u.SetLabel(1, "42")
	u.SetImage(0, "var")
	u.SetLabel(5, "ignored")

	assert.Equal(t, []string{"name", "value"}, u.Columns())
	assert.Equal(t, "42", u.Label(1))
	assert.Equal(t, "", u.Label(5))

	r := &row{texts: map[int]string{}, images: map[int]string{}}
	u.Apply(r)
	assert.Equal(t, map[int]string{0: "x", 1: "42"}, r.texts)
	assert.Equal(t, "var", r.images[0])

	single := NewLabelUpdate("y", treepath.New("y"), nil, nil, nil)
	single.SetLabel(0, "y")
	assert.Equal(t, "y", single.Label(0))
}

func TestCountAndCompare(t *testing.T) {
	c := NewCountUpdate("e", treepath.Empty, nil, nil)
	c.SetCount(-3)
	assert.Equal(t, 0, c.Count())

	m := memento.New()
	m.PutString("name", "main")
	cmp := NewCompareUpdate("e", treepath.Empty, m, nil, nil)
	assert.Equal(t, KindCompare, cmp.Kind())
	cmp.SetEqual(true)
	assert.True(t, cmp.Equal())

	enc := NewMementoUpdate("e", treepath.Empty, memento.New(), nil, nil)
	enc.Memento().PutString("name", "main")
	v, _ := enc.Memento().GetString("name")
	assert.Equal(t, "main", v)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "children", KindChildren.String())
	assert.Equal(t, "compare", KindCompare.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
