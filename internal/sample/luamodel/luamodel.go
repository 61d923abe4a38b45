// Package luamodel builds a model from a Lua script.
//
// The script returns the root node as a table:
//
//	return {
//	  name = "root",
//	  children = {
//	    { name = "count", value = "3", type = "int" },
//	    { name = "lazy", children = function(name) return { { name = name .. ".1" } } end },
//	  },
//	}
//
// children is either a list of node tables or a function returning one. A
// function is called each time the viewer asks for the node's children;
// returned nodes keep their identity by name. Scripts run in a sandbox
// without io, os, debug or package.
package luamodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/modelview/internal/jobs"
	"github.com/dshills/modelview/internal/model"
	"github.com/dshills/modelview/internal/model/async"
	"github.com/dshills/modelview/internal/model/capability"
	"github.com/dshills/modelview/internal/request"
)

// DefaultTimeout bounds each script call.
const DefaultTimeout = 5 * time.Second

var (
	// ErrBadNode is returned when a script value is not a valid node.
	ErrBadNode = errors.New("invalid node")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("lua model closed")
)

// Tree is a model produced by a Lua script. Script functions are called on
// pool goroutines, one at a time.
type Tree struct {
	mu      sync.Mutex
	L       *lua.LState
	closed  bool
	timeout time.Duration
	logger  *slog.Logger

	root *Node
	caps *capability.Table
}

// Node is an element of a Tree.
type Node struct {
	tree   *Tree
	parent *Node
	name   string
	value  string
	typ    string

	children []*Node
	lazy     *lua.LFunction
}

// Option configures a Tree.
type Option func(*Tree)

// WithTimeout bounds each script call.
func WithTimeout(d time.Duration) Option {
	return func(t *Tree) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// LoadFile runs the script at path.
func LoadFile(path string, pool *jobs.Pool, opts ...Option) (*Tree, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(string(src), pool, opts...)
}

// Load runs script and builds the tree from the node it returns. Content and
// label requests run on pool.
func Load(script string, pool *jobs.Pool, opts ...Option) (*Tree, error) {
	t := &Tree{
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
		caps:    capability.NewTable(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(t.L)

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	t.L.SetContext(ctx)

	top := t.L.GetTop()
	if err := t.L.DoString(script); err != nil {
		t.L.Close()
		return nil, fmt.Errorf("running script: %w", err)
	}
	if t.L.GetTop() == top {
		t.L.Close()
		return nil, fmt.Errorf("%w: script returned nothing", ErrBadNode)
	}
	ret := t.L.Get(-1)
	t.L.SetTop(top)

	root, err := t.node(nil, ret, nil)
	if err != nil {
		t.L.Close()
		return nil, err
	}
	t.root = root

	adapter := async.New(t, pool, async.WithLogger(t.logger))
	capability.Register[model.ContentProvider](t.caps, model.ContentKey, adapter)
	capability.Register[model.LabelProvider](t.caps, model.LabelKey, adapter)
	capability.Register[model.MementoProvider](t.caps, model.MementoKey, t)
	return t, nil
}

// openSafeLibraries opens the base, table, string and math libraries and
// removes the base functions that load code.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Root returns the root node, the viewer input.
func (t *Tree) Root() *Node { return t.root }

// Close releases the Lua state.
func (t *Tree) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		t.L.Close()
	}
}

// node converts a script value into a node, updating n in place when it is
// not nil. The caller owns the Lua state.
func (t *Tree) node(parent *Node, v lua.LValue, n *Node) (*Node, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: got %s, want table", ErrBadNode, v.Type())
	}
	name, ok := tbl.RawGetString("name").(lua.LString)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrBadNode)
	}
	if n == nil {
		n = &Node{tree: t, parent: parent, name: string(name)}
	}
	n.value = optString(tbl, "value")
	n.typ = optString(tbl, "type")
	if err := t.setChildren(n, tbl.RawGetString("children")); err != nil {
		return nil, fmt.Errorf("node %s: %w", n.name, err)
	}
	return n, nil
}

func optString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if v == lua.LNil {
		return ""
	}
	return v.String()
}

func (t *Tree) setChildren(n *Node, v lua.LValue) error {
	switch c := v.(type) {
	case *lua.LNilType:
		n.children, n.lazy = nil, nil
	case *lua.LFunction:
		n.lazy = c
	case *lua.LTable:
		kids, err := t.list(n, c)
		if err != nil {
			return err
		}
		n.children, n.lazy = kids, nil
	default:
		return fmt.Errorf("%w: children must be a table or function, got %s", ErrBadNode, v.Type())
	}
	return nil
}

// list converts a list of node tables. Nodes named like an existing child
// of parent reuse it.
func (t *Tree) list(parent *Node, tbl *lua.LTable) ([]*Node, error) {
	existing := make(map[string]*Node, len(parent.children))
	for _, c := range parent.children {
		existing[c.name] = c
	}

	var out []*Node
	for i := 1; i <= tbl.Len(); i++ {
		v := tbl.RawGetInt(i)
		var reuse *Node
		if ct, ok := v.(*lua.LTable); ok {
			if name, ok := ct.RawGetString("name").(lua.LString); ok {
				reuse = existing[string(name)]
			}
		}
		n, err := t.node(parent, v, reuse)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Children implements async.Source. Lazy children are recomputed by the
// script on every call.
func (t *Tree) Children(ctx context.Context, element any) ([]any, error) {
	n, ok := element.(*Node)
	if !ok || n.tree != t {
		return nil, fmt.Errorf("%w: %T", ErrBadNode, element)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}

	if n.lazy != nil {
		if err := t.call(ctx, n); err != nil {
			return nil, err
		}
	}
	out := make([]any, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

// call runs the lazy children function of n. The caller holds t.mu.
func (t *Tree) call(ctx context.Context, n *Node) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	t.L.SetContext(ctx)

	err := t.L.CallByParam(lua.P{Fn: n.lazy, NRet: 1, Protect: true}, lua.LString(n.name))
	if err != nil {
		return fmt.Errorf("children of %s: %w", n.name, err)
	}
	ret := t.L.Get(-1)
	t.L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: children of %s: got %s, want table", ErrBadNode, n.name, ret.Type())
	}
	kids, err := t.list(n, tbl)
	if err != nil {
		return fmt.Errorf("children of %s: %w", n.name, err)
	}
	n.children = kids
	t.logger.Debug("lazy children", "node", n.name, "count", len(kids))
	return nil
}

// Label implements async.Labeler for the name, value and type columns.
func (t *Tree) Label(_ context.Context, element any, columns []string) ([]string, error) {
	n, ok := element.(*Node)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadNode, element)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(columns) == 0 {
		if n.value != "" {
			return []string{n.name + " = " + n.value}, nil
		}
		return []string{n.name}, nil
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		switch c {
		case "name":
			out[i] = n.name
		case "value":
			out[i] = n.value
		case "type":
			out[i] = n.typ
		}
	}
	return out, nil
}

// Encode implements model.MementoProvider.
func (t *Tree) Encode(u *request.MementoUpdate) {
	n, ok := u.Element().(*Node)
	if !ok {
		u.Fail(fmt.Errorf("%w: %T", ErrBadNode, u.Element()))
		return
	}
	u.Memento().PutString("name", n.name)
	u.Done()
}

// Compare implements model.MementoProvider.
func (t *Tree) Compare(u *request.CompareUpdate) {
	n, ok := u.Element().(*Node)
	saved, _ := u.Memento().GetString("name")
	u.SetEqual(ok && saved == n.name)
	u.Done()
}

// Capabilities returns the capability table of the tree.
func (n *Node) Capabilities() *capability.Table { return n.tree.caps }

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// String returns the node name.
func (n *Node) String() string { return n.name }

var (
	_ async.Source          = (*Tree)(nil)
	_ async.Labeler         = (*Tree)(nil)
	_ model.MementoProvider = (*Tree)(nil)
)
