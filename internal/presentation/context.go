// Package presentation provides the presentation context shared between a
// viewer and the model capabilities that fill it.
package presentation

import (
	"slices"
	"sync"
)

// Context describes where and how elements are being presented: the id of the
// part hosting the viewer, the columns currently visible and free-form
// properties. Model threads read it while the UI thread updates it, so all
// accessors are synchronized.
type Context struct {
	id string

	mu       sync.RWMutex
	columns  []string
	props    map[string]any
	disposed bool
}

// NewContext creates a context for the given part id.
func NewContext(id string) *Context {
	return &Context{
		id:    id,
		props: make(map[string]any),
	}
}

// ID returns the part id.
func (c *Context) ID() string {
	return c.id
}

// Columns returns the visible column ids, or nil when columns are off.
func (c *Context) Columns() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.columns)
}

// SetColumns sets the visible column ids. Nil means no columns.
func (c *Context) SetColumns(ids []string) {
	c.mu.Lock()
	c.columns = slices.Clone(ids)
	c.mu.Unlock()
}

// Property returns the named property.
func (c *Context) Property(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.props[name]
	return v, ok
}

// SetProperty sets a named property. A nil value removes it.
func (c *Context) SetProperty(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value == nil {
		delete(c.props, name)
		return
	}
	c.props[name] = value
}

// Dispose clears the context. Properties and columns read as empty afterwards.
func (c *Context) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
	c.columns = nil
	clear(c.props)
}

// Disposed reports whether Dispose was called.
func (c *Context) Disposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}
