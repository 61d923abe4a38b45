// Package capability provides explicit capability tables for model elements.
//
// An element advertises optional behaviour (content, labels, columns, ...)
// either by implementing the capability interface directly or by carrying a
// Table that maps typed keys to implementations. Lookup consults the table
// first, so an element can delegate a capability to a shared provider without
// implementing the interface itself.
package capability

import "sync"

// Key identifies a capability of type T.
type Key[T any] struct {
	name string
}

// NewKey creates a capability key. Keys are compared by identity, so each
// capability should have exactly one package-level key.
func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name}
}

// Name returns the key name.
func (k *Key[T]) Name() string {
	return k.name
}

// Table maps capability keys to implementations. It is safe for concurrent
// use.
type Table struct {
	mu      sync.RWMutex
	entries map[any]any
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[any]any)}
}

// Register adds or replaces the implementation of a capability.
func Register[T any](t *Table, k *Key[T], impl T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[k] = impl
}

// Unregister removes a capability.
func Unregister[T any](t *Table, k *Key[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, k)
}

// Get returns the capability registered for k.
func Get[T any](t *Table, k *Key[T]) (T, bool) {
	var zero T
	if t == nil {
		return zero, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[k]
	if !ok {
		return zero, false
	}
	impl, ok := v.(T)
	return impl, ok
}

// Adaptable is implemented by elements that carry a capability table.
type Adaptable interface {
	Capabilities() *Table
}

// Lookup returns capability T of element: the table entry when element is
// Adaptable and registered k, otherwise element itself when it implements T.
func Lookup[T any](element any, k *Key[T]) (T, bool) {
	if a, ok := element.(Adaptable); ok {
		if impl, ok := Get(a.Capabilities(), k); ok {
			return impl, true
		}
	}
	impl, ok := element.(T)
	return impl, ok
}
