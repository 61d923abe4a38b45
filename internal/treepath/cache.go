package treepath

// Cache is a bidirectional table between handles (widget items) and the paths
// they display. It is owned by a single viewer and is not safe for concurrent
// use.
//
// The cache is the only source of reverse lookups: the path recorded when a
// handle was mapped stays available until the handle is unmapped, no matter in
// which order a subtree is torn down. Unmap removes both directions, so a path
// is never answered for a handle that is no longer live.
type Cache[H comparable] struct {
	paths  map[H]Path
	byElem map[uint64][]H
	byPath map[uint64][]H
}

// NewCache creates an empty cache.
func NewCache[H comparable]() *Cache[H] {
	return &Cache[H]{
		paths:  make(map[H]Path),
		byElem: make(map[uint64][]H),
		byPath: make(map[uint64][]H),
	}
}

// Map records that handle h displays path. A handle that was already mapped
// is remapped.
func (c *Cache[H]) Map(h H, path Path) {
	if _, ok := c.paths[h]; ok {
		c.Unmap(h)
	}
	c.paths[h] = path
	ek := ElementHash(path.Last())
	c.byElem[ek] = append(c.byElem[ek], h)
	pk := path.Hash()
	c.byPath[pk] = append(c.byPath[pk], h)
}

// Unmap forgets handle h and returns the path it was mapped to.
func (c *Cache[H]) Unmap(h H) (Path, bool) {
	path, ok := c.paths[h]
	if !ok {
		return Empty, false
	}
	delete(c.paths, h)
	ek := ElementHash(path.Last())
	c.byElem[ek] = removeHandle(c.byElem[ek], h)
	if len(c.byElem[ek]) == 0 {
		delete(c.byElem, ek)
	}
	pk := path.Hash()
	c.byPath[pk] = removeHandle(c.byPath[pk], h)
	if len(c.byPath[pk]) == 0 {
		delete(c.byPath, pk)
	}
	return path, true
}

// Path returns the path cached for h.
func (c *Cache[H]) Path(h H) (Path, bool) {
	p, ok := c.paths[h]
	return p, ok
}

// Handles returns every live handle displaying elem, in mapping order.
func (c *Cache[H]) Handles(elem any) []H {
	var out []H
	for _, h := range c.byElem[ElementHash(elem)] {
		if ElementsEqual(c.paths[h].Last(), elem) {
			out = append(out, h)
		}
	}
	return out
}

// HandlesAt returns every live handle mapped to a path equal to path.
func (c *Cache[H]) HandlesAt(path Path) []H {
	var out []H
	for _, h := range c.byPath[path.Hash()] {
		if c.paths[h].Equals(path) {
			out = append(out, h)
		}
	}
	return out
}

// Contains reports whether h is mapped.
func (c *Cache[H]) Contains(h H) bool {
	_, ok := c.paths[h]
	return ok
}

// Len returns the number of mapped handles.
func (c *Cache[H]) Len() int {
	return len(c.paths)
}

// Clear unmaps every handle.
func (c *Cache[H]) Clear() {
	clear(c.paths)
	clear(c.byElem)
	clear(c.byPath)
}

func removeHandle[H comparable](hs []H, h H) []H {
	for i, x := range hs {
		if x == h {
			return append(hs[:i:i], hs[i+1:]...)
		}
	}
	return hs
}
