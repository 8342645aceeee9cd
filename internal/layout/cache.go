package layout

import (
	"slices"
	"sync"

	"ebbc/internal/lir"
)

type objectKind uint8

const (
	objTuple objectKind = iota
	objClosure
)

// cacheKey identifies a layout by object kind and field types.
type cacheKey struct {
	kind   objectKind
	fields string
}

func keyOf(kind objectKind, fields []lir.Ty) cacheKey {
	b := make([]byte, len(fields))
	for i, ty := range fields {
		b[i] = byte(ty)
	}
	return cacheKey{kind: kind, fields: string(b)}
}

// cache memoises layouts across the functions of a program. Workers lower
// functions in parallel, so access is locked.
type cache struct {
	mu    sync.RWMutex
	byKey map[cacheKey]ObjectLayout
}

func newCache() *cache {
	return &cache{byKey: make(map[cacheKey]ObjectLayout, 64)}
}

// get returns a copy so callers cannot alias the stored slices.
func (c *cache) get(key cacheKey) (ObjectLayout, bool) {
	if c == nil {
		return ObjectLayout{}, false
	}
	c.mu.RLock()
	l, ok := c.byKey[key]
	c.mu.RUnlock()
	if !ok {
		return ObjectLayout{}, false
	}
	return l.clone(), true
}

func (c *cache) put(key cacheKey, l ObjectLayout) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byKey[key] = l.clone()
	c.mu.Unlock()
}

func (c *cache) len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}

func (l ObjectLayout) clone() ObjectLayout {
	return ObjectLayout{
		Size:    l.Size,
		Fields:  slices.Clone(l.Fields),
		Offsets: slices.Clone(l.Offsets),
	}
}
