// Package layout computes heap object layouts for tuples and closures.
//
// The two object kinds use different policies:
//
//   - tuples give every field one fixed slot, so the size is len(fields)*slot;
//   - closures size the object as one pointer plus the real size of each
//     captured value, while captures are still written at slot stride
//     starting right after the function pointer.
//
// The closure size can therefore be smaller than its highest write offset
// plus slot when 4-byte values are captured. Lowering reproduces this as is.
package layout

import (
	"fortio.org/safecast"

	"ebbc/internal/lir"
)

// ObjectLayout is the layout of one heap object.
type ObjectLayout struct {
	Size    int32
	Fields  []lir.Ty // slot types, in order
	Offsets []int32  // byte offset of each entry of Fields
}

// Engine computes object layouts for one Target. It is safe for concurrent
// use; computed layouts are memoised by field types.
type Engine struct {
	Target Target
	cache  *cache
}

// New creates an Engine for target.
func New(target Target) *Engine {
	return &Engine{Target: target, cache: newCache()}
}

// Tuple lays out a tuple whose fields have the given machine types.
func (e *Engine) Tuple(fields []lir.Ty) (ObjectLayout, error) {
	key := keyOf(objTuple, fields)
	if l, ok := e.cache.get(key); ok {
		return l, nil
	}
	l, err := e.tuple(fields)
	if err != nil {
		return ObjectLayout{}, err
	}
	e.cache.put(key, l)
	return l, nil
}

func (e *Engine) tuple(fields []lir.Ty) (ObjectLayout, error) {
	slot := e.slot()
	out := ObjectLayout{
		Fields:  append([]lir.Ty(nil), fields...),
		Offsets: make([]int32, len(fields)),
	}
	for i := range fields {
		off, err := conv("tuple", i*slot)
		if err != nil {
			return ObjectLayout{}, err
		}
		out.Offsets[i] = off
	}
	size, err := conv("tuple", len(fields)*slot)
	if err != nil {
		return ObjectLayout{}, err
	}
	out.Size = size
	return out, nil
}

// TupleFieldOffset returns the byte offset of field index in any tuple.
func (e *Engine) TupleFieldOffset(index int) (int32, error) {
	if index < 0 {
		return 0, &LayoutError{Kind: LayoutErrFieldIndex, Object: "tuple", Index: index}
	}
	return conv("tuple", index*e.slot())
}

// Closure lays out a closure capturing values of the given machine types.
// Fields[0] is the function pointer at offset 0.
func (e *Engine) Closure(env []lir.Ty) (ObjectLayout, error) {
	key := keyOf(objClosure, env)
	if l, ok := e.cache.get(key); ok {
		return l, nil
	}
	l, err := e.closure(env)
	if err != nil {
		return ObjectLayout{}, err
	}
	e.cache.put(key, l)
	return l, nil
}

func (e *Engine) closure(env []lir.Ty) (ObjectLayout, error) {
	slot := e.slot()
	size := e.Target.PtrSize
	out := ObjectLayout{
		Fields:  make([]lir.Ty, 0, len(env)+1),
		Offsets: make([]int32, 0, len(env)+1),
	}
	out.Fields = append(out.Fields, lir.FPtr)
	out.Offsets = append(out.Offsets, 0)
	acc := lir.FPtr.Size()
	for _, ty := range env {
		size += e.Target.SizeOf(ty)
		off, err := conv("closure", acc)
		if err != nil {
			return ObjectLayout{}, err
		}
		out.Fields = append(out.Fields, ty)
		out.Offsets = append(out.Offsets, off)
		acc += slot
	}
	total, err := conv("closure", size)
	if err != nil {
		return ObjectLayout{}, err
	}
	out.Size = total
	return out, nil
}

func (e *Engine) slot() int {
	if e == nil || e.Target.SlotSize <= 0 {
		return 8
	}
	return e.Target.SlotSize
}

func conv(object string, v int) (int32, error) {
	n, err := safecast.Conv[int32](v)
	if err != nil {
		return 0, &LayoutError{Kind: LayoutErrOverflow, Object: object, Err: err}
	}
	return n, nil
}
