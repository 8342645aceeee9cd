package lower

import (
	"ebbc/internal/lir"
	"ebbc/internal/mir"
)

// tuple allocates the tuple and stores every non-unit field into its slot.
func (fl *funcLowerer) tuple(t *mir.TupleOp) {
	if len(t.Elems) != len(t.Tys) {
		fl.fail(ErrArgCount, "tuple of %d types has %d elements", len(t.Tys), len(t.Elems))
	}
	dst := fl.reg(t.Var)
	tys := mapTypes(t.Tys)
	obj, err := fl.layout.Tuple(tys)
	if err != nil {
		fl.failErr(ErrLayout, err, err.Error())
	}
	fl.emit(lir.HeapAlloc(dst, obj.Size, obj.Fields))
	for i, elem := range t.Elems {
		kind, ok := storeFor(tys[i])
		if !ok {
			continue
		}
		fl.emit(lir.Store(kind, lir.Addr{Base: dst, Offset: obj.Offsets[i]}, fl.reg(elem)))
	}
}

func (fl *funcLowerer) proj(p *mir.ProjOp) {
	kind, ok := loadFor(MapType(p.Ty))
	if !ok {
		return
	}
	off, err := fl.layout.TupleFieldOffset(p.Index)
	if err != nil {
		fl.failErr(ErrLayout, err, err.Error())
	}
	fl.emit(lir.Load(kind, fl.reg(p.Var), lir.Addr{Base: fl.reg(p.Tuple), Offset: off}))
}

// closure allocates [fptr, env...], stores the function address at offset
// 0 and the non-unit captures after it.
func (fl *funcLowerer) closure(c *mir.ClosureOp) {
	dst := fl.reg(c.Var)
	env := make([]lir.Ty, len(c.Env))
	for i, capture := range c.Env {
		env[i] = MapType(capture.Ty)
	}
	obj, err := fl.layout.Closure(env)
	if err != nil {
		fl.failErr(ErrLayout, err, err.Error())
	}
	fl.emit(lir.HeapAlloc(dst, obj.Size, obj.Fields))
	fl.emit(lir.StoreFnPtr(lir.Addr{Base: dst, Offset: obj.Offsets[0]}, c.Fun))
	for i, capture := range c.Env {
		kind, ok := storeFor(env[i])
		if !ok {
			continue
		}
		fl.emit(lir.Store(kind, lir.Addr{Base: dst, Offset: obj.Offsets[i+1]}, fl.reg(capture.Var)))
	}
}
