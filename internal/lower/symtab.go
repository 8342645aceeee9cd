package lower

import (
	"ebbc/internal/lir"
	"ebbc/internal/mir"
)

// symbolID is a dense per-function index assigned at first sight of a symbol.
type symbolID int32

type interner struct {
	ids  map[mir.Symbol]symbolID
	syms []mir.Symbol
}

func newInterner(hint int) interner {
	return interner{ids: make(map[mir.Symbol]symbolID, hint)}
}

// intern returns the id of s, assigning the next one if s is new.
func (in *interner) intern(s mir.Symbol) (symbolID, bool) {
	if id, ok := in.ids[s]; ok {
		return id, false
	}
	id := symbolID(len(in.syms)) //nolint:gosec // bounded by the register allocator
	in.ids[s] = id
	in.syms = append(in.syms, s)
	return id, true
}

func (in *interner) lookup(s mir.Symbol) (symbolID, bool) {
	id, ok := in.ids[s]
	return id, ok
}

// SymbolTable maps every value symbol of a function to its register.
type SymbolTable struct {
	in   interner
	regs []lir.Reg // indexed by symbolID
}

// bind allocates a register of type ty for s unless s already has one.
func (st *SymbolTable) bind(alloc *Allocator, s mir.Symbol, ty lir.Ty) {
	if _, fresh := st.in.intern(s); !fresh {
		return
	}
	st.regs = append(st.regs, alloc.Alloc(ty))
}

// Lookup returns the register bound to s.
func (st *SymbolTable) Lookup(s mir.Symbol) (lir.Reg, bool) {
	id, ok := st.in.lookup(s)
	if !ok {
		return lir.Reg{}, false
	}
	return st.regs[id], true
}

// Len returns the number of bound symbols.
func (st *SymbolTable) Len() int {
	return len(st.regs)
}

// Symbols returns the bound symbols in binding order.
func (st *SymbolTable) Symbols() []mir.Symbol {
	return append([]mir.Symbol(nil), st.in.syms...)
}

// BuildSymbolTable registers every parameter and every defined value of
// body, allocating registers from alloc. The entry block parameters are
// bound first so that they receive registers 0..n-1.
//
// Tuple and closure results are always Ptr regardless of their declared
// type. Terminators define nothing.
func BuildSymbolTable(body []mir.EBB, alloc *Allocator) *SymbolTable {
	st := &SymbolTable{in: newInterner(len(body) * 8)}
	if len(body) > 0 {
		for _, p := range body[0].Params {
			st.bind(alloc, p.Var, MapType(p.Ty))
		}
	}
	for i := range body {
		b := &body[i]
		for _, p := range b.Params {
			st.bind(alloc, p.Var, MapType(p.Ty))
		}
		for j := range b.Body {
			op := &b.Body[j]
			if v, ty, ok := destination(op); ok {
				st.bind(alloc, v, ty)
			}
		}
	}
	return st
}

func destination(op *mir.Op) (mir.Symbol, lir.Ty, bool) {
	switch op.Kind {
	case mir.OpLit:
		return op.Lit.Var, MapType(op.Lit.Ty), true
	case mir.OpAlias:
		return op.Alias.Var, MapType(op.Alias.Ty), true
	case mir.OpAdd, mir.OpSub, mir.OpMul, mir.OpDivInt, mir.OpDivFloat, mir.OpMod,
		mir.OpEq, mir.OpNeq, mir.OpGt, mir.OpGe, mir.OpLt, mir.OpLe:
		return op.Bin.Var, MapType(op.Bin.Ty), true
	case mir.OpProj:
		return op.Proj.Var, MapType(op.Proj.Ty), true
	case mir.OpBuiltinCall, mir.OpCall:
		return op.Call.Var, MapType(op.Call.Ty), true
	case mir.OpTuple:
		return op.Tuple.Var, lir.Ptr, true
	case mir.OpClosure:
		return op.Closure.Var, lir.Ptr, true
	default:
		return mir.Symbol{}, lir.Unit, false
	}
}
