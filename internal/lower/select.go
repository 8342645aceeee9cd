package lower

import (
	"ebbc/internal/lir"
	"ebbc/internal/mir"
)

// moveFor selects the move that copies a value into a register of type ty.
// Unit needs no move. Pointers travel through the 32-bit form.
func moveFor(ty lir.Ty) (lir.InstrKind, bool) {
	switch ty {
	case lir.I32, lir.Ptr, lir.FPtr:
		return lir.InstrMoveI32, true
	case lir.I64:
		return lir.InstrMoveI64, true
	case lir.F32:
		return lir.InstrMoveF32, true
	case lir.F64:
		return lir.InstrMoveF64, true
	default:
		return 0, false
	}
}

// aliasMoveFor selects the move for an alias of declared type t. Unlike
// moveFor it is driven by the MIR type, and integers and references use the
// 64-bit form.
func aliasMoveFor(t mir.Type) (lir.InstrKind, bool) {
	switch t.Kind {
	case mir.TypeBool:
		return lir.InstrMoveI32, true
	case mir.TypeInt, mir.TypeTuple, mir.TypeCls, mir.TypeEbb:
		return lir.InstrMoveI64, true
	case mir.TypeFloat:
		return lir.InstrMoveF64, true
	default:
		return 0, false
	}
}

// storeFor selects the store for a heap slot of type ty.
func storeFor(ty lir.Ty) (lir.InstrKind, bool) {
	switch ty {
	case lir.I32, lir.Ptr, lir.FPtr:
		return lir.InstrStoreI32, true
	case lir.I64:
		return lir.InstrStoreI64, true
	case lir.F32:
		return lir.InstrStoreF32, true
	case lir.F64:
		return lir.InstrStoreF64, true
	default:
		return 0, false
	}
}

// loadFor selects the load for a heap slot of type ty.
func loadFor(ty lir.Ty) (lir.InstrKind, bool) {
	switch ty {
	case lir.I32:
		return lir.InstrLoadI32, true
	case lir.I64, lir.Ptr, lir.FPtr:
		return lir.InstrLoadI64, true
	case lir.F32:
		return lir.InstrLoadF32, true
	case lir.F64:
		return lir.InstrLoadF64, true
	default:
		return 0, false
	}
}

// arithForms maps add/sub/mul to their i32 and f64 instructions.
var arithForms = map[mir.OpKind][2]lir.InstrKind{
	mir.OpAdd: {lir.InstrAddI32, lir.InstrAddF64},
	mir.OpSub: {lir.InstrSubI32, lir.InstrSubF64},
	mir.OpMul: {lir.InstrMulI32, lir.InstrMulF64},
}

// compareBase is the i32 form of each comparison; the i64, f32 and f64
// forms follow it in that order.
var compareBase = map[mir.OpKind]lir.InstrKind{
	mir.OpEq:  lir.InstrEqI32,
	mir.OpNeq: lir.InstrNeqI32,
	mir.OpGt:  lir.InstrGtI32,
	mir.OpGe:  lir.InstrGeI32,
	mir.OpLt:  lir.InstrLtI32,
	mir.OpLe:  lir.InstrLeI32,
}

// compareFor selects the comparison for operands of types l and r. Only
// matching integer or float pairs are supported.
func compareFor(kind mir.OpKind, l, r lir.Ty) (lir.InstrKind, bool) {
	base, ok := compareBase[kind]
	if !ok || l != r {
		return 0, false
	}
	switch l {
	case lir.I32:
		return base, true
	case lir.I64:
		return base + 1, true
	case lir.F32:
		return base + 2, true
	case lir.F64:
		return base + 3, true
	default:
		return 0, false
	}
}
