package lower

import (
	"ebbc/internal/lir"
	"ebbc/internal/mir"
)

// MapType returns the machine type that holds values of MIR type t.
func MapType(t mir.Type) lir.Ty {
	switch t.Kind {
	case mir.TypeUnit:
		return lir.Unit
	case mir.TypeInt, mir.TypeBool:
		return lir.I32
	case mir.TypeFloat:
		return lir.F64
	case mir.TypeTuple, mir.TypeCls:
		return lir.Ptr
	case mir.TypeEbb:
		return lir.FPtr
	default:
		return lir.Unit
	}
}

func mapTypes(ts []mir.Type) []lir.Ty {
	out := make([]lir.Ty, len(ts))
	for i, t := range ts {
		out[i] = MapType(t)
	}
	return out
}
