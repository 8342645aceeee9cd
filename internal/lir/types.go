// Package lir defines the register-based, machine-typed intermediate
// representation produced by lowering MIR.
package lir

import (
	"fmt"

	"ebbc/internal/mir"
)

// Ty is a machine type.
type Ty uint8

const (
	Unit Ty = iota
	I32
	I64
	F32
	F64
	Ptr
	FPtr
)

var tyNames = [...]string{
	Unit: "unit",
	I32:  "i32",
	I64:  "i64",
	F32:  "f32",
	F64:  "f64",
	Ptr:  "ptr",
	FPtr: "fptr",
}

func (t Ty) String() string {
	if int(t) < len(tyNames) {
		return tyNames[t]
	}
	return fmt.Sprintf("ty(%d)", uint8(t))
}

// Size returns the logical byte size of t. Only memory layout uses it.
func (t Ty) Size() int {
	switch t {
	case I32, F32:
		return 4
	case I64, F64, Ptr, FPtr:
		return 8
	default:
		return 0
	}
}

// Reg is a virtual register. IDs are dense per function and double as the
// index into Function.Regs.
type Reg struct {
	Ty Ty     `msgpack:"ty"`
	ID uint32 `msgpack:"id"`
}

func (r Reg) String() string {
	return fmt.Sprintf("r%d", r.ID)
}

// Label names a block.
type Label mir.Symbol

func (l Label) String() string {
	return mir.Symbol(l).String()
}

// Addr is a base register plus a constant byte offset.
type Addr struct {
	Base   Reg   `msgpack:"base"`
	Offset int32 `msgpack:"offset"`
}

func (a Addr) String() string {
	return fmt.Sprintf("[%s+%d]", a.Base, a.Offset)
}
