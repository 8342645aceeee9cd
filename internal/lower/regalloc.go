package lower

import (
	"fmt"

	"fortio.org/safecast"

	"ebbc/internal/lir"
)

// Allocator hands out virtual registers for one function. Registers are
// never reused; the id of a register is its index in Types.
type Allocator struct {
	regs []lir.Ty
}

// NewAllocator returns an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Alloc appends a register of type ty and returns it.
func (a *Allocator) Alloc(ty lir.Ty) lir.Reg {
	id, err := safecast.Conv[uint32](len(a.regs))
	if err != nil {
		panic(fmt.Errorf("lower: register id overflow: %w", err))
	}
	a.regs = append(a.regs, ty)
	return lir.Reg{Ty: ty, ID: id}
}

// Len returns the number of registers allocated so far.
func (a *Allocator) Len() int {
	return len(a.regs)
}

// Types returns the machine type of every register, indexed by id.
func (a *Allocator) Types() []lir.Ty {
	return append([]lir.Ty(nil), a.regs...)
}

// Regs returns every register allocated so far, in id order.
func (a *Allocator) Regs() []lir.Reg {
	out := make([]lir.Reg, len(a.regs))
	for i, ty := range a.regs {
		out[i] = lir.Reg{Ty: ty, ID: uint32(i)} //nolint:gosec // bounded by Alloc
	}
	return out
}
