package lower

import (
	"cmp"
	"slices"

	"ebbc/internal/lir"
	"ebbc/internal/mir"
)

// branch lowers a multi-way branch. Clauses are dispatched in key order;
// keys 0..n-1 become a jump table and anything else a chain of i32
// compares. The default target takes the discriminant as its only
// parameter. Clause arguments are not passed.
func (fl *funcLowerer) branch(b *mir.BranchOp) {
	cond := fl.reg(b.Cond)
	clauses := slices.Clone(b.Clauses)
	slices.SortStableFunc(clauses, func(x, y mir.Clause) int {
		return cmp.Compare(x.Key, y.Key)
	})
	for _, c := range clauses {
		fl.params(c.Target)
	}

	var def *lir.Label
	if b.HasDefault {
		params := fl.params(b.Default.Target)
		if len(params) != 1 {
			fl.fail(ErrDefaultArity, "default target %s has %d parameters, want 1", b.Default.Target, len(params))
		}
		if kind, ok := moveFor(params[0].Ty); ok {
			fl.emit(lir.Move(kind, params[0], cond))
		}
		label := lir.Label(b.Default.Target)
		def = &label
	}

	if isDense(clauses) {
		targets := make([]lir.Label, len(clauses))
		for i, c := range clauses {
			targets[i] = lir.Label(c.Target)
		}
		fl.emit(lir.JumpTableI32(cond, targets, def))
		return
	}

	if cond.Ty != lir.I32 {
		fl.fail(ErrDiscriminantType, "discriminant %s is %s, want i32", b.Cond, cond.Ty)
	}
	boolean := fl.alloc.Alloc(lir.I32)
	constant := fl.alloc.Alloc(lir.I32)
	for _, c := range clauses {
		fl.emit(lir.ConstI32(constant, int32(c.Key))) //nolint:gosec // keys wrap like literals
		fl.emit(lir.Binary(lir.InstrEqI32, boolean, cond, constant))
		fl.emit(lir.JumpIfI32(boolean, lir.Label(c.Target)))
	}
	if def != nil {
		fl.emit(lir.Jump(*def))
	}
}

// isDense reports whether the sorted keys are exactly 0..n-1 with n > 0.
func isDense(clauses []mir.Clause) bool {
	if len(clauses) == 0 {
		return false
	}
	for i, c := range clauses {
		if c.Key != int64(i) {
			return false
		}
	}
	return true
}
