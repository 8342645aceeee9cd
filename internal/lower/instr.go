package lower

import (
	"ebbc/internal/lir"
	"ebbc/internal/mir"
)

func (fl *funcLowerer) lowerOp(op *mir.Op) {
	switch op.Kind {
	case mir.OpLit:
		fl.lit(&op.Lit)
	case mir.OpAlias:
		if kind, ok := aliasMoveFor(op.Alias.Ty); ok {
			fl.emit(lir.Move(kind, fl.reg(op.Alias.Var), fl.reg(op.Alias.Sym)))
		}
	case mir.OpAdd, mir.OpSub, mir.OpMul:
		fl.arith(op.Kind, &op.Bin)
	case mir.OpDivInt:
		fl.binary(lir.InstrDivI32, &op.Bin)
	case mir.OpDivFloat:
		fl.binary(lir.InstrDivF64, &op.Bin)
	case mir.OpMod:
		fl.binary(lir.InstrModI32, &op.Bin)
	case mir.OpEq, mir.OpNeq, mir.OpGt, mir.OpGe, mir.OpLt, mir.OpLe:
		fl.compare(op.Kind, &op.Bin)
	case mir.OpTuple:
		fl.tuple(&op.Tuple)
	case mir.OpProj:
		fl.proj(&op.Proj)
	case mir.OpClosure:
		fl.closure(&op.Closure)
	case mir.OpBuiltinCall:
		args := fl.regs(op.Call.Args)
		fl.emit(lir.BuiltinCall(fl.reg(op.Call.Var), op.Call.Fun, args))
	case mir.OpCall:
		fl.call(&op.Call)
	case mir.OpBranch:
		fl.branch(&op.Branch)
	case mir.OpJump:
		fl.jump(&op.Jump)
	case mir.OpRet:
		if op.Ret.HasValue {
			v := fl.reg(op.Ret.Value)
			fl.emit(lir.Ret(&v))
		} else {
			fl.emit(lir.Ret(nil))
		}
	default:
		fl.fail(ErrUnknownOp, "op kind %d", uint8(op.Kind))
	}
}

func (fl *funcLowerer) lit(l *mir.LitOp) {
	dst := fl.reg(l.Var)
	switch l.Value.Kind {
	case mir.LitBool:
		var v int32
		if l.Value.Bool {
			v = 1
		}
		fl.emit(lir.ConstI32(dst, v))
	case mir.LitInt:
		// integer literals wrap to 32 bits
		fl.emit(lir.ConstI32(dst, int32(l.Value.Int))) //nolint:gosec
	case mir.LitFloat:
		fl.emit(lir.ConstF64(dst, l.Value.Float))
	default:
		fl.fail(ErrUnknownOp, "literal kind %d", uint8(l.Value.Kind))
	}
}

func (fl *funcLowerer) binary(kind lir.InstrKind, b *mir.BinOp) {
	fl.emit(lir.Binary(kind, fl.reg(b.Var), fl.reg(b.L), fl.reg(b.R)))
}

// arith selects by the declared type of the operation.
func (fl *funcLowerer) arith(op mir.OpKind, b *mir.BinOp) {
	forms := arithForms[op]
	switch b.Ty.Kind {
	case mir.TypeInt:
		fl.binary(forms[0], b)
	case mir.TypeFloat:
		fl.binary(forms[1], b)
	default:
		fl.fail(ErrArithType, "%s declared as %s", op, b.Ty)
	}
}

// compare selects by the registers already allocated to the operands, not
// by the declared type.
func (fl *funcLowerer) compare(op mir.OpKind, b *mir.BinOp) {
	dst, l, r := fl.reg(b.Var), fl.reg(b.L), fl.reg(b.R)
	kind, ok := compareFor(op, l.Ty, r.Ty)
	if !ok {
		fl.fail(ErrOperandTypes, "%s of %s and %s", op, l.Ty, r.Ty)
	}
	fl.emit(lir.Binary(kind, dst, l, r))
}

// call goes through a register when the callee is a local value and by
// name otherwise.
func (fl *funcLowerer) call(c *mir.CallOp) {
	args := fl.regs(c.Args)
	dst := fl.reg(c.Var)
	if callee, ok := fl.syms.Lookup(c.Fun); ok {
		fl.emit(lir.ClosureCall(dst, callee, args))
		return
	}
	fl.emit(lir.FunCall(dst, c.Fun, args))
}

// jump moves each argument into the matching target parameter, then jumps.
func (fl *funcLowerer) jump(j *mir.JumpOp) {
	params := fl.params(j.Target)
	if len(j.Args) != len(params) {
		fl.fail(ErrArgCount, "%s takes %d arguments, got %d", j.Target, len(params), len(j.Args))
	}
	for i, p := range params {
		if kind, ok := moveFor(p.Ty); ok {
			fl.emit(lir.Move(kind, p, fl.reg(j.Args[i])))
		}
	}
	fl.emit(lir.Jump(lir.Label(j.Target)))
}
