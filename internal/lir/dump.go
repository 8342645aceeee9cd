package lir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable representation of an LIR program.
func Dump(w io.Writer, p *Program) error {
	if w == nil || p == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "funcs=%d\n", len(p.Funcs)); err != nil {
		return err
	}
	for i := range p.Funcs {
		if err := DumpFunc(w, &p.Funcs[i]); err != nil {
			return err
		}
	}
	return nil
}

// DumpFunc writes one function.
func DumpFunc(w io.Writer, f *Function) error {
	if w == nil || f == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\nfun %s nparams=%d ret=%s:\n", f.Name, f.NParams, f.RetTy); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  regs:\n"); err != nil {
		return err
	}
	for i, ty := range f.Regs {
		if _, err := fmt.Fprintf(w, "    r%d: %s\n", i, ty); err != nil {
			return err
		}
	}
	for i := range f.Body {
		bb := &f.Body[i]
		if _, err := fmt.Fprintf(w, "  %s:\n", bb.Name); err != nil {
			return err
		}
		for j := range bb.Body {
			if _, err := fmt.Fprintf(w, "    %s\n", FormatInstr(&bb.Body[j])); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatInstr renders a single instruction.
func FormatInstr(in *Instr) string {
	if in == nil {
		return "<instr?>"
	}
	k := in.Kind
	switch {
	case k == InstrConstI32:
		return fmt.Sprintf("%s = %s %d", in.Const.Dst, k, in.Const.I32)
	case k == InstrConstF64:
		return fmt.Sprintf("%s = %s %g", in.Const.Dst, k, in.Const.F64)
	case k.IsMove():
		return fmt.Sprintf("%s = %s %s", in.Move.Dst, k, in.Move.Src)
	case k.IsBinary():
		return fmt.Sprintf("%s = %s %s, %s", in.Binary.Dst, k, in.Binary.L, in.Binary.R)
	case k == InstrHeapAlloc:
		tys := make([]string, len(in.Alloc.Tys))
		for i, t := range in.Alloc.Tys {
			tys[i] = t.String()
		}
		return fmt.Sprintf("%s = %s %d [%s]", in.Alloc.Dst, k, in.Alloc.Size, strings.Join(tys, ", "))
	case k.IsStore():
		return fmt.Sprintf("%s %s, %s", k, in.Store.Addr, in.Store.Src)
	case k == InstrStoreFnPtr:
		return fmt.Sprintf("%s %s, &%s", k, in.Store.Addr, in.Store.Fun)
	case k.IsLoad():
		return fmt.Sprintf("%s = %s %s", in.Load.Dst, k, in.Load.Addr)
	case k == InstrBuiltinCall, k == InstrFunCall:
		return fmt.Sprintf("%s = %s %s(%s)", in.Call.Dst, k, in.Call.Fun, joinRegs(in.Call.Args))
	case k == InstrClosureCall:
		return fmt.Sprintf("%s = %s %s(%s)", in.Call.Dst, k, in.Call.Callee, joinRegs(in.Call.Args))
	case k == InstrJumpTableI32:
		labels := make([]string, len(in.JumpTable.Targets))
		for i, l := range in.JumpTable.Targets {
			labels[i] = l.String()
		}
		out := fmt.Sprintf("%s %s [%s]", k, in.JumpTable.Cond, strings.Join(labels, ", "))
		if in.JumpTable.HasDefault {
			out += " default " + in.JumpTable.Default.String()
		}
		return out
	case k == InstrJumpIfI32:
		return fmt.Sprintf("%s %s, %s", k, in.JumpIf.Cond, in.JumpIf.Target)
	case k == InstrJump:
		return fmt.Sprintf("%s %s", k, in.Jump.Target)
	case k == InstrRet:
		if in.Ret.HasValue {
			return fmt.Sprintf("%s %s", k, in.Ret.Value)
		}
		return k.String()
	default:
		return fmt.Sprintf("<%s?>", k)
	}
}

func joinRegs(regs []Reg) string {
	parts := make([]string, len(regs))
	for i, r := range regs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
