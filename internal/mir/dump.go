package mir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable representation of a MIR program.
func Dump(w io.Writer, p *Program) error {
	if w == nil || p == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "funcs=%d\n", len(p.Funcs)); err != nil {
		return err
	}
	for i := range p.Funcs {
		if err := dumpFunc(w, &p.Funcs[i]); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunc(w io.Writer, f *Function) error {
	if _, err := fmt.Fprintf(w, "\nfun %s -> %s:\n", f.Name, f.BodyTy); err != nil {
		return err
	}
	for i := range f.Body {
		bb := &f.Body[i]
		params := make([]string, len(bb.Params))
		for j, p := range bb.Params {
			params[j] = fmt.Sprintf("%s: %s", p.Var, p.Ty)
		}
		if _, err := fmt.Fprintf(w, "  %s(%s):\n", bb.Name, strings.Join(params, ", ")); err != nil {
			return err
		}
		for j := range bb.Body {
			if _, err := fmt.Fprintf(w, "    %s\n", FormatOp(&bb.Body[j])); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatOp renders a single operation.
func FormatOp(op *Op) string {
	if op == nil {
		return "<op?>"
	}
	switch op.Kind {
	case OpLit:
		return fmt.Sprintf("%s: %s = %s", op.Lit.Var, op.Lit.Ty, op.Lit.Value)
	case OpAlias:
		return fmt.Sprintf("%s: %s = %s", op.Alias.Var, op.Alias.Ty, op.Alias.Sym)
	case OpAdd, OpSub, OpMul, OpDivInt, OpDivFloat, OpMod, OpEq, OpNeq, OpGt, OpGe, OpLt, OpLe:
		return fmt.Sprintf("%s: %s = %s %s %s", op.Bin.Var, op.Bin.Ty, op.Kind, op.Bin.L, op.Bin.R)
	case OpTuple:
		return fmt.Sprintf("%s = tuple(%s)", op.Tuple.Var, joinSyms(op.Tuple.Elems))
	case OpProj:
		return fmt.Sprintf("%s: %s = #%d %s", op.Proj.Var, op.Proj.Ty, op.Proj.Index, op.Proj.Tuple)
	case OpClosure:
		env := make([]string, len(op.Closure.Env))
		for i, c := range op.Closure.Env {
			env[i] = fmt.Sprintf("%s: %s", c.Var, c.Ty)
		}
		return fmt.Sprintf("%s = closure %s [%s]", op.Closure.Var, op.Closure.Fun, strings.Join(env, ", "))
	case OpBuiltinCall:
		return fmt.Sprintf("%s: %s = builtin %s(%s)", op.Call.Var, op.Call.Ty, op.Call.Fun, joinSyms(op.Call.Args))
	case OpCall:
		return fmt.Sprintf("%s: %s = call %s(%s)", op.Call.Var, op.Call.Ty, op.Call.Fun, joinSyms(op.Call.Args))
	case OpBranch:
		var b strings.Builder
		fmt.Fprintf(&b, "branch %s {", op.Branch.Cond)
		for _, c := range op.Branch.Clauses {
			fmt.Fprintf(&b, " %d => %s(%s);", c.Key, c.Target, joinSyms(c.Args))
		}
		if op.Branch.HasDefault {
			fmt.Fprintf(&b, " _ => %s(%s);", op.Branch.Default.Target, joinSyms(op.Branch.Default.Args))
		}
		b.WriteString(" }")
		return b.String()
	case OpJump:
		return fmt.Sprintf("jump %s(%s)", op.Jump.Target, joinSyms(op.Jump.Args))
	case OpRet:
		if op.Ret.HasValue {
			return fmt.Sprintf("ret %s", op.Ret.Value)
		}
		return "ret"
	default:
		return fmt.Sprintf("<%s?>", op.Kind)
	}
}

func joinSyms(syms []Symbol) string {
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}
