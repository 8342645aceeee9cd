package mir

import "fmt"

// OpKind enumerates MIR operations. The last operation of every EBB is a
// control transfer (OpBranch, OpJump or OpRet).
type OpKind uint8

const (
	// OpLit binds a literal constant.
	OpLit OpKind = iota
	// OpAlias copies a value.
	OpAlias
	// OpAdd is overloaded on its declared type (int or float).
	OpAdd
	// OpSub is overloaded on its declared type (int or float).
	OpSub
	// OpMul is overloaded on its declared type (int or float).
	OpMul
	// OpDivInt divides integers.
	OpDivInt
	// OpDivFloat divides floats.
	OpDivFloat
	// OpMod is the integer remainder.
	OpMod
	// OpEq compares for equality.
	OpEq
	// OpNeq compares for inequality.
	OpNeq
	// OpGt is greater-than.
	OpGt
	// OpGe is greater-or-equal.
	OpGe
	// OpLt is less-than.
	OpLt
	// OpLe is less-or-equal.
	OpLe
	// OpTuple builds a heap tuple.
	OpTuple
	// OpProj projects a tuple field.
	OpProj
	// OpClosure builds a heap closure.
	OpClosure
	// OpBuiltinCall calls a runtime builtin.
	OpBuiltinCall
	// OpCall calls a function or a closure value.
	OpCall
	// OpBranch is a multi-way branch on an integer discriminant.
	OpBranch
	// OpJump is an unconditional, parameterised jump.
	OpJump
	// OpRet returns from the function.
	OpRet
)

var opKindNames = [...]string{
	OpLit:         "lit",
	OpAlias:       "alias",
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpDivInt:      "divint",
	OpDivFloat:    "divfloat",
	OpMod:         "mod",
	OpEq:          "eq",
	OpNeq:         "neq",
	OpGt:          "gt",
	OpGe:          "ge",
	OpLt:          "lt",
	OpLe:          "le",
	OpTuple:       "tuple",
	OpProj:        "proj",
	OpClosure:     "closure",
	OpBuiltinCall: "builtincall",
	OpCall:        "call",
	OpBranch:      "branch",
	OpJump:        "jump",
	OpRet:         "ret",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return fmt.Sprintf("op(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k OpKind) MarshalText() ([]byte, error) {
	if int(k) >= len(opKindNames) {
		return nil, fmt.Errorf("mir: unknown op kind %d", uint8(k))
	}
	return []byte(opKindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *OpKind) UnmarshalText(b []byte) error {
	for i, name := range opKindNames {
		if name == string(b) {
			*k = OpKind(i)
			return nil
		}
	}
	return fmt.Errorf("mir: unknown op kind %q", string(b))
}

// IsBinary reports whether k carries a BinOp payload.
func (k OpKind) IsBinary() bool {
	return k >= OpAdd && k <= OpLe
}

// IsCompare reports whether k is one of the six comparisons.
func (k OpKind) IsCompare() bool {
	return k >= OpEq && k <= OpLe
}

// IsTerminator reports whether k transfers control.
func (k OpKind) IsTerminator() bool {
	return k == OpBranch || k == OpJump || k == OpRet
}

// Op is a MIR operation. Kind selects which payload is meaningful.
type Op struct {
	Kind OpKind `json:"kind" msgpack:"kind"`

	Lit     LitOp     `json:"lit,omitzero" msgpack:"lit,omitempty"`
	Alias   AliasOp   `json:"alias,omitzero" msgpack:"alias,omitempty"`
	Bin     BinOp     `json:"bin,omitzero" msgpack:"bin,omitempty"`
	Tuple   TupleOp   `json:"tuple,omitzero" msgpack:"tuple,omitempty"`
	Proj    ProjOp    `json:"proj,omitzero" msgpack:"proj,omitempty"`
	Closure ClosureOp `json:"closure,omitzero" msgpack:"closure,omitempty"`
	Call    CallOp    `json:"call,omitzero" msgpack:"call,omitempty"`
	Branch  BranchOp  `json:"branch,omitzero" msgpack:"branch,omitempty"`
	Jump    JumpOp    `json:"jump,omitzero" msgpack:"jump,omitempty"`
	Ret     RetOp     `json:"ret,omitzero" msgpack:"ret,omitempty"`
}

// LitOp binds Var to a literal.
type LitOp struct {
	Var   Symbol  `json:"var" msgpack:"var"`
	Ty    Type    `json:"ty" msgpack:"ty"`
	Value Literal `json:"value" msgpack:"value"`
}

// AliasOp binds Var to a copy of Sym.
type AliasOp struct {
	Var Symbol `json:"var" msgpack:"var"`
	Ty  Type   `json:"ty" msgpack:"ty"`
	Sym Symbol `json:"sym" msgpack:"sym"`
}

// BinOp is the payload of arithmetic and comparison operations.
type BinOp struct {
	Var Symbol `json:"var" msgpack:"var"`
	Ty  Type   `json:"ty" msgpack:"ty"`
	L   Symbol `json:"l" msgpack:"l"`
	R   Symbol `json:"r" msgpack:"r"`
}

// TupleOp builds a tuple of Elems typed by Tys.
type TupleOp struct {
	Var   Symbol   `json:"var" msgpack:"var"`
	Tys   []Type   `json:"tys" msgpack:"tys"`
	Elems []Symbol `json:"elems" msgpack:"elems"`
}

// ProjOp binds Var to field Index of Tuple; Ty is the field type.
type ProjOp struct {
	Var   Symbol `json:"var" msgpack:"var"`
	Ty    Type   `json:"ty" msgpack:"ty"`
	Index int    `json:"index" msgpack:"index"`
	Tuple Symbol `json:"tuple" msgpack:"tuple"`
}

// Capture is one captured value of a closure.
type Capture struct {
	Ty  Type   `json:"ty" msgpack:"ty"`
	Var Symbol `json:"var" msgpack:"var"`
}

// ClosureOp pairs the function Fun with its captured environment.
type ClosureOp struct {
	Var   Symbol    `json:"var" msgpack:"var"`
	Param Type      `json:"param" msgpack:"param"`
	Ret   Type      `json:"ret" msgpack:"ret"`
	Fun   Symbol    `json:"fun" msgpack:"fun"`
	Env   []Capture `json:"env" msgpack:"env"`
}

// CallOp is the payload of OpCall and OpBuiltinCall. For OpCall, Fun is
// either a local value holding a closure or the name of a global function.
type CallOp struct {
	Var  Symbol   `json:"var" msgpack:"var"`
	Ty   Type     `json:"ty" msgpack:"ty"`
	Fun  Symbol   `json:"fun" msgpack:"fun"`
	Args []Symbol `json:"args" msgpack:"args"`
}

// Clause is one keyed arm of a branch.
type Clause struct {
	Key    int64    `json:"key" msgpack:"key"`
	Target Symbol   `json:"target" msgpack:"target"`
	Args   []Symbol `json:"args,omitempty" msgpack:"args,omitempty"`
}

// BranchTarget is a jump destination with arguments.
type BranchTarget struct {
	Target Symbol   `json:"target" msgpack:"target"`
	Args   []Symbol `json:"args,omitempty" msgpack:"args,omitempty"`
}

// BranchOp dispatches on Cond.
type BranchOp struct {
	Cond       Symbol       `json:"cond" msgpack:"cond"`
	Ty         Type         `json:"ty" msgpack:"ty"`
	Clauses    []Clause     `json:"clauses" msgpack:"clauses"`
	HasDefault bool         `json:"has_default,omitempty" msgpack:"has_default,omitempty"`
	Default    BranchTarget `json:"default,omitzero" msgpack:"default,omitempty"`
}

// JumpOp transfers control to Target passing Args as its parameters.
type JumpOp struct {
	Target Symbol   `json:"target" msgpack:"target"`
	Args   []Symbol `json:"args,omitempty" msgpack:"args,omitempty"`
}

// RetOp returns Value when HasValue is set.
type RetOp struct {
	Ty       Type   `json:"ty" msgpack:"ty"`
	HasValue bool   `json:"has_value,omitempty" msgpack:"has_value,omitempty"`
	Value    Symbol `json:"value,omitzero" msgpack:"value,omitempty"`
}

// Def returns the symbol bound by op, if any.
func (op *Op) Def() (Symbol, bool) {
	switch op.Kind {
	case OpLit:
		return op.Lit.Var, true
	case OpAlias:
		return op.Alias.Var, true
	case OpAdd, OpSub, OpMul, OpDivInt, OpDivFloat, OpMod, OpEq, OpNeq, OpGt, OpGe, OpLt, OpLe:
		return op.Bin.Var, true
	case OpTuple:
		return op.Tuple.Var, true
	case OpProj:
		return op.Proj.Var, true
	case OpClosure:
		return op.Closure.Var, true
	case OpBuiltinCall, OpCall:
		return op.Call.Var, true
	default:
		return Symbol{}, false
	}
}

// Uses returns every value symbol op reads, in operand order. Function
// names referenced by OpClosure and OpCall are not values and are left out,
// as are block labels.
func (op *Op) Uses() []Symbol {
	switch op.Kind {
	case OpLit:
		return nil
	case OpAlias:
		return []Symbol{op.Alias.Sym}
	case OpAdd, OpSub, OpMul, OpDivInt, OpDivFloat, OpMod, OpEq, OpNeq, OpGt, OpGe, OpLt, OpLe:
		return []Symbol{op.Bin.L, op.Bin.R}
	case OpTuple:
		return append([]Symbol(nil), op.Tuple.Elems...)
	case OpProj:
		return []Symbol{op.Proj.Tuple}
	case OpClosure:
		out := make([]Symbol, 0, len(op.Closure.Env))
		for _, c := range op.Closure.Env {
			out = append(out, c.Var)
		}
		return out
	case OpBuiltinCall, OpCall:
		return append([]Symbol(nil), op.Call.Args...)
	case OpBranch:
		out := []Symbol{op.Branch.Cond}
		for _, c := range op.Branch.Clauses {
			out = append(out, c.Args...)
		}
		if op.Branch.HasDefault {
			out = append(out, op.Branch.Default.Args...)
		}
		return out
	case OpJump:
		return append([]Symbol(nil), op.Jump.Args...)
	case OpRet:
		if op.Ret.HasValue {
			return []Symbol{op.Ret.Value}
		}
		return nil
	default:
		return nil
	}
}

// Lit builds an OpLit operation.
func Lit(v Symbol, ty Type, value Literal) Op {
	return Op{Kind: OpLit, Lit: LitOp{Var: v, Ty: ty, Value: value}}
}

// Alias builds an OpAlias operation.
func Alias(v Symbol, ty Type, src Symbol) Op {
	return Op{Kind: OpAlias, Alias: AliasOp{Var: v, Ty: ty, Sym: src}}
}

// Bin builds an arithmetic or comparison operation of the given kind.
func Bin(kind OpKind, v Symbol, ty Type, l, r Symbol) Op {
	return Op{Kind: kind, Bin: BinOp{Var: v, Ty: ty, L: l, R: r}}
}

// Tuple builds an OpTuple operation.
func Tuple(v Symbol, tys []Type, elems []Symbol) Op {
	return Op{Kind: OpTuple, Tuple: TupleOp{Var: v, Tys: tys, Elems: elems}}
}

// Proj builds an OpProj operation.
func Proj(v Symbol, ty Type, index int, tuple Symbol) Op {
	return Op{Kind: OpProj, Proj: ProjOp{Var: v, Ty: ty, Index: index, Tuple: tuple}}
}

// Closure builds an OpClosure operation.
func Closure(v Symbol, param, ret Type, fun Symbol, env []Capture) Op {
	return Op{Kind: OpClosure, Closure: ClosureOp{Var: v, Param: param, Ret: ret, Fun: fun, Env: env}}
}

// BuiltinCall builds an OpBuiltinCall operation.
func BuiltinCall(v Symbol, ty Type, fun Symbol, args []Symbol) Op {
	return Op{Kind: OpBuiltinCall, Call: CallOp{Var: v, Ty: ty, Fun: fun, Args: args}}
}

// Call builds an OpCall operation.
func Call(v Symbol, ty Type, fun Symbol, args []Symbol) Op {
	return Op{Kind: OpCall, Call: CallOp{Var: v, Ty: ty, Fun: fun, Args: args}}
}

// Branch builds an OpBranch operation without a default arm.
func Branch(cond Symbol, ty Type, clauses []Clause) Op {
	return Op{Kind: OpBranch, Branch: BranchOp{Cond: cond, Ty: ty, Clauses: clauses}}
}

// BranchDefault builds an OpBranch operation with a default arm.
func BranchDefault(cond Symbol, ty Type, clauses []Clause, def BranchTarget) Op {
	return Op{Kind: OpBranch, Branch: BranchOp{Cond: cond, Ty: ty, Clauses: clauses, HasDefault: true, Default: def}}
}

// Jump builds an OpJump operation.
func Jump(target Symbol, args ...Symbol) Op {
	return Op{Kind: OpJump, Jump: JumpOp{Target: target, Args: args}}
}

// Ret builds an OpRet returning value.
func Ret(ty Type, value Symbol) Op {
	return Op{Kind: OpRet, Ret: RetOp{Ty: ty, HasValue: true, Value: value}}
}

// RetUnit builds an OpRet without a value.
func RetUnit() Op {
	return Op{Kind: OpRet, Ret: RetOp{Ty: UnitType}}
}
