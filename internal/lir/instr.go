package lir

import (
	"fmt"

	"ebbc/internal/mir"
)

// InstrKind enumerates concrete, type-specialised LIR instructions.
type InstrKind uint8

const (
	InstrConstI32 InstrKind = iota
	InstrConstF64

	InstrMoveI32
	InstrMoveI64
	InstrMoveF32
	InstrMoveF64

	InstrAddI32
	InstrAddF64
	InstrSubI32
	InstrSubF64
	InstrMulI32
	InstrMulF64
	InstrDivI32
	InstrDivF64
	InstrModI32

	InstrEqI32
	InstrEqI64
	InstrEqF32
	InstrEqF64
	InstrNeqI32
	InstrNeqI64
	InstrNeqF32
	InstrNeqF64
	InstrGtI32
	InstrGtI64
	InstrGtF32
	InstrGtF64
	InstrGeI32
	InstrGeI64
	InstrGeF32
	InstrGeF64
	InstrLtI32
	InstrLtI64
	InstrLtF32
	InstrLtF64
	InstrLeI32
	InstrLeI64
	InstrLeF32
	InstrLeF64

	InstrHeapAlloc
	InstrStoreI32
	InstrStoreI64
	InstrStoreF32
	InstrStoreF64
	InstrStoreFnPtr
	InstrLoadI32
	InstrLoadI64
	InstrLoadF32
	InstrLoadF64

	InstrBuiltinCall
	InstrFunCall
	InstrClosureCall

	InstrJumpTableI32
	InstrJumpIfI32
	InstrJump
	InstrRet

	instrKindCount
)

var instrNames = [instrKindCount]string{
	InstrConstI32: "const.i32",
	InstrConstF64: "const.f64",
	InstrMoveI32:  "move.i32",
	InstrMoveI64:  "move.i64",
	InstrMoveF32:  "move.f32",
	InstrMoveF64:  "move.f64",
	InstrAddI32:   "add.i32",
	InstrAddF64:   "add.f64",
	InstrSubI32:   "sub.i32",
	InstrSubF64:   "sub.f64",
	InstrMulI32:   "mul.i32",
	InstrMulF64:   "mul.f64",
	InstrDivI32:   "div.i32",
	InstrDivF64:   "div.f64",
	InstrModI32:   "mod.i32",
	InstrEqI32:    "eq.i32",
	InstrEqI64:    "eq.i64",
	InstrEqF32:    "eq.f32",
	InstrEqF64:    "eq.f64",
	InstrNeqI32:   "neq.i32",
	InstrNeqI64:   "neq.i64",
	InstrNeqF32:   "neq.f32",
	InstrNeqF64:   "neq.f64",
	InstrGtI32:    "gt.i32",
	InstrGtI64:    "gt.i64",
	InstrGtF32:    "gt.f32",
	InstrGtF64:    "gt.f64",
	InstrGeI32:    "ge.i32",
	InstrGeI64:    "ge.i64",
	InstrGeF32:    "ge.f32",
	InstrGeF64:    "ge.f64",
	InstrLtI32:    "lt.i32",
	InstrLtI64:    "lt.i64",
	InstrLtF32:    "lt.f32",
	InstrLtF64:    "lt.f64",
	InstrLeI32:    "le.i32",
	InstrLeI64:    "le.i64",
	InstrLeF32:    "le.f32",
	InstrLeF64:    "le.f64",

	InstrHeapAlloc:  "heap_alloc",
	InstrStoreI32:   "store.i32",
	InstrStoreI64:   "store.i64",
	InstrStoreF32:   "store.f32",
	InstrStoreF64:   "store.f64",
	InstrStoreFnPtr: "store.fnptr",
	InstrLoadI32:    "load.i32",
	InstrLoadI64:    "load.i64",
	InstrLoadF32:    "load.f32",
	InstrLoadF64:    "load.f64",

	InstrBuiltinCall: "builtin_call",
	InstrFunCall:     "fun_call",
	InstrClosureCall: "closure_call",

	InstrJumpTableI32: "jump_table.i32",
	InstrJumpIfI32:    "jump_if.i32",
	InstrJump:         "jump",
	InstrRet:          "ret",
}

func (k InstrKind) String() string {
	if k < instrKindCount {
		return instrNames[k]
	}
	return fmt.Sprintf("instr(%d)", uint8(k))
}

// IsMove reports whether k is a register-to-register move.
func (k InstrKind) IsMove() bool { return k >= InstrMoveI32 && k <= InstrMoveF64 }

// IsBinary reports whether k is a three-register arithmetic or compare.
func (k InstrKind) IsBinary() bool { return k >= InstrAddI32 && k <= InstrLeF64 }

// IsStore reports whether k writes a register to memory.
func (k InstrKind) IsStore() bool { return k >= InstrStoreI32 && k <= InstrStoreF64 }

// IsLoad reports whether k reads memory into a register.
func (k InstrKind) IsLoad() bool { return k >= InstrLoadI32 && k <= InstrLoadF64 }

// IsTerminator reports whether k ends a block. JumpIf falls through and is
// not a terminator.
func (k InstrKind) IsTerminator() bool {
	return k == InstrJumpTableI32 || k == InstrJump || k == InstrRet
}

// Instr is one LIR instruction. Kind selects which payload is meaningful.
type Instr struct {
	Kind InstrKind `msgpack:"kind"`

	Const     ConstInstr     `msgpack:"const,omitempty"`
	Move      MoveInstr      `msgpack:"move,omitempty"`
	Binary    BinaryInstr    `msgpack:"binary,omitempty"`
	Alloc     AllocInstr     `msgpack:"alloc,omitempty"`
	Store     StoreInstr     `msgpack:"store,omitempty"`
	Load      LoadInstr      `msgpack:"load,omitempty"`
	Call      CallInstr      `msgpack:"call,omitempty"`
	JumpTable JumpTableInstr `msgpack:"jump_table,omitempty"`
	JumpIf    JumpIfInstr    `msgpack:"jump_if,omitempty"`
	Jump      JumpInstr      `msgpack:"jump,omitempty"`
	Ret       RetInstr       `msgpack:"ret,omitempty"`
}

// ConstInstr materialises a constant. I32 is used by ConstI32, F64 by ConstF64.
type ConstInstr struct {
	Dst Reg     `msgpack:"dst"`
	I32 int32   `msgpack:"i32,omitempty"`
	F64 float64 `msgpack:"f64,omitempty"`
}

// MoveInstr copies Src into Dst.
type MoveInstr struct {
	Dst Reg `msgpack:"dst"`
	Src Reg `msgpack:"src"`
}

// BinaryInstr computes Dst = L op R.
type BinaryInstr struct {
	Dst Reg `msgpack:"dst"`
	L   Reg `msgpack:"l"`
	R   Reg `msgpack:"r"`
}

// AllocInstr allocates a heap object of Size bytes whose slots are typed by Tys.
type AllocInstr struct {
	Dst  Reg   `msgpack:"dst"`
	Size int32 `msgpack:"size"`
	Tys  []Ty  `msgpack:"tys"`
}

// StoreInstr writes Src to Addr. StoreFnPtr writes the address of Fun instead.
type StoreInstr struct {
	Addr Addr       `msgpack:"addr"`
	Src  Reg        `msgpack:"src,omitempty"`
	Fun  mir.Symbol `msgpack:"fun,omitempty"`
}

// LoadInstr reads Addr into Dst.
type LoadInstr struct {
	Dst  Reg  `msgpack:"dst"`
	Addr Addr `msgpack:"addr"`
}

// CallInstr calls Fun by name (builtin and direct calls) or the closure held
// in Callee (closure calls).
type CallInstr struct {
	Dst    Reg        `msgpack:"dst"`
	Fun    mir.Symbol `msgpack:"fun,omitempty"`
	Callee Reg        `msgpack:"callee,omitempty"`
	Args   []Reg      `msgpack:"args"`
}

// JumpTableInstr jumps to Targets[Cond], or to Default when Cond is out of range.
type JumpTableInstr struct {
	Cond       Reg     `msgpack:"cond"`
	Targets    []Label `msgpack:"targets"`
	HasDefault bool    `msgpack:"has_default,omitempty"`
	Default    Label   `msgpack:"default,omitempty"`
}

// JumpIfInstr jumps to Target when Cond is non-zero and falls through otherwise.
type JumpIfInstr struct {
	Cond   Reg   `msgpack:"cond"`
	Target Label `msgpack:"target"`
}

// JumpInstr jumps unconditionally.
type JumpInstr struct {
	Target Label `msgpack:"target"`
}

// RetInstr returns Value when HasValue is set.
type RetInstr struct {
	HasValue bool `msgpack:"has_value,omitempty"`
	Value    Reg  `msgpack:"value,omitempty"`
}

func ConstI32(dst Reg, v int32) Instr {
	return Instr{Kind: InstrConstI32, Const: ConstInstr{Dst: dst, I32: v}}
}

func ConstF64(dst Reg, v float64) Instr {
	return Instr{Kind: InstrConstF64, Const: ConstInstr{Dst: dst, F64: v}}
}

// Move builds a move of the given kind.
func Move(kind InstrKind, dst, src Reg) Instr {
	return Instr{Kind: kind, Move: MoveInstr{Dst: dst, Src: src}}
}

// Binary builds an arithmetic or comparison instruction of the given kind.
func Binary(kind InstrKind, dst, l, r Reg) Instr {
	return Instr{Kind: kind, Binary: BinaryInstr{Dst: dst, L: l, R: r}}
}

func HeapAlloc(dst Reg, size int32, tys []Ty) Instr {
	return Instr{Kind: InstrHeapAlloc, Alloc: AllocInstr{Dst: dst, Size: size, Tys: tys}}
}

// Store builds a store of the given kind.
func Store(kind InstrKind, addr Addr, src Reg) Instr {
	return Instr{Kind: kind, Store: StoreInstr{Addr: addr, Src: src}}
}

func StoreFnPtr(addr Addr, fun mir.Symbol) Instr {
	return Instr{Kind: InstrStoreFnPtr, Store: StoreInstr{Addr: addr, Fun: fun}}
}

// Load builds a load of the given kind.
func Load(kind InstrKind, dst Reg, addr Addr) Instr {
	return Instr{Kind: kind, Load: LoadInstr{Dst: dst, Addr: addr}}
}

func BuiltinCall(dst Reg, fun mir.Symbol, args []Reg) Instr {
	return Instr{Kind: InstrBuiltinCall, Call: CallInstr{Dst: dst, Fun: fun, Args: args}}
}

func FunCall(dst Reg, fun mir.Symbol, args []Reg) Instr {
	return Instr{Kind: InstrFunCall, Call: CallInstr{Dst: dst, Fun: fun, Args: args}}
}

func ClosureCall(dst, callee Reg, args []Reg) Instr {
	return Instr{Kind: InstrClosureCall, Call: CallInstr{Dst: dst, Callee: callee, Args: args}}
}

func JumpTableI32(cond Reg, targets []Label, def *Label) Instr {
	jt := JumpTableInstr{Cond: cond, Targets: targets}
	if def != nil {
		jt.HasDefault = true
		jt.Default = *def
	}
	return Instr{Kind: InstrJumpTableI32, JumpTable: jt}
}

func JumpIfI32(cond Reg, target Label) Instr {
	return Instr{Kind: InstrJumpIfI32, JumpIf: JumpIfInstr{Cond: cond, Target: target}}
}

func Jump(target Label) Instr {
	return Instr{Kind: InstrJump, Jump: JumpInstr{Target: target}}
}

func Ret(value *Reg) Instr {
	if value == nil {
		return Instr{Kind: InstrRet}
	}
	return Instr{Kind: InstrRet, Ret: RetInstr{HasValue: true, Value: *value}}
}
