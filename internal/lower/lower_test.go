package lower_test

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"

	"ebbc/internal/config"
	"ebbc/internal/layout"
	"ebbc/internal/lir"
	"ebbc/internal/lower"
	"ebbc/internal/mir"
	"ebbc/internal/trace"
)

func s(name string) mir.Symbol { return mir.Sym(name, 0) }

func param(ty mir.Type, name string) mir.Param { return mir.Param{Ty: ty, Var: s(name)} }

func block(name string, params []mir.Param, ops ...mir.Op) mir.EBB {
	return mir.EBB{Name: s(name), Params: params, Body: ops}
}

func function(name string, ret mir.Type, blocks ...mir.EBB) *mir.Function {
	return &mir.Function{Name: s(name), BodyTy: ret, Body: blocks}
}

func lowerFunc(t *testing.T, f *mir.Function) lir.Function {
	t.Helper()
	fn, err := lower.New(layout.X86_64()).Function(context.Background(), f)
	if err != nil {
		t.Fatalf("Function(%s): %v", f.Name, err)
	}
	return fn
}

func lowerErr(t *testing.T, f *mir.Function, kind lower.ErrorKind) *lower.InternalError {
	t.Helper()
	_, err := lower.New(layout.X86_64()).Function(context.Background(), f)
	var ie *lower.InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InternalError, got %v", err)
	}
	if ie.Kind != kind {
		t.Fatalf("kind = %s, want %s (%v)", ie.Kind, kind, err)
	}
	return ie
}

func render(b lir.Block) []string {
	out := make([]string, len(b.Body))
	for i := range b.Body {
		out[i] = lir.FormatInstr(&b.Body[i])
	}
	return out
}

func expectBlock(t *testing.T, fn lir.Function, index int, want ...string) {
	t.Helper()
	got := render(fn.Body[index])
	if !slices.Equal(got, want) {
		t.Errorf("block %s:\n got  %q\n want %q", fn.Body[index].Name, got, want)
	}
}

func TestFunction_Add(t *testing.T) {
	f := function("add", mir.IntType,
		block("entry", []mir.Param{param(mir.IntType, "x"), param(mir.IntType, "y")},
			mir.Bin(mir.OpAdd, s("z"), mir.IntType, s("x"), s("y")),
			mir.Ret(mir.IntType, s("z")),
		),
	)
	fn := lowerFunc(t, f)

	if fn.NParams != 2 {
		t.Errorf("nparams = %d, want 2", fn.NParams)
	}
	if want := []lir.Ty{lir.I32, lir.I32, lir.I32}; !slices.Equal(fn.Regs, want) {
		t.Errorf("regs = %v, want %v", fn.Regs, want)
	}
	if fn.RetTy != lir.I32 {
		t.Errorf("ret = %s, want i32", fn.RetTy)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("blocks = %d, want 1", len(fn.Body))
	}
	r0, r1, r2 := lir.Reg{Ty: lir.I32, ID: 0}, lir.Reg{Ty: lir.I32, ID: 1}, lir.Reg{Ty: lir.I32, ID: 2}
	want := []lir.Instr{lir.Binary(lir.InstrAddI32, r2, r0, r1), lir.Ret(&r2)}
	if !reflect.DeepEqual(fn.Body[0].Body, want) {
		t.Errorf("body = %q", render(fn.Body[0]))
	}
}

func TestFunction_EntryParamsGetFirstRegisters(t *testing.T) {
	f := function("f", mir.UnitType,
		block("entry", []mir.Param{
			param(mir.FloatType, "a"),
			param(mir.BoolType, "b"),
			param(mir.TupleType(mir.IntType), "c"),
			param(mir.EbbType(nil, mir.UnitType), "k"),
		},
			mir.Lit(s("one"), mir.IntType, mir.IntLit(1)),
			mir.Jump(s("next"), s("one")),
		),
		block("next", []mir.Param{param(mir.IntType, "n")}, mir.RetUnit()),
	)
	fn := lowerFunc(t, f)

	if fn.NParams != 4 {
		t.Fatalf("nparams = %d, want 4", fn.NParams)
	}
	want := []lir.Ty{lir.F64, lir.I32, lir.Ptr, lir.FPtr}
	if !slices.Equal(fn.Regs[:4], want) {
		t.Errorf("param regs = %v, want %v", fn.Regs[:4], want)
	}
	if fn.RetTy != lir.Unit {
		t.Errorf("ret = %s, want unit", fn.RetTy)
	}
}

func TestLit(t *testing.T) {
	f := function("lits", mir.UnitType,
		block("entry", nil,
			mir.Lit(s("i"), mir.IntType, mir.IntLit(1<<32+5)),
			mir.Lit(s("t"), mir.BoolType, mir.BoolLit(true)),
			mir.Lit(s("f"), mir.BoolType, mir.BoolLit(false)),
			mir.Lit(s("d"), mir.FloatType, mir.FloatLit(2.5)),
			mir.RetUnit(),
		),
	)
	fn := lowerFunc(t, f)
	expectBlock(t, fn, 0,
		"r0 = const.i32 5",
		"r1 = const.i32 1",
		"r2 = const.i32 0",
		"r3 = const.f64 2.5",
		"ret",
	)
}

func TestAlias(t *testing.T) {
	f := function("alias", mir.UnitType,
		block("entry", []mir.Param{
			param(mir.UnitType, "u"),
			param(mir.IntType, "i"),
			param(mir.BoolType, "b"),
			param(mir.FloatType, "d"),
			param(mir.TupleType(), "t"),
		},
			mir.Alias(s("u2"), mir.UnitType, s("u")),
			mir.Alias(s("i2"), mir.IntType, s("i")),
			mir.Alias(s("b2"), mir.BoolType, s("b")),
			mir.Alias(s("d2"), mir.FloatType, s("d")),
			mir.Alias(s("t2"), mir.TupleType(), s("t")),
			mir.RetUnit(),
		),
	)
	fn := lowerFunc(t, f)
	expectBlock(t, fn, 0,
		"r6 = move.i64 r1",
		"r7 = move.i32 r2",
		"r8 = move.f64 r3",
		"r9 = move.i64 r4",
		"ret",
	)
}

func TestAlias_UnitEmitsNothing(t *testing.T) {
	f := function("unit", mir.UnitType,
		block("entry", []mir.Param{param(mir.UnitType, "u")},
			mir.Alias(s("v"), mir.UnitType, s("u")),
			mir.RetUnit(),
		),
	)
	fn := lowerFunc(t, f)
	expectBlock(t, fn, 0, "ret")
}

func TestArith(t *testing.T) {
	f := function("arith", mir.FloatType,
		block("entry", []mir.Param{
			param(mir.IntType, "a"), param(mir.IntType, "b"),
			param(mir.FloatType, "x"), param(mir.FloatType, "y"),
		},
			mir.Bin(mir.OpSub, s("s"), mir.IntType, s("a"), s("b")),
			mir.Bin(mir.OpMul, s("m"), mir.FloatType, s("x"), s("y")),
			mir.Bin(mir.OpDivInt, s("q"), mir.IntType, s("a"), s("b")),
			mir.Bin(mir.OpDivFloat, s("fq"), mir.FloatType, s("x"), s("y")),
			mir.Bin(mir.OpMod, s("r"), mir.IntType, s("a"), s("b")),
			mir.Ret(mir.FloatType, s("m")),
		),
	)
	fn := lowerFunc(t, f)
	expectBlock(t, fn, 0,
		"r4 = sub.i32 r0, r1",
		"r5 = mul.f64 r2, r3",
		"r6 = div.i32 r0, r1",
		"r7 = div.f64 r2, r3",
		"r8 = mod.i32 r0, r1",
		"ret r5",
	)
}

func TestArith_UnsupportedDeclaredType(t *testing.T) {
	f := function("bad", mir.BoolType,
		block("entry", []mir.Param{param(mir.BoolType, "a"), param(mir.BoolType, "b")},
			mir.Bin(mir.OpAdd, s("c"), mir.BoolType, s("a"), s("b")),
			mir.Ret(mir.BoolType, s("c")),
		),
	)
	ie := lowerErr(t, f, lower.ErrArithType)
	if !ie.HasOp || ie.Op != mir.OpAdd {
		t.Errorf("op = %s (has=%v), want add", ie.Op, ie.HasOp)
	}
}

func TestCompare_SelectsByRegisterTypes(t *testing.T) {
	f := function("cmp", mir.BoolType,
		block("entry", []mir.Param{param(mir.FloatType, "x"), param(mir.FloatType, "y")},
			// the declared type is ignored; both operands are f64
			mir.Bin(mir.OpLt, s("c"), mir.BoolType, s("x"), s("y")),
			mir.Ret(mir.BoolType, s("c")),
		),
	)
	fn := lowerFunc(t, f)
	expectBlock(t, fn, 0, "r2 = lt.f64 r0, r1", "ret r2")
}

func TestCompare_MixedOperandsFail(t *testing.T) {
	f := function("mixed", mir.BoolType,
		block("entry", []mir.Param{param(mir.IntType, "i"), param(mir.FloatType, "d")},
			mir.Bin(mir.OpEq, s("c"), mir.BoolType, s("i"), s("d")),
			mir.Ret(mir.BoolType, s("c")),
		),
	)
	ie := lowerErr(t, f, lower.ErrOperandTypes)
	if ie.Op != mir.OpEq {
		t.Errorf("op = %s, want eq", ie.Op)
	}
	if ie.Func != s("mixed") || ie.Block != s("entry") {
		t.Errorf("location = %s/%s", ie.Func, ie.Block)
	}
	if !strings.Contains(ie.Error(), "i32 and f64") {
		t.Errorf("message %q does not name operand types", ie.Error())
	}
}

func TestTuple_FixedSlots(t *testing.T) {
	tys := []mir.Type{mir.IntType, mir.FloatType, mir.TupleType(mir.IntType)}
	f := function("mk", mir.TupleType(tys...),
		block("entry", []mir.Param{
			param(tys[0], "i"), param(tys[1], "d"), param(tys[2], "p"),
		},
			mir.Tuple(s("t"), tys, []mir.Symbol{s("i"), s("d"), s("p")}),
			mir.Ret(mir.TupleType(tys...), s("t")),
		),
	)
	fn := lowerFunc(t, f)
	expectBlock(t, fn, 0,
		"r3 = heap_alloc 24 [i32, f64, ptr]",
		"store.i32 [r3+0], r0",
		"store.f64 [r3+8], r1",
		"store.i32 [r3+16], r2",
		"ret r3",
	)
	if fn.Regs[3] != lir.Ptr {
		t.Errorf("tuple register = %s, want ptr", fn.Regs[3])
	}
}

func TestTuple_UnitFieldSkipped(t *testing.T) {
	tys := []mir.Type{mir.UnitType, mir.IntType}
	f := function("mk", mir.TupleType(tys...),
		block("entry", []mir.Param{param(tys[0], "u"), param(tys[1], "i")},
			mir.Tuple(s("t"), tys, []mir.Symbol{s("u"), s("i")}),
			mir.Ret(mir.TupleType(tys...), s("t")),
		),
	)
	fn := lowerFunc(t, f)
	expectBlock(t, fn, 0,
		"r2 = heap_alloc 16 [unit, i32]",
		"store.i32 [r2+8], r1",
		"ret r2",
	)
}

func TestTuple_ArityMismatch(t *testing.T) {
	f := function("mk", mir.UnitType,
		block("entry", []mir.Param{param(mir.IntType, "i")},
			mir.Tuple(s("t"), []mir.Type{mir.IntType, mir.IntType}, []mir.Symbol{s("i")}),
			mir.RetUnit(),
		),
	)
	lowerErr(t, f, lower.ErrArgCount)
}

func TestProj(t *testing.T) {
	tt := mir.TupleType(mir.UnitType, mir.FloatType, mir.IntType, mir.TupleType())
	f := function("get", mir.FloatType,
		block("entry", []mir.Param{param(tt, "t")},
			mir.Proj(s("u"), mir.UnitType, 0, s("t")),
			mir.Proj(s("d"), mir.FloatType, 1, s("t")),
			mir.Proj(s("i"), mir.IntType, 2, s("t")),
			mir.Proj(s("p"), mir.TupleType(), 3, s("t")),
			mir.Ret(mir.FloatType, s("d")),
		),
	)
	fn := lowerFunc(t, f)
	expectBlock(t, fn, 0,
		"r2 = load.f64 [r0+8]",
		"r3 = load.i32 [r0+16]",
		"r4 = load.i64 [r0+24]",
		"ret r2",
	)
}

func TestClosureAndCalls(t *testing.T) {
	f := function("mk", mir.IntType,
		block("entry", []mir.Param{
			param(mir.IntType, "a"), param(mir.FloatType, "b"), param(mir.UnitType, "u"),
		},
			mir.Closure(s("k"), mir.IntType, mir.IntType, s("body"), []mir.Capture{
				{Ty: mir.IntType, Var: s("a")},
				{Ty: mir.UnitType, Var: s("u")},
				{Ty: mir.FloatType, Var: s("b")},
			}),
			mir.Call(s("r"), mir.IntType, s("k"), []mir.Symbol{s("a")}),
			mir.Call(s("g"), mir.IntType, s("global"), []mir.Symbol{s("r")}),
			mir.BuiltinCall(s("p"), mir.UnitType, s("print"), []mir.Symbol{s("g"), s("b")}),
			mir.Ret(mir.IntType, s("g")),
		),
	)
	fn := lowerFunc(t, f)
	expectBlock(t, fn, 0,
		// fptr + i32 + unit + f64
		"r3 = heap_alloc 20 [fptr, i32, unit, f64]",
		"store.fnptr [r3+0], &body@0",
		"store.i32 [r3+8], r0",
		"store.f64 [r3+24], r1",
		"r4 = closure_call r3(r0)",
		"r5 = fun_call global@0(r4)",
		"r6 = builtin_call print@0(r5, r1)",
		"ret r5",
	)
}

func TestJump_MovesBeforeJump(t *testing.T) {
	f := function("loop", mir.UnitType,
		block("entry", []mir.Param{
			param(mir.IntType, "x"), param(mir.UnitType, "u"), param(mir.FloatType, "y"),
			param(mir.TupleType(), "t"),
		},
			mir.Jump(s("next"), s("x"), s("u"), s("y"), s("t")),
		),
		block("next", []mir.Param{
			param(mir.IntType, "p"), param(mir.UnitType, "pu"), param(mir.FloatType, "q"),
			param(mir.TupleType(), "pt"),
		},
			mir.RetUnit(),
		),
	)
	fn := lowerFunc(t, f)
	expectBlock(t, fn, 0,
		"r4 = move.i32 r0",
		"r6 = move.f64 r2",
		"r7 = move.i32 r3",
		"jump next@0",
	)
	expectBlock(t, fn, 1, "ret")
}

func TestJump_ArgCountMismatch(t *testing.T) {
	f := function("f", mir.UnitType,
		block("entry", []mir.Param{param(mir.IntType, "x")}, mir.Jump(s("next"))),
		block("next", []mir.Param{param(mir.IntType, "p")}, mir.RetUnit()),
	)
	lowerErr(t, f, lower.ErrArgCount)
}

func TestJump_UnknownTarget(t *testing.T) {
	f := function("f", mir.UnitType,
		block("entry", nil, mir.Jump(s("nowhere"))),
	)
	lowerErr(t, f, lower.ErrUnknownTarget)
}

func TestUnboundSymbol(t *testing.T) {
	f := function("f", mir.IntType,
		block("entry", nil, mir.Ret(mir.IntType, s("ghost"))),
	)
	ie := lowerErr(t, f, lower.ErrUnboundSymbol)
	if !strings.Contains(ie.Detail, "ghost@0") {
		t.Errorf("detail %q does not name the symbol", ie.Detail)
	}
}

func TestNoEntry(t *testing.T) {
	lowerErr(t, function("empty", mir.UnitType), lower.ErrNoEntry)
}

func TestProgram_KeepsOrderAndReportsProgress(t *testing.T) {
	var prog mir.Program
	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		prog.Funcs = append(prog.Funcs, *function(n, mir.IntType,
			block("entry", []mir.Param{param(mir.IntType, "x")}, mir.Ret(mir.IntType, s("x"))),
		))
	}

	var (
		mu     sync.Mutex
		counts = map[lower.FuncState]int{}
	)
	lw := lower.New(layout.X86_64())
	lw.Jobs = 2
	lw.Progress = func(ev lower.FuncEvent) {
		mu.Lock()
		counts[ev.State]++
		mu.Unlock()
	}

	out, err := lw.Program(context.Background(), &prog)
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	for i, n := range names {
		if out.Funcs[i].Name != s(n) {
			t.Errorf("func %d = %s, want %s", i, out.Funcs[i].Name, n)
		}
	}
	for _, st := range []lower.FuncState{lower.FuncQueued, lower.FuncWorking, lower.FuncDone} {
		if counts[st] != len(names) {
			t.Errorf("%s events = %d, want %d", st, counts[st], len(names))
		}
	}
}

func TestProgram_FirstErrorNamesFunction(t *testing.T) {
	prog := mir.Program{Funcs: []mir.Function{
		*function("ok", mir.UnitType, block("entry", nil, mir.RetUnit())),
		*function("bad", mir.IntType, block("entry", nil, mir.Ret(mir.IntType, s("ghost")))),
	}}
	_, err := lower.New(layout.X86_64()).Program(context.Background(), &prog)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "lower bad@0: ") {
		t.Errorf("error = %q", err)
	}
	var ie *lower.InternalError
	if !errors.As(err, &ie) || ie.Kind != lower.ErrUnboundSymbol {
		t.Errorf("expected wrapped ErrUnboundSymbol, got %v", err)
	}
}

func TestProgram_Empty(t *testing.T) {
	out, err := lower.New(layout.X86_64()).Program(context.Background(), &mir.Program{})
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	if len(out.Funcs) != 0 {
		t.Errorf("funcs = %d", len(out.Funcs))
	}
}

func TestPass_Trans(t *testing.T) {
	prog := mir.Program{Funcs: []mir.Function{
		*function("main", mir.UnitType, block("entry", nil, mir.RetUnit())),
	}}
	var p lower.Pass
	if p.Name() != "mir2lir" {
		t.Errorf("name = %q", p.Name())
	}
	out, err := p.Trans(context.Background(), &prog, config.Default())
	if err != nil {
		t.Fatalf("Trans: %v", err)
	}
	if len(out.Funcs) != 1 {
		t.Fatalf("funcs = %d", len(out.Funcs))
	}

	cfg := config.Default()
	cfg.Lower.Target = "mips"
	if _, err := p.Trans(context.Background(), &prog, cfg); err == nil {
		t.Error("expected error for unknown target")
	}
}

func TestProgram_Tracing(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	prog := mir.Program{Funcs: []mir.Function{
		*function("add", mir.IntType,
			block("entry", []mir.Param{param(mir.IntType, "x"), param(mir.IntType, "y")},
				mir.Bin(mir.OpAdd, s("z"), mir.IntType, s("x"), s("y")),
				mir.Ret(mir.IntType, s("z")),
			),
		),
	}}
	if _, err := lower.New(layout.X86_64()).Program(ctx, &prog); err != nil {
		t.Fatalf("Program: %v", err)
	}

	var sawPass, sawFunc, sawBlock bool
	for _, ev := range ring.Snapshot() {
		switch {
		case ev.Kind == trace.KindSpanEnd && ev.Name == "lower":
			sawPass = ev.Extra["funcs"] == "1"
		case ev.Kind == trace.KindSpanEnd && ev.Name == "fun:add@0":
			sawFunc = ev.Extra["regs"] == "3" && ev.Extra["nparams"] == "2"
		case ev.Kind == trace.KindPoint && ev.Name == "block:entry@0":
			sawBlock = ev.Extra["instrs"] == "2"
		}
	}
	if !sawPass || !sawFunc || !sawBlock {
		t.Errorf("trace events: pass=%v func=%v block=%v", sawPass, sawFunc, sawBlock)
	}
}
