package lower_test

import (
	"slices"
	"testing"

	"ebbc/internal/lir"
	"ebbc/internal/lower"
	"ebbc/internal/mir"
)

func sampleFunction() *mir.Function {
	pair := mir.TupleType(mir.IntType, mir.FloatType)
	cls := mir.ClsType([]mir.Type{mir.IntType}, mir.IntType, mir.IntType)
	return function("sample", mir.IntType,
		block("entry", []mir.Param{param(mir.IntType, "n"), param(mir.FloatType, "d")},
			mir.Lit(s("zero"), mir.IntType, mir.IntLit(0)),
			mir.Tuple(s("p"), pair.Elems, []mir.Symbol{s("n"), s("d")}),
			mir.Proj(s("back"), mir.FloatType, 1, s("p")),
			mir.Closure(s("k"), mir.IntType, mir.IntType, s("inc"), []mir.Capture{{Ty: mir.IntType, Var: s("n")}}),
			mir.Alias(s("k2"), cls, s("k")),
			mir.Call(s("r"), mir.IntType, s("k2"), []mir.Symbol{s("zero")}),
			mir.Bin(mir.OpGt, s("gt"), mir.BoolType, s("r"), s("zero")),
			mir.BranchDefault(s("gt"), mir.BoolType,
				[]mir.Clause{{Key: 1, Target: s("yes")}},
				mir.BranchTarget{Target: s("no")},
			),
		),
		block("yes", nil, mir.Jump(s("exit"), s("r"))),
		block("no", []mir.Param{param(mir.BoolType, "flag")}, mir.Jump(s("exit"), s("zero"))),
		block("exit", []mir.Param{param(mir.IntType, "out")}, mir.Ret(mir.IntType, s("out"))),
	)
}

func TestBuildSymbolTable_BindsEveryUse(t *testing.T) {
	f := sampleFunction()
	alloc := lower.NewAllocator()
	st := lower.BuildSymbolTable(f.Body, alloc)
	types := alloc.Types()

	for _, use := range f.Uses() {
		r, ok := st.Lookup(use)
		if !ok {
			t.Errorf("no register for %s", use)
			continue
		}
		if int(r.ID) >= len(types) || types[r.ID] != r.Ty {
			t.Errorf("register %s of %s disagrees with allocator types %v", r, use, types)
		}
	}
	if st.Len() != alloc.Len() {
		t.Errorf("bound %d symbols but allocated %d registers", st.Len(), alloc.Len())
	}
}

func TestBuildSymbolTable_EntryParamsFirst(t *testing.T) {
	f := sampleFunction()
	alloc := lower.NewAllocator()
	st := lower.BuildSymbolTable(f.Body, alloc)

	for i, p := range f.Entry().Params {
		r, ok := st.Lookup(p.Var)
		if !ok {
			t.Fatalf("param %s unbound", p.Var)
		}
		if int(r.ID) != i || r.Ty != lower.MapType(p.Ty) {
			t.Errorf("param %s = %s:%s, want r%d:%s", p.Var, r, r.Ty, i, lower.MapType(p.Ty))
		}
	}
}

func TestBuildSymbolTable_AggregatesArePtr(t *testing.T) {
	f := function("agg", mir.UnitType,
		block("entry", []mir.Param{param(mir.IntType, "n")},
			// declared types on aggregates are ignored
			mir.Tuple(s("t"), []mir.Type{mir.IntType}, []mir.Symbol{s("n")}),
			mir.Closure(s("k"), mir.IntType, mir.IntType, s("f"), nil),
			mir.RetUnit(),
		),
	)
	alloc := lower.NewAllocator()
	st := lower.BuildSymbolTable(f.Body, alloc)
	for _, name := range []string{"t", "k"} {
		r, ok := st.Lookup(s(name))
		if !ok || r.Ty != lir.Ptr {
			t.Errorf("%s = %v (bound=%v), want ptr", name, r, ok)
		}
	}
	if _, ok := st.Lookup(s("f")); ok {
		t.Error("closure function name must not be bound")
	}
}

func TestBuildSymbolTable_RepeatedSymbolBoundOnce(t *testing.T) {
	f := function("dup", mir.UnitType,
		block("entry", []mir.Param{param(mir.IntType, "x")},
			mir.Jump(s("next"), s("x")),
		),
		// a block parameter reusing the entry symbol keeps its first register
		block("next", []mir.Param{param(mir.FloatType, "x")}, mir.RetUnit()),
	)
	alloc := lower.NewAllocator()
	st := lower.BuildSymbolTable(f.Body, alloc)
	if alloc.Len() != 1 {
		t.Fatalf("allocated %d registers, want 1", alloc.Len())
	}
	if r, _ := st.Lookup(s("x")); r.Ty != lir.I32 {
		t.Errorf("x = %s, want i32", r.Ty)
	}
	if want := []mir.Symbol{s("x")}; !slices.Equal(st.Symbols(), want) {
		t.Errorf("symbols = %v", st.Symbols())
	}
}

func TestBuildTargetTable(t *testing.T) {
	f := sampleFunction()
	alloc := lower.NewAllocator()
	st := lower.BuildSymbolTable(f.Body, alloc)
	tt, err := lower.BuildTargetTable(f.Body, st)
	if err != nil {
		t.Fatalf("BuildTargetTable: %v", err)
	}
	for i := range f.Body {
		b := &f.Body[i]
		regs, ok := tt.Params(b.Name)
		if !ok {
			t.Fatalf("no entry for %s", b.Name)
		}
		if len(regs) != len(b.Params) {
			t.Fatalf("%s: %d registers for %d params", b.Name, len(regs), len(b.Params))
		}
		for j, p := range b.Params {
			if want, _ := st.Lookup(p.Var); regs[j] != want {
				t.Errorf("%s param %d = %s, want %s", b.Name, j, regs[j], want)
			}
			if regs[j].Ty != lower.MapType(p.Ty) {
				t.Errorf("%s param %d type = %s", b.Name, j, regs[j].Ty)
			}
		}
	}
	if _, ok := tt.Params(s("nowhere")); ok {
		t.Error("unknown label resolved")
	}
}

func TestAllocator(t *testing.T) {
	a := lower.NewAllocator()
	r0 := a.Alloc(lir.I32)
	r1 := a.Alloc(lir.F64)
	r2 := a.Alloc(lir.Ptr)
	if r0.ID != 0 || r1.ID != 1 || r2.ID != 2 {
		t.Fatalf("ids = %d %d %d", r0.ID, r1.ID, r2.ID)
	}
	if want := []lir.Ty{lir.I32, lir.F64, lir.Ptr}; !slices.Equal(a.Types(), want) {
		t.Errorf("types = %v", a.Types())
	}
	if want := []lir.Reg{r0, r1, r2}; !slices.Equal(a.Regs(), want) {
		t.Errorf("regs = %v", a.Regs())
	}
}

func TestMapType(t *testing.T) {
	tests := []struct {
		in   mir.Type
		want lir.Ty
	}{
		{mir.UnitType, lir.Unit},
		{mir.IntType, lir.I32},
		{mir.FloatType, lir.F64},
		{mir.BoolType, lir.I32},
		{mir.TupleType(mir.IntType), lir.Ptr},
		{mir.ClsType(nil, mir.IntType, mir.IntType), lir.Ptr},
		{mir.EbbType(nil, mir.UnitType), lir.FPtr},
	}
	for _, tt := range tests {
		if got := lower.MapType(tt.in); got != tt.want {
			t.Errorf("MapType(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
