package mir

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sampleProgram() *Program {
	x := Sym("x", 1)
	y := Sym("y", 2)
	t := Sym("t", 3)
	c := Sym("c", 4)
	done := Sym("done", 5)
	r := Sym("r", 6)
	return &Program{Funcs: []Function{{
		Name:   Sym("main", 0),
		BodyTy: IntType,
		Body: []EBB{
			{
				Name:   Sym("entry", 10),
				Params: []Param{{Ty: IntType, Var: x}},
				Body: []Op{
					Lit(y, IntType, IntLit(2)),
					Tuple(t, []Type{IntType, IntType}, []Symbol{x, y}),
					Closure(c, IntType, IntType, Sym("inc", 20), []Capture{{Ty: TupleType(IntType, IntType), Var: t}}),
					Jump(done, y),
				},
			},
			{
				Name:   done,
				Params: []Param{{Ty: IntType, Var: r}},
				Body:   []Op{Ret(IntType, r)},
			},
		},
	}}}
}

func TestOp_DefAndUses(t *testing.T) {
	x, y, z := Sym("x", 1), Sym("y", 2), Sym("z", 3)
	tests := []struct {
		op     Op
		def    Symbol
		hasDef bool
		uses   []Symbol
	}{
		{Lit(x, IntType, IntLit(1)), x, true, nil},
		{Alias(z, IntType, x), z, true, []Symbol{x}},
		{Bin(OpAdd, z, IntType, x, y), z, true, []Symbol{x, y}},
		{Proj(z, IntType, 1, x), z, true, []Symbol{x}},
		{Call(z, IntType, Sym("f", 9), []Symbol{x, y}), z, true, []Symbol{x, y}},
		{Jump(Sym("L", 8), x), Symbol{}, false, []Symbol{x}},
		{Ret(IntType, y), Symbol{}, false, []Symbol{y}},
		{RetUnit(), Symbol{}, false, nil},
		{
			BranchDefault(x, IntType,
				[]Clause{{Key: 0, Target: Sym("A", 7), Args: []Symbol{y}}},
				BranchTarget{Target: Sym("D", 6), Args: []Symbol{z}}),
			Symbol{}, false, []Symbol{x, y, z},
		},
	}
	for _, tt := range tests {
		def, ok := tt.op.Def()
		if ok != tt.hasDef || def != tt.def {
			t.Errorf("%s: Def() = %v, %v", tt.op.Kind, def, ok)
		}
		if got := tt.op.Uses(); !reflect.DeepEqual(got, tt.uses) {
			t.Errorf("%s: Uses() = %v, want %v", tt.op.Kind, got, tt.uses)
		}
	}
}

func TestFunction_UsesSkipsFunctionNames(t *testing.T) {
	f := &sampleProgram().Funcs[0]
	for _, s := range f.Uses() {
		if s.Name == "inc" {
			t.Errorf("function name %v reported as a use", s)
		}
	}
	if got := len(f.Uses()); got != 5 {
		t.Errorf("len(Uses) = %d, want 5", got)
	}
}

func TestEBB_Terminator(t *testing.T) {
	p := sampleProgram()
	op, ok := p.Funcs[0].Body[0].Terminator()
	if !ok || op.Kind != OpJump {
		t.Errorf("Terminator = %v, %v", op, ok)
	}
	if _, ok := (&EBB{Body: []Op{Lit(Sym("a", 1), IntType, IntLit(0))}}).Terminator(); ok {
		t.Error("Lit reported as terminator")
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	if err := Dump(&buf, sampleProgram()); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"fun main@0 -> int:",
		"  entry@10(x@1: int):",
		"    y@2: int = 2",
		"    t@3 = tuple(x@1, y@2)",
		"    c@4 = closure inc@20 [t@3: (int, int)]",
		"    jump done@5(y@2)",
		"    ret r@6",
	}
	for _, line := range want {
		if !strings.Contains(buf.String(), line+"\n") {
			t.Errorf("dump missing %q:\n%s", line, buf.String())
		}
	}
}

func TestDecodeJSON_NormalizesNames(t *testing.T) {
	// "é" spelled as e + combining acute accent.
	src := `{"funcs":[{"name":{"name":"caf` + "e\u0301" + `","id":0},"body_ty":{"kind":"unit"},
	  "body":[{"name":{"name":"entry","id":1},"params":[],"body":[{"kind":"ret","ret":{"ty":{"kind":"unit"}}}]}]}]}`
	p, err := Decode(strings.NewReader(src), FormatJSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := p.Funcs[0].Name.Name; got != "caf\u00e9" {
		t.Errorf("name = %q, want NFC form", got)
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"funcs":[],"version":2}`), FormatJSON); err == nil {
		t.Error("unknown field accepted")
	}
	if _, err := Decode(strings.NewReader(`{"funcs":[{"name":{"name":"f","id":0},"body":[],"body_ty":{"kind":"real"}}]}`), FormatJSON); err == nil {
		t.Error("unknown type kind accepted")
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	var enc bytes.Buffer
	if err := Encode(&enc, sampleProgram(), FormatMsgpack); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&enc, FormatMsgpack)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var a, b bytes.Buffer
	_ = Dump(&a, sampleProgram())
	_ = Dump(&b, got)
	if a.String() != b.String() {
		t.Errorf("round trip changed the program:\n%s\nvs\n%s", a.String(), b.String())
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"prog.json":    FormatJSON,
		"prog.MP":      FormatMsgpack,
		"prog.msgpack": FormatMsgpack,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %q, %v", path, got, err)
		}
	}
	if _, err := FormatFromPath("prog.yaml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("yaml error = %v", err)
	}
}

func TestType_EqualAndString(t *testing.T) {
	a := ClsType([]Type{IntType}, IntType, BoolType)
	b := ClsType([]Type{IntType}, IntType, BoolType)
	if !a.Equal(b) {
		t.Error("identical closure types differ")
	}
	if a.Equal(ClsType(nil, IntType, BoolType)) {
		t.Error("env ignored by Equal")
	}
	if got := TupleType(IntType, FloatType).String(); got != "(int, float)" {
		t.Errorf("tuple string = %q", got)
	}
}
