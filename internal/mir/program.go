package mir

// Param is a typed block parameter.
type Param struct {
	Ty  Type   `json:"ty" msgpack:"ty"`
	Var Symbol `json:"var" msgpack:"var"`
}

// EBB is an extended basic block: a labelled, parameterised list of
// operations whose last operation transfers control.
type EBB struct {
	Name   Symbol  `json:"name" msgpack:"name"`
	Params []Param `json:"params" msgpack:"params"`
	Body   []Op    `json:"body" msgpack:"body"`
}

// Terminator returns the final control transfer of b.
func (b *EBB) Terminator() (*Op, bool) {
	if b == nil || len(b.Body) == 0 {
		return nil, false
	}
	last := &b.Body[len(b.Body)-1]
	if !last.Kind.IsTerminator() {
		return nil, false
	}
	return last, true
}

// Function is a MIR function. Body[0] is the entry block and its params
// are the function parameters.
type Function struct {
	Name   Symbol `json:"name" msgpack:"name"`
	Body   []EBB  `json:"body" msgpack:"body"`
	BodyTy Type   `json:"body_ty" msgpack:"body_ty"`
}

// Entry returns the entry block.
func (f *Function) Entry() *EBB {
	if f == nil || len(f.Body) == 0 {
		return nil
	}
	return &f.Body[0]
}

// Uses returns every value symbol read anywhere in f, in block and operand
// order. Duplicates are kept.
func (f *Function) Uses() []Symbol {
	if f == nil {
		return nil
	}
	var out []Symbol
	for i := range f.Body {
		for j := range f.Body[i].Body {
			out = append(out, f.Body[i].Body[j].Uses()...)
		}
	}
	return out
}

// Program is an ordered list of functions.
type Program struct {
	Funcs []Function `json:"funcs" msgpack:"funcs"`
}
