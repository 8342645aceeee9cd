package lir

import "ebbc/internal/mir"

// Block is a labelled instruction list.
type Block struct {
	Name Label   `msgpack:"name"`
	Body []Instr `msgpack:"body"`
}

// Function is a lowered function. Regs[i] is the machine type of register i;
// registers 0..NParams-1 hold the parameters in declaration order.
type Function struct {
	Name    mir.Symbol `msgpack:"name"`
	NParams uint32     `msgpack:"nparams"`
	Regs    []Ty       `msgpack:"regs"`
	RetTy   Ty         `msgpack:"ret_ty"`
	Body    []Block    `msgpack:"body"`
}

// Block returns the block labelled name.
func (f *Function) Block(name Label) (*Block, bool) {
	if f == nil {
		return nil, false
	}
	for i := range f.Body {
		if f.Body[i].Name == name {
			return &f.Body[i], true
		}
	}
	return nil, false
}

// Program is an ordered list of lowered functions.
type Program struct {
	Funcs []Function `msgpack:"funcs"`
}
