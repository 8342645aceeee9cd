package lower

import (
	"fmt"

	"ebbc/internal/lir"
	"ebbc/internal/mir"
)

// TargetTable maps a block label to the registers of its parameters, in
// declaration order.
type TargetTable struct {
	in     interner
	params [][]lir.Reg // indexed by symbolID of the label
}

// Params returns the parameter registers of the block labelled label.
func (tt *TargetTable) Params(label mir.Symbol) ([]lir.Reg, bool) {
	id, ok := tt.in.lookup(label)
	if !ok {
		return nil, false
	}
	return tt.params[id], true
}

// BuildTargetTable collects the parameter registers of every block of body.
// A repeated label keeps the parameters of its last block.
func BuildTargetTable(body []mir.EBB, st *SymbolTable) (*TargetTable, error) {
	tt := &TargetTable{in: newInterner(len(body))}
	for i := range body {
		b := &body[i]
		regs := make([]lir.Reg, len(b.Params))
		for j, p := range b.Params {
			r, ok := st.Lookup(p.Var)
			if !ok {
				return nil, &InternalError{
					Kind:   ErrUnboundSymbol,
					Block:  b.Name,
					Detail: fmt.Sprintf("parameter %s", p.Var),
				}
			}
			regs[j] = r
		}
		id, fresh := tt.in.intern(b.Name)
		if fresh {
			tt.params = append(tt.params, regs)
		} else {
			tt.params[id] = regs
		}
	}
	return tt, nil
}
