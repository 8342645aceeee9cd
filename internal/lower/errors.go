package lower

import (
	"fmt"
	"strings"

	"ebbc/internal/mir"
)

// ErrorKind classifies internal invariant violations found while lowering.
type ErrorKind uint8

const (
	// ErrUnboundSymbol: an operand has no register in the symbol table.
	ErrUnboundSymbol ErrorKind = iota + 1
	// ErrOperandTypes: a comparison over an unsupported pair of machine types.
	ErrOperandTypes
	// ErrArithType: add/sub/mul declared with a type other than int or float.
	ErrArithType
	// ErrDefaultArity: a branch default target without exactly one parameter.
	ErrDefaultArity
	// ErrDiscriminantType: a compare-chain discriminant that is not i32.
	ErrDiscriminantType
	// ErrUnknownTarget: a jump or branch to a label with no block.
	ErrUnknownTarget
	// ErrArgCount: an operand list whose length differs from the arity it
	// must match, such as jump arguments against the target parameters.
	ErrArgCount
	// ErrNoEntry: a function without blocks.
	ErrNoEntry
	// ErrLayout: a heap object whose size or offsets overflow.
	ErrLayout
	// ErrUnknownOp: an operation kind the engine does not know.
	ErrUnknownOp
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnboundSymbol:
		return "unbound symbol"
	case ErrOperandTypes:
		return "unsupported operand types"
	case ErrArithType:
		return "unsupported arithmetic type"
	case ErrDefaultArity:
		return "bad default target arity"
	case ErrDiscriminantType:
		return "bad discriminant type"
	case ErrUnknownTarget:
		return "unknown jump target"
	case ErrArgCount:
		return "argument count mismatch"
	case ErrNoEntry:
		return "missing entry block"
	case ErrLayout:
		return "layout overflow"
	case ErrUnknownOp:
		return "unknown operation"
	default:
		return fmt.Sprintf("error(%d)", uint8(k))
	}
}

// InternalError reports a malformed MIR program. It always signals a bug
// in the producer of the MIR, never a user error.
type InternalError struct {
	Kind   ErrorKind
	Func   mir.Symbol
	Block  mir.Symbol
	Op     mir.OpKind
	HasOp  bool
	Detail string
	Err    error
}

func (e *InternalError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString("internal error: ")
	sb.WriteString(e.Kind.String())
	if e.Func.Name != "" {
		fmt.Fprintf(&sb, " in %s", e.Func)
	}
	if e.Block.Name != "" {
		fmt.Fprintf(&sb, " block %s", e.Block)
	}
	if e.HasOp {
		fmt.Fprintf(&sb, " at %s", e.Op)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *InternalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
