package layout

import "fmt"

// LayoutErrorKind enumerates layout failures.
type LayoutErrorKind uint8

const (
	// LayoutErrOverflow indicates a size or offset that does not fit in 32 bits.
	LayoutErrOverflow LayoutErrorKind = iota + 1
	// LayoutErrFieldIndex indicates a negative field index.
	LayoutErrFieldIndex
)

// LayoutError reports a failed size or offset computation.
type LayoutError struct {
	Kind   LayoutErrorKind
	Object string // "tuple" or "closure"
	Index  int    // for LayoutErrFieldIndex
	Err    error  // for LayoutErrOverflow
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrOverflow:
		return fmt.Sprintf("%s layout overflows 32-bit offsets: %v", e.Object, e.Err)
	case LayoutErrFieldIndex:
		return fmt.Sprintf("%s field index %d is negative", e.Object, e.Index)
	default:
		return fmt.Sprintf("layout error kind=%d (%s)", e.Kind, e.Object)
	}
}

func (e *LayoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
