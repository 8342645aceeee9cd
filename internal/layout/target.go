package layout

import (
	"fmt"
	"strings"

	"ebbc/internal/lir"
)

// Target describes the pointer properties layout depends on.
//
// Only 64-bit targets are supported: heap objects use a fixed 8-byte slot.
type Target struct {
	Name     string // e.g. "x86_64"
	PtrSize  int    // bytes
	SlotSize int    // bytes per heap object field
}

func X86_64() Target {
	return Target{Name: "x86_64", PtrSize: 8, SlotSize: 8}
}

func AArch64() Target {
	return Target{Name: "aarch64", PtrSize: 8, SlotSize: 8}
}

// TargetByName resolves a configured target name.
func TargetByName(name string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "x86_64", "amd64":
		return X86_64(), nil
	case "aarch64", "arm64":
		return AArch64(), nil
	default:
		return Target{}, fmt.Errorf("unsupported target %q (expected x86_64|aarch64)", name)
	}
}

// SizeOf returns the in-memory size of a machine type on t.
func (t Target) SizeOf(ty lir.Ty) int {
	switch ty {
	case lir.Ptr, lir.FPtr:
		return t.PtrSize
	default:
		return ty.Size()
	}
}
