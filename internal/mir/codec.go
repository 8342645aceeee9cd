package mir

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/unicode/norm"
)

// Format selects the serialised form of a program.
type Format string

const (
	// FormatJSON is the human-writable form.
	FormatJSON Format = "json"
	// FormatMsgpack is the compact binary form.
	FormatMsgpack Format = "msgpack"
)

// ErrUnknownFormat is returned for unsupported formats.
var ErrUnknownFormat = errors.New("unknown MIR format")

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".mp", ".msgpack":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// Decode reads a program. Symbol names are NFC-normalised so that names
// spelled with different Unicode compositions bind to the same symbol.
func Decode(r io.Reader, format Format) (*Program, error) {
	var p Program
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode MIR json: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
			return nil, fmt.Errorf("decode MIR msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	normalizeNames(&p)
	return &p, nil
}

// Encode writes a program.
func Encode(w io.Writer, p *Program, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(p)
	default:
		return fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
}

func normalizeNames(p *Program) {
	n := func(s *Symbol) {
		if !norm.NFC.IsNormalString(s.Name) {
			s.Name = norm.NFC.String(s.Name)
		}
	}
	ns := func(syms []Symbol) {
		for i := range syms {
			n(&syms[i])
		}
	}
	for fi := range p.Funcs {
		f := &p.Funcs[fi]
		n(&f.Name)
		for bi := range f.Body {
			bb := &f.Body[bi]
			n(&bb.Name)
			for pi := range bb.Params {
				n(&bb.Params[pi].Var)
			}
			for oi := range bb.Body {
				op := &bb.Body[oi]
				switch op.Kind {
				case OpLit:
					n(&op.Lit.Var)
				case OpAlias:
					n(&op.Alias.Var)
					n(&op.Alias.Sym)
				case OpAdd, OpSub, OpMul, OpDivInt, OpDivFloat, OpMod, OpEq, OpNeq, OpGt, OpGe, OpLt, OpLe:
					n(&op.Bin.Var)
					n(&op.Bin.L)
					n(&op.Bin.R)
				case OpTuple:
					n(&op.Tuple.Var)
					ns(op.Tuple.Elems)
				case OpProj:
					n(&op.Proj.Var)
					n(&op.Proj.Tuple)
				case OpClosure:
					n(&op.Closure.Var)
					n(&op.Closure.Fun)
					for ci := range op.Closure.Env {
						n(&op.Closure.Env[ci].Var)
					}
				case OpBuiltinCall, OpCall:
					n(&op.Call.Var)
					n(&op.Call.Fun)
					ns(op.Call.Args)
				case OpBranch:
					n(&op.Branch.Cond)
					for ci := range op.Branch.Clauses {
						n(&op.Branch.Clauses[ci].Target)
						ns(op.Branch.Clauses[ci].Args)
					}
					n(&op.Branch.Default.Target)
					ns(op.Branch.Default.Args)
				case OpJump:
					n(&op.Jump.Target)
					ns(op.Jump.Args)
				case OpRet:
					n(&op.Ret.Value)
				}
			}
		}
	}
}
