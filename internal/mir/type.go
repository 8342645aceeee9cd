package mir

import (
	"fmt"
	"strings"
)

// TypeKind enumerates MIR value types.
type TypeKind uint8

const (
	// TypeUnit is the zero-sized unit type.
	TypeUnit TypeKind = iota
	// TypeInt is a machine integer.
	TypeInt
	// TypeFloat is a double precision float.
	TypeFloat
	// TypeBool is a boolean.
	TypeBool
	// TypeTuple is a heap allocated tuple.
	TypeTuple
	// TypeCls is a closure object reference.
	TypeCls
	// TypeEbb is a reference to a block or continuation.
	TypeEbb
)

var typeKindNames = [...]string{
	TypeUnit:  "unit",
	TypeInt:   "int",
	TypeFloat: "float",
	TypeBool:  "bool",
	TypeTuple: "tuple",
	TypeCls:   "cls",
	TypeEbb:   "ebb",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("type(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k TypeKind) MarshalText() ([]byte, error) {
	if int(k) >= len(typeKindNames) {
		return nil, fmt.Errorf("mir: unknown type kind %d", uint8(k))
	}
	return []byte(typeKindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TypeKind) UnmarshalText(b []byte) error {
	for i, name := range typeKindNames {
		if name == string(b) {
			*k = TypeKind(i)
			return nil
		}
	}
	return fmt.Errorf("mir: unknown type kind %q", string(b))
}

// Type is a MIR value type. Only the fields relevant to Kind are set:
// Elems for tuples, Env/Params/Ret for closures and Params/Ret for block
// references.
type Type struct {
	Kind   TypeKind `json:"kind" msgpack:"kind"`
	Elems  []Type   `json:"elems,omitempty" msgpack:"elems,omitempty"`
	Env    []Type   `json:"env,omitempty" msgpack:"env,omitempty"`
	Params []Type   `json:"params,omitempty" msgpack:"params,omitempty"`
	Ret    *Type    `json:"ret,omitempty" msgpack:"ret,omitempty"`
}

var (
	UnitType  = Type{Kind: TypeUnit}
	IntType   = Type{Kind: TypeInt}
	FloatType = Type{Kind: TypeFloat}
	BoolType  = Type{Kind: TypeBool}
)

// TupleType builds a tuple type over elems.
func TupleType(elems ...Type) Type {
	return Type{Kind: TypeTuple, Elems: elems}
}

// ClsType builds a closure type capturing env and taking param to ret.
func ClsType(env []Type, param, ret Type) Type {
	return Type{Kind: TypeCls, Env: env, Params: []Type{param}, Ret: &ret}
}

// EbbType builds a block reference type.
func EbbType(params []Type, ret Type) Type {
	return Type{Kind: TypeEbb, Params: params, Ret: &ret}
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	if !typesEqual(t.Elems, o.Elems) || !typesEqual(t.Env, o.Env) || !typesEqual(t.Params, o.Params) {
		return false
	}
	switch {
	case t.Ret == nil && o.Ret == nil:
		return true
	case t.Ret == nil || o.Ret == nil:
		return false
	default:
		return t.Ret.Equal(*o.Ret)
	}
}

func typesEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (t Type) String() string {
	switch t.Kind {
	case TypeTuple:
		return "(" + joinTypes(t.Elems, ", ") + ")"
	case TypeCls:
		ret := "?"
		if t.Ret != nil {
			ret = t.Ret.String()
		}
		return fmt.Sprintf("cls[%s](%s) -> %s", joinTypes(t.Env, ", "), joinTypes(t.Params, ", "), ret)
	case TypeEbb:
		ret := "?"
		if t.Ret != nil {
			ret = t.Ret.String()
		}
		return fmt.Sprintf("ebb(%s) -> %s", joinTypes(t.Params, ", "), ret)
	default:
		return t.Kind.String()
	}
}

func joinTypes(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}

// LiteralKind distinguishes literal constants.
type LiteralKind uint8

const (
	// LitInt is an integer literal.
	LitInt LiteralKind = iota
	// LitFloat is a float literal.
	LitFloat
	// LitBool is a boolean literal.
	LitBool
)

// Literal is a constant value carried by a Lit operation.
type Literal struct {
	Kind  LiteralKind `json:"kind" msgpack:"kind"`
	Int   int64       `json:"int,omitempty" msgpack:"int,omitempty"`
	Float float64     `json:"float,omitempty" msgpack:"float,omitempty"`
	Bool  bool        `json:"bool,omitempty" msgpack:"bool,omitempty"`
}

func IntLit(v int64) Literal     { return Literal{Kind: LitInt, Int: v} }
func FloatLit(v float64) Literal { return Literal{Kind: LitFloat, Float: v} }
func BoolLit(v bool) Literal     { return Literal{Kind: LitBool, Bool: v} }

func (l Literal) String() string {
	switch l.Kind {
	case LitFloat:
		return fmt.Sprintf("%g", l.Float)
	case LitBool:
		return fmt.Sprintf("%t", l.Bool)
	default:
		return fmt.Sprintf("%d", l.Int)
	}
}
