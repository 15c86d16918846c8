package ir

import "fmt"

type TypeKind int

const (
	VoidKind TypeKind = iota
	IntKind
	FloatKind
	PtrKind
	ArrayKind
)

// Type is an IR value type. Arrays are always byte arrays; they only
// back string constants.
type Type struct {
	Kind TypeKind
	Bits int
	Len  int
}

var (
	Void = Type{Kind: VoidKind}
	I1   = Type{Kind: IntKind, Bits: 1}
	I8   = Type{Kind: IntKind, Bits: 8}
	I64  = Type{Kind: IntKind, Bits: 64}
	F64  = Type{Kind: FloatKind, Bits: 64}
	Ptr  = Type{Kind: PtrKind}
)

func ByteArray(length int) Type {
	return Type{Kind: ArrayKind, Bits: 8, Len: length}
}

func (t Type) IsVoid() bool  { return t.Kind == VoidKind }
func (t Type) IsInt() bool   { return t.Kind == IntKind }
func (t Type) IsFloat() bool { return t.Kind == FloatKind }

func (t Type) String() string {
	switch t.Kind {
	case VoidKind:
		return "void"
	case IntKind:
		return fmt.Sprintf("i%d", t.Bits)
	case FloatKind:
		return "double"
	case PtrKind:
		return "ptr"
	case ArrayKind:
		return fmt.Sprintf("[%d x i8]", t.Len)
	default:
		panic("unreachable")
	}
}
