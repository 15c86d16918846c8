package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is anything an instruction can take as an operand.
type Value interface {
	Type() Type
	// Ref is the operand spelling of the value, e.g. "%x" or "42".
	Ref() string
}

type Const struct {
	Typ   Type
	Int   int64
	Float float64
}

func ConstInt(value int64) *Const { return &Const{Typ: I64, Int: value} }

func ConstFloat(value float64) *Const { return &Const{Typ: F64, Float: value} }

func ConstBool(value bool) *Const {
	if value {
		return &Const{Typ: I1, Int: 1}
	}
	return &Const{Typ: I1}
}

func ConstNull() *Const { return &Const{Typ: Ptr} }

// ConstZero returns the zero value of a scalar type.
func ConstZero(t Type) *Const {
	switch t.Kind {
	case IntKind:
		return &Const{Typ: t}
	case FloatKind:
		return ConstFloat(0)
	case PtrKind:
		return ConstNull()
	default:
		panic("no zero value for " + t.String())
	}
}

func (c *Const) Type() Type { return c.Typ }

func (c *Const) Ref() string {
	switch c.Typ.Kind {
	case IntKind:
		if c.Typ.Bits == 1 {
			return strconv.FormatBool(c.Int != 0)
		}
		return strconv.FormatInt(c.Int, 10)
	case FloatKind:
		return formatFloat(c.Float)
	case PtrKind:
		return "null"
	default:
		panic("unreachable")
	}
}

// formatFloat spells a double the way LLVM assembly accepts it: decimal
// literals always carry a '.', and values with no decimal form are
// written as their bit pattern.
func formatFloat(value float64) string {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return fmt.Sprintf("0x%016X", math.Float64bits(value))
	}

	s := strconv.FormatFloat(value, 'g', -1, 64)
	if strings.Contains(s, ".") {
		return s
	}
	if mantissa, exponent, ok := strings.Cut(s, "e"); ok {
		return mantissa + ".0e" + exponent
	}
	return s + ".0"
}

// Param is a function's incoming argument.
type Param struct {
	Name  string
	Typ   Type
	Index int

	parent *Function
}

func (p *Param) Type() Type  { return p.Typ }
func (p *Param) Ref() string { return "%" + p.Name }

func (p *Param) Parent() *Function { return p.parent }

// Global is module-level storage. As a value it is the address of that
// storage.
type Global struct {
	Name     string
	ValueTyp Type
	// Data is the initializer of a byte array; scalars start zeroed.
	Data     []byte
	Constant bool
}

func (g *Global) Type() Type  { return Ptr }
func (g *Global) Ref() string { return "@" + g.Name }
