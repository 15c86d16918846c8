package ir

import (
	"fmt"
	"strings"
)

type Opcode int

const (
	OpAlloca Opcode = iota
	OpLoad
	OpStore

	OpAdd
	OpSub
	OpMul
	OpSDiv
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFNeg
	OpAnd
	OpOr
	OpXor

	OpICmp
	OpFCmp

	OpCall
	OpElemPtr

	OpBr
	OpCondBr
	OpRet
	OpUnreachable
)

var opcodeNames = [...]string{
	OpAlloca:      "alloca",
	OpLoad:        "load",
	OpStore:       "store",
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpSDiv:        "sdiv",
	OpFAdd:        "fadd",
	OpFSub:        "fsub",
	OpFMul:        "fmul",
	OpFDiv:        "fdiv",
	OpFNeg:        "fneg",
	OpAnd:         "and",
	OpOr:          "or",
	OpXor:         "xor",
	OpICmp:        "icmp",
	OpFCmp:        "fcmp",
	OpCall:        "call",
	OpElemPtr:     "getelementptr",
	OpBr:          "br",
	OpCondBr:      "br",
	OpRet:         "ret",
	OpUnreachable: "unreachable",
}

func (op Opcode) String() string { return opcodeNames[op] }

func (op Opcode) IsTerminator() bool {
	return op == OpBr || op == OpCondBr || op == OpRet || op == OpUnreachable
}

func (op Opcode) IsBinary() bool {
	return op >= OpAdd && op <= OpXor && op != OpFNeg
}

type Predicate int

const (
	IntEQ Predicate = iota
	IntNE
	IntSLT
	IntSGT
	IntSLE
	IntSGE
	IntULT
	IntUGT
	IntULE
	IntUGE

	FloatOEQ
	FloatONE
	FloatOLT
	FloatOGT
	FloatOLE
	FloatOGE
)

var predicateNames = [...]string{
	IntEQ:    "eq",
	IntNE:    "ne",
	IntSLT:   "slt",
	IntSGT:   "sgt",
	IntSLE:   "sle",
	IntSGE:   "sge",
	IntULT:   "ult",
	IntUGT:   "ugt",
	IntULE:   "ule",
	IntUGE:   "uge",
	FloatOEQ: "oeq",
	FloatONE: "one",
	FloatOLT: "olt",
	FloatOGT: "ogt",
	FloatOLE: "ole",
	FloatOGE: "oge",
}

func (p Predicate) String() string { return predicateNames[p] }

func (p Predicate) IsFloat() bool { return p >= FloatOEQ }

type Instr struct {
	Op Opcode
	// Name is empty when the instruction produces no value.
	Name string
	Typ  Type

	Operands []Value
	Pred     Predicate
	// ElemType is the allocated type of an alloca, the loaded type of a
	// load and the indexed aggregate of a getelementptr.
	ElemType Type
	Callee   *Function
	Targets  []*Block

	block *Block
}

func (i *Instr) Type() Type  { return i.Typ }
func (i *Instr) Ref() string { return "%" + i.Name }

func (i *Instr) Block() *Block { return i.block }

func (i *Instr) IsTerminator() bool { return i.Op.IsTerminator() }

func typedRef(v Value) string {
	return v.Type().String() + " " + v.Ref()
}

func (i *Instr) String() string {
	var sb strings.Builder
	if i.Name != "" {
		fmt.Fprintf(&sb, "%%%s = ", i.Name)
	}

	switch {
	case i.Op == OpAlloca:
		fmt.Fprintf(&sb, "alloca %s", i.ElemType)
	case i.Op == OpLoad:
		fmt.Fprintf(&sb, "load %s, %s", i.ElemType, typedRef(i.Operands[0]))
	case i.Op == OpStore:
		fmt.Fprintf(&sb, "store %s, %s", typedRef(i.Operands[0]), typedRef(i.Operands[1]))
	case i.Op.IsBinary():
		fmt.Fprintf(&sb, "%s %s, %s", i.Op, typedRef(i.Operands[0]), i.Operands[1].Ref())
	case i.Op == OpFNeg:
		fmt.Fprintf(&sb, "fneg %s", typedRef(i.Operands[0]))
	case i.Op == OpICmp, i.Op == OpFCmp:
		fmt.Fprintf(&sb, "%s %s %s, %s", i.Op, i.Pred, typedRef(i.Operands[0]), i.Operands[1].Ref())
	case i.Op == OpCall:
		args := make([]string, len(i.Operands))
		for n, arg := range i.Operands {
			args[n] = typedRef(arg)
		}
		fmt.Fprintf(&sb, "call %s @%s(%s)", i.Callee.ReturnType, i.Callee.Name, strings.Join(args, ", "))
	case i.Op == OpElemPtr:
		fmt.Fprintf(&sb, "getelementptr inbounds %s, %s, i64 0, i64 0", i.ElemType, typedRef(i.Operands[0]))
	case i.Op == OpBr:
		fmt.Fprintf(&sb, "br label %%%s", i.Targets[0].Name)
	case i.Op == OpCondBr:
		fmt.Fprintf(&sb, "br %s, label %%%s, label %%%s", typedRef(i.Operands[0]), i.Targets[0].Name, i.Targets[1].Name)
	case i.Op == OpRet:
		if len(i.Operands) == 0 {
			sb.WriteString("ret void")
		} else {
			fmt.Fprintf(&sb, "ret %s", typedRef(i.Operands[0]))
		}
	case i.Op == OpUnreachable:
		sb.WriteString("unreachable")
	default:
		panic("unreachable")
	}

	return sb.String()
}
