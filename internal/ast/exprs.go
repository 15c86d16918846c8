package ast

import "fmt"

type VarRef struct {
	typed
	Start Pos

	Name string

	decl *Vardef
}

func (v *VarRef) Decl() *Vardef { return v.decl }

func (v *VarRef) Bind(decl *Vardef) {
	if v.decl != nil && v.decl != decl {
		panic(fmt.Sprintf("variable reference %s already bound", v.Name))
	}
	v.decl = decl
}

type IntLit struct {
	typed
	Start Pos

	Value int64
}

type FloatLit struct {
	typed
	Start Pos

	Value float64
}

type StringLit struct {
	typed
	Start Pos

	Value string
}

type BoolLit struct {
	typed
	Start Pos

	Value bool
}

type FuncCall struct {
	typed
	Start Pos

	Name string
	Args []Expr

	decl *Funcdef
}

func (f *FuncCall) Decl() *Funcdef { return f.decl }

func (f *FuncCall) Bind(decl *Funcdef) {
	if f.decl != nil && f.decl != decl {
		panic(fmt.Sprintf("call to %s already bound", f.Name))
	}
	f.decl = decl
}

type BinaryOp int

const (
	Plus BinaryOp = iota
	Minus
	Mul
	Div
	And
	Or
	Lt
	Gt
	Le
	Ge
	Eq
	Ne
)

var binaryOpSymbols = [...]string{
	Plus:  "+",
	Minus: "-",
	Mul:   "*",
	Div:   "/",
	And:   "&&",
	Or:    "||",
	Lt:    "<",
	Gt:    ">",
	Le:    "<=",
	Ge:    ">=",
	Eq:    "==",
	Ne:    "!=",
}

func (op BinaryOp) String() string { return binaryOpSymbols[op] }

// IsArithmetic reports whether op yields its operand type rather than Bool.
func (op BinaryOp) IsArithmetic() bool {
	return op == Plus || op == Minus || op == Mul || op == Div
}

func ParseBinaryOp(symbol string) (BinaryOp, bool) {
	for i, s := range binaryOpSymbols {
		if s == symbol {
			return BinaryOp(i), true
		}
	}
	return 0, false
}

type BinOp struct {
	typed
	Start Pos

	Op  BinaryOp
	Lhs Expr
	Rhs Expr
}

type UnaryOp int

const (
	BoolNegate UnaryOp = iota
	ValNegate
	Incr
	Decr
)

var unaryOpSymbols = [...]string{
	BoolNegate: "!",
	ValNegate:  "-",
	Incr:       "++",
	Decr:       "--",
}

func (op UnaryOp) String() string { return unaryOpSymbols[op] }

func ParseUnaryOp(symbol string) (UnaryOp, bool) {
	for i, s := range unaryOpSymbols {
		if s == symbol {
			return UnaryOp(i), true
		}
	}
	return 0, false
}

type UnOp struct {
	typed
	Start Pos

	Op      UnaryOp
	Operand Expr
}

func (*VarRef) AstNode()    {}
func (*IntLit) AstNode()    {}
func (*FloatLit) AstNode()  {}
func (*StringLit) AstNode() {}
func (*BoolLit) AstNode()   {}
func (*FuncCall) AstNode()  {}
func (*BinOp) AstNode()     {}
func (*UnOp) AstNode()      {}

func (e *VarRef) Position() Pos    { return e.Start }
func (e *IntLit) Position() Pos    { return e.Start }
func (e *FloatLit) Position() Pos  { return e.Start }
func (e *StringLit) Position() Pos { return e.Start }
func (e *BoolLit) Position() Pos   { return e.Start }
func (e *FuncCall) Position() Pos  { return e.Start }
func (e *BinOp) Position() Pos     { return e.Start }
func (e *UnOp) Position() Pos      { return e.Start }

func (*VarRef) ExprNode()    {}
func (*IntLit) ExprNode()    {}
func (*FloatLit) ExprNode()  {}
func (*StringLit) ExprNode() {}
func (*BoolLit) ExprNode()   {}
func (*FuncCall) ExprNode()  {}
func (*BinOp) ExprNode()     {}
func (*UnOp) ExprNode()      {}
