package ast

import "fmt"

type Assign struct {
	Start Pos

	Lhs Expr
	Rhs Expr
}

type While struct {
	Start Pos

	Cond Expr
	Body Stmt
}

// Seq is the only statement that opens a lexical scope.
type Seq struct {
	Start Pos

	Body []Stmt
}

type IfThenElse struct {
	Start Pos

	Cond     Expr
	Body     Stmt
	ElseBody Stmt
}

// Vardef declares a variable. Function parameters are Vardefs with Param
// set and no initializer.
type Vardef struct {
	Start Pos

	Formal Formal
	Init   Expr
	Param  bool
}

func NewParam(name string, t Type) *Vardef {
	return &Vardef{Formal: Formal{Name: name, Type: t}, Param: true}
}

type Funcdef struct {
	Start Pos

	Formal Formal
	Params []*Vardef
	Body   Stmt

	implicit bool
}

// IsImplicit reports whether f is the top-level pseudo-function.
func (f *Funcdef) IsImplicit() bool { return f.implicit }

func (f *Funcdef) ParamTypes() []Type {
	paramTypes := make([]Type, len(f.Params))
	for i, param := range f.Params {
		paramTypes[i] = param.Formal.Type
	}
	return paramTypes
}

type ExprStmt struct {
	Expr Expr
}

type Return struct {
	Start Pos

	Expr Expr

	enclosingFunction *Funcdef
}

func (r *Return) EnclosingFunction() *Funcdef { return r.enclosingFunction }

func (r *Return) SetEnclosingFunction(f *Funcdef) {
	if r.enclosingFunction != nil && r.enclosingFunction != f {
		panic(fmt.Sprintf("return already bound to function %s", r.enclosingFunction.Formal.Name))
	}
	r.enclosingFunction = f
}

func (*Assign) AstNode()     {}
func (*While) AstNode()      {}
func (*Seq) AstNode()        {}
func (*IfThenElse) AstNode() {}
func (*Vardef) AstNode()     {}
func (*Funcdef) AstNode()    {}
func (*ExprStmt) AstNode()   {}
func (*Return) AstNode()     {}

func (s *Assign) Position() Pos     { return s.Start }
func (s *While) Position() Pos      { return s.Start }
func (s *Seq) Position() Pos        { return s.Start }
func (s *IfThenElse) Position() Pos { return s.Start }
func (s *Vardef) Position() Pos     { return s.Start }
func (s *Funcdef) Position() Pos    { return s.Start }
func (s *ExprStmt) Position() Pos   { return s.Expr.Position() }
func (s *Return) Position() Pos     { return s.Start }

func (*Assign) StmtNode()     {}
func (*While) StmtNode()      {}
func (*Seq) StmtNode()        {}
func (*IfThenElse) StmtNode() {}
func (*Vardef) StmtNode()     {}
func (*Funcdef) StmtNode()    {}
func (*ExprStmt) StmtNode()   {}
func (*Return) StmtNode()     {}
