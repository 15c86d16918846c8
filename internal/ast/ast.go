package ast

import "fmt"

// TopLevelName is the name of the implicit function that owns statements
// written outside of any function.
const TopLevelName = "__toplevel"

type Pos struct {
	Line   int
	Column int
}

func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type AstNode interface {
	AstNode()
	Position() Pos
}

type Stmt interface {
	AstNode
	StmtNode()
}

type Expr interface {
	AstNode
	ExprNode()
	ActualType() (Type, bool)
	SetActualType(t Type)
}

// Program is the root of a parsed source file.
type Program struct {
	Stmts []Stmt

	topLevel *Funcdef
}

func NewProgram(stmts ...Stmt) *Program {
	return &Program{Stmts: stmts}
}

// TopLevel returns the pseudo-function enclosing statements that appear
// outside of any Funcdef. It has no parameters and returns Nil.
func (p *Program) TopLevel() *Funcdef {
	if p.topLevel == nil {
		p.topLevel = &Funcdef{
			Formal:   Formal{Name: TopLevelName, Type: Nil},
			implicit: true,
		}
	}
	return p.topLevel
}

// typed holds the write-once type annotation shared by every expression.
type typed struct {
	actualType Type
	hasType    bool
}

func (t *typed) ActualType() (Type, bool) {
	return t.actualType, t.hasType
}

// SetActualType may be called again only with the type already recorded,
// so re-running the checker over an annotated tree is harmless.
func (t *typed) SetActualType(ty Type) {
	if t.hasType && t.actualType != ty {
		panic(fmt.Sprintf("expression type already set to %s, cannot change to %s", t.actualType, ty))
	}
	t.actualType = ty
	t.hasType = true
}
