package ast

// Inspect traverses the tree rooted at node in document order, calling f
// for every node. Children are skipped when f returns false. Nested
// function bodies are entered like any other statement.
func Inspect(node AstNode, f func(AstNode) bool) {
	if node == nil || !f(node) {
		return
	}

	switch n := node.(type) {
	case *Assign:
		Inspect(n.Lhs, f)
		Inspect(n.Rhs, f)
	case *While:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
	case *Seq:
		for _, stmt := range n.Body {
			Inspect(stmt, f)
		}
	case *IfThenElse:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
		if n.ElseBody != nil {
			Inspect(n.ElseBody, f)
		}
	case *Vardef:
		if n.Init != nil {
			Inspect(n.Init, f)
		}
	case *Funcdef:
		for _, param := range n.Params {
			Inspect(param, f)
		}
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *ExprStmt:
		Inspect(n.Expr, f)
	case *Return:
		if n.Expr != nil {
			Inspect(n.Expr, f)
		}
	case *FuncCall:
		for _, arg := range n.Args {
			Inspect(arg, f)
		}
	case *BinOp:
		Inspect(n.Lhs, f)
		Inspect(n.Rhs, f)
	case *UnOp:
		Inspect(n.Operand, f)
	case *VarRef, *IntLit, *FloatLit, *StringLit, *BoolLit:
	default:
		panic("not implemented")
	}
}
