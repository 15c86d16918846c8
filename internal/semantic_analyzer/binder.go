package semantic_analyzer

import (
	"github.com/kievzenit/coal/internal/ast"
	"github.com/kievzenit/coal/internal/compiler_errors"
)

// Binder resolves every name use in a program to its declaration.
type Binder struct {
	eh      compiler_errors.ErrorHandler
	program *ast.Program

	symbols *SymbolTable
	funcs   []*ast.Funcdef

	// hoisted holds top-level declarations already inserted into the
	// global scope before the walk.
	hoisted map[ast.Stmt]bool
	// initializing holds variables whose initializer is being bound.
	initializing map[*ast.Vardef]bool
}

func NewBinder(eh compiler_errors.ErrorHandler, program *ast.Program) *Binder {
	return &Binder{
		eh:      eh,
		program: program,

		symbols: NewSymbolTable(),
		funcs:   make([]*ast.Funcdef, 0),

		hoisted:      make(map[ast.Stmt]bool),
		initializing: make(map[*ast.Vardef]bool),
	}
}

func (b *Binder) Bind() {
	b.hoistTopLevelDecls()

	for _, stmt := range b.program.Stmts {
		b.bindStmt(stmt)
	}
}

func (b *Binder) hoistTopLevelDecls() {
	for _, stmt := range b.program.Stmts {
		switch decl := stmt.(type) {
		case *ast.Vardef:
			b.declare(decl.Formal.Name, decl)
			b.hoisted[decl] = true
		case *ast.Funcdef:
			b.declare(decl.Formal.Name, decl)
			b.hoisted[decl] = true
		}
	}
}

func (b *Binder) declare(name string, decl ast.Stmt) {
	if err := b.symbols.Insert(name, decl); err != nil {
		b.eh.AddError(compiler_errors.NewDiagnostic(
			compiler_errors.DuplicateDeclaration,
			decl,
			"%s already declared in this scope",
			name,
		))
	}
}

func (b *Binder) currentFunc() *ast.Funcdef {
	if len(b.funcs) == 0 {
		return b.program.TopLevel()
	}
	return b.funcs[len(b.funcs)-1]
}

func (b *Binder) enterScope() {
	b.symbols.PushScope(b.currentFunc())
}

func (b *Binder) exitScope() {
	b.symbols.PopScope()
}

func (b *Binder) bindStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Assign:
		b.bindExpr(s.Lhs)
		b.bindExpr(s.Rhs)
	case *ast.While:
		b.bindExpr(s.Cond)
		b.bindStmt(s.Body)
	case *ast.Seq:
		b.bindSeq(s)
	case *ast.IfThenElse:
		b.bindExpr(s.Cond)
		b.bindStmt(s.Body)
		if s.ElseBody != nil {
			b.bindStmt(s.ElseBody)
		}
	case *ast.Vardef:
		b.bindVardef(s)
	case *ast.Funcdef:
		b.bindFuncdef(s)
	case *ast.ExprStmt:
		b.bindExpr(s.Expr)
	case *ast.Return:
		s.SetEnclosingFunction(b.currentFunc())
		if s.Expr != nil {
			b.bindExpr(s.Expr)
		}
	default:
		panic("not implemented")
	}
}

func (b *Binder) bindSeq(seq *ast.Seq) {
	b.enterScope()
	defer b.exitScope()

	for _, stmt := range seq.Body {
		b.bindStmt(stmt)
	}
}

func (b *Binder) bindVardef(vardef *ast.Vardef) {
	if vardef.Init != nil {
		b.initializing[vardef] = true
		b.bindExpr(vardef.Init)
		delete(b.initializing, vardef)
	}

	if !b.hoisted[vardef] {
		b.declare(vardef.Formal.Name, vardef)
	}
}

func (b *Binder) bindFuncdef(funcdef *ast.Funcdef) {
	if !b.hoisted[funcdef] {
		b.declare(funcdef.Formal.Name, funcdef)
	}

	b.funcs = append(b.funcs, funcdef)
	defer func() { b.funcs = b.funcs[:len(b.funcs)-1] }()

	b.enterScope()
	defer b.exitScope()

	for _, param := range funcdef.Params {
		b.declare(param.Formal.Name, param)
	}

	if funcdef.Body != nil {
		b.bindStmt(funcdef.Body)
	}
}

func (b *Binder) bindExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.VarRef:
		b.bindVarRef(e)
	case *ast.FuncCall:
		b.bindFuncCall(e)
	case *ast.BinOp:
		b.bindExpr(e.Lhs)
		b.bindExpr(e.Rhs)
	case *ast.UnOp:
		b.bindExpr(e.Operand)
	case *ast.IntLit, *ast.FloatLit, *ast.StringLit, *ast.BoolLit:
	default:
		panic("not implemented")
	}
}

func (b *Binder) bindVarRef(varRef *ast.VarRef) {
	symbol, ok := b.symbols.Find(varRef.Name)
	if !ok {
		b.eh.AddError(compiler_errors.NewDiagnostic(
			compiler_errors.NameNotFound,
			varRef,
			"variable %s not defined",
			varRef.Name,
		))
		return
	}

	vardef, ok := symbol.Decl.(*ast.Vardef)
	if !ok {
		b.eh.AddError(compiler_errors.NewDiagnostic(
			compiler_errors.NotAVariable,
			varRef,
			"%s is a function, not a variable",
			varRef.Name,
		))
		return
	}

	// A hoisted global is visible to its own initializer; report it the
	// same way an unhoisted variable would be.
	if b.initializing[vardef] {
		b.eh.AddError(compiler_errors.NewDiagnostic(
			compiler_errors.NameNotFound,
			varRef,
			"variable %s not defined",
			varRef.Name,
		))
		return
	}

	if !symbol.IsGlobal() && symbol.Owner != b.currentFunc() {
		b.eh.AddError(compiler_errors.NewDiagnostic(
			compiler_errors.CaptureNotSupported,
			varRef,
			"function %s cannot capture local variable %s",
			b.currentFunc().Formal.Name,
			varRef.Name,
		))
	}

	varRef.Bind(vardef)
}

func (b *Binder) bindFuncCall(funcCall *ast.FuncCall) {
	b.resolveCallee(funcCall)

	for _, arg := range funcCall.Args {
		b.bindExpr(arg)
	}
}

func (b *Binder) resolveCallee(funcCall *ast.FuncCall) {
	symbol, ok := b.symbols.Find(funcCall.Name)
	if !ok {
		b.eh.AddError(compiler_errors.NewDiagnostic(
			compiler_errors.NameNotFound,
			funcCall,
			"function %s not defined",
			funcCall.Name,
		))
		return
	}

	funcdef, ok := symbol.Decl.(*ast.Funcdef)
	if !ok {
		b.eh.AddError(compiler_errors.NewDiagnostic(
			compiler_errors.NotAFunction,
			funcCall,
			"%s is a variable, not a function",
			funcCall.Name,
		))
		return
	}

	funcCall.Bind(funcdef)
}
