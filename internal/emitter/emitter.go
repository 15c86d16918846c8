package emitter

import (
	"github.com/kievzenit/coal/internal/ast"
	"github.com/kievzenit/coal/internal/compiler_errors"
	"github.com/kievzenit/coal/internal/ir"
)

type storageKind int

const (
	// addressStorage holds the address of a slot or global; reading the
	// variable loads from it.
	addressStorage storageKind = iota
	// valueStorage holds the final value itself, e.g. an unmutated
	// parameter.
	valueStorage
	functionStorage
)

type storage struct {
	kind storageKind
	decl ast.Stmt

	value ir.Value
	typ   ir.Type
	fn    *ir.Function
}

type funcContext struct {
	decl *ast.Funcdef
	fn   *ir.Function

	entryBlock *ir.Block
	startBlock *ir.Block
}

// Emitter lowers a bound and type-checked program into an ir.Module.
// Statements outside of any function are emitted into an implicit
// function named ast.TopLevelName; variables declared there live in
// module globals.
type Emitter struct {
	program *ast.Program

	module  *ir.Module
	builder *ir.Builder

	scopes []map[string]*storage
	funcs  []*funcContext

	globals       map[*ast.Vardef]*storage
	nestedGlobals map[*ast.Vardef]bool
	prototypes    map[*ast.Funcdef]*ir.Function
	mutatedParams map[*ast.Vardef]bool
}

func NewEmitter(program *ast.Program, moduleName string) *Emitter {
	return &Emitter{
		program: program,

		module:  ir.NewModule(moduleName),
		builder: ir.NewBuilder(),

		scopes: make([]map[string]*storage, 0),
		funcs:  make([]*funcContext, 0),

		globals:       make(map[*ast.Vardef]*storage),
		nestedGlobals: make(map[*ast.Vardef]bool),
		prototypes:    make(map[*ast.Funcdef]*ir.Function),
		mutatedParams: make(map[*ast.Vardef]bool),
	}
}

// Emit generates the module. The program must be free of diagnostics;
// anything the emitter cannot lower is reported as an
// *compiler_errors.InternalError or *ir.BuilderError.
func (e *Emitter) Emit() (module *ir.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch r := r.(type) {
			case *compiler_errors.InternalError:
				module, err = nil, r
			case *ir.BuilderError:
				module, err = nil, r
			default:
				panic(r)
			}
		}
	}()

	e.findMutatedParams()

	e.enterScope()
	defer e.exitScope()

	e.declareGlobals()
	topLevel := e.declareTopLevel()
	e.declareFuncPrototypes()

	if topLevel != nil {
		e.enterFunction(e.program.TopLevel(), topLevel)
	}
	for _, stmt := range e.program.Stmts {
		e.emitForStmt(stmt)
	}
	if topLevel != nil {
		e.exitFunction()
	}

	if err := ir.Verify(e.module); err != nil {
		return nil, compiler_errors.NewInternalError("generated invalid IR:\n%v", err)
	}

	return e.module, nil
}

func internalError(format string, args ...any) {
	panic(compiler_errors.NewInternalError(format, args...))
}

func (e *Emitter) findMutatedParams() {
	markTarget := func(target ast.Expr) {
		if varRef, ok := target.(*ast.VarRef); ok && varRef.Decl() != nil && varRef.Decl().Param {
			e.mutatedParams[varRef.Decl()] = true
		}
	}

	for _, stmt := range e.program.Stmts {
		ast.Inspect(stmt, func(node ast.AstNode) bool {
			switch n := node.(type) {
			case *ast.Assign:
				markTarget(n.Lhs)
			case *ast.UnOp:
				if n.Op == ast.Incr || n.Op == ast.Decr {
					markTarget(n.Operand)
				}
			}
			return true
		})
	}
}

// globalVardefs collects the variables that live in the global scope:
// top-level definitions and those reached through the bodies of
// top-level while and if statements, which open no scope of their own.
func globalVardefs(stmts ...ast.Stmt) []*ast.Vardef {
	vardefs := make([]*ast.Vardef, 0)
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Vardef:
			vardefs = append(vardefs, s)
		case *ast.While:
			vardefs = append(vardefs, globalVardefs(s.Body)...)
		case *ast.IfThenElse:
			vardefs = append(vardefs, globalVardefs(s.Body)...)
			if s.ElseBody != nil {
				vardefs = append(vardefs, globalVardefs(s.ElseBody)...)
			}
		}
	}
	return vardefs
}

func (e *Emitter) declareGlobals() {
	topLevel := make(map[ast.Stmt]bool, len(e.program.Stmts))
	for _, stmt := range e.program.Stmts {
		topLevel[stmt] = true
	}

	for _, vardef := range globalVardefs(e.program.Stmts...) {
		e.nestedGlobals[vardef] = !topLevel[vardef]

		valueType := e.irType(vardef.Formal.Type)
		if valueType.IsVoid() {
			internalError("global %s has type nil", vardef.Formal.Name)
		}

		global := e.module.AddGlobal(vardef.Formal.Name, valueType)
		st := &storage{
			kind:  addressStorage,
			decl:  vardef,
			value: global,
			typ:   valueType,
		}
		e.globals[vardef] = st
		e.declare(vardef.Formal.Name, st)
	}
}

// declareTopLevel creates the implicit function when the program has
// statements outside of functions.
func (e *Emitter) declareTopLevel() *ir.Function {
	for _, stmt := range e.program.Stmts {
		if _, ok := stmt.(*ast.Funcdef); !ok {
			return e.module.AddFunction(ast.TopLevelName, ir.Void, nil, nil)
		}
	}
	return nil
}

func (e *Emitter) declareFuncPrototypes() {
	for _, stmt := range e.program.Stmts {
		if funcdef, ok := stmt.(*ast.Funcdef); ok {
			e.declareFunction(funcdef)
		}
	}
}

func (e *Emitter) declareFunction(funcdef *ast.Funcdef) *ir.Function {
	paramTypes := make([]ir.Type, len(funcdef.Params))
	paramNames := make([]string, len(funcdef.Params))
	for i, param := range funcdef.Params {
		paramTypes[i] = e.irType(param.Formal.Type)
		paramNames[i] = param.Formal.Name
	}

	fn := e.module.AddFunction(funcdef.Formal.Name, e.irType(funcdef.Formal.Type), paramTypes, paramNames)
	e.prototypes[funcdef] = fn
	e.declare(funcdef.Formal.Name, &storage{
		kind: functionStorage,
		decl: funcdef,
		fn:   fn,
	})
	return fn
}

func (e *Emitter) irType(t ast.Type) ir.Type {
	switch t {
	case ast.Nil:
		return ir.Void
	case ast.Bool:
		return ir.I1
	case ast.Int:
		return ir.I64
	case ast.Float:
		return ir.F64
	case ast.String:
		return ir.Ptr
	default:
		internalError("unknown type %d", int(t))
		return ir.Void
	}
}

func (e *Emitter) enterScope() {
	e.scopes = append(e.scopes, make(map[string]*storage))
}

func (e *Emitter) exitScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

func (e *Emitter) declare(name string, st *storage) {
	e.scopes[len(e.scopes)-1][name] = st
}

// lookup finds the storage registered for name and checks it belongs to
// the declaration the binder resolved the name to.
func (e *Emitter) lookup(name string, decl ast.Stmt) *storage {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		st, ok := e.scopes[i][name]
		if !ok {
			continue
		}
		if st.decl != decl {
			internalError("%s resolves to a different declaration than the one it was bound to", name)
		}
		return st
	}

	internalError("no storage for %s", name)
	return nil
}

func (e *Emitter) currentFunc() *funcContext {
	if len(e.funcs) == 0 {
		internalError("no function is being emitted")
	}
	return e.funcs[len(e.funcs)-1]
}

// enterFunction opens the entry block, which receives only allocas, and
// the start block the body is emitted into.
func (e *Emitter) enterFunction(funcdef *ast.Funcdef, fn *ir.Function) *funcContext {
	ctx := &funcContext{
		decl:       funcdef,
		fn:         fn,
		entryBlock: fn.AddBlock("entry"),
		startBlock: fn.AddBlock("start"),
	}
	e.funcs = append(e.funcs, ctx)
	e.builder.SetInsertPointAtEnd(ctx.startBlock)
	return ctx
}

func (e *Emitter) exitFunction() {
	ctx := e.currentFunc()

	if block := e.builder.GetInsertBlock(); !block.Terminated() {
		if ctx.fn.ReturnType.IsVoid() {
			e.builder.CreateRetVoid()
		} else {
			e.builder.CreateUnreachable()
		}
	}

	e.builder.SetInsertPointAtEnd(ctx.entryBlock)
	e.builder.CreateBr(ctx.startBlock)

	e.funcs = e.funcs[:len(e.funcs)-1]
}

func (e *Emitter) createEntryAlloca(t ir.Type, name string) ir.Value {
	ctx := e.currentFunc()

	currBlock := e.builder.GetInsertBlock()
	e.builder.SetInsertPointAtEnd(ctx.entryBlock)
	slot := e.builder.CreateAlloca(t, name)
	e.builder.SetInsertPointAtEnd(currBlock)

	return slot
}

// ensureInsertBlock opens a fresh block when the current one already
// ended, so statements after a return still have somewhere to go.
func (e *Emitter) ensureInsertBlock() {
	block := e.builder.GetInsertBlock()
	if block == nil {
		internalError("statement outside of a function")
	}
	if block.Terminated() {
		e.builder.SetInsertPointAtEnd(e.currentFunc().fn.AddBlock("dead"))
	}
}

func (e *Emitter) emitForStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Funcdef:
		e.emitForFuncdef(s)
		return
	case *ast.Seq:
		e.emitForSeq(s)
		return
	}

	e.ensureInsertBlock()

	switch s := stmt.(type) {
	case *ast.Assign:
		e.emitForAssign(s)
	case *ast.While:
		e.emitForWhile(s)
	case *ast.IfThenElse:
		e.emitForIfThenElse(s)
	case *ast.Vardef:
		e.emitForVardef(s)
	case *ast.ExprStmt:
		e.emitForExpr(s.Expr)
	case *ast.Return:
		e.emitForReturn(s)
	default:
		panic("not implemented")
	}
}

func (e *Emitter) emitForSeq(seq *ast.Seq) {
	e.enterScope()
	defer e.exitScope()

	for _, stmt := range seq.Body {
		e.emitForStmt(stmt)
	}
}

func (e *Emitter) emitForFuncdef(funcdef *ast.Funcdef) {
	fn, ok := e.prototypes[funcdef]
	if !ok {
		fn = e.declareFunction(funcdef)
	}

	currBlock := e.builder.GetInsertBlock()
	defer e.builder.SetInsertPointAtEnd(currBlock)

	e.enterFunction(funcdef, fn)

	e.enterScope()
	for i, param := range funcdef.Params {
		value := fn.Param(i)
		if !e.mutatedParams[param] {
			e.declare(param.Formal.Name, &storage{
				kind:  valueStorage,
				decl:  param,
				value: value,
				typ:   value.Type(),
			})
			continue
		}

		slot := e.createEntryAlloca(value.Type(), param.Formal.Name+".addr")
		e.builder.CreateStore(value, slot)
		e.declare(param.Formal.Name, &storage{
			kind:  addressStorage,
			decl:  param,
			value: slot,
			typ:   value.Type(),
		})
	}

	if funcdef.Body != nil {
		e.emitForStmt(funcdef.Body)
	}
	e.exitScope()

	e.exitFunction()
}

func (e *Emitter) emitForAssign(assign *ast.Assign) {
	value := e.emitForExpr(assign.Rhs)
	address := e.addressOf(assign.Lhs)
	e.builder.CreateStore(value, address)
}

func (e *Emitter) emitForWhile(while *ast.While) {
	fn := e.currentFunc().fn

	loopBlock := fn.AddBlock("loop")
	bodyBlock := fn.AddBlock("body")
	exitBlock := fn.AddBlock("exit")

	e.builder.CreateBr(loopBlock)

	e.builder.SetInsertPointAtEnd(loopBlock)
	cond := e.emitForExpr(while.Cond)
	e.builder.CreateCondBr(cond, bodyBlock, exitBlock)

	e.builder.SetInsertPointAtEnd(bodyBlock)
	e.emitForStmt(while.Body)
	if !e.builder.GetInsertBlock().Terminated() {
		e.builder.CreateBr(loopBlock)
	}

	e.builder.SetInsertPointAtEnd(exitBlock)
}

func (e *Emitter) emitForIfThenElse(ifThenElse *ast.IfThenElse) {
	fn := e.currentFunc().fn

	bodyBlock := fn.AddBlock("body")
	elseBlock := fn.AddBlock("else")
	contBlock := fn.AddBlock("cont")

	cond := e.emitForExpr(ifThenElse.Cond)
	e.builder.CreateCondBr(cond, bodyBlock, elseBlock)

	e.builder.SetInsertPointAtEnd(bodyBlock)
	e.emitForStmt(ifThenElse.Body)
	if !e.builder.GetInsertBlock().Terminated() {
		e.builder.CreateBr(contBlock)
	}

	e.builder.SetInsertPointAtEnd(elseBlock)
	if ifThenElse.ElseBody != nil {
		e.emitForStmt(ifThenElse.ElseBody)
	}
	if !e.builder.GetInsertBlock().Terminated() {
		e.builder.CreateBr(contBlock)
	}

	e.builder.SetInsertPointAtEnd(contBlock)
}

func (e *Emitter) emitForVardef(vardef *ast.Vardef) {
	if global, ok := e.globals[vardef]; ok {
		// A global declared inside a loop or branch is reset each time
		// its definition runs.
		switch {
		case vardef.Init != nil:
			e.builder.CreateStore(e.emitForExpr(vardef.Init), global.value)
		case e.nestedGlobals[vardef]:
			e.builder.CreateStore(ir.ConstZero(global.typ), global.value)
		}
		return
	}

	valueType := e.irType(vardef.Formal.Type)
	if valueType.IsVoid() {
		internalError("variable %s has type nil", vardef.Formal.Name)
	}

	var value ir.Value
	if vardef.Init != nil {
		value = e.emitForExpr(vardef.Init)
	} else {
		value = ir.ConstZero(valueType)
	}

	slot := e.createEntryAlloca(valueType, vardef.Formal.Name)
	e.builder.CreateStore(value, slot)

	e.declare(vardef.Formal.Name, &storage{
		kind:  addressStorage,
		decl:  vardef,
		value: slot,
		typ:   valueType,
	})
}

func (e *Emitter) emitForReturn(ret *ast.Return) {
	ctx := e.currentFunc()
	if ret.EnclosingFunction() != ctx.decl {
		internalError("return does not belong to function %s", ctx.decl.Formal.Name)
	}

	if ret.Expr == nil {
		e.builder.CreateRetVoid()
		return
	}

	value := e.emitForExpr(ret.Expr)
	if ctx.fn.ReturnType.IsVoid() {
		e.builder.CreateRetVoid()
		return
	}
	e.builder.CreateRet(value)
}
