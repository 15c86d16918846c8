package emitter

import (
	"github.com/kievzenit/coal/internal/ast"
	"github.com/kievzenit/coal/internal/ir"
)

func (e *Emitter) typeOf(expr ast.Expr) ast.Type {
	t, ok := expr.ActualType()
	if !ok {
		internalError("expression at %s has no type", expr.Position())
	}
	return t
}

func (e *Emitter) emitForExpr(expr ast.Expr) ir.Value {
	e.typeOf(expr)

	switch ex := expr.(type) {
	case *ast.IntLit:
		return ir.ConstInt(ex.Value)
	case *ast.FloatLit:
		return ir.ConstFloat(ex.Value)
	case *ast.BoolLit:
		return ir.ConstBool(ex.Value)
	case *ast.StringLit:
		return e.emitForStringLit(ex)
	case *ast.VarRef:
		return e.emitForVarRef(ex)
	case *ast.FuncCall:
		return e.emitForFuncCall(ex)
	case *ast.BinOp:
		return e.emitForBinOp(ex)
	case *ast.UnOp:
		return e.emitForUnOp(ex)
	default:
		panic("not implemented")
	}
}

func (e *Emitter) emitForStringLit(stringLit *ast.StringLit) ir.Value {
	global := e.module.AddStringConstant(stringLit.Value)
	return e.builder.CreateElemPtr(global, "strtmp")
}

func (e *Emitter) variableStorage(varRef *ast.VarRef) *storage {
	decl := varRef.Decl()
	if decl == nil {
		internalError("variable %s at %s was never bound", varRef.Name, varRef.Position())
	}

	st := e.lookup(varRef.Name, decl)
	if st.kind == functionStorage {
		internalError("%s is a function, not a variable", varRef.Name)
	}
	return st
}

func (e *Emitter) emitForVarRef(varRef *ast.VarRef) ir.Value {
	st := e.variableStorage(varRef)
	if st.kind == valueStorage {
		return st.value
	}
	return e.builder.CreateLoad(st.typ, st.value, "loadtmp")
}

// addressOf returns the storage address target denotes.
func (e *Emitter) addressOf(target ast.Expr) ir.Value {
	varRef, ok := target.(*ast.VarRef)
	if !ok {
		internalError("expression at %s is not addressable", target.Position())
	}

	st := e.variableStorage(varRef)
	if st.kind != addressStorage {
		internalError("%s has no storage address", varRef.Name)
	}
	return st.value
}

func (e *Emitter) emitForFuncCall(funcCall *ast.FuncCall) ir.Value {
	args := make([]ir.Value, len(funcCall.Args))
	for i, arg := range funcCall.Args {
		args[i] = e.emitForExpr(arg)
	}

	decl := funcCall.Decl()
	if decl == nil {
		internalError("function %s at %s was never bound", funcCall.Name, funcCall.Position())
	}

	st := e.lookup(funcCall.Name, decl)
	if st.kind != functionStorage {
		internalError("%s is a variable, not a function", funcCall.Name)
	}

	return e.builder.CreateCall(st.fn, args, "calltmp")
}

func (e *Emitter) emitForBinOp(binOp *ast.BinOp) ir.Value {
	operandType := e.typeOf(binOp.Lhs)
	lhs := e.emitForExpr(binOp.Lhs)
	rhs := e.emitForExpr(binOp.Rhs)

	switch binOp.Op {
	case ast.Plus:
		switch operandType {
		case ast.Int:
			return e.builder.CreateAdd(lhs, rhs, "addtmp")
		case ast.Float:
			return e.builder.CreateFAdd(lhs, rhs, "addtmp")
		}
	case ast.Minus:
		switch operandType {
		case ast.Int:
			return e.builder.CreateSub(lhs, rhs, "subtmp")
		case ast.Float:
			return e.builder.CreateFSub(lhs, rhs, "subtmp")
		}
	case ast.Mul:
		switch operandType {
		case ast.Int:
			return e.builder.CreateMul(lhs, rhs, "multmp")
		case ast.Float:
			return e.builder.CreateFMul(lhs, rhs, "multmp")
		}
	case ast.Div:
		switch operandType {
		case ast.Int:
			return e.builder.CreateSDiv(lhs, rhs, "divtmp")
		case ast.Float:
			return e.builder.CreateFDiv(lhs, rhs, "divtmp")
		}
	case ast.And:
		if operandType.IsNumeric() || operandType == ast.Bool {
			return e.builder.CreateAnd(e.toBool(lhs, operandType), e.toBool(rhs, operandType), "andtmp")
		}
	case ast.Or:
		if operandType.IsNumeric() || operandType == ast.Bool {
			return e.builder.CreateOr(e.toBool(lhs, operandType), e.toBool(rhs, operandType), "ortmp")
		}
	case ast.Lt, ast.Gt, ast.Le, ast.Ge, ast.Eq, ast.Ne:
		return e.emitForComparison(binOp.Op, operandType, lhs, rhs)
	}

	internalError("operator %s has no lowering for %s", binOp.Op, operandType)
	return nil
}

// toBool turns a number into its truth value; booleans pass through.
func (e *Emitter) toBool(value ir.Value, t ast.Type) ir.Value {
	switch t {
	case ast.Bool:
		return value
	case ast.Int:
		return e.builder.CreateICmp(ir.IntNE, value, ir.ConstInt(0), "booltmp")
	case ast.Float:
		return e.builder.CreateFCmp(ir.FloatONE, value, ir.ConstFloat(0), "booltmp")
	default:
		panic("unreachable")
	}
}

var intPredicates = map[ast.BinaryOp]ir.Predicate{
	ast.Lt: ir.IntSLT,
	ast.Gt: ir.IntSGT,
	ast.Le: ir.IntSLE,
	ast.Ge: ir.IntSGE,
	ast.Eq: ir.IntEQ,
	ast.Ne: ir.IntNE,
}

// false < true, so bools compare unsigned
var boolPredicates = map[ast.BinaryOp]ir.Predicate{
	ast.Lt: ir.IntULT,
	ast.Gt: ir.IntUGT,
	ast.Le: ir.IntULE,
	ast.Ge: ir.IntUGE,
	ast.Eq: ir.IntEQ,
	ast.Ne: ir.IntNE,
}

var floatPredicates = map[ast.BinaryOp]ir.Predicate{
	ast.Lt: ir.FloatOLT,
	ast.Gt: ir.FloatOGT,
	ast.Le: ir.FloatOLE,
	ast.Ge: ir.FloatOGE,
	ast.Eq: ir.FloatOEQ,
	ast.Ne: ir.FloatONE,
}

func (e *Emitter) emitForComparison(op ast.BinaryOp, operandType ast.Type, lhs, rhs ir.Value) ir.Value {
	switch operandType {
	case ast.Int:
		return e.builder.CreateICmp(intPredicates[op], lhs, rhs, "cmptmp")
	case ast.Bool:
		return e.builder.CreateICmp(boolPredicates[op], lhs, rhs, "cmptmp")
	case ast.Float:
		return e.builder.CreateFCmp(floatPredicates[op], lhs, rhs, "cmptmp")
	default:
		internalError("operator %s has no lowering for %s", op, operandType)
		return nil
	}
}

func (e *Emitter) emitForUnOp(unOp *ast.UnOp) ir.Value {
	operandType := e.typeOf(unOp.Operand)

	switch unOp.Op {
	case ast.BoolNegate:
		if operandType != ast.Bool {
			break
		}
		value := e.emitForExpr(unOp.Operand)
		return e.builder.CreateXor(value, ir.ConstBool(true), "nottmp")
	case ast.ValNegate:
		value := e.emitForExpr(unOp.Operand)
		switch operandType {
		case ast.Int:
			return e.builder.CreateSub(ir.ConstInt(0), value, "negtmp")
		case ast.Float:
			return e.builder.CreateFNeg(value, "negtmp")
		}
	case ast.Incr, ast.Decr:
		if operandType.IsNumeric() {
			return e.emitForStep(unOp, operandType)
		}
	}

	internalError("operator %s has no lowering for %s", unOp.Op, operandType)
	return nil
}

// emitForStep lowers ++ and --: the new value is stored back into the
// operand and is also the value of the expression.
func (e *Emitter) emitForStep(unOp *ast.UnOp, operandType ast.Type) ir.Value {
	address := e.addressOf(unOp.Operand)
	valueType := e.irType(operandType)
	value := e.builder.CreateLoad(valueType, address, "loadtmp")

	var result ir.Value
	switch {
	case unOp.Op == ast.Incr && operandType == ast.Int:
		result = e.builder.CreateAdd(value, ir.ConstInt(1), "inctmp")
	case unOp.Op == ast.Incr:
		result = e.builder.CreateFAdd(value, ir.ConstFloat(1), "inctmp")
	case operandType == ast.Int:
		result = e.builder.CreateSub(value, ir.ConstInt(1), "dectmp")
	default:
		result = e.builder.CreateFSub(value, ir.ConstFloat(1), "dectmp")
	}

	e.builder.CreateStore(result, address)
	return result
}
