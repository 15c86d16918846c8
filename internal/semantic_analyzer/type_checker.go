package semantic_analyzer

import (
	"github.com/kievzenit/coal/internal/ast"
	"github.com/kievzenit/coal/internal/compiler_errors"
)

// TypeChecker infers a type for every expression of a bound program and
// reports type errors. An expression whose type cannot be inferred stays
// untyped, and checks that depend on it are skipped so that a single
// defect is reported once.
type TypeChecker struct {
	eh      compiler_errors.ErrorHandler
	program *ast.Program
}

func NewTypeChecker(eh compiler_errors.ErrorHandler, program *ast.Program) *TypeChecker {
	return &TypeChecker{
		eh:      eh,
		program: program,
	}
}

func (tc *TypeChecker) Check() {
	for _, stmt := range tc.program.Stmts {
		tc.checkStmt(stmt)
	}
}

func (tc *TypeChecker) addError(kind compiler_errors.Kind, node ast.AstNode, format string, args ...any) {
	tc.eh.AddError(compiler_errors.NewDiagnostic(kind, node, format, args...))
}

func (tc *TypeChecker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Assign:
		tc.checkAssign(s)
	case *ast.While:
		tc.checkCondition(s.Cond)
		tc.checkStmt(s.Body)
	case *ast.Seq:
		for _, stmt := range s.Body {
			tc.checkStmt(stmt)
		}
	case *ast.IfThenElse:
		tc.checkCondition(s.Cond)
		tc.checkStmt(s.Body)
		if s.ElseBody != nil {
			tc.checkStmt(s.ElseBody)
		}
	case *ast.Vardef:
		tc.checkVardef(s)
	case *ast.Funcdef:
		tc.checkFuncdef(s)
	case *ast.ExprStmt:
		tc.checkExpr(s.Expr)
	case *ast.Return:
		tc.checkReturn(s)
	default:
		panic("not implemented")
	}
}

func (tc *TypeChecker) checkCondition(cond ast.Expr) {
	condType, ok := tc.checkExpr(cond)
	if ok && condType != ast.Bool {
		tc.addError(compiler_errors.InvalidConditionType, cond, "condition must be bool, got %s", condType)
	}
}

func (tc *TypeChecker) checkAssign(assign *ast.Assign) {
	lhsType, lhsOk := tc.checkExpr(assign.Lhs)
	rhsType, rhsOk := tc.checkExpr(assign.Rhs)

	if !tc.checkAssignable(assign.Lhs, "left side of assignment is not a variable") {
		return
	}

	if lhsOk && rhsOk && lhsType != rhsType {
		tc.addError(
			compiler_errors.AssignmentTypeMismatch,
			assign,
			"cannot assign %s to variable %s of type %s",
			rhsType,
			assign.Lhs.(*ast.VarRef).Name,
			lhsType,
		)
	}
}

// checkAssignable reports whether target denotes storage. References left
// unbound by the binder were already reported and count as assignable.
func (tc *TypeChecker) checkAssignable(target ast.Expr, message string) bool {
	if _, ok := target.(*ast.VarRef); ok {
		return true
	}
	tc.addError(compiler_errors.InvalidAssignmentTarget, target, "%s", message)
	return false
}

func (tc *TypeChecker) checkVardef(vardef *ast.Vardef) {
	if vardef.Formal.Type == ast.Nil {
		tc.addError(compiler_errors.NilVariable, vardef, "variable %s cannot have type nil", vardef.Formal.Name)
	}

	if vardef.Init == nil {
		return
	}

	initType, ok := tc.checkExpr(vardef.Init)
	if ok && initType != vardef.Formal.Type {
		tc.addError(
			compiler_errors.InitializerTypeMismatch,
			vardef,
			"cannot initialize variable %s of type %s with %s",
			vardef.Formal.Name,
			vardef.Formal.Type,
			initType,
		)
	}
}

func (tc *TypeChecker) checkFuncdef(funcdef *ast.Funcdef) {
	for _, param := range funcdef.Params {
		tc.checkVardef(param)
	}

	if funcdef.Body != nil {
		tc.checkStmt(funcdef.Body)
	}
}

func (tc *TypeChecker) checkReturn(ret *ast.Return) {
	returnType, ok := ast.Nil, true
	if ret.Expr != nil {
		returnType, ok = tc.checkExpr(ret.Expr)
	}

	funcdef := ret.EnclosingFunction()
	if !ok || funcdef == nil {
		return
	}

	if returnType != funcdef.Formal.Type {
		tc.addError(
			compiler_errors.ReturnTypeMismatch,
			ret,
			"function %s returns %s, got %s",
			funcdef.Formal.Name,
			funcdef.Formal.Type,
			returnType,
		)
	}
}

// checkExpr annotates expr and returns its type; ok is false when no type
// could be inferred.
func (tc *TypeChecker) checkExpr(expr ast.Expr) (ast.Type, bool) {
	switch e := expr.(type) {
	case *ast.IntLit:
		e.SetActualType(ast.Int)
	case *ast.FloatLit:
		e.SetActualType(ast.Float)
	case *ast.StringLit:
		e.SetActualType(ast.String)
	case *ast.BoolLit:
		e.SetActualType(ast.Bool)
	case *ast.VarRef:
		if decl := e.Decl(); decl != nil {
			e.SetActualType(decl.Formal.Type)
		}
	case *ast.FuncCall:
		tc.checkFuncCall(e)
	case *ast.BinOp:
		tc.checkBinOp(e)
	case *ast.UnOp:
		tc.checkUnOp(e)
	default:
		panic("not implemented")
	}

	return expr.ActualType()
}

func (tc *TypeChecker) checkFuncCall(funcCall *ast.FuncCall) {
	argTypes := make([]ast.Type, len(funcCall.Args))
	argOk := make([]bool, len(funcCall.Args))
	for i, arg := range funcCall.Args {
		argTypes[i], argOk[i] = tc.checkExpr(arg)
	}

	funcdef := funcCall.Decl()
	if funcdef == nil {
		return
	}

	if len(funcCall.Args) != len(funcdef.Params) {
		tc.addError(
			compiler_errors.ArityMismatch,
			funcCall,
			"function %s expects %d arguments, got %d",
			funcCall.Name,
			len(funcdef.Params),
			len(funcCall.Args),
		)
	}

	for i, param := range funcdef.Params {
		if i >= len(funcCall.Args) {
			break
		}
		if argOk[i] && argTypes[i] != param.Formal.Type {
			tc.addError(
				compiler_errors.ArgumentTypeMismatch,
				funcCall.Args[i],
				"argument %d of %s must be %s, got %s",
				i+1,
				funcCall.Name,
				param.Formal.Type,
				argTypes[i],
			)
		}
	}

	funcCall.SetActualType(funcdef.Formal.Type)
}

func (tc *TypeChecker) checkBinOp(binOp *ast.BinOp) {
	lhsType, lhsOk := tc.checkExpr(binOp.Lhs)
	rhsType, rhsOk := tc.checkExpr(binOp.Rhs)
	if !lhsOk || !rhsOk {
		return
	}

	if lhsType != rhsType {
		tc.addError(
			compiler_errors.TypeMismatch,
			binOp,
			"mismatched operand types %s and %s for operator %s",
			lhsType,
			rhsType,
			binOp.Op,
		)
		return
	}

	if binOp.Op.IsArithmetic() {
		if !lhsType.IsNumeric() {
			tc.addError(
				compiler_errors.InvalidOperandType,
				binOp,
				"operator %s is not defined for operand type %s",
				binOp.Op,
				lhsType,
			)
		}
		binOp.SetActualType(lhsType)
		return
	}

	if !lhsType.IsNumeric() && lhsType != ast.Bool {
		tc.addError(
			compiler_errors.InvalidOperandType,
			binOp,
			"operator %s is not defined for operand type %s",
			binOp.Op,
			lhsType,
		)
	}
	binOp.SetActualType(ast.Bool)
}

func (tc *TypeChecker) checkUnOp(unOp *ast.UnOp) {
	operandType, ok := tc.checkExpr(unOp.Operand)

	if unOp.Op == ast.Incr || unOp.Op == ast.Decr {
		tc.checkAssignable(unOp.Operand, "operand of "+unOp.Op.String()+" is not a variable")
	}

	if !ok {
		return
	}
	unOp.SetActualType(operandType)

	valid := operandType.IsNumeric()
	if unOp.Op == ast.BoolNegate {
		valid = operandType == ast.Bool
	}
	if !valid {
		tc.addError(
			compiler_errors.InvalidOperandType,
			unOp,
			"operator %s is not defined for operand type %s",
			unOp.Op,
			operandType,
		)
	}
}
