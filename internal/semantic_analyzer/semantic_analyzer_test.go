package semantic_analyzer

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kievzenit/coal/internal/ast"
	"github.com/kievzenit/coal/internal/compiler_errors"
	"github.com/kievzenit/coal/internal/loader"
	"github.com/kievzenit/coal/internal/testcase"
	"github.com/nalgeon/be"
)

func analyze(t *testing.T, program *ast.Program) []*compiler_errors.Diagnostic {
	t.Helper()
	eh := compiler_errors.NewErrorHandler(io.Discard)
	ok := NewSemanticAnalyzer(eh, program).Analyze()
	diagnostics := compiler_errors.Diagnostics(eh.Errors())
	be.Equal(t, ok, len(diagnostics) == 0)
	return diagnostics
}

func load(t *testing.T, source string) *ast.Program {
	t.Helper()
	program, err := loader.Load(strings.NewReader(source))
	be.Err(t, err, nil)
	return program
}

func TestSemanticAnalyzerAllTests(t *testing.T) {
	testFiles, err := filepath.Glob("testdata/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), ".md")

		t.Run(testName, func(t *testing.T) {
			testCases, err := testcase.ExtractTestCasesFromFile(testFile)
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					runTestCase(t, tc)
				})
			}
		})
	}
}

func runTestCase(t *testing.T, tc testcase.TestCase) {
	diagnostics := analyze(t, load(t, tc.Input))

	lines := make([]string, len(diagnostics))
	for i, d := range diagnostics {
		lines[i] = d.String()
	}

	for _, assertion := range tc.Assertions {
		if assertion.Type != testcase.AssertionTypeDiagnostics {
			t.Fatalf("line %d: unsupported assertion %s", assertion.Line, assertion.Type)
		}
		be.Equal(t, strings.Join(lines, "\n"), assertion.Content)
	}
}

func TestBindsEveryReference(t *testing.T) {
	program := load(t, `
- var: {name: count, type: int, init: {int: 0}}
- func:
    name: step
    type: int
    params: [{name: by, type: int}]
    body:
      - var: {name: next, type: int, init: {binop: {op: "+", lhs: {ref: count}, rhs: {ref: by}}}}
      - assign: {lhs: {ref: count}, rhs: {ref: next}}
      - return: {ref: count}
- expr: {call: {name: step, args: [{int: 1}]}}
`)
	be.Equal(t, len(analyze(t, program)), 0)

	refs, calls, returns := 0, 0, 0
	for _, stmt := range program.Stmts {
		ast.Inspect(stmt, func(node ast.AstNode) bool {
			switch n := node.(type) {
			case *ast.VarRef:
				refs++
				be.True(t, n.Decl() != nil)
			case *ast.FuncCall:
				calls++
				be.True(t, n.Decl() != nil)
			case *ast.Return:
				returns++
				be.True(t, n.EnclosingFunction() != nil)
			}
			if expr, ok := node.(ast.Expr); ok {
				_, typed := expr.ActualType()
				be.True(t, typed)
			}
			return true
		})
	}
	be.Equal(t, refs, 5)
	be.Equal(t, calls, 1)
	be.Equal(t, returns, 1)
}

func TestShadowingBindsInnermost(t *testing.T) {
	program := load(t, `
- func:
    name: f
    type: int
    body:
      - var: {name: x, type: int, init: {int: 1}}
      - seq:
          - var: {name: x, type: float, init: {float: 2}}
          - assign: {lhs: {ref: x}, rhs: {float: 3}}
      - return: {ref: x}
`)
	be.Equal(t, len(analyze(t, program)), 0)

	body := program.Stmts[0].(*ast.Funcdef).Body.(*ast.Seq)
	outer := body.Body[0].(*ast.Vardef)
	inner := body.Body[1].(*ast.Seq).Body[0].(*ast.Vardef)
	assign := body.Body[1].(*ast.Seq).Body[1].(*ast.Assign)
	ret := body.Body[2].(*ast.Return)

	be.True(t, assign.Lhs.(*ast.VarRef).Decl() == inner)
	be.True(t, ret.Expr.(*ast.VarRef).Decl() == outer)

	retType, ok := ret.Expr.ActualType()
	be.True(t, ok)
	be.Equal(t, retType, ast.Int)
}

func TestDuplicateKeepsFirstDeclaration(t *testing.T) {
	first := &ast.Vardef{Formal: ast.Formal{Name: "x", Type: ast.Int}}
	second := &ast.Vardef{Formal: ast.Formal{Name: "x", Type: ast.Float}}
	ref := &ast.VarRef{Name: "x"}
	program := ast.NewProgram(first, second, &ast.ExprStmt{Expr: ref})

	diagnostics := analyze(t, program)
	be.Equal(t, len(diagnostics), 1)
	be.Equal(t, diagnostics[0].Kind, compiler_errors.DuplicateDeclaration)
	be.True(t, diagnostics[0].Node == ast.AstNode(second))
	be.True(t, ref.Decl() == first)
}

func TestTopLevelReturnBelongsToTopLevel(t *testing.T) {
	ret := &ast.Return{}
	program := ast.NewProgram(ret)

	be.Equal(t, len(analyze(t, program)), 0)
	be.True(t, ret.EnclosingFunction() == program.TopLevel())
	be.True(t, program.TopLevel().IsImplicit())
}

func TestExpressionTypes(t *testing.T) {
	sum := &ast.BinOp{Op: ast.Plus, Lhs: &ast.IntLit{Value: 1}, Rhs: &ast.IntLit{Value: 2}}
	less := &ast.BinOp{Op: ast.Lt, Lhs: &ast.FloatLit{Value: 1}, Rhs: &ast.FloatLit{Value: 2}}
	not := &ast.UnOp{Op: ast.BoolNegate, Operand: &ast.BoolLit{Value: true}}
	text := &ast.StringLit{Value: "s"}

	program := ast.NewProgram(
		&ast.ExprStmt{Expr: sum},
		&ast.ExprStmt{Expr: less},
		&ast.ExprStmt{Expr: not},
		&ast.ExprStmt{Expr: text},
	)
	be.Equal(t, len(analyze(t, program)), 0)

	for expr, want := range map[ast.Expr]ast.Type{
		sum:  ast.Int,
		less: ast.Bool,
		not:  ast.Bool,
		text: ast.String,
	} {
		got, ok := expr.ActualType()
		be.True(t, ok)
		be.Equal(t, got, want)
	}
}

func TestMismatchLeavesExpressionUntyped(t *testing.T) {
	sum := &ast.BinOp{Op: ast.Plus, Lhs: &ast.IntLit{Value: 1}, Rhs: &ast.FloatLit{Value: 2}}
	program := ast.NewProgram(&ast.ExprStmt{Expr: sum})

	diagnostics := analyze(t, program)
	be.Equal(t, len(diagnostics), 1)
	be.Equal(t, diagnostics[0].Kind, compiler_errors.TypeMismatch)
	be.Equal(t, diagnostics[0].Kind.Category(), compiler_errors.TypeError)

	_, ok := sum.ActualType()
	be.True(t, !ok)
}

func TestCheckingTwiceIsStable(t *testing.T) {
	program := load(t, `
- var: {name: x, type: float, init: {binop: {op: "*", lhs: {float: 2}, rhs: {float: 3}}}}
- if:
    cond: {binop: {op: ">=", lhs: {ref: x}, rhs: {float: 6}}}
    then: [{assign: {lhs: {ref: x}, rhs: {float: 0}}}]
`)
	be.Equal(t, len(analyze(t, program)), 0)

	eh := compiler_errors.NewErrorHandler(io.Discard)
	NewTypeChecker(eh, program).Check()
	be.Equal(t, eh.HasErrors(), false)
}
