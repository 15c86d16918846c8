package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kievzenit/coal/internal/ast"
	"github.com/nalgeon/be"
)

func load(t *testing.T, source string) *ast.Program {
	t.Helper()
	program, err := Load(strings.NewReader(source))
	be.Err(t, err, nil)
	return program
}

func TestLoadFunction(t *testing.T) {
	program := load(t, `
- func:
    name: main
    type: int
    params:
      - {name: a, type: int}
    body:
      - var: {name: x, type: int, init: {int: 1}}
      - assign: {lhs: {ref: x}, rhs: {binop: {op: "+", lhs: {ref: x}, rhs: {ref: a}}}}
      - return: {ref: x}
`)

	be.Equal(t, len(program.Stmts), 1)
	funcdef, ok := program.Stmts[0].(*ast.Funcdef)
	be.True(t, ok)
	be.Equal(t, funcdef.Formal, ast.Formal{Name: "main", Type: ast.Int})
	be.Equal(t, funcdef.Position(), ast.Pos{Line: 2, Column: 3})

	be.Equal(t, len(funcdef.Params), 1)
	be.True(t, funcdef.Params[0].Param)
	be.Equal(t, funcdef.Params[0].Formal.Name, "a")

	body, ok := funcdef.Body.(*ast.Seq)
	be.True(t, ok)
	be.Equal(t, len(body.Body), 3)

	vardef := body.Body[0].(*ast.Vardef)
	be.Equal(t, vardef.Formal, ast.Formal{Name: "x", Type: ast.Int})
	be.Equal(t, vardef.Init.(*ast.IntLit).Value, int64(1))

	assign := body.Body[1].(*ast.Assign)
	binOp := assign.Rhs.(*ast.BinOp)
	be.Equal(t, binOp.Op, ast.Plus)
	be.Equal(t, binOp.Rhs.(*ast.VarRef).Name, "a")

	ret := body.Body[2].(*ast.Return)
	be.Equal(t, ret.Expr.(*ast.VarRef).Name, "x")
}

func TestLoadLiterals(t *testing.T) {
	program := load(t, `
- expr: {int: -42}
- expr: {float: 2.5}
- expr: {float: 3}
- expr: {string: "hi there"}
- expr: {bool: true}
- expr: {call: {name: f, args: [{int: 1}, {ref: y}]}}
- expr: {unop: {op: "!", operand: {bool: false}}}
`)

	exprs := make([]ast.Expr, len(program.Stmts))
	for i, stmt := range program.Stmts {
		exprs[i] = stmt.(*ast.ExprStmt).Expr
	}

	be.Equal(t, exprs[0].(*ast.IntLit).Value, int64(-42))
	be.Equal(t, exprs[1].(*ast.FloatLit).Value, 2.5)
	be.Equal(t, exprs[2].(*ast.FloatLit).Value, 3.0)
	be.Equal(t, exprs[3].(*ast.StringLit).Value, "hi there")
	be.True(t, exprs[4].(*ast.BoolLit).Value)

	call := exprs[5].(*ast.FuncCall)
	be.Equal(t, call.Name, "f")
	be.Equal(t, len(call.Args), 2)

	unOp := exprs[6].(*ast.UnOp)
	be.Equal(t, unOp.Op, ast.BoolNegate)
}

func TestLoadControlFlow(t *testing.T) {
	program := load(t, `
- while:
    cond: {binop: {op: "<", lhs: {ref: i}, rhs: {int: 10}}}
    body:
      - expr: {unop: {op: "++", operand: {ref: i}}}
- if:
    cond: {bool: true}
    then: {seq: []}
- if:
    cond: {bool: false}
    then: [{return: null}]
    else: [{return: ~}]
`)

	be.Equal(t, len(program.Stmts), 3)

	while := program.Stmts[0].(*ast.While)
	be.Equal(t, while.Cond.(*ast.BinOp).Op, ast.Lt)
	_, isSeq := while.Body.(*ast.Seq)
	be.True(t, isSeq)

	noElse := program.Stmts[1].(*ast.IfThenElse)
	be.True(t, noElse.ElseBody == nil)
	be.Equal(t, len(noElse.Body.(*ast.Seq).Body), 0)

	withElse := program.Stmts[2].(*ast.IfThenElse)
	be.True(t, withElse.ElseBody != nil)
	ret := withElse.ElseBody.(*ast.Seq).Body[0].(*ast.Return)
	be.True(t, ret.Expr == nil)
}

func TestLoadEmptyProgram(t *testing.T) {
	be.Equal(t, len(load(t, "").Stmts), 0)
	be.Equal(t, len(load(t, "[]").Stmts), 0)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
	}{
		{"not a sequence", "{var: x}", "1:1: program must be a sequence of statements"},
		{"unknown statement", "- loop: {}", "1:3: unknown statement loop"},
		{"two keys", "- {expr: {int: 1}, return: null}", "statement must be a mapping with exactly one key"},
		{"unknown field", "- var: {name: x, type: int, value: {int: 1}}", "field value not found in var"},
		{"missing field", "- var: {name: x}", "var is missing type"},
		{"unknown type", "- var: {name: x, type: long}", `unknown type "long"`},
		{"bad int", "- expr: {int: abc}", `invalid int literal "abc"`},
		{"unknown expression", "- expr: {lambda: 1}", "unknown expression lambda"},
		{"unknown operator", `- expr: {binop: {op: "%", lhs: {int: 1}, rhs: {int: 2}}}`, `unknown binary operator "%"`},
		{"unknown unary", `- expr: {unop: {op: "~", operand: {int: 1}}}`, `unknown unary operator "~"`},
		{"bad params", "- func: {name: f, type: nil, params: {a: int}, body: []}", "params must be a sequence"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(test.source))
			be.Err(t, err, test.message)

			var loadErr *LoadError
			be.True(t, errors.As(err, &loadErr))
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.yaml")
	be.Err(t, os.WriteFile(path, []byte("- expr: {bool: 1.5}\n"), 0o644), nil)

	_, err := LoadFile(path)
	be.Err(t, err)
	be.True(t, strings.HasPrefix(err.Error(), path+": 1:16:"))

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	be.Err(t, err, os.ErrNotExist)
}
