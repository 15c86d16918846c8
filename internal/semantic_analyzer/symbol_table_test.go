package semantic_analyzer

import (
	"errors"
	"testing"

	"github.com/kievzenit/coal/internal/ast"
	"github.com/nalgeon/be"
)

func TestSymbolTableShadowing(t *testing.T) {
	st := NewSymbolTable()
	outer := &ast.Vardef{Formal: ast.Formal{Name: "x", Type: ast.Int}}
	inner := &ast.Vardef{Formal: ast.Formal{Name: "x", Type: ast.Bool}}
	fn := &ast.Funcdef{Formal: ast.Formal{Name: "f", Type: ast.Nil}}

	be.Err(t, st.Insert("x", outer), nil)
	st.PushScope(fn)
	be.Equal(t, st.Depth(), 2)
	be.Err(t, st.Insert("x", inner), nil)

	symbol, ok := st.Find("x")
	be.True(t, ok)
	be.True(t, symbol.Decl == ast.Stmt(inner))
	be.True(t, symbol.Owner == fn)
	be.True(t, !symbol.IsGlobal())

	st.PopScope()
	symbol, ok = st.Find("x")
	be.True(t, ok)
	be.True(t, symbol.Decl == ast.Stmt(outer))
	be.True(t, symbol.IsGlobal())
}

func TestSymbolTableDuplicate(t *testing.T) {
	st := NewSymbolTable()
	first := &ast.Vardef{Formal: ast.Formal{Name: "x", Type: ast.Int}}

	be.Err(t, st.Insert("x", first), nil)
	err := st.Insert("x", &ast.Vardef{Formal: ast.Formal{Name: "x", Type: ast.Int}})
	be.True(t, errors.Is(err, ErrDuplicateDeclaration))

	symbol, _ := st.Find("x")
	be.True(t, symbol.Decl == ast.Stmt(first))
}

func TestSymbolTableMissing(t *testing.T) {
	st := NewSymbolTable()
	_, ok := st.Find("nothing")
	be.True(t, !ok)
}

func TestSymbolTableKeepsGlobalScope(t *testing.T) {
	st := NewSymbolTable()
	defer func() {
		be.True(t, recover() != nil)
		be.Equal(t, st.Depth(), 1)
	}()
	st.PopScope()
}
