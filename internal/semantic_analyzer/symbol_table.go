package semantic_analyzer

import (
	"errors"
	"fmt"

	"github.com/kievzenit/coal/internal/ast"
)

var ErrDuplicateDeclaration = errors.New("duplicate declaration")

// A declaration is either an *ast.Vardef or an *ast.Funcdef.
type scope struct {
	// owner is the function whose frame holds the scope's variables. It is
	// nil for the outermost (global) scope.
	owner   *ast.Funcdef
	symbols map[string]ast.Stmt
}

// Symbol is the result of a successful lookup.
type Symbol struct {
	Decl  ast.Stmt
	Owner *ast.Funcdef
}

func (s Symbol) IsGlobal() bool { return s.Owner == nil }

// SymbolTable is a stack of lexical scopes. It always holds at least the
// global scope.
type SymbolTable struct {
	scopes []*scope
}

func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{}
	st.PushScope(nil)
	return st
}

func (st *SymbolTable) PushScope(owner *ast.Funcdef) {
	st.scopes = append(st.scopes, &scope{
		owner:   owner,
		symbols: make(map[string]ast.Stmt),
	})
}

func (st *SymbolTable) PopScope() {
	if len(st.scopes) == 1 {
		panic("cannot pop the global scope")
	}
	st.scopes = st.scopes[:len(st.scopes)-1]
}

func (st *SymbolTable) Depth() int {
	return len(st.scopes)
}

// Insert adds decl to the innermost scope. Shadowing a name from an outer
// scope is allowed; redeclaring it in the same scope is not.
func (st *SymbolTable) Insert(name string, decl ast.Stmt) error {
	innermost := st.scopes[len(st.scopes)-1]
	if _, ok := innermost.symbols[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDeclaration, name)
	}
	innermost.symbols[name] = decl
	return nil
}

// Find searches from the innermost scope outwards.
func (st *SymbolTable) Find(name string) (Symbol, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if decl, ok := st.scopes[i].symbols[name]; ok {
			return Symbol{Decl: decl, Owner: st.scopes[i].owner}, true
		}
	}
	return Symbol{}, false
}
