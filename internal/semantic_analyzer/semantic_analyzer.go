package semantic_analyzer

import (
	"github.com/kievzenit/coal/internal/ast"
	"github.com/kievzenit/coal/internal/compiler_errors"
)

// SemanticAnalyzer runs the binder and then the type checker over a
// program. Both passes accumulate diagnostics in the shared handler.
type SemanticAnalyzer struct {
	eh      compiler_errors.ErrorHandler
	program *ast.Program
}

func NewSemanticAnalyzer(eh compiler_errors.ErrorHandler, program *ast.Program) *SemanticAnalyzer {
	return &SemanticAnalyzer{
		eh:      eh,
		program: program,
	}
}

// Analyze reports whether the program is free of diagnostics and may be
// handed to the code generator.
func (sa *SemanticAnalyzer) Analyze() bool {
	before := len(sa.eh.Errors())

	NewBinder(sa.eh, sa.program).Bind()
	// Unresolved names leave expressions untyped, so checking after a
	// failed bind does not repeat the binder's diagnostics.
	NewTypeChecker(sa.eh, sa.program).Check()

	return len(sa.eh.Errors()) == before
}
