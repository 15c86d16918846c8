package compiler_errors

import (
	"bytes"
	"testing"

	"github.com/kievzenit/coal/internal/ast"
	"github.com/nalgeon/be"
)

func TestDiagnosticFormats(t *testing.T) {
	ref := &ast.VarRef{Start: ast.Pos{Line: 2, Column: 5}, Name: "y"}
	d := NewDiagnostic(NameNotFound, ref, "variable %s not defined", ref.Name)

	be.Equal(t, d.Pos, ast.Pos{Line: 2, Column: 5})
	be.Equal(t, d.String(), "NameNotFound: variable y not defined")
	be.Equal(t, d.Error(), "binding error: variable y not defined")
	be.Equal(t, ReturnTypeMismatch.Category(), TypeError)
	be.Equal(t, CaptureNotSupported.Category(), BindingError)
}

func TestReport(t *testing.T) {
	eh := NewErrorHandler(&bytes.Buffer{})
	eh.SetFileName("main.yaml")
	eh.AddError(NewDiagnostic(
		NilVariable,
		&ast.Vardef{Start: ast.Pos{Line: 4, Column: 3}},
		"variable %s cannot have type nil", "v",
	))
	eh.AddError(NewDiagnostic(TypeMismatch, nil, "unpositioned"))
	eh.AddError(NewInternalError("broken %d", 1))

	var out bytes.Buffer
	eh.Report(&out)
	be.Equal(t, out.String(),
		"ERROR: main.yaml:4:3: variable v cannot have type nil\n"+
			"ERROR: unpositioned\n"+
			"ERROR: broken 1\n")

	be.True(t, eh.HasErrors())
	be.Equal(t, len(Diagnostics(eh.Errors())), 2)
}

func TestInternalError(t *testing.T) {
	err := NewInternalError("no slot for %s", "x")
	be.Equal(t, err.Error(), "internal compiler error: no slot for x")
}
