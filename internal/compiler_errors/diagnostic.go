package compiler_errors

import (
	"fmt"

	"github.com/kievzenit/coal/internal/ast"
)

type Category int

const (
	BindingError Category = iota
	TypeError
)

func (c Category) String() string {
	if c == BindingError {
		return "binding error"
	}
	return "type error"
}

type Kind int

const (
	NameNotFound Kind = iota
	DuplicateDeclaration
	NotAVariable
	NotAFunction
	CaptureNotSupported

	TypeMismatch
	InvalidOperandType
	ArgumentTypeMismatch
	AssignmentTypeMismatch
	InitializerTypeMismatch
	ReturnTypeMismatch
	ArityMismatch
	InvalidConditionType
	InvalidAssignmentTarget
	NilVariable
)

var kindNames = [...]string{
	NameNotFound:            "NameNotFound",
	DuplicateDeclaration:    "DuplicateDeclaration",
	NotAVariable:            "NotAVariable",
	NotAFunction:            "NotAFunction",
	CaptureNotSupported:     "CaptureNotSupported",
	TypeMismatch:            "TypeMismatch",
	InvalidOperandType:      "InvalidOperandType",
	ArgumentTypeMismatch:    "ArgumentTypeMismatch",
	AssignmentTypeMismatch:  "AssignmentTypeMismatch",
	InitializerTypeMismatch: "InitializerTypeMismatch",
	ReturnTypeMismatch:      "ReturnTypeMismatch",
	ArityMismatch:           "ArityMismatch",
	InvalidConditionType:    "InvalidConditionType",
	InvalidAssignmentTarget: "InvalidAssignmentTarget",
	NilVariable:             "NilVariable",
}

func (k Kind) String() string { return kindNames[k] }

func (k Kind) Category() Category {
	if k <= CaptureNotSupported {
		return BindingError
	}
	return TypeError
}

// Diagnostic is a user-facing defect found by the binder or the type
// checker. Node is the offending node in the program tree.
type Diagnostic struct {
	Kind    Kind
	Node    ast.AstNode
	Pos     ast.Pos
	Message string
}

func NewDiagnostic(kind Kind, node ast.AstNode, format string, args ...any) *Diagnostic {
	d := &Diagnostic{
		Kind:    kind,
		Node:    node,
		Message: fmt.Sprintf(format, args...),
	}
	if node != nil {
		d.Pos = node.Position()
	}
	return d
}

func (d *Diagnostic) GetMessage() string { return d.Message }

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Kind.Category(), d.Message)
}

// String renders the diagnostic as "Kind: message", the form used by
// fixture suites.
func (d *Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// InternalError reports a broken invariant in the code generator. It is
// never caused by user input that passed binding and type checking.
type InternalError struct {
	Message string
}

func NewInternalError(format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}

func (e *InternalError) GetMessage() string { return e.Message }

func (e *InternalError) Error() string {
	return "internal compiler error: " + e.Message
}

// Diagnostics filters the Diagnostic values out of errs.
func Diagnostics(errs []CompilerError) []*Diagnostic {
	diagnostics := make([]*Diagnostic, 0, len(errs))
	for _, err := range errs {
		if d, ok := err.(*Diagnostic); ok {
			diagnostics = append(diagnostics, d)
		}
	}
	return diagnostics
}
