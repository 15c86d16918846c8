package compiler_errors

import (
	"fmt"
	"io"
	"os"
)

type CompilerError interface {
	GetMessage() string
}

type ErrorHandler interface {
	AddError(err CompilerError)
	Errors() []CompilerError
	HasErrors() bool
	Report(w io.Writer)
	FailNow()
}

type CompilerErrorHandler struct {
	errors   []CompilerError
	writer   io.Writer
	fileName string
}

func NewErrorHandler(outputWriter io.Writer) *CompilerErrorHandler {
	return &CompilerErrorHandler{
		errors: make([]CompilerError, 0),
		writer: outputWriter,
	}
}

// SetFileName sets the file name prefixed to positioned diagnostics.
func (eh *CompilerErrorHandler) SetFileName(fileName string) {
	eh.fileName = fileName
}

func (eh *CompilerErrorHandler) AddError(err CompilerError) {
	eh.errors = append(eh.errors, err)
}

func (eh *CompilerErrorHandler) Errors() []CompilerError {
	return eh.errors
}

func (eh *CompilerErrorHandler) HasErrors() bool {
	return len(eh.errors) != 0
}

func (eh *CompilerErrorHandler) Report(w io.Writer) {
	for _, err := range eh.errors {
		if d, ok := err.(*Diagnostic); ok && d.Pos.IsValid() && eh.fileName != "" {
			fmt.Fprintf(w, "ERROR: %s:%s: %s\n", eh.fileName, d.Pos, d.GetMessage())
			continue
		}
		fmt.Fprintf(w, "ERROR: %s\n", err.GetMessage())
	}
}

func (eh *CompilerErrorHandler) FailNow() {
	fmt.Fprintln(eh.writer, "Build failed with errors:")
	eh.Report(eh.writer)
	os.Exit(1)
}
