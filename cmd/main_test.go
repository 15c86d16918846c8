package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kievzenit/coal/internal/compiler_errors"
	"github.com/kievzenit/coal/internal/config"
	"github.com/nalgeon/be"
)

const mainProgram = `
- func:
    name: main
    type: int
    body:
      - return: {int: 0}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	be.Err(t, os.WriteFile(path, []byte(content), 0o644), nil)
	return path
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-emit", "llvm", "-o", "out.ll", "prog.yaml"}, io.Discard)
	be.Err(t, err, nil)
	be.Equal(t, opts.emit, "llvm")
	be.True(t, opts.emitSet)
	be.True(t, !opts.dumpAstSet)
	be.Equal(t, opts.outPath, "out.ll")
	be.Equal(t, opts.fileName, "prog.yaml")

	_, err = parseFlags([]string{"a.yaml", "b.yaml"}, io.Discard)
	be.Err(t, err, "expected one program file, got 2")
}

func TestFlagsAreMergedBeforeValidation(t *testing.T) {
	path := writeFile(t, "coal.yaml", "emit: ir\ntarget_triple: x86_64-pc-linux-gnu\n")

	_, err := loadConfig(options{configPath: path})
	be.Err(t, err, "target_triple requires emit: llvm")

	cfg, err := loadConfig(options{configPath: path, emit: "llvm", emitSet: true})
	be.Err(t, err, nil)
	be.Equal(t, cfg.Emit, config.EmitLLVM)
	be.Equal(t, cfg.TargetTriple, "x86_64-pc-linux-gnu")

	_, err = loadConfig(options{emit: "asm", emitSet: true})
	be.Err(t, err, `unknown emit kind "asm"`)
}

func TestRunWritesOutputFile(t *testing.T) {
	program := writeFile(t, "main.yaml", mainProgram)
	out := filepath.Join(t.TempDir(), "main.ir")

	eh := compiler_errors.NewErrorHandler(io.Discard)
	var stdout bytes.Buffer
	err := run(config.Default(), options{fileName: program, outPath: out}, eh, &stdout)
	be.Err(t, err, nil)
	be.Equal(t, stdout.Len(), 0)

	data, err := os.ReadFile(out)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(string(data), "define i64 @main() {"))
}

func TestRunLeavesNoOutputOnFailure(t *testing.T) {
	program := writeFile(t, "main.yaml", mainProgram)
	out := filepath.Join(t.TempDir(), "main.out")

	cfg := config.Default()
	cfg.Emit = "asm"
	eh := compiler_errors.NewErrorHandler(io.Discard)
	err := run(cfg, options{fileName: program, outPath: out}, eh, io.Discard)
	be.Err(t, err, "cannot render output kind")

	_, err = os.Stat(out)
	be.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunStopsOnDiagnostics(t *testing.T) {
	program := writeFile(t, "bad.yaml", "- expr: {ref: missing}\n")

	eh := compiler_errors.NewErrorHandler(io.Discard)
	var stdout bytes.Buffer
	err := run(config.Default(), options{fileName: program}, eh, &stdout)
	be.Err(t, err, errDiagnostics)
	be.Equal(t, len(eh.Errors()), 1)
	be.Equal(t, stdout.Len(), 0)
}
