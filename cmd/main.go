package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kievzenit/coal/internal/ast"
	"github.com/kievzenit/coal/internal/compiler_errors"
	"github.com/kievzenit/coal/internal/config"
	"github.com/kievzenit/coal/internal/emitter"
	"github.com/kievzenit/coal/internal/ir"
	"github.com/kievzenit/coal/internal/llvm_backend"
	"github.com/kievzenit/coal/internal/loader"
	"github.com/kievzenit/coal/internal/semantic_analyzer"
	"github.com/sanity-io/litter"
)

var errDiagnostics = errors.New("program has errors")

type options struct {
	configPath string
	emit       string
	emitSet    bool
	dumpAst    bool
	dumpAstSet bool
	outPath    string
	verbose    bool
	fileName   string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	eh := compiler_errors.NewErrorHandler(os.Stderr)
	if err := run(cfg, opts, eh, os.Stdout); err != nil {
		if errors.Is(err, errDiagnostics) {
			eh.FailNow()
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("coalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to a coal.yaml config file")
	fs.StringVar(&opts.emit, "emit", "", "output kind: ir, llvm or none")
	fs.BoolVar(&opts.dumpAst, "dump-ast", false, "dump the analyzed program to stderr")
	fs.StringVar(&opts.outPath, "o", "", "output file (default stdout)")
	fs.BoolVar(&opts.verbose, "v", false, "report progress on stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: coalc [flags] program.yaml\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, fmt.Errorf("expected one program file, got %d", fs.NArg())
	}
	opts.fileName = fs.Arg(0)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "emit":
			opts.emitSet = true
		case "dump-ast":
			opts.dumpAstSet = true
		}
	})
	return opts, nil
}

// loadConfig merges the flags over the config file and validates the
// merged settings.
func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		read, err := config.Read(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = read
	}

	if opts.emitSet {
		cfg.Emit = config.EmitKind(opts.emit)
	}
	if opts.dumpAstSet {
		cfg.DumpAst = opts.dumpAst
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config, opts options, eh *compiler_errors.CompilerErrorHandler, stdout io.Writer) error {
	logf := func(format string, args ...any) {
		if opts.verbose {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	logf("loading %s", opts.fileName)
	program, err := loader.LoadFile(opts.fileName)
	if err != nil {
		return err
	}

	eh.SetFileName(opts.fileName)
	logf("analyzing %d top-level statements", len(program.Stmts))
	if !semantic_analyzer.NewSemanticAnalyzer(eh, program).Analyze() {
		return errDiagnostics
	}

	if cfg.DumpAst {
		fmt.Fprintln(os.Stderr, litter.Sdump(program))
	}

	if cfg.Emit == config.EmitNone {
		logf("no errors")
		return nil
	}

	output, err := render(cfg, program, logf)
	if err != nil {
		return err
	}

	if opts.outPath != "" {
		return os.WriteFile(opts.outPath, output, 0o644)
	}
	_, err = stdout.Write(output)
	return err
}

// render builds the whole output in memory. Nothing is written until
// every stage has succeeded.
func render(cfg *config.Config, program *ast.Program, logf func(string, ...any)) ([]byte, error) {
	logf("emitting module %s", cfg.Module)
	module, err := emitter.NewEmitter(program, cfg.Module).Emit()
	if err != nil {
		return nil, err
	}

	switch cfg.Emit {
	case config.EmitIR:
		var buf bytes.Buffer
		if err := ir.Fprint(&buf, module); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case config.EmitLLVM:
		logf("lowering to llvm")
		backend := llvm_backend.NewBackend(module)
		backend.Verify = cfg.Verify
		lowered, err := backend.Lower(cfg.TargetTriple)
		if err != nil {
			return nil, err
		}
		defer lowered.Dispose()
		return []byte(lowered.String()), nil
	default:
		return nil, fmt.Errorf("cannot render output kind %q", cfg.Emit)
	}
}
