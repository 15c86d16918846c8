package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type EmitKind string

const (
	EmitIR   EmitKind = "ir"
	EmitLLVM EmitKind = "llvm"
	EmitNone EmitKind = "none"
)

func ParseEmitKind(value string) (EmitKind, error) {
	switch kind := EmitKind(value); kind {
	case EmitIR, EmitLLVM, EmitNone:
		return kind, nil
	default:
		return "", fmt.Errorf("config: unknown emit kind %q (want ir, llvm or none)", value)
	}
}

// Config holds the driver settings; command-line flags override it.
type Config struct {
	Module       string   `yaml:"module"`
	Emit         EmitKind `yaml:"emit"`
	DumpAst      bool     `yaml:"dump_ast"`
	Verify       bool     `yaml:"verify"`
	TargetTriple string   `yaml:"target_triple"`
}

func Default() *Config {
	return &Config{
		Module: "main",
		Emit:   EmitIR,
		Verify: true,
	}
}

// Load reads path over the defaults and validates the result. Unknown
// keys are rejected.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that merge further
// settings over the file before validating.
func Read(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Module == "" {
		return fmt.Errorf("config: module name must not be empty")
	}
	if _, err := ParseEmitKind(string(c.Emit)); err != nil {
		return err
	}
	if c.TargetTriple != "" && c.Emit != EmitLLVM {
		return fmt.Errorf("config: target_triple requires emit: llvm")
	}
	return nil
}
