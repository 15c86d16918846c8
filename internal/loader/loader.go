// Package loader decodes the YAML form of a parsed coal program.
//
// A program is a sequence of statements. Every statement and expression is
// a mapping with a single key naming its kind:
//
//	- func:
//	    name: main
//	    type: int
//	    params: [{name: a, type: int}]
//	    body:
//	      - var: {name: x, type: int, init: {int: 1}}
//	      - assign: {lhs: {ref: x}, rhs: {binop: {op: "+", lhs: {ref: x}, rhs: {ref: a}}}}
//	      - return: {ref: x}
//
// A sequence in statement position is a seq block.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kievzenit/coal/internal/ast"
	"gopkg.in/yaml.v3"
)

type LoadError struct {
	Line    int
	Column  int
	Message string
}

func (e *LoadError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

func errorAt(node *yaml.Node, format string, args ...any) *LoadError {
	return &LoadError{
		Line:    node.Line,
		Column:  node.Column,
		Message: fmt.Sprintf(format, args...),
	}
}

func LoadFile(path string) (*ast.Program, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	program, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}

// Load decodes a single YAML document. An empty document is an empty
// program.
func Load(r io.Reader) (*ast.Program, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return ast.NewProgram(), nil
		}
		return nil, fmt.Errorf("parse program: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return ast.NewProgram(), nil
		}
		root = root.Content[0]
	}

	if isNull(root) {
		return ast.NewProgram(), nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, errorAt(root, "program must be a sequence of statements")
	}

	stmts, err := decodeStmts(root)
	if err != nil {
		return nil, err
	}
	return ast.NewProgram(stmts...), nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func position(node *yaml.Node) ast.Pos {
	return ast.Pos{Line: node.Line, Column: node.Column}
}

// single splits a one-key mapping into its key and value.
func single(node *yaml.Node, what string) (string, *yaml.Node, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return "", nil, errorAt(node, "%s must be a mapping with exactly one key", what)
	}
	return node.Content[0].Value, node.Content[1], nil
}

// fields returns the values of a mapping, rejecting keys outside of
// required and optional and reporting missing required ones.
func fields(node *yaml.Node, kind string, required []string, optional ...string) (map[string]*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errorAt(node, "%s must be a mapping", kind)
	}

	known := make(map[string]bool, len(required)+len(optional))
	for _, name := range required {
		known[name] = true
	}
	for _, name := range optional {
		known[name] = true
	}

	values := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !known[key.Value] {
			return nil, errorAt(key, "field %s not found in %s", key.Value, kind)
		}
		if _, dup := values[key.Value]; dup {
			return nil, errorAt(key, "field %s repeated in %s", key.Value, kind)
		}
		values[key.Value] = node.Content[i+1]
	}

	missing := make([]string, 0)
	for _, name := range required {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errorAt(node, "%s is missing %s", kind, strings.Join(missing, ", "))
	}

	return values, nil
}

func scalar(node *yaml.Node, what string) (string, error) {
	if node.Kind != yaml.ScalarNode || isNull(node) {
		return "", errorAt(node, "%s must be a scalar", what)
	}
	return node.Value, nil
}

func decodeType(node *yaml.Node) (ast.Type, error) {
	name, err := scalar(node, "type")
	if err != nil {
		return ast.Nil, err
	}
	t, ok := ast.ParseType(name)
	if !ok {
		return ast.Nil, errorAt(node, "unknown type %q", name)
	}
	return t, nil
}

func decodeFormal(values map[string]*yaml.Node) (ast.Formal, error) {
	name, err := scalar(values["name"], "name")
	if err != nil {
		return ast.Formal{}, err
	}
	t, err := decodeType(values["type"])
	if err != nil {
		return ast.Formal{}, err
	}
	return ast.Formal{Name: name, Type: t}, nil
}
