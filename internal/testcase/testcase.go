// Package testcase extracts compiler test cases from Markdown documents.
//
// A test case starts at a heading of the form "Test: <name>" and holds
// exactly one input fence plus one or more assertion fences:
//
//	## Test: counter
//	```coal
//	- var: {name: x, type: int, init: {int: 1}}
//	```
//	```diagnostics
//	```
package testcase

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType is the language of an input fence.
type InputType string

const (
	InputTypeCoal InputType = "coal"
)

// AssertionType is the language of an assertion fence.
type AssertionType string

const (
	// AssertionTypeDiagnostics lists the expected diagnostics one per line
	// as "Kind: message"; an empty fence expects none.
	AssertionTypeDiagnostics AssertionType = "diagnostics"
	// AssertionTypeIRFunc holds the expected text of one generated
	// function.
	AssertionTypeIRFunc AssertionType = "ir-func"
	// AssertionTypeIRGlobals lists the expected module globals.
	AssertionTypeIRGlobals AssertionType = "ir-globals"
)

type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

type TestCase struct {
	Name       string
	Input      string
	InputType  InputType
	Assertions []Assertion
}

// FuncName returns the function an ir-func assertion describes.
func (a Assertion) FuncName() (string, bool) {
	if a.Type != AssertionTypeIRFunc {
		return "", false
	}
	_, rest, ok := strings.Cut(a.Content, "@")
	if !ok {
		return "", false
	}
	name, _, ok := strings.Cut(rest, "(")
	return name, ok
}

// ExtractTestCasesFromFile reads path and extracts its test cases.
func ExtractTestCasesFromFile(path string) ([]TestCase, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	testCases, err := ExtractTestCases(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return testCases, nil
}

// ExtractTestCases parses a Markdown document and extracts all test cases.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)

	doc := md.Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var currentTestCase *TestCase

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			if !strings.HasPrefix(headingText, "Test: ") {
				return ast.WalkContinue, nil
			}

			if currentTestCase != nil {
				if err := validateTestCase(currentTestCase); err != nil {
					return ast.WalkStop, err
				}
				testCases = append(testCases, *currentTestCase)
			}

			currentTestCase = &TestCase{
				Name:       strings.TrimPrefix(headingText, "Test: "),
				Assertions: []Assertion{},
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			content := extractCodeBlockContent(n, source)
			lineNum := getLineNumber(n, source)

			if currentTestCase == nil {
				if language != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
				}
				return ast.WalkContinue, nil
			}

			switch {
			case isInputFence(language):
				if currentTestCase.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences found in test '%s'", lineNum, currentTestCase.Name)
				}
				currentTestCase.Input = strings.TrimRight(content, "\n")
				currentTestCase.InputType = InputType(language)
			case isAssertionFence(language):
				currentTestCase.Assertions = append(currentTestCase.Assertions, Assertion{
					Type:    AssertionType(language),
					Content: strings.TrimRight(content, "\n"),
					Line:    lineNum,
				})
			case language != "":
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", lineNum, language, currentTestCase.Name)
			}
		}

		return ast.WalkContinue, nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if currentTestCase != nil {
		if err := validateTestCase(currentTestCase); err != nil {
			return nil, err
		}
		testCases = append(testCases, *currentTestCase)
	}

	return testCases, nil
}

func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer

	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}

	return buf.String()
}

func isInputFence(language string) bool {
	return language == string(InputTypeCoal)
}

func isAssertionFence(language string) bool {
	return language == string(AssertionTypeDiagnostics) ||
		language == string(AssertionTypeIRFunc) ||
		language == string(AssertionTypeIRGlobals)
}

func validateTestCase(testCase *TestCase) error {
	if testCase.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", testCase.Name)
	}
	if len(testCase.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", testCase.Name)
	}
	return nil
}

// getLineNumber returns the 1-based line of the first line of node.
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}

	startPos := node.Lines().At(0).Start
	return bytes.Count(source[:min(startPos, len(source))], []byte("\n")) + 1
}
