package loader

import (
	"github.com/kievzenit/coal/internal/ast"
	"gopkg.in/yaml.v3"
)

func decodeExpr(node *yaml.Node) (ast.Expr, error) {
	kind, value, err := single(node, "expression")
	if err != nil {
		return nil, err
	}
	start := position(node)

	switch kind {
	case "ref":
		name, err := scalar(value, "ref")
		if err != nil {
			return nil, err
		}
		return &ast.VarRef{Start: start, Name: name}, nil
	case "int":
		var v int64
		if err := decodeScalar(value, &v, "int"); err != nil {
			return nil, err
		}
		return &ast.IntLit{Start: start, Value: v}, nil
	case "float":
		var v float64
		if err := decodeScalar(value, &v, "float"); err != nil {
			return nil, err
		}
		return &ast.FloatLit{Start: start, Value: v}, nil
	case "string":
		var v string
		if err := decodeScalar(value, &v, "string"); err != nil {
			return nil, err
		}
		return &ast.StringLit{Start: start, Value: v}, nil
	case "bool":
		var v bool
		if err := decodeScalar(value, &v, "bool"); err != nil {
			return nil, err
		}
		return &ast.BoolLit{Start: start, Value: v}, nil
	case "call":
		return decodeCall(start, value)
	case "binop":
		return decodeBinOp(start, value)
	case "unop":
		return decodeUnOp(start, value)
	default:
		return nil, errorAt(node.Content[0], "unknown expression %s", kind)
	}
}

func decodeScalar(node *yaml.Node, out any, what string) error {
	if node.Kind != yaml.ScalarNode || isNull(node) {
		return errorAt(node, "%s literal must be a scalar", what)
	}
	if err := node.Decode(out); err != nil {
		return errorAt(node, "invalid %s literal %q", what, node.Value)
	}
	return nil
}

func decodeCall(start ast.Pos, node *yaml.Node) (ast.Expr, error) {
	values, err := fields(node, "call", []string{"name"}, "args")
	if err != nil {
		return nil, err
	}

	name, err := scalar(values["name"], "name")
	if err != nil {
		return nil, err
	}

	call := &ast.FuncCall{Start: start, Name: name, Args: make([]ast.Expr, 0)}
	if argsNode, ok := values["args"]; ok && !isNull(argsNode) {
		if argsNode.Kind != yaml.SequenceNode {
			return nil, errorAt(argsNode, "args must be a sequence")
		}
		for _, argNode := range argsNode.Content {
			arg, err := decodeExpr(argNode)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
		}
	}
	return call, nil
}

func decodeBinOp(start ast.Pos, node *yaml.Node) (ast.Expr, error) {
	values, err := fields(node, "binop", []string{"op", "lhs", "rhs"})
	if err != nil {
		return nil, err
	}

	symbol, err := scalar(values["op"], "op")
	if err != nil {
		return nil, err
	}
	op, ok := ast.ParseBinaryOp(symbol)
	if !ok {
		return nil, errorAt(values["op"], "unknown binary operator %q", symbol)
	}

	lhs, err := decodeExpr(values["lhs"])
	if err != nil {
		return nil, err
	}
	rhs, err := decodeExpr(values["rhs"])
	if err != nil {
		return nil, err
	}
	return &ast.BinOp{Start: start, Op: op, Lhs: lhs, Rhs: rhs}, nil
}

func decodeUnOp(start ast.Pos, node *yaml.Node) (ast.Expr, error) {
	values, err := fields(node, "unop", []string{"op", "operand"})
	if err != nil {
		return nil, err
	}

	symbol, err := scalar(values["op"], "op")
	if err != nil {
		return nil, err
	}
	op, ok := ast.ParseUnaryOp(symbol)
	if !ok {
		return nil, errorAt(values["op"], "unknown unary operator %q", symbol)
	}

	operand, err := decodeExpr(values["operand"])
	if err != nil {
		return nil, err
	}
	return &ast.UnOp{Start: start, Op: op, Operand: operand}, nil
}
