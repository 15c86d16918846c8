package loader

import (
	"github.com/kievzenit/coal/internal/ast"
	"gopkg.in/yaml.v3"
)

func decodeStmts(node *yaml.Node) ([]ast.Stmt, error) {
	stmts := make([]ast.Stmt, 0, len(node.Content))
	for _, item := range node.Content {
		stmt, err := decodeStmt(item)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func decodeStmt(node *yaml.Node) (ast.Stmt, error) {
	if node.Kind == yaml.SequenceNode {
		body, err := decodeStmts(node)
		if err != nil {
			return nil, err
		}
		return &ast.Seq{Start: position(node), Body: body}, nil
	}

	kind, value, err := single(node, "statement")
	if err != nil {
		return nil, err
	}
	start := position(node)

	switch kind {
	case "assign":
		return decodeAssign(start, value)
	case "while":
		return decodeWhile(start, value)
	case "seq":
		if value.Kind != yaml.SequenceNode {
			return nil, errorAt(value, "seq must be a sequence of statements")
		}
		body, err := decodeStmts(value)
		if err != nil {
			return nil, err
		}
		return &ast.Seq{Start: start, Body: body}, nil
	case "if":
		return decodeIf(start, value)
	case "var":
		return decodeVardef(start, value)
	case "func":
		return decodeFuncdef(start, value)
	case "expr":
		expr, err := decodeExpr(value)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Expr: expr}, nil
	case "return":
		ret := &ast.Return{Start: start}
		if !isNull(value) {
			expr, err := decodeExpr(value)
			if err != nil {
				return nil, err
			}
			ret.Expr = expr
		}
		return ret, nil
	default:
		return nil, errorAt(node.Content[0], "unknown statement %s", kind)
	}
}

func decodeAssign(start ast.Pos, node *yaml.Node) (ast.Stmt, error) {
	values, err := fields(node, "assign", []string{"lhs", "rhs"})
	if err != nil {
		return nil, err
	}

	lhs, err := decodeExpr(values["lhs"])
	if err != nil {
		return nil, err
	}
	rhs, err := decodeExpr(values["rhs"])
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Start: start, Lhs: lhs, Rhs: rhs}, nil
}

func decodeWhile(start ast.Pos, node *yaml.Node) (ast.Stmt, error) {
	values, err := fields(node, "while", []string{"cond", "body"})
	if err != nil {
		return nil, err
	}

	cond, err := decodeExpr(values["cond"])
	if err != nil {
		return nil, err
	}
	body, err := decodeStmt(values["body"])
	if err != nil {
		return nil, err
	}
	return &ast.While{Start: start, Cond: cond, Body: body}, nil
}

func decodeIf(start ast.Pos, node *yaml.Node) (ast.Stmt, error) {
	values, err := fields(node, "if", []string{"cond", "then"}, "else")
	if err != nil {
		return nil, err
	}

	cond, err := decodeExpr(values["cond"])
	if err != nil {
		return nil, err
	}
	body, err := decodeStmt(values["then"])
	if err != nil {
		return nil, err
	}

	ifThenElse := &ast.IfThenElse{Start: start, Cond: cond, Body: body}
	if elseNode, ok := values["else"]; ok && !isNull(elseNode) {
		ifThenElse.ElseBody, err = decodeStmt(elseNode)
		if err != nil {
			return nil, err
		}
	}
	return ifThenElse, nil
}

func decodeVardef(start ast.Pos, node *yaml.Node) (ast.Stmt, error) {
	values, err := fields(node, "var", []string{"name", "type"}, "init")
	if err != nil {
		return nil, err
	}

	formal, err := decodeFormal(values)
	if err != nil {
		return nil, err
	}

	vardef := &ast.Vardef{Start: start, Formal: formal}
	if initNode, ok := values["init"]; ok && !isNull(initNode) {
		vardef.Init, err = decodeExpr(initNode)
		if err != nil {
			return nil, err
		}
	}
	return vardef, nil
}

func decodeFuncdef(start ast.Pos, node *yaml.Node) (ast.Stmt, error) {
	values, err := fields(node, "func", []string{"name", "type", "body"}, "params")
	if err != nil {
		return nil, err
	}

	formal, err := decodeFormal(values)
	if err != nil {
		return nil, err
	}

	funcdef := &ast.Funcdef{Start: start, Formal: formal, Params: make([]*ast.Vardef, 0)}
	if paramsNode, ok := values["params"]; ok && !isNull(paramsNode) {
		if paramsNode.Kind != yaml.SequenceNode {
			return nil, errorAt(paramsNode, "params must be a sequence")
		}
		for _, paramNode := range paramsNode.Content {
			paramValues, err := fields(paramNode, "param", []string{"name", "type"})
			if err != nil {
				return nil, err
			}
			paramFormal, err := decodeFormal(paramValues)
			if err != nil {
				return nil, err
			}

			param := ast.NewParam(paramFormal.Name, paramFormal.Type)
			param.Start = position(paramNode)
			funcdef.Params = append(funcdef.Params, param)
		}
	}

	funcdef.Body, err = decodeStmt(values["body"])
	if err != nil {
		return nil, err
	}
	return funcdef, nil
}
