package astio

import (
	"fmt"
	"io"
	"math"
	"quill/internal/ast"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Encode writes program as a YAML AST document that Decode reads back.
func Encode(w io.Writer, program *ast.Program) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(WalkAST(program)); err != nil {
		return fmt.Errorf("ast: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("ast: encoder close: %w", err)
	}
	return nil
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func boolean(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

func float(f float64) *yaml.Node {
	value := strconv.FormatFloat(f, 'g', -1, 64)
	switch {
	case math.IsInf(f, 1):
		value = ".inf"
	case math.IsInf(f, -1):
		value = "-.inf"
	case math.IsNaN(f):
		value = ".nan"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

func seq(items []*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Content: items}
}

// node builds a mapping with kind first and the remaining key/value pairs in
// the given order.
func node(kind ast.NodeType, pairs ...any) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	m.Content = append(m.Content, str("kind"), str(string(kind)))
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Content = append(m.Content, str(pairs[i].(string)), pairs[i+1].(*yaml.Node))
	}
	return m
}

func walkStatements(stmts []ast.Statement) *yaml.Node {
	items := make([]*yaml.Node, len(stmts))
	for i, s := range stmts {
		items[i] = WalkAST(s)
	}
	return seq(items)
}

func walkExpressions(exprs []ast.Expression) *yaml.Node {
	items := make([]*yaml.Node, len(exprs))
	for i, e := range exprs {
		items[i] = WalkAST(e)
	}
	return seq(items)
}

// WalkAST converts an AST into its document tree.
func WalkAST(n ast.Node) *yaml.Node {
	switch n := n.(type) {
	case *ast.Program:
		return node(ast.PROGRAM, "body", walkStatements(n.Body))

	case *ast.VarDeclaration:
		m := node(ast.VAR_DECLARATION, "constant", boolean(n.Constant), "identifier", str(n.Identifier))
		if n.Value != nil {
			m.Content = append(m.Content, str("value"), WalkAST(n.Value))
		}
		return m

	case *ast.FunctionDeclaration:
		params := make([]*yaml.Node, len(n.Parameters))
		for i, p := range n.Parameters {
			params[i] = str(p)
		}
		return node(ast.FUNCTION_DECLARATION,
			"name", str(n.Name),
			"parameters", seq(params),
			"body", walkStatements(n.Body))

	case *ast.AssignmentExpr:
		return node(ast.ASSIGNMENT_EXPR, "assignee", WalkAST(n.Assignee), "value", WalkAST(n.Value))

	case *ast.BinaryExpr:
		return node(ast.BINARY_EXPR,
			"left", WalkAST(n.Left),
			"right", WalkAST(n.Right),
			"operator", str(n.Operator))

	case *ast.CallExpr:
		return node(ast.CALL_EXPR, "caller", WalkAST(n.Caller), "args", walkExpressions(n.Args))

	case *ast.MemberExpr:
		return node(ast.MEMBER_EXPR,
			"object", WalkAST(n.Object),
			"property", WalkAST(n.Property),
			"computed", boolean(n.Computed))

	case *ast.Identifier:
		return node(ast.IDENTIFIER, "symbol", str(n.Symbol))

	case *ast.NumericLiteral:
		return node(ast.NUMERIC_LITERAL, "value", float(n.Value))

	case *ast.Property:
		m := node(ast.PROPERTY, "key", str(n.Key))
		if n.Value != nil {
			m.Content = append(m.Content, str("value"), WalkAST(n.Value))
		}
		return m

	case *ast.ObjectLiteral:
		props := make([]*yaml.Node, len(n.Properties))
		for i, p := range n.Properties {
			props[i] = WalkAST(p)
		}
		return node(ast.OBJECT_LITERAL, "properties", seq(props))
	}

	panic(fmt.Sprintf("astio: unexpected %T node", n))
}
