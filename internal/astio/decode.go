package astio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"quill/internal/ast"

	"gopkg.in/yaml.v3"
)

// DecodeError points at the document position that could not be turned into
// an AST node.
type DecodeError struct {
	Line    int
	Column  int
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ast: line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func errorAt(n *yaml.Node, format string, a ...any) error {
	return &DecodeError{Line: n.Line, Column: n.Column, Message: fmt.Sprintf(format, a...)}
}

// LoadFile reads an AST document (YAML or JSON) from path.
func LoadFile(path string) (*ast.Program, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	program, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return program, nil
}

// Decode reads a single AST document whose root node is a Program. JSON input
// is accepted since JSON is a subset of YAML.
func Decode(r io.Reader) (*ast.Program, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("ast: empty document")
		}
		return nil, fmt.Errorf("ast: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		root = root.Content[0]
	}

	node, err := decodeNode(root)
	if err != nil {
		return nil, err
	}
	program, ok := node.(*ast.Program)
	if !ok {
		return nil, errorAt(root, "root node must be %s, got %s", ast.PROGRAM, node.Kind())
	}
	return program, nil
}

type fields struct {
	node   *yaml.Node
	values map[string]*yaml.Node
}

func mapping(n *yaml.Node) (*fields, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errorAt(n, "expected a node mapping")
	}
	f := &fields{node: n, values: make(map[string]*yaml.Node, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		f.values[n.Content[i].Value] = n.Content[i+1]
	}
	return f, nil
}

func (f *fields) optional(names ...string) *yaml.Node {
	for _, name := range names {
		if v, ok := f.values[name]; ok && !isNull(v) {
			return v
		}
	}
	return nil
}

func (f *fields) required(name string) (*yaml.Node, error) {
	v := f.optional(name)
	if v == nil {
		return nil, errorAt(f.node, "missing required field '%s'", name)
	}
	return v, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func (f *fields) str(name string) (string, error) {
	v, err := f.required(name)
	if err != nil {
		return "", err
	}
	if v.Kind != yaml.ScalarNode {
		return "", errorAt(v, "field '%s' must be a scalar", name)
	}
	return v.Value, nil
}

func (f *fields) boolean(name string) (bool, error) {
	v := f.optional(name)
	if v == nil {
		return false, nil
	}
	var b bool
	if err := v.Decode(&b); err != nil {
		return false, errorAt(v, "field '%s' must be a boolean", name)
	}
	return b, nil
}

func (f *fields) strings(name string) ([]string, error) {
	v := f.optional(name)
	if v == nil {
		return []string{}, nil
	}
	if v.Kind != yaml.SequenceNode {
		return nil, errorAt(v, "field '%s' must be a list", name)
	}
	out := make([]string, 0, len(v.Content))
	for _, item := range v.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, errorAt(item, "field '%s' must contain names", name)
		}
		out = append(out, item.Value)
	}
	return out, nil
}

func (f *fields) statements(name string) ([]ast.Statement, error) {
	v := f.optional(name)
	if v == nil {
		return []ast.Statement{}, nil
	}
	if v.Kind != yaml.SequenceNode {
		return nil, errorAt(v, "field '%s' must be a list", name)
	}
	out := make([]ast.Statement, 0, len(v.Content))
	for _, item := range v.Content {
		node, err := decodeNode(item)
		if err != nil {
			return nil, err
		}
		stmt, ok := node.(ast.Statement)
		if !ok {
			return nil, errorAt(item, "%s is not a statement", node.Kind())
		}
		out = append(out, stmt)
	}
	return out, nil
}

func (f *fields) expressions(name string) ([]ast.Expression, error) {
	v := f.optional(name)
	if v == nil {
		return []ast.Expression{}, nil
	}
	if v.Kind != yaml.SequenceNode {
		return nil, errorAt(v, "field '%s' must be a list", name)
	}
	out := make([]ast.Expression, 0, len(v.Content))
	for _, item := range v.Content {
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func (f *fields) expression(names ...string) (ast.Expression, error) {
	v := f.optional(names...)
	if v == nil {
		return nil, errorAt(f.node, "missing required field '%s'", names[0])
	}
	return decodeExpression(v)
}

func (f *fields) optionalExpression(name string) (ast.Expression, error) {
	v := f.optional(name)
	if v == nil {
		return nil, nil
	}
	return decodeExpression(v)
}

func decodeExpression(n *yaml.Node) (ast.Expression, error) {
	node, err := decodeNode(n)
	if err != nil {
		return nil, err
	}
	expr, ok := node.(ast.Expression)
	if !ok {
		return nil, errorAt(n, "%s is not an expression", node.Kind())
	}
	return expr, nil
}

func decodeNode(n *yaml.Node) (ast.Node, error) {
	f, err := mapping(n)
	if err != nil {
		return nil, err
	}
	kind, err := f.str("kind")
	if err != nil {
		return nil, err
	}

	switch ast.NodeType(kind) {
	case ast.PROGRAM:
		body, err := f.statements("body")
		if err != nil {
			return nil, err
		}
		return &ast.Program{Body: body}, nil

	case ast.VAR_DECLARATION:
		name, err := f.str("identifier")
		if err != nil {
			return nil, err
		}
		constant, err := f.boolean("constant")
		if err != nil {
			return nil, err
		}
		value, err := f.optionalExpression("value")
		if err != nil {
			return nil, err
		}
		if constant && value == nil {
			return nil, errorAt(n, "constant '%s' declared without a value", name)
		}
		return &ast.VarDeclaration{Constant: constant, Identifier: name, Value: value}, nil

	case ast.FUNCTION_DECLARATION:
		name, err := f.str("name")
		if err != nil {
			return nil, err
		}
		params, err := f.strings("parameters")
		if err != nil {
			return nil, err
		}
		body, err := f.statements("body")
		if err != nil {
			return nil, err
		}
		return &ast.FunctionDeclaration{Name: name, Parameters: params, Body: body}, nil

	case ast.ASSIGNMENT_EXPR:
		assignee, err := f.expression("assignee", "assigne")
		if err != nil {
			return nil, err
		}
		value, err := f.expression("value")
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentExpr{Assignee: assignee, Value: value}, nil

	case ast.BINARY_EXPR:
		left, err := f.expression("left")
		if err != nil {
			return nil, err
		}
		right, err := f.expression("right")
		if err != nil {
			return nil, err
		}
		operator, err := f.str("operator")
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Left: left, Right: right, Operator: operator}, nil

	case ast.CALL_EXPR:
		caller, err := f.expression("caller")
		if err != nil {
			return nil, err
		}
		args, err := f.expressions("args")
		if err != nil {
			return nil, err
		}
		return &ast.CallExpr{Caller: caller, Args: args}, nil

	case ast.MEMBER_EXPR:
		object, err := f.expression("object")
		if err != nil {
			return nil, err
		}
		property, err := f.expression("property")
		if err != nil {
			return nil, err
		}
		computed, err := f.boolean("computed")
		if err != nil {
			return nil, err
		}
		if _, ok := property.(*ast.Identifier); !computed && !ok {
			return nil, errorAt(n, "non-computed member property must be an %s", ast.IDENTIFIER)
		}
		return &ast.MemberExpr{Object: object, Property: property, Computed: computed}, nil

	case ast.IDENTIFIER:
		symbol, err := f.str("symbol")
		if err != nil {
			return nil, err
		}
		return &ast.Identifier{Symbol: symbol}, nil

	case ast.NUMERIC_LITERAL:
		v, err := f.required("value")
		if err != nil {
			return nil, err
		}
		var value float64
		if err := v.Decode(&value); err != nil {
			return nil, errorAt(v, "numeric literal value '%s' is not a number", v.Value)
		}
		return &ast.NumericLiteral{Value: value}, nil

	case ast.PROPERTY:
		return nil, errorAt(n, "%s is only valid inside an %s", ast.PROPERTY, ast.OBJECT_LITERAL)

	case ast.OBJECT_LITERAL:
		v := f.optional("properties")
		props := []*ast.Property{}
		if v != nil {
			if v.Kind != yaml.SequenceNode {
				return nil, errorAt(v, "field 'properties' must be a list")
			}
			for _, item := range v.Content {
				pf, err := mapping(item)
				if err != nil {
					return nil, err
				}
				if kind, _ := pf.str("kind"); kind != string(ast.PROPERTY) {
					return nil, errorAt(item, "object literal entries must be %s nodes", ast.PROPERTY)
				}
				prop, err := decodeProperty(pf)
				if err != nil {
					return nil, err
				}
				props = append(props, prop)
			}
		}
		return &ast.ObjectLiteral{Properties: props}, nil
	}

	return nil, errorAt(n, "unknown node kind '%s'", kind)
}

func decodeProperty(f *fields) (*ast.Property, error) {
	key, err := f.str("key")
	if err != nil {
		return nil, err
	}
	value, err := f.optionalExpression("value")
	if err != nil {
		return nil, err
	}
	return &ast.Property{Key: key, Value: value}, nil
}
