package ast

import (
	"bytes"
	"strconv"
	"strings"
)

type NodeType string

const (
	PROGRAM              NodeType = "Program"
	VAR_DECLARATION      NodeType = "VarDeclaration"
	FUNCTION_DECLARATION NodeType = "FunctionDeclaration"
	ASSIGNMENT_EXPR      NodeType = "AssignmentExpr"
	MEMBER_EXPR          NodeType = "MemberExpr"
	CALL_EXPR            NodeType = "CallExpr"
	PROPERTY             NodeType = "Property"
	OBJECT_LITERAL       NodeType = "ObjectLiteral"
	NUMERIC_LITERAL      NodeType = "NumericLiteral"
	IDENTIFIER           NodeType = "Identifier"
	BINARY_EXPR          NodeType = "BinaryExpr"
)

// NodeTypes lists every kind an AST producer may emit.
var NodeTypes = []NodeType{
	PROGRAM,
	VAR_DECLARATION,
	FUNCTION_DECLARATION,
	ASSIGNMENT_EXPR,
	MEMBER_EXPR,
	CALL_EXPR,
	PROPERTY,
	OBJECT_LITERAL,
	NUMERIC_LITERAL,
	IDENTIFIER,
	BINARY_EXPR,
}

// The base Node interface
type Node interface {
	Kind() NodeType
	String() string
}

type Statement interface {
	Node
	statementNode()
}

// Every expression may appear where a statement is expected.
type Expression interface {
	Statement
	expressionNode()
}

type Program struct {
	Body []Statement
}

func (p *Program) Kind() NodeType { return PROGRAM }
func (p *Program) statementNode() {}
func (p *Program) String() string {
	var out bytes.Buffer

	for _, s := range p.Body {
		out.WriteString(s.String())
		out.WriteString(";\n")
	}

	return out.String()
}

type VarDeclaration struct {
	Constant   bool
	Identifier string
	Value      Expression // nil for `let x`
}

func (vd *VarDeclaration) Kind() NodeType { return VAR_DECLARATION }
func (vd *VarDeclaration) statementNode() {}
func (vd *VarDeclaration) String() string {
	var out bytes.Buffer

	if vd.Constant {
		out.WriteString("const ")
	} else {
		out.WriteString("let ")
	}
	out.WriteString(vd.Identifier)

	if vd.Value != nil {
		out.WriteString(" = ")
		out.WriteString(vd.Value.String())
	}

	return out.String()
}

type FunctionDeclaration struct {
	Name       string
	Parameters []string
	Body       []Statement
}

func (fd *FunctionDeclaration) Kind() NodeType { return FUNCTION_DECLARATION }
func (fd *FunctionDeclaration) statementNode() {}
func (fd *FunctionDeclaration) String() string {
	var out bytes.Buffer

	out.WriteString("fn ")
	out.WriteString(fd.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(fd.Parameters, ", "))
	out.WriteString(") {")
	for i, s := range fd.Body {
		if i > 0 {
			out.WriteString(";")
		}
		out.WriteString(" ")
		out.WriteString(s.String())
	}
	out.WriteString(" }")

	return out.String()
}

// Expressions

type AssignmentExpr struct {
	Assignee Expression
	Value    Expression
}

func (ae *AssignmentExpr) Kind() NodeType  { return ASSIGNMENT_EXPR }
func (ae *AssignmentExpr) statementNode()  {}
func (ae *AssignmentExpr) expressionNode() {}
func (ae *AssignmentExpr) String() string {
	return ae.Assignee.String() + " = " + ae.Value.String()
}

type BinaryExpr struct {
	Left     Expression
	Right    Expression
	Operator string
}

func (be *BinaryExpr) Kind() NodeType  { return BINARY_EXPR }
func (be *BinaryExpr) statementNode()  {}
func (be *BinaryExpr) expressionNode() {}
func (be *BinaryExpr) String() string {
	return "(" + be.Left.String() + " " + be.Operator + " " + be.Right.String() + ")"
}

type CallExpr struct {
	Caller Expression
	Args   []Expression
}

func (ce *CallExpr) Kind() NodeType  { return CALL_EXPR }
func (ce *CallExpr) statementNode()  {}
func (ce *CallExpr) expressionNode() {}
func (ce *CallExpr) String() string {
	args := make([]string, 0, len(ce.Args))
	for _, a := range ce.Args {
		args = append(args, a.String())
	}
	return ce.Caller.String() + "(" + strings.Join(args, ", ") + ")"
}

type MemberExpr struct {
	Object   Expression
	Property Expression
	Computed bool // obj[expr] rather than obj.name
}

func (me *MemberExpr) Kind() NodeType  { return MEMBER_EXPR }
func (me *MemberExpr) statementNode()  {}
func (me *MemberExpr) expressionNode() {}
func (me *MemberExpr) String() string {
	if me.Computed {
		return me.Object.String() + "[" + me.Property.String() + "]"
	}
	return me.Object.String() + "." + me.Property.String()
}

type Identifier struct {
	Symbol string
}

func (i *Identifier) Kind() NodeType  { return IDENTIFIER }
func (i *Identifier) statementNode()  {}
func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string  { return i.Symbol }

type NumericLiteral struct {
	Value float64
}

func (n *NumericLiteral) Kind() NodeType  { return NUMERIC_LITERAL }
func (n *NumericLiteral) statementNode()  {}
func (n *NumericLiteral) expressionNode() {}
func (n *NumericLiteral) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// Property is only meaningful inside an ObjectLiteral. A nil Value is the
// `{ key }` shorthand.
type Property struct {
	Key   string
	Value Expression
}

func (p *Property) Kind() NodeType  { return PROPERTY }
func (p *Property) statementNode()  {}
func (p *Property) expressionNode() {}
func (p *Property) String() string {
	if p.Value == nil {
		return p.Key
	}
	return p.Key + ": " + p.Value.String()
}

type ObjectLiteral struct {
	Properties []*Property
}

func (ol *ObjectLiteral) Kind() NodeType  { return OBJECT_LITERAL }
func (ol *ObjectLiteral) statementNode()  {}
func (ol *ObjectLiteral) expressionNode() {}
func (ol *ObjectLiteral) String() string {
	if len(ol.Properties) == 0 {
		return "{}"
	}
	props := make([]string, 0, len(ol.Properties))
	for _, p := range ol.Properties {
		props = append(props, p.String())
	}
	return "{ " + strings.Join(props, ", ") + " }"
}
