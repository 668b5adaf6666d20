package evaluator

import (
	"fmt"
	"log/slog"
	"math"
	"quill/internal/ast"
	"quill/internal/object"
	"strconv"
)

// Evaluator walks an AST and produces runtime values. It is not safe for
// concurrent use.
type Evaluator struct {
	// MaxDepth bounds nested user function calls; 0 means unbounded.
	MaxDepth int

	depth int
}

func New(maxDepth int) *Evaluator {
	return &Evaluator{MaxDepth: maxDepth}
}

// Eval evaluates node in env. A node kind outside the ast package's closed
// set is a bug in whatever built the tree, so it panics.
func (e *Evaluator) Eval(node ast.Node, env *object.Environment) (object.Object, error) {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return e.evalStatements(node.Body, env)

	case *ast.VarDeclaration:
		var val object.Object = object.NIL
		if node.Value != nil {
			var err error
			if val, err = e.Eval(node.Value, env); err != nil {
				return nil, err
			}
		}
		return env.Declare(node.Identifier, val, node.Constant)

	case *ast.FunctionDeclaration:
		fn := &object.Function{
			Name:       node.Name,
			Parameters: node.Parameters,
			Body:       node.Body,
			Env:        env,
		}
		return env.Declare(node.Name, fn, true)

	// Expressions
	case *ast.NumericLiteral:
		return &object.Number{Value: node.Value}, nil

	case *ast.Identifier:
		return env.Lookup(node.Symbol)

	case *ast.BinaryExpr:
		return e.evalBinaryExpression(node, env)

	case *ast.AssignmentExpr:
		return e.evalAssignment(node, env)

	case *ast.ObjectLiteral:
		return e.evalObjectLiteral(node, env)

	case *ast.CallExpr:
		return e.evalCallExpression(node, env)

	case *ast.MemberExpr:
		return e.evalMemberExpression(node, env)
	}

	panic(fmt.Sprintf("evaluator: unexpected %T node in AST: %s", node, node))
}

// evalStatements evaluates stmts in order in a single frame and yields the
// value of the last one, or null when there are none.
func (e *Evaluator) evalStatements(stmts []ast.Statement, env *object.Environment) (object.Object, error) {
	var result object.Object = object.NIL

	for _, stmt := range stmts {
		val, err := e.Eval(stmt, env)
		if err != nil {
			return nil, err
		}
		result = val
	}

	return result, nil
}

func (e *Evaluator) evalBinaryExpression(node *ast.BinaryExpr, env *object.Environment) (object.Object, error) {
	left, err := e.Eval(node.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := e.Eval(node.Right, env)
	if err != nil {
		return nil, err
	}

	lhs, lok := left.(*object.Number)
	rhs, rok := right.(*object.Number)
	if !lok || !rok {
		slog.Debug("non-numeric binary operands",
			slog.String("operator", node.Operator),
			slog.Any("left", left.Type()),
			slog.Any("right", right.Type()))
		return object.NIL, nil
	}

	return evalNumericBinaryExpression(node.Operator, lhs.Value, rhs.Value)
}

// evalNumericBinaryExpression treats every operator other than + - * / as
// the remainder operator.
func evalNumericBinaryExpression(operator string, left, right float64) (object.Object, error) {
	var result float64

	switch operator {
	case "+":
		result = left + right
	case "-":
		result = left - right
	case "*":
		result = left * right
	case "/":
		if right == 0 {
			return nil, &DivisionByZeroError{Left: left}
		}
		result = left / right
	default:
		result = math.Mod(left, right)
	}

	return &object.Number{Value: result}, nil
}

func (e *Evaluator) evalAssignment(node *ast.AssignmentExpr, env *object.Environment) (object.Object, error) {
	ident, ok := node.Assignee.(*ast.Identifier)
	if !ok {
		return nil, &InvalidAssignmentTargetError{
			Kind: node.Assignee.Kind(),
			Node: node.Assignee.String(),
		}
	}

	val, err := e.Eval(node.Value, env)
	if err != nil {
		return nil, err
	}

	return env.Assign(ident.Symbol, val)
}

func (e *Evaluator) evalObjectLiteral(node *ast.ObjectLiteral, env *object.Environment) (object.Object, error) {
	obj := object.NewMap()

	for _, prop := range node.Properties {
		var val object.Object
		var err error
		if prop.Value == nil {
			val, err = env.Lookup(prop.Key)
		} else {
			val, err = e.Eval(prop.Value, env)
		}
		if err != nil {
			return nil, err
		}
		obj.Put(prop.Key, val)
	}

	return obj, nil
}

func (e *Evaluator) evalCallExpression(node *ast.CallExpr, env *object.Environment) (object.Object, error) {
	args := make([]object.Object, 0, len(node.Args))
	for _, arg := range node.Args {
		val, err := e.Eval(arg, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	callee, err := e.Eval(node.Caller, env)
	if err != nil {
		return nil, err
	}

	return e.applyFunction(callee, args, env)
}

// applyFunction invokes callee. Natives see the caller's env; user functions
// run in a fresh frame enclosed by their declaration env.
func (e *Evaluator) applyFunction(callee object.Object, args []object.Object, env *object.Environment) (object.Object, error) {
	switch fn := callee.(type) {
	case *object.Native:
		return fn.Fn(args, env)

	case *object.Function:
		scope := object.NewEnclosedEnvironment(fn.Env)

		if len(args) != len(fn.Parameters) {
			return nil, &ArityMismatchError{
				Function: fn.Name,
				Expected: len(fn.Parameters),
				Actual:   len(args),
			}
		}

		for i, param := range fn.Parameters {
			if _, err := scope.Declare(param, args[i], false); err != nil {
				return nil, err
			}
		}

		if e.MaxDepth > 0 && e.depth >= e.MaxDepth {
			return nil, &StackOverflowError{Depth: e.MaxDepth}
		}
		e.depth++
		defer func() { e.depth-- }()

		slog.Debug("calling function",
			slog.String("name", fn.Name),
			slog.Int("args", len(args)),
			slog.Int("depth", e.depth))

		return e.evalStatements(fn.Body, scope)

	default:
		return nil, &NotCallableError{Value: callee}
	}
}

func (e *Evaluator) evalMemberExpression(node *ast.MemberExpr, env *object.Environment) (object.Object, error) {
	target, err := e.Eval(node.Object, env)
	if err != nil {
		return nil, err
	}
	obj, ok := target.(*object.Map)
	if !ok {
		return nil, &NotAnObjectError{Value: target}
	}

	var key string
	if node.Computed {
		prop, err := e.Eval(node.Property, env)
		if err != nil {
			return nil, err
		}
		num, ok := prop.(*object.Number)
		if !ok {
			return nil, &InvalidPropertyKeyError{Key: prop}
		}
		v := num.Value
		if v == 0 {
			v = 0 // -0 names the same property as 0
		}
		key = strconv.FormatFloat(v, 'g', -1, 64)
	} else {
		ident, ok := node.Property.(*ast.Identifier)
		if !ok {
			panic(fmt.Sprintf("evaluator: non-computed member property must be an identifier, got %s", node.Property.Kind()))
		}
		key = ident.Symbol
	}

	if val, ok := obj.Get(key); ok {
		return val, nil
	}
	return object.NIL, nil
}
