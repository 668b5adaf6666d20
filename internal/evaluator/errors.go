package evaluator

import (
	"fmt"
	"quill/internal/ast"
	"quill/internal/object"
)

type DivisionByZeroError struct {
	Left float64
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero: %s / 0", (&object.Number{Value: e.Left}).Inspect())
}

// InvalidAssignmentTargetError carries a rendering of the rejected left-hand
// side.
type InvalidAssignmentTargetError struct {
	Kind ast.NodeType
	Node string
}

func (e *InvalidAssignmentTargetError) Error() string {
	return fmt.Sprintf("invalid left-hand side in assignment: %s `%s`", e.Kind, e.Node)
}

type ArityMismatchError struct {
	Function string
	Expected int
	Actual   int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("function '%s' expected %d arguments but got %d", e.Function, e.Expected, e.Actual)
}

type NotCallableError struct {
	Value object.Object
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("cannot call value that is not a function: %s %s", e.Value.Type(), e.Value.Inspect())
}

type NotAnObjectError struct {
	Value object.Object
}

func (e *NotAnObjectError) Error() string {
	return fmt.Sprintf("cannot access member of non-object: %s %s", e.Value.Type(), e.Value.Inspect())
}

type InvalidPropertyKeyError struct {
	Key object.Object
}

func (e *InvalidPropertyKeyError) Error() string {
	return fmt.Sprintf("unusable as property key: %s", e.Key.Type())
}

type StackOverflowError struct {
	Depth int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("maximum call depth of %d exceeded", e.Depth)
}
