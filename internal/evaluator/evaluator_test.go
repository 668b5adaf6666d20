package evaluator

import (
	"errors"
	"math"
	"quill/internal/ast"
	"quill/internal/object"
	"testing"
)

func num(v float64) *ast.NumericLiteral { return &ast.NumericLiteral{Value: v} }
func ident(s string) *ast.Identifier    { return &ast.Identifier{Symbol: s} }

func bin(left ast.Expression, op string, right ast.Expression) *ast.BinaryExpr {
	return &ast.BinaryExpr{Left: left, Right: right, Operator: op}
}

func let(name string, val ast.Expression) *ast.VarDeclaration {
	return &ast.VarDeclaration{Identifier: name, Value: val}
}

func constant(name string, val ast.Expression) *ast.VarDeclaration {
	return &ast.VarDeclaration{Identifier: name, Value: val, Constant: true}
}

func assign(target ast.Expression, val ast.Expression) *ast.AssignmentExpr {
	return &ast.AssignmentExpr{Assignee: target, Value: val}
}

func call(caller ast.Expression, args ...ast.Expression) *ast.CallExpr {
	return &ast.CallExpr{Caller: caller, Args: args}
}

func fn(name string, params []string, body ...ast.Statement) *ast.FunctionDeclaration {
	return &ast.FunctionDeclaration{Name: name, Parameters: params, Body: body}
}

func prop(key string, val ast.Expression) *ast.Property {
	return &ast.Property{Key: key, Value: val}
}

func obj(props ...*ast.Property) *ast.ObjectLiteral {
	return &ast.ObjectLiteral{Properties: props}
}

func member(target ast.Expression, property ast.Expression, computed bool) *ast.MemberExpr {
	return &ast.MemberExpr{Object: target, Property: property, Computed: computed}
}

func program(stmts ...ast.Statement) *ast.Program {
	return &ast.Program{Body: stmts}
}

func testEval(t *testing.T, node ast.Node) (object.Object, *object.Environment, error) {
	t.Helper()
	env := object.NewEnvironment()
	val, err := New(0).Eval(node, env)
	return val, env, err
}

func mustEval(t *testing.T, node ast.Node) object.Object {
	t.Helper()
	val, _, err := testEval(t, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return val
}

func testNumberObject(t *testing.T, obj object.Object, expected float64) {
	t.Helper()
	result, ok := obj.(*object.Number)
	if !ok {
		t.Fatalf("object is not Number. got=%T (%+v)", obj, obj)
	}
	if result.Value != expected && !(math.IsNaN(expected) && math.IsNaN(result.Value)) {
		t.Errorf("object has wrong value. got=%v, want=%v", result.Value, expected)
	}
}

func TestNumericBinaryExpression(t *testing.T) {
	cases := []struct {
		name     string
		left     float64
		op       string
		right    float64
		expected float64
	}{
		{"add", 1, "+", 2, 3},
		{"subtract", 1, "-", 2, -1},
		{"multiply", 2.5, "*", 4, 10},
		{"divide", 7, "/", 2, 3.5},
		{"modulo", 7, "%", 3, 1},
		{"modulo keeps dividend sign", -7, "%", 3, -1},
		{"modulo fraction", 5.5, "%", 2, 1.5},
		{"unknown operator falls back to modulo", 7, "&", 4, 3},
		{"modulo by zero", 1, "%", 0, math.NaN()},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			testNumberObject(t, mustEval(t, bin(num(c.left), c.op, num(c.right))), c.expected)
		})
	}
}

func TestArithmeticMatchesHost(t *testing.T) {
	values := []float64{-3, -0.5, 0, 1, 2, 10.25, 1e9}
	for _, a := range values {
		for _, b := range values {
			testNumberObject(t, mustEval(t, bin(num(a), "+", num(b))), a+b)
			testNumberObject(t, mustEval(t, bin(num(a), "-", num(b))), a-b)
			testNumberObject(t, mustEval(t, bin(num(a), "*", num(b))), a*b)

			val, _, err := testEval(t, bin(num(a), "/", num(b)))
			if b == 0 {
				var divErr *DivisionByZeroError
				if !errors.As(err, &divErr) {
					t.Errorf("%v / %v: expected DivisionByZeroError, got %v", a, b, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("%v / %v: unexpected error: %v", a, b, err)
			}
			testNumberObject(t, val, a/b)
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	_, _, err := testEval(t, bin(num(4), "/", bin(num(2), "-", num(2))))
	var divErr *DivisionByZeroError
	if !errors.As(err, &divErr) {
		t.Fatalf("expected DivisionByZeroError, got %v", err)
	}
	if divErr.Left != 4 {
		t.Errorf("expected left operand 4, got %v", divErr.Left)
	}
}

func TestNonNumericBinaryIsNull(t *testing.T) {
	cases := []struct {
		name string
		node ast.Statement
	}{
		{"object plus number", program(bin(obj(), "+", num(1)))},
		{"number minus object", program(bin(num(1), "-", obj()))},
		{"function times function", program(fn("f", nil), bin(ident("f"), "*", ident("f")))},
		{"object divided by zero", program(bin(obj(), "/", num(0)))},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			val := mustEval(t, c.node)
			if val != object.NIL {
				t.Errorf("expected null, got %s", val.Inspect())
			}
		})
	}
}

func TestBinaryEvaluatesBothOperands(t *testing.T) {
	_, _, err := testEval(t, bin(obj(), "+", ident("missing")))
	var unresolved *object.UnresolvedSymbolError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected right operand to be evaluated, got %v", err)
	}
}

func TestVarDeclaration(t *testing.T) {
	val, env, err := testEval(t, program(let("x", nil), constant("y", num(2))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testNumberObject(t, val, 2)

	x, _ := env.Lookup("x")
	if x != object.NIL {
		t.Errorf("declaration without value should bind null, got %s", x.Inspect())
	}

	_, err = New(0).Eval(assign(ident("y"), num(3)), env)
	var constErr *object.ConstReassignmentError
	if !errors.As(err, &constErr) {
		t.Errorf("expected ConstReassignmentError, got %v", err)
	}

	_, err = New(0).Eval(let("x", num(1)), env)
	var redecl *object.RedeclarationError
	if !errors.As(err, &redecl) {
		t.Errorf("expected RedeclarationError, got %v", err)
	}
}

func TestIdentifierUnresolved(t *testing.T) {
	_, _, err := testEval(t, ident("nope"))
	var unresolved *object.UnresolvedSymbolError
	if !errors.As(err, &unresolved) || unresolved.Name != "nope" {
		t.Fatalf("expected UnresolvedSymbolError for nope, got %v", err)
	}
}

func TestAssignment(t *testing.T) {
	val, env, err := testEval(t, program(
		let("x", num(1)),
		let("y", assign(ident("x"), num(5))),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testNumberObject(t, val, 5)
	x, _ := env.Lookup("x")
	testNumberObject(t, x, 5)
}

func TestAssignmentInsideFunctionUpdatesNearestFrame(t *testing.T) {
	val := mustEval(t, program(
		let("x", num(1)),
		fn("f", nil,
			let("x", num(10)),
			assign(ident("x"), num(20)),
		),
		call(ident("f")),
		ident("x"),
	))
	testNumberObject(t, val, 1)
}

func TestInvalidAssignmentTarget(t *testing.T) {
	cases := []struct {
		name   string
		target ast.Expression
		kind   ast.NodeType
		render string
	}{
		{"member", member(ident("o"), ident("x"), false), ast.MEMBER_EXPR, "o.x"},
		{"computed member", member(ident("o"), num(1), true), ast.MEMBER_EXPR, "o[1]"},
		{"literal", num(3), ast.NUMERIC_LITERAL, "3"},
		{"call", call(ident("f")), ast.CALL_EXPR, "f()"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := testEval(t, program(let("o", obj()), assign(c.target, num(1))))
			var target *InvalidAssignmentTargetError
			if !errors.As(err, &target) {
				t.Fatalf("expected InvalidAssignmentTargetError, got %v", err)
			}
			if target.Kind != c.kind || target.Node != c.render {
				t.Errorf("unexpected error context: %s %q", target.Kind, target.Node)
			}
		})
	}
}

func TestObjectLiteral(t *testing.T) {
	val := mustEval(t, program(
		let("b", num(5)),
		obj(
			prop("a", bin(num(1), "+", num(1))),
			prop("b", nil),
		),
	))

	m, ok := val.(*object.Map)
	if !ok {
		t.Fatalf("expected object, got %T", val)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 properties, got %d", m.Len())
	}
	a, _ := m.Get("a")
	testNumberObject(t, a, 2)
	b, _ := m.Get("b")
	testNumberObject(t, b, 5)
	if m.Inspect() != "{ a: 2, b: 5 }" {
		t.Errorf("unexpected rendering %q", m.Inspect())
	}
}

func TestObjectLiteralDuplicateKey(t *testing.T) {
	val := mustEval(t, obj(prop("a", num(1)), prop("a", num(2))))
	m := val.(*object.Map)
	if m.Len() != 1 {
		t.Fatalf("expected 1 property, got %d", m.Len())
	}
	a, _ := m.Get("a")
	testNumberObject(t, a, 2)
}

func TestObjectLiteralShorthandUnresolved(t *testing.T) {
	_, _, err := testEval(t, obj(prop("ghost", nil)))
	var unresolved *object.UnresolvedSymbolError
	if !errors.As(err, &unresolved) || unresolved.Name != "ghost" {
		t.Fatalf("expected UnresolvedSymbolError for ghost, got %v", err)
	}
}

func TestMemberExpression(t *testing.T) {
	setup := []ast.Statement{
		let("o", obj(prop("a", num(1)), prop("1", num(2)), prop("0", num(4)), prop("inner", obj(prop("z", num(3)))))),
	}

	cases := []struct {
		name     string
		expr     ast.Expression
		expected object.Object
	}{
		{"dot", member(ident("o"), ident("a"), false), &object.Number{Value: 1}},
		{"computed number", member(ident("o"), bin(num(0), "+", num(1)), true), &object.Number{Value: 2}},
		{"computed negative zero", member(ident("o"), bin(num(0), "*", num(-1)), true), &object.Number{Value: 4}},
		{"nested", member(member(ident("o"), ident("inner"), false), ident("z"), false), &object.Number{Value: 3}},
		{"missing", member(ident("o"), ident("nope"), false), object.NIL},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			val := mustEval(t, program(append(setup, c.expr)...))
			if val.Inspect() != c.expected.Inspect() {
				t.Errorf("expected %s, got %s", c.expected.Inspect(), val.Inspect())
			}
		})
	}
}

func TestMemberExpressionErrors(t *testing.T) {
	_, _, err := testEval(t, member(num(1), ident("a"), false))
	var notObj *NotAnObjectError
	if !errors.As(err, &notObj) {
		t.Errorf("expected NotAnObjectError, got %v", err)
	}

	_, _, err = testEval(t, member(obj(), obj(), true))
	var badKey *InvalidPropertyKeyError
	if !errors.As(err, &badKey) {
		t.Errorf("expected InvalidPropertyKeyError, got %v", err)
	}
}

func TestFunctionDeclaration(t *testing.T) {
	val, env, err := testEval(t, fn("add", []string{"a", "b"}, bin(ident("a"), "+", ident("b"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, ok := val.(*object.Function)
	if !ok {
		t.Fatalf("expected function, got %T", val)
	}
	if f.Env != env {
		t.Errorf("function did not capture its declaration environment")
	}
	if f.Inspect() != "fn add(a, b)" {
		t.Errorf("unexpected rendering %q", f.Inspect())
	}

	_, err = New(0).Eval(assign(ident("add"), num(1)), env)
	var constErr *object.ConstReassignmentError
	if !errors.As(err, &constErr) {
		t.Errorf("function bindings should be constant, got %v", err)
	}
}

func TestFunctionCall(t *testing.T) {
	cases := []struct {
		name     string
		program  *ast.Program
		expected object.Object
	}{
		{
			"returns last statement",
			program(
				fn("add", []string{"a", "b"}, bin(ident("a"), "+", ident("b"))),
				call(ident("add"), num(2), num(3)),
			),
			&object.Number{Value: 5},
		},
		{
			"body statements share a frame",
			program(
				fn("f", []string{"x"},
					let("y", bin(ident("x"), "*", num(2))),
					bin(ident("y"), "+", num(1)),
				),
				call(ident("f"), num(4)),
			),
			&object.Number{Value: 9},
		},
		{
			"empty body is null",
			program(fn("noop", nil), call(ident("noop"))),
			object.NIL,
		},
		{
			"each call gets a fresh frame",
			program(
				fn("f", nil, let("local", num(1))),
				call(ident("f")),
				call(ident("f")),
			),
			&object.Number{Value: 1},
		},
		{
			"recursion through captured scope",
			program(
				fn("down", []string{"n"},
					call(ident("pick"), ident("n")),
				),
				fn("pick", []string{"n"}, ident("n")),
				call(ident("down"), num(3)),
			),
			&object.Number{Value: 3},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			val := mustEval(t, c.program)
			if val.Inspect() != c.expected.Inspect() {
				t.Errorf("expected %s, got %s", c.expected.Inspect(), val.Inspect())
			}
		})
	}
}

func TestClosureCapturesDeclarationScope(t *testing.T) {
	val := mustEval(t, program(
		fn("makeAdder", []string{"x"},
			fn("add", []string{"y"}, bin(ident("x"), "+", ident("y"))),
		),
		let("add5", call(ident("makeAdder"), num(5))),
		let("x", num(100)),
		call(ident("add5"), num(1)),
	))
	testNumberObject(t, val, 6)
}

func TestClosureKeepsStateAlive(t *testing.T) {
	val := mustEval(t, program(
		fn("counter", nil,
			let("count", num(0)),
			fn("next", nil, assign(ident("count"), bin(ident("count"), "+", num(1)))),
		),
		constant("next", call(ident("counter"))),
		call(ident("next")),
		call(ident("next")),
		call(ident("next")),
	))
	testNumberObject(t, val, 3)
}

func TestLexicalNotDynamicScope(t *testing.T) {
	_, _, err := testEval(t, program(
		fn("readSecret", nil, ident("secret")),
		fn("caller", nil,
			let("secret", num(42)),
			call(ident("readSecret")),
		),
		call(ident("caller")),
	))
	var unresolved *object.UnresolvedSymbolError
	if !errors.As(err, &unresolved) || unresolved.Name != "secret" {
		t.Fatalf("expected UnresolvedSymbolError for secret, got %v", err)
	}
}

func TestArityMismatch(t *testing.T) {
	cases := []struct {
		name     string
		args     []ast.Expression
		expected int
		actual   int
	}{
		{"too few", []ast.Expression{num(1)}, 2, 1},
		{"too many", []ast.Expression{num(1), num(2), num(3)}, 2, 3},
		{"none", nil, 2, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := testEval(t, program(
				fn("pair", []string{"a", "b"}, ident("a")),
				call(ident("pair"), c.args...),
			))
			var arity *ArityMismatchError
			if !errors.As(err, &arity) {
				t.Fatalf("expected ArityMismatchError, got %v", err)
			}
			if arity.Expected != c.expected || arity.Actual != c.actual || arity.Function != "pair" {
				t.Errorf("unexpected context: %+v", arity)
			}
		})
	}
}

func TestArgumentsEvaluatedBeforeArityCheck(t *testing.T) {
	_, _, err := testEval(t, program(
		fn("pair", []string{"a", "b"}, ident("a")),
		call(ident("pair"), ident("undefinedArg")),
	))
	var unresolved *object.UnresolvedSymbolError
	if !errors.As(err, &unresolved) || unresolved.Name != "undefinedArg" {
		t.Fatalf("expected argument error first, got %v", err)
	}
}

func TestArgumentsEvaluatedBeforeCallee(t *testing.T) {
	_, _, err := testEval(t, call(ident("missingFn"), ident("missingArg")))
	var unresolved *object.UnresolvedSymbolError
	if !errors.As(err, &unresolved) || unresolved.Name != "missingArg" {
		t.Fatalf("expected argument to be evaluated before callee, got %v", err)
	}
}

func TestNotCallable(t *testing.T) {
	cases := []struct {
		name   string
		setup  ast.Expression
		expect object.ObjectType
	}{
		{"number", num(1), object.NUMBER_OBJ},
		{"object", obj(), object.MAP_OBJ},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := testEval(t, program(let("v", c.setup), call(ident("v"))))
			var notCallable *NotCallableError
			if !errors.As(err, &notCallable) {
				t.Fatalf("expected NotCallableError, got %v", err)
			}
			if notCallable.Value.Type() != c.expect {
				t.Errorf("expected %s in error, got %s", c.expect, notCallable.Value.Type())
			}
		})
	}
}

func TestNativeFunctionReceivesCallerEnv(t *testing.T) {
	root := object.NewEnvironment()
	var seen []object.Object
	var seenEnv *object.Environment
	root.Declare("probe", &object.Native{
		Name: "probe",
		Fn: func(args []object.Object, env *object.Environment) (object.Object, error) {
			seen = args
			seenEnv = env
			return env.Lookup("local")
		},
	}, true)

	val, err := New(0).Eval(program(
		fn("f", nil,
			let("local", num(7)),
			call(ident("probe"), num(1), num(2)),
		),
		call(ident("f")),
	), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testNumberObject(t, val, 7)
	if len(seen) != 2 {
		t.Errorf("expected 2 args, got %d", len(seen))
	}
	if seenEnv == root {
		t.Errorf("native received the root env instead of the caller's frame")
	}
}

func TestNativeFunctionErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	root := object.NewEnvironment()
	root.Declare("fail", &object.Native{
		Name: "fail",
		Fn: func(args []object.Object, env *object.Environment) (object.Object, error) {
			return nil, boom
		},
	}, true)

	_, err := New(0).Eval(call(ident("fail")), root)
	if !errors.Is(err, boom) {
		t.Fatalf("expected native error to propagate, got %v", err)
	}
}

func TestNoRollbackOnError(t *testing.T) {
	_, env, err := testEval(t, program(
		let("a", num(1)),
		let("b", bin(num(1), "/", num(0))),
		let("c", num(3)),
	))
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !env.Has("a") {
		t.Errorf("declaration before the failure was rolled back")
	}
	if env.Has("b") || env.Has("c") {
		t.Errorf("declarations at or after the failure were applied")
	}
}

func TestEmptyProgram(t *testing.T) {
	if val := mustEval(t, program()); val != object.NIL {
		t.Errorf("expected null, got %s", val.Inspect())
	}
}

func TestMaxDepth(t *testing.T) {
	env := object.NewEnvironment()
	e := New(10)
	_, err := e.Eval(program(
		fn("loop", nil, call(ident("loop"))),
		call(ident("loop")),
	), env)
	var overflow *StackOverflowError
	if !errors.As(err, &overflow) || overflow.Depth != 10 {
		t.Fatalf("expected StackOverflowError at depth 10, got %v", err)
	}

	val, err := e.Eval(program(
		fn("id", []string{"x"}, ident("x")),
		call(ident("id"), num(1)),
	), env)
	if err != nil {
		t.Fatalf("depth counter not unwound after overflow: %v", err)
	}
	testNumberObject(t, val, 1)
}

func TestBarePropertyPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for a property outside an object literal")
		}
	}()
	New(0).Eval(prop("a", num(1)), object.NewEnvironment())
}
