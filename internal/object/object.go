package object

import (
	"bytes"
	"quill/internal/ast"
	"strconv"
	"strings"
)

const (
	NIL_OBJ      = "NULL"
	NUMBER_OBJ   = "NUMBER"
	BOOLEAN_OBJ  = "BOOLEAN"
	MAP_OBJ      = "OBJECT"
	FUNCTION_OBJ = "FUNCTION"
	NATIVE_OBJ   = "NATIVE_FN"
)

var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

type ObjectType string

type Object interface {
	Type() ObjectType
	Inspect() string
}

type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "null" }

type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

// NativeBool returns the shared TRUE or FALSE instance.
func NativeBool(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// Map is the runtime value of an object literal. Keys are unique; Keys
// remembers first-insertion order so Inspect is stable.
type Map struct {
	Pairs map[string]Object
	Keys  []string
}

func NewMap() *Map {
	return &Map{Pairs: make(map[string]Object)}
}

func (m *Map) Type() ObjectType { return MAP_OBJ }

// Put inserts or overwrites key.
func (m *Map) Put(key string, val Object) {
	if _, exists := m.Pairs[key]; !exists {
		m.Keys = append(m.Keys, key)
	}
	m.Pairs[key] = val
}

func (m *Map) Get(key string) (Object, bool) {
	val, ok := m.Pairs[key]
	return val, ok
}

func (m *Map) Len() int { return len(m.Pairs) }

func (m *Map) Inspect() string {
	if len(m.Keys) == 0 {
		return "{}"
	}
	var out bytes.Buffer

	pairs := make([]string, 0, len(m.Keys))
	for _, k := range m.Keys {
		pairs = append(pairs, k+": "+m.Pairs[k].Inspect())
	}

	out.WriteString("{ ")
	out.WriteString(strings.Join(pairs, ", "))
	out.WriteString(" }")

	return out.String()
}

// Function is a user-defined closure. Env is the frame that was active when
// the declaration was evaluated.
type Function struct {
	Name       string
	Parameters []string
	Body       []ast.Statement
	Env        *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	return "fn " + f.Name + "(" + strings.Join(f.Parameters, ", ") + ")"
}

// NativeFunction receives the evaluated arguments and the caller's
// environment.
type NativeFunction func(args []Object, env *Environment) (Object, error)

type Native struct {
	Name string
	Fn   NativeFunction
}

func (n *Native) Type() ObjectType { return NATIVE_OBJ }
func (n *Native) Inspect() string  { return "native fn " + n.Name }
