package builtins

import (
	"fmt"
	"io"
	"quill/internal/evaluator"
	"quill/internal/object"
	"strings"
	"time"
)

var now = time.Now

// NewGlobalEnvironment returns a root frame holding the language constants
// and the host natives. print writes to out.
func NewGlobalEnvironment(out io.Writer) *object.Environment {
	env := object.NewEnvironment()

	constants := map[string]object.Object{
		"true":  object.TRUE,
		"false": object.FALSE,
		"null":  object.NIL,
	}
	for name, val := range constants {
		env.Declare(name, val, true)
	}

	natives := map[string]*object.Native{
		"print": funcPrint(out),
		"time":  funcTime(),
		"len":   funcLen(),
	}
	for name, fn := range natives {
		env.Declare(name, fn, true)
	}

	return env
}

func arityError(name string, want int, args []object.Object) error {
	return &evaluator.ArityMismatchError{Function: name, Expected: want, Actual: len(args)}
}

// funcPrint writes the arguments separated by spaces and returns null.
func funcPrint(out io.Writer) *object.Native {
	return &object.Native{
		Name: "print",
		Fn: func(args []object.Object, env *object.Environment) (object.Object, error) {
			parts := make([]string, len(args))
			for i, arg := range args {
				parts[i] = arg.Inspect()
			}
			if _, err := fmt.Fprintln(out, strings.Join(parts, " ")); err != nil {
				return nil, fmt.Errorf("print: %w", err)
			}
			return object.NIL, nil
		},
	}
}

// funcTime returns the current unix time in milliseconds.
func funcTime() *object.Native {
	return &object.Native{
		Name: "time",
		Fn: func(args []object.Object, env *object.Environment) (object.Object, error) {
			if len(args) != 0 {
				return nil, arityError("time", 0, args)
			}
			return &object.Number{Value: float64(now().UnixMilli())}, nil
		},
	}
}

func funcLen() *object.Native {
	return &object.Native{
		Name: "len",
		Fn: func(args []object.Object, env *object.Environment) (object.Object, error) {
			if len(args) != 1 {
				return nil, arityError("len", 1, args)
			}
			m, ok := args[0].(*object.Map)
			if !ok {
				return nil, fmt.Errorf("argument to `len` must be %s, got %s", object.MAP_OBJ, args[0].Type())
			}
			return &object.Number{Value: float64(m.Len())}, nil
		},
	}
}
