package object

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

var nextID atomic.Uint64

type Environment struct {
	ID       uint64
	Bindings map[string]*Binding
	Outer    *Environment

	mu sync.RWMutex
}

type Binding struct {
	Value    Object
	Constant bool
}

func nextEnvID() uint64 {
	return nextID.Add(1)
}

func NewEnvironment() *Environment {
	return &Environment{
		ID:       nextEnvID(),
		Bindings: make(map[string]*Binding),
	}
}

// NewEnclosedEnvironment creates a child frame of outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	slog.Debug("------ new env ------",
		slog.Uint64("env", env.ID),
		slog.Uint64("outer", outer.ID))
	return env
}

// Declare binds name in this frame only. Binding a name that an outer frame
// already holds shadows it.
func (e *Environment) Declare(name string, val Object, constant bool) (Object, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.Bindings[name]; exists {
		return nil, &RedeclarationError{Name: name}
	}

	e.Bindings[name] = &Binding{
		Value:    val,
		Constant: constant,
	}

	slog.Debug("binding value",
		slog.Any("type", val.Type()),
		slog.String("name", name),
		slog.Bool("constant", constant),
		slog.Uint64("env", e.ID))
	return val, nil
}

// Assign overwrites the binding in the nearest frame that owns name.
func (e *Environment) Assign(name string, val Object) (Object, error) {
	env, err := e.resolve(name)
	if err != nil {
		return nil, err
	}

	env.mu.Lock()
	defer env.mu.Unlock()

	binding := env.Bindings[name]
	if binding.Constant {
		return nil, &ConstReassignmentError{Name: name}
	}
	binding.Value = val

	slog.Debug("assigning bound value",
		slog.Any("type", val.Type()),
		slog.String("name", name),
		slog.Uint64("env", env.ID))
	return val, nil
}

func (e *Environment) Lookup(name string) (Object, error) {
	env, err := e.resolve(name)
	if err != nil {
		return nil, err
	}

	env.mu.RLock()
	defer env.mu.RUnlock()
	return env.Bindings[name].Value, nil
}

// resolve returns the nearest frame, starting at e, that binds name.
func (e *Environment) resolve(name string) (*Environment, error) {
	for env := e; env != nil; env = env.Outer {
		env.mu.RLock()
		_, ok := env.Bindings[name]
		env.mu.RUnlock()
		if ok {
			return env, nil
		}
	}
	return nil, &UnresolvedSymbolError{Name: name}
}

// Has reports whether name is bound in this frame, ignoring outer frames.
func (e *Environment) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.Bindings[name]
	return ok
}

// Names returns the names bound in this frame, sorted.
func (e *Environment) Names() []string {
	e.mu.RLock()
	names := make([]string, 0, len(e.Bindings))
	for name := range e.Bindings {
		names = append(names, name)
	}
	e.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Depth is the number of frames between e and the root; the root is 0.
func (e *Environment) Depth() int {
	depth := 0
	for env := e.Outer; env != nil; env = env.Outer {
		depth++
	}
	return depth
}
