package object

import (
	"log/slog"
	"sync/atomic"
)

var nextID atomic.Uint64

// Environment is one link of the lexical scope chain: a name table plus a
// fixed reference to the scope it was created under. The outer reference is
// set at construction time and never reassigned.
type Environment struct {
	ID       uint64
	Bindings map[string]Object
	Outer    *Environment
}

func nextEnvID() uint64 {
	return nextID.Add(1)
}

func NewEnvironment() *Environment {
	return &Environment{
		ID:       nextEnvID(),
		Bindings: make(map[string]Object),
	}
}

// NewEnclosedEnvironment initializes an environment chained to a parent.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	return env
}

// Define binds a name in this environment. An existing binding in the same
// environment is overwritten; a binding of the same name in an outer
// environment is shadowed, never mutated.
func (e *Environment) Define(name string, val Object) {
	slog.Debug("binding value",
		slog.String("name", name),
		slog.Any("type", val.Type()),
		slog.Uint64("env", e.ID))
	e.Bindings[name] = val
}

// Get resolves a name by walking from this environment outward through the
// chain. The second return value is false when the chain is exhausted.
func (e *Environment) Get(name string) (Object, bool) {
	if val, ok := e.Bindings[name]; ok {
		return val, true
	}
	if e.Outer != nil {
		return e.Outer.Get(name)
	}
	return nil, false
}
