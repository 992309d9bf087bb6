package object

import (
	"fmt"
	"strconv"
)

const (
	VOID_OBJ    = "VOID"
	ANY_OBJ     = "ANY"
	INT_OBJ     = "INT"
	FLOAT_OBJ   = "FLOAT"
	BOOLEAN_OBJ = "BOOLEAN"
	STRING_OBJ  = "STRING"
)

var (
	VOID  = &Void{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

type ObjectType string

// Object is the runtime value of the machine. Values are immutable once
// constructed; sharing one between the operand stack and a scope binding is
// never observable.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Void is the result of purely side-effecting instructions. It is not a
// usable operand; the evaluator rejects it wherever a value is required.
type Void struct{}

func (v *Void) Type() ObjectType { return VOID_OBJ }
func (v *Void) Inspect() string  { return "void" }

// Any wraps exactly one value of another variant. It appears where no static
// type is declared and is transparently unwrapped by the evaluator.
type Any struct {
	Value Object
}

func (a *Any) Type() ObjectType { return ANY_OBJ }
func (a *Any) Inspect() string {
	if a.Value == nil {
		return "any"
	}
	return a.Value.Inspect()
}

type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INT_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return fmt.Sprintf("%t", b.Value) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Unwrap strips an Any wrapper, returning the contained value.
func Unwrap(obj Object) Object {
	if a, ok := obj.(*Any); ok && a.Value != nil {
		return a.Value
	}
	return obj
}

// Equals reports structural equality: same variant and same payload.
// Cross-variant comparison is always false, never an error.
func Equals(left, right Object) bool {
	left = Unwrap(left)
	right = Unwrap(right)
	if left.Type() != right.Type() {
		return false
	}
	switch l := left.(type) {
	case *Void:
		return true
	case *Integer:
		return l.Value == right.(*Integer).Value
	case *Float:
		return l.Value == right.(*Float).Value
	case *Boolean:
		return l.Value == right.(*Boolean).Value
	case *String:
		return l.Value == right.(*String).Value
	}
	return false
}
