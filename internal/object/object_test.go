package object

import "testing"

func TestInspect(t *testing.T) {
	tests := []struct {
		obj  Object
		want string
	}{
		{&Integer{Value: 42}, "42"},
		{&Integer{Value: -7}, "-7"},
		{&Float{Value: 2.5}, "2.5"},
		{&Float{Value: 3}, "3"},
		{&String{Value: "hello"}, "hello"},
		{TRUE, "true"},
		{FALSE, "false"},
		{VOID, "void"},
		{&Any{Value: &Integer{Value: 1}}, "1"},
		{&Any{}, "any"},
	}

	for _, tt := range tests {
		if got := tt.obj.Inspect(); got != tt.want {
			t.Errorf("Inspect() = %q, want %q", got, tt.want)
		}
	}
}

func TestEquals(t *testing.T) {
	tests := []struct {
		left  Object
		right Object
		want  bool
	}{
		{&Integer{Value: 5}, &Integer{Value: 5}, true},
		{&Integer{Value: 5}, &Integer{Value: 6}, false},
		{&Float{Value: 1.5}, &Float{Value: 1.5}, true},
		{&Float{Value: 1.5}, &Float{Value: 2.5}, false},
		{&String{Value: "a"}, &String{Value: "a"}, true},
		{&String{Value: "a"}, &String{Value: "b"}, false},
		{TRUE, TRUE, true},
		{TRUE, FALSE, false},
		{VOID, VOID, true},
		// Cross-variant comparison is false, never a promotion.
		{&Integer{Value: 1}, &Float{Value: 1}, false},
		{&Integer{Value: 1}, &String{Value: "1"}, false},
		{TRUE, &Integer{Value: 1}, false},
	}

	for _, tt := range tests {
		if got := Equals(tt.left, tt.right); got != tt.want {
			t.Errorf("Equals(%s, %s) = %t, want %t",
				tt.left.Inspect(), tt.right.Inspect(), got, tt.want)
		}
	}
}

func TestEqualsUnwrapsAny(t *testing.T) {
	wrapped := &Any{Value: &Integer{Value: 5}}
	if !Equals(wrapped, &Integer{Value: 5}) {
		t.Error("a wrapped value must compare equal to its bare form")
	}
	if !Equals(wrapped, &Any{Value: &Integer{Value: 5}}) {
		t.Error("two wrappers around equal values must compare equal")
	}
}

func TestUnwrap(t *testing.T) {
	inner := &Integer{Value: 5}
	if Unwrap(&Any{Value: inner}) != Object(inner) {
		t.Error("Unwrap must return the contained value")
	}
	if Unwrap(inner) != Object(inner) {
		t.Error("Unwrap must pass unwrapped values through")
	}
	empty := &Any{}
	if Unwrap(empty) != Object(empty) {
		t.Error("Unwrap must pass an empty wrapper through")
	}
}
