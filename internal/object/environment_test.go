package object

import "testing"

func TestDefineAndGet(t *testing.T) {
	env := NewEnvironment()
	env.Define("x", &Integer{Value: 1})

	val, ok := env.Get("x")
	if !ok {
		t.Fatal("expected 'x' to resolve")
	}
	if val.(*Integer).Value != 1 {
		t.Errorf("expected 1, got %s", val.Inspect())
	}

	if _, ok := env.Get("y"); ok {
		t.Error("expected 'y' to be undefined")
	}
}

func TestGetWalksTheChain(t *testing.T) {
	root := NewEnvironment()
	root.Define("x", &Integer{Value: 1})
	mid := NewEnclosedEnvironment(root)
	leaf := NewEnclosedEnvironment(mid)

	val, ok := leaf.Get("x")
	if !ok {
		t.Fatal("expected 'x' to resolve through two outer links")
	}
	if val.(*Integer).Value != 1 {
		t.Errorf("expected 1, got %s", val.Inspect())
	}
}

func TestDefineShadowsWithoutMutating(t *testing.T) {
	root := NewEnvironment()
	root.Define("x", &Integer{Value: 1})
	inner := NewEnclosedEnvironment(root)
	inner.Define("x", &Integer{Value: 2})

	val, _ := inner.Get("x")
	if val.(*Integer).Value != 2 {
		t.Errorf("inner scope must see its own binding, got %s", val.Inspect())
	}
	val, _ = root.Get("x")
	if val.(*Integer).Value != 1 {
		t.Errorf("outer binding must be untouched, got %s", val.Inspect())
	}
}

func TestDefineOverwritesInSameScope(t *testing.T) {
	env := NewEnvironment()
	env.Define("x", &Integer{Value: 1})
	env.Define("x", &Integer{Value: 2})

	val, _ := env.Get("x")
	if val.(*Integer).Value != 2 {
		t.Errorf("expected the later binding to win, got %s", val.Inspect())
	}
}
