package parser

import (
	"darkvm/internal/code"
	"darkvm/internal/lexer"
	"darkvm/internal/object"
	"strings"
	"testing"
)

func parse(t *testing.T, input string) *code.Program {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	program := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("parser errors for %q: %v", input, p.Errors())
	}
	return program
}

func parseErrors(t *testing.T, input string) []string {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected parser errors for %q, got none", input)
	}
	return p.Errors()
}

func TestInstructionSequence(t *testing.T) {
	program := parse(t, "push 1\npop\npeek\nprintn 'x'")

	wantOps := []code.Opcode{code.OpPush, code.OpPop, code.OpPeek, code.OpPrintn}
	if program.Len() != len(wantOps) {
		t.Fatalf("expected %d instructions, got %d", len(wantOps), program.Len())
	}
	for i, op := range wantOps {
		if program.Instructions[i].Op != op {
			t.Errorf("instruction %d: expected %s, got %s", i, op, program.Instructions[i].Op)
		}
	}
}

func TestLiteralArguments(t *testing.T) {
	program := parse(t, "push 42\npush -7\npush 2.5\npush 'hi'\npush true\npush false")

	wantValues := []object.Object{
		&object.Integer{Value: 42},
		&object.Integer{Value: -7},
		&object.Float{Value: 2.5},
		&object.String{Value: "hi"},
		object.TRUE,
		object.FALSE,
	}
	for i, want := range wantValues {
		lit, ok := program.Instructions[i].Args[0].(*code.Literal)
		if !ok {
			t.Fatalf("instruction %d: expected a literal argument, got %T", i, program.Instructions[i].Args[0])
		}
		if !object.Equals(lit.Value, want) {
			t.Errorf("instruction %d: expected %s, got %s", i, want.Inspect(), lit.Value.Inspect())
		}
	}
}

func TestLabelTable(t *testing.T) {
	input := `@main
push 1
call helper 'x'
end
@helper v
printn v
end
`
	program := parse(t, input)

	// Label headers and end markers occupy instruction slots themselves.
	if program.Len() != 7 {
		t.Fatalf("expected 7 instructions, got %d", program.Len())
	}

	main, ok := program.Labels["main"]
	if !ok {
		t.Fatal("label 'main' not registered")
	}
	if main.Start != 0 || main.End != 3 {
		t.Errorf("main: expected body markers at 0 and 3, got %d and %d", main.Start, main.End)
	}
	if len(main.Parameters) != 0 {
		t.Errorf("main: expected no parameters, got %v", main.Parameters)
	}
	if main.Encloser != "" {
		t.Errorf("main: expected no encloser, got %q", main.Encloser)
	}

	helper, ok := program.Labels["helper"]
	if !ok {
		t.Fatal("label 'helper' not registered")
	}
	if helper.Start != 4 || helper.End != 6 {
		t.Errorf("helper: expected body markers at 4 and 6, got %d and %d", helper.Start, helper.End)
	}
	if len(helper.Parameters) != 1 || helper.Parameters[0] != "v" {
		t.Errorf("helper: expected parameters [v], got %v", helper.Parameters)
	}
}

func TestNestedLabelRecordsEncloser(t *testing.T) {
	input := `@outer
@inner
end
end
`
	program := parse(t, input)

	inner, ok := program.Labels["inner"]
	if !ok {
		t.Fatal("label 'inner' not registered")
	}
	if inner.Encloser != "outer" {
		t.Errorf("expected encloser 'outer', got %q", inner.Encloser)
	}
	if outer := program.Labels["outer"]; outer.Encloser != "" {
		t.Errorf("outer must have no encloser, got %q", outer.Encloser)
	}
}

func TestNestedInstructionArguments(t *testing.T) {
	program := parse(t, "push add 1 mul 2 3")

	push := program.Instructions[0]
	if len(push.Args) != 1 {
		t.Fatalf("push: expected 1 argument, got %d", len(push.Args))
	}
	add, ok := push.Args[0].(*code.Nested)
	if !ok {
		t.Fatalf("expected a nested instruction, got %T", push.Args[0])
	}
	if add.Instruction.Op != code.OpAdd {
		t.Fatalf("expected nested add, got %s", add.Instruction.Op)
	}
	if len(add.Instruction.Args) != 2 {
		t.Fatalf("add: expected 2 arguments, got %d", len(add.Instruction.Args))
	}
	mul, ok := add.Instruction.Args[1].(*code.Nested)
	if !ok {
		t.Fatalf("expected the second add argument to be nested, got %T", add.Instruction.Args[1])
	}
	if mul.Instruction.Op != code.OpMul {
		t.Errorf("expected nested mul, got %s", mul.Instruction.Op)
	}
}

func TestArithmeticArity(t *testing.T) {
	// Alone on a line, arithmetic takes its operands from the stack.
	program := parse(t, "add")
	if len(program.Instructions[0].Args) != 0 {
		t.Errorf("bare add must take no arguments, got %d", len(program.Instructions[0].Args))
	}

	// With trailing tokens it takes exactly two explicit operands.
	program = parse(t, "add 1 2")
	if len(program.Instructions[0].Args) != 2 {
		t.Errorf("explicit add must take two arguments, got %d", len(program.Instructions[0].Args))
	}
}

func TestSetTakesARawName(t *testing.T) {
	program := parse(t, "set x add 1 2")

	set := program.Instructions[0]
	if set.Op != code.OpSet {
		t.Fatalf("expected set, got %s", set.Op)
	}
	if len(set.Args) != 2 {
		t.Fatalf("set: expected 2 arguments, got %d", len(set.Args))
	}
	name, ok := set.Args[0].(*code.Identifier)
	if !ok || name.Name != "x" {
		t.Errorf("set: expected name slot 'x', got %+v", set.Args[0])
	}
}

func TestCallTakesRestOfLine(t *testing.T) {
	program := parse(t, "call greet 'a' add 1 2 x")

	call := program.Instructions[0]
	if call.Op != code.OpCall {
		t.Fatalf("expected call, got %s", call.Op)
	}
	// name + three argument slots; the nested add consumes its own operands.
	if len(call.Args) != 4 {
		t.Fatalf("call: expected 4 argument slots, got %d", len(call.Args))
	}
	if name := call.Args[0].(*code.Identifier); name.Name != "greet" {
		t.Errorf("call: expected name 'greet', got %q", name.Name)
	}
	if _, ok := call.Args[2].(*code.Nested); !ok {
		t.Errorf("call: expected slot 2 to be a nested instruction, got %T", call.Args[2])
	}
	if ident, ok := call.Args[3].(*code.Identifier); !ok || ident.Name != "x" {
		t.Errorf("call: expected slot 3 to be identifier 'x', got %+v", call.Args[3])
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"end", "'end' without a matching label"},
		{"@open\npush 1", "has no matching 'end'"},
		{"@dup\nend\n@dup\nend", "already defined"},
		{"set 1 2", "expects a name"},
		{"call", "expects a name"},
		{"push", "expects 1 more"},
		{"add 1", "expects 1 more"},
		{"lt 1", "expects 1 more"},
		{"push 1 2", "unexpected token"},
		{"pop 1", "unexpected token"},
		{"x", "expected an instruction"},
		{"@fn 1\nend", "expected parameter name"},
		{"push ?", "illegal token"},
	}

	for _, tt := range tests {
		errs := parseErrors(t, tt.input)
		found := false
		for _, msg := range errs {
			if strings.Contains(msg, tt.expected) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%q: expected an error containing %q, got %v", tt.input, tt.expected, errs)
		}
	}
}

func TestLabelHeaderEmitsInstruction(t *testing.T) {
	program := parse(t, "@skip\npush 1\nend\npush 2")

	if program.Instructions[0].Op != code.OpLabel {
		t.Errorf("expected the header to occupy slot 0, got %s", program.Instructions[0].Op)
	}
	if program.Instructions[2].Op != code.OpEnd {
		t.Errorf("expected the end marker at slot 2, got %s", program.Instructions[2].Op)
	}
}
