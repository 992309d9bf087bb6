package repl

import (
	"bytes"
	"strings"
	"testing"
)

func runSession(input string) string {
	var out bytes.Buffer
	Start(strings.NewReader(input), &out)
	return out.String()
}

func TestEchoesResults(t *testing.T) {
	out := runSession("push 1\npop\n")
	if !strings.Contains(out, "1\n") {
		t.Errorf("expected the popped value to be echoed, got %q", out)
	}
}

func TestStateSurvivesBetweenLines(t *testing.T) {
	out := runSession("set x 5\nprintn x\n")
	if !strings.Contains(out, "5\n") {
		t.Errorf("expected the earlier binding to be visible, got %q", out)
	}
}

func TestLabelBlocksSpanLines(t *testing.T) {
	out := runSession("@f v\nprintn v\nend\ncall f 'hi'\n")
	if !strings.Contains(out, CONTINUE_PROMPT) {
		t.Errorf("expected a continuation prompt inside the label block, got %q", out)
	}
	if !strings.Contains(out, "hi\n") {
		t.Errorf("expected the call to print, got %q", out)
	}
}

func TestSessionSurvivesRuntimeErrors(t *testing.T) {
	out := runSession("pop\npush 2\npop\n")
	if !strings.Contains(out, "runtime error") {
		t.Errorf("expected the underflow to be reported, got %q", out)
	}
	if !strings.Contains(out, "2\n") {
		t.Errorf("expected the session to keep working after the fault, got %q", out)
	}
}

func TestReportsParserErrors(t *testing.T) {
	out := runSession("push\n")
	if !strings.Contains(out, "parser errors:") {
		t.Errorf("expected parser errors to be printed, got %q", out)
	}
}

func TestOpenLabels(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"push 1", 0},
		{"@f", 1},
		{"@f\n@g", 2},
		{"@f\nend", 0},
		{"@f\n@g\nend", 1},
	}
	for _, tt := range tests {
		if got := openLabels(tt.input); got != tt.want {
			t.Errorf("openLabels(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
