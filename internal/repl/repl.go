package repl

import (
	"bufio"
	"darkvm/internal/code"
	"darkvm/internal/lexer"
	"darkvm/internal/object"
	"darkvm/internal/parser"
	"darkvm/internal/token"
	"darkvm/internal/vm"
	"fmt"
	"io"
)

const (
	PROMPT          = ">> "
	CONTINUE_PROMPT = ".. "
)

// Start runs an interactive session over one persistent machine: each
// complete input extends the session program and the VM resumes where it
// stopped, so the operand stack, scopes and labels survive between lines.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	machine := vm.New(code.NewProgram(), &vm.WriterSink{Out: out})

	buffer := ""
	prompt := PROMPT
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return
		}
		buffer += scanner.Text() + "\n"

		// Keep reading while a label block is still open.
		if openLabels(buffer) > 0 {
			prompt = CONTINUE_PROMPT
			continue
		}
		prompt = PROMPT

		l := lexer.New(buffer)
		p := parser.New(l)
		parsed := p.ParseProgram()
		buffer = ""
		if len(p.Errors()) != 0 {
			printParserErrors(out, p.Errors())
			continue
		}

		if err := machine.Program().Extend(parsed); err != nil {
			fmt.Fprintf(out, "%s\n", err)
			continue
		}

		result, err := machine.Run()
		if err != nil {
			fmt.Fprintf(out, "runtime error: %s\n", err)
			// Skip past the faulting instruction so the session can go on.
			machine.Halt()
			continue
		}
		if result != nil && result.Type() != object.VOID_OBJ {
			io.WriteString(out, result.Inspect())
			io.WriteString(out, "\n")
		}
	}
}

// openLabels counts label headers minus end markers in the pending input.
func openLabels(src string) int {
	l := lexer.New(src)
	depth := 0
	for {
		tok := l.NextToken()
		switch tok.Type {
		case token.LABEL:
			depth++
		case token.END:
			depth--
		case token.EOF:
			return depth
		}
	}
}

func printParserErrors(out io.Writer, errors []string) {
	io.WriteString(out, "parser errors:\n")
	for _, msg := range errors {
		io.WriteString(out, "\t"+msg+"\n")
	}
}
