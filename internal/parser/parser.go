package parser

import (
	"darkvm/internal/code"
	"darkvm/internal/lexer"
	"darkvm/internal/object"
	"darkvm/internal/token"
	"fmt"
	"strconv"
)

// Parser turns the token stream into the flat instruction sequence plus
// label table the VM consumes. Argument grouping is line-oriented: an
// instruction's argument slots are the remaining tokens of its source line,
// and a nested instruction consumes its own slots from the same line.
type Parser struct {
	l      *lexer.Lexer
	errors []string
}

// pendingLabel tracks an open `@name ... end` region while its body is
// still being parsed.
type pendingLabel struct {
	name       string
	parameters []string
	start      int
	position   int
	encloser   string
}

func New(l *lexer.Lexer) *Parser {
	return &Parser{l: l}
}

func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) ParseProgram() *code.Program {
	prog := code.NewProgram()
	var labelStack []*pendingLabel

	for {
		line, eof := p.readLine()
		if len(line) > 0 {
			switch line[0].Type {
			case token.LABEL:
				encloser := ""
				if len(labelStack) > 0 {
					encloser = labelStack[len(labelStack)-1].name
				}
				pending := &pendingLabel{
					name:     line[0].Literal,
					start:    prog.Len(),
					position: line[0].Position,
					encloser: encloser,
				}
				for _, tok := range line[1:] {
					if tok.Type != token.IDENT {
						p.addError("expected parameter name for label '@%s', got %s at position %d",
							pending.name, tok.Type, tok.Position)
						continue
					}
					pending.parameters = append(pending.parameters, tok.Literal)
				}
				labelStack = append(labelStack, pending)
				prog.Instructions = append(prog.Instructions, &code.Instruction{
					Op:       code.OpLabel,
					Args:     []code.Arg{&code.Identifier{Position: line[0].Position, Name: pending.name}},
					Position: line[0].Position,
				})

			case token.END:
				if len(line) > 1 {
					p.addError("unexpected token %s after 'end' at position %d", line[1].Type, line[1].Position)
				}
				if len(labelStack) == 0 {
					p.addError("'end' without a matching label at position %d", line[0].Position)
					break
				}
				pending := labelStack[len(labelStack)-1]
				labelStack = labelStack[:len(labelStack)-1]
				prog.Instructions = append(prog.Instructions, &code.Instruction{
					Op:       code.OpEnd,
					Position: line[0].Position,
				})
				if _, exists := prog.Labels[pending.name]; exists {
					p.addError("label '@%s' is already defined at position %d", pending.name, pending.position)
					break
				}
				prog.Labels[pending.name] = &code.Label{
					Name:       pending.name,
					Parameters: pending.parameters,
					Start:      pending.start,
					End:        prog.Len() - 1,
					Encloser:   pending.encloser,
				}

			default:
				idx := 0
				ins := p.parseInstruction(line, &idx)
				if ins == nil {
					break
				}
				if idx < len(line) {
					p.addError("unexpected token %s at position %d", line[idx].Type, line[idx].Position)
					break
				}
				prog.Instructions = append(prog.Instructions, ins)
			}
		}
		if eof {
			break
		}
	}

	for _, pending := range labelStack {
		p.addError("label '@%s' at position %d has no matching 'end'", pending.name, pending.position)
	}

	return prog
}

// readLine collects the tokens up to the next NEWLINE or EOF.
func (p *Parser) readLine() (line []token.Token, eof bool) {
	for {
		tok := p.l.NextToken()
		switch tok.Type {
		case token.NEWLINE:
			return line, false
		case token.EOF:
			return line, true
		case token.ILLEGAL:
			p.addError("illegal token '%s' at position %d", tok.Literal, tok.Position)
		default:
			line = append(line, tok)
		}
	}
}

func (p *Parser) parseInstruction(line []token.Token, idx *int) *code.Instruction {
	tok := line[*idx]
	*idx++

	if !token.IsInstruction(tok.Type) {
		p.addError("expected an instruction, got %s at position %d", tok.Type, tok.Position)
		return nil
	}

	ins := &code.Instruction{Op: opcodeFor(tok.Type), Position: tok.Position}

	switch tok.Type {
	case token.POP, token.PEEK:
		// no arguments

	case token.PUSH, token.JMP, token.RJMP, token.JMPT, token.JMPF,
		token.RJMPT, token.RJMPF, token.PRINT, token.PRINTN:
		if !p.appendArgs(ins, line, idx, 1) {
			return nil
		}

	case token.ADD, token.SUB, token.MUL, token.DIV, token.MOD:
		// Explicit form when the line continues, stack form otherwise.
		if *idx < len(line) {
			if !p.appendArgs(ins, line, idx, 2) {
				return nil
			}
		}

	case token.LT, token.LTE, token.GT, token.GTE, token.EQ, token.NEQ:
		if !p.appendArgs(ins, line, idx, 2) {
			return nil
		}

	case token.SET:
		name, ok := p.expectIdent(tok, line, idx)
		if !ok {
			return nil
		}
		ins.Args = append(ins.Args, name)
		if !p.appendArgs(ins, line, idx, 1) {
			return nil
		}

	case token.CALL:
		name, ok := p.expectIdent(tok, line, idx)
		if !ok {
			return nil
		}
		ins.Args = append(ins.Args, name)
		for *idx < len(line) {
			arg := p.parseArg(line, idx)
			if arg == nil {
				return nil
			}
			ins.Args = append(ins.Args, arg)
		}
	}

	return ins
}

// appendArgs parses exactly n argument slots onto ins.
func (p *Parser) appendArgs(ins *code.Instruction, line []token.Token, idx *int, n int) bool {
	for i := 0; i < n; i++ {
		if *idx >= len(line) {
			p.addError("'%s' expects %d more argument(s) at position %d", ins.Op, n-i, ins.Position)
			return false
		}
		arg := p.parseArg(line, idx)
		if arg == nil {
			return false
		}
		ins.Args = append(ins.Args, arg)
	}
	return true
}

func (p *Parser) parseArg(line []token.Token, idx *int) code.Arg {
	tok := line[*idx]

	if token.IsInstruction(tok.Type) {
		nested := p.parseInstruction(line, idx)
		if nested == nil {
			return nil
		}
		return &code.Nested{Instruction: nested}
	}

	*idx++
	switch tok.Type {
	case token.IDENT:
		return &code.Identifier{Position: tok.Position, Name: tok.Literal}
	case token.INT:
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.addError("invalid integer literal '%s' at position %d", tok.Literal, tok.Position)
			return nil
		}
		return &code.Literal{Position: tok.Position, Value: &object.Integer{Value: value}}
	case token.FLOAT:
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addError("invalid float literal '%s' at position %d", tok.Literal, tok.Position)
			return nil
		}
		return &code.Literal{Position: tok.Position, Value: &object.Float{Value: value}}
	case token.STRING:
		return &code.Literal{Position: tok.Position, Value: &object.String{Value: tok.Literal}}
	case token.TRUE:
		return &code.Literal{Position: tok.Position, Value: object.TRUE}
	case token.FALSE:
		return &code.Literal{Position: tok.Position, Value: object.FALSE}
	case token.VOID:
		return &code.Literal{Position: tok.Position, Value: object.VOID}
	case token.ANY:
		return &code.Literal{Position: tok.Position, Value: &object.Any{}}
	default:
		p.addError("unexpected token %s in argument position at position %d", tok.Type, tok.Position)
		return nil
	}
}

// expectIdent consumes a bare (unevaluated) name slot, as used by set and
// call.
func (p *Parser) expectIdent(opTok token.Token, line []token.Token, idx *int) (*code.Identifier, bool) {
	if *idx >= len(line) {
		p.addError("'%s' expects a name at position %d", opTok.Literal, opTok.Position)
		return nil, false
	}
	tok := line[*idx]
	if tok.Type != token.IDENT {
		p.addError("'%s' expects a name, got %s at position %d", opTok.Literal, tok.Type, tok.Position)
		return nil, false
	}
	*idx++
	return &code.Identifier{Position: tok.Position, Name: tok.Literal}, true
}

func (p *Parser) addError(format string, a ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf(format, a...))
}

func opcodeFor(t token.TokenType) code.Opcode {
	switch t {
	case token.PUSH:
		return code.OpPush
	case token.POP:
		return code.OpPop
	case token.PEEK:
		return code.OpPeek
	case token.ADD:
		return code.OpAdd
	case token.SUB:
		return code.OpSub
	case token.MUL:
		return code.OpMul
	case token.DIV:
		return code.OpDiv
	case token.MOD:
		return code.OpMod
	case token.LT:
		return code.OpLt
	case token.LTE:
		return code.OpLte
	case token.GT:
		return code.OpGt
	case token.GTE:
		return code.OpGte
	case token.EQ:
		return code.OpEq
	case token.NEQ:
		return code.OpNeq
	case token.JMP:
		return code.OpJmp
	case token.RJMP:
		return code.OpRjmp
	case token.JMPT:
		return code.OpJmpt
	case token.JMPF:
		return code.OpJmpf
	case token.RJMPT:
		return code.OpRjmpt
	case token.RJMPF:
		return code.OpRjmpf
	case token.SET:
		return code.OpSet
	case token.CALL:
		return code.OpCall
	case token.PRINT:
		return code.OpPrint
	case token.PRINTN:
		return code.OpPrintn
	}
	return code.Opcode(t)
}
