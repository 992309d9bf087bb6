package code

import (
	"bytes"
	"darkvm/internal/object"
	"fmt"
)

type Opcode string

const (
	OpLabel Opcode = "label"
	OpEnd   Opcode = "end"

	OpPush Opcode = "push"
	OpPop  Opcode = "pop"
	OpPeek Opcode = "peek"

	OpAdd Opcode = "add"
	OpSub Opcode = "sub"
	OpMul Opcode = "mul"
	OpDiv Opcode = "div"
	OpMod Opcode = "mod"

	OpLt  Opcode = "lt"
	OpLte Opcode = "lte"
	OpGt  Opcode = "gt"
	OpGte Opcode = "gte"
	OpEq  Opcode = "eq"
	OpNeq Opcode = "neq"

	OpJmp   Opcode = "jmp"
	OpRjmp  Opcode = "rjmp"
	OpJmpt  Opcode = "jmpt"
	OpJmpf  Opcode = "jmpf"
	OpRjmpt Opcode = "rjmpt"
	OpRjmpf Opcode = "rjmpf"

	OpSet    Opcode = "set"
	OpCall   Opcode = "call"
	OpPrint  Opcode = "print"
	OpPrintn Opcode = "printn"
)

// Arg is one argument slot of an instruction: a literal value, a variable
// reference, or a nested instruction evaluated for its result.
type Arg interface {
	Pos() int
	String() string
	argNode()
}

type Literal struct {
	Position int
	Value    object.Object
}

func (l *Literal) argNode()       {}
func (l *Literal) Pos() int       { return l.Position }
func (l *Literal) String() string { return l.Value.Inspect() }

type Identifier struct {
	Position int
	Name     string
}

func (i *Identifier) argNode()       {}
func (i *Identifier) Pos() int       { return i.Position }
func (i *Identifier) String() string { return i.Name }

type Nested struct {
	Instruction *Instruction
}

func (n *Nested) argNode()       {}
func (n *Nested) Pos() int       { return n.Instruction.Position }
func (n *Nested) String() string { return "(" + n.Instruction.String() + ")" }

type Instruction struct {
	Op       Opcode
	Args     []Arg
	Position int // source byte offset of the opcode token
}

func (ins *Instruction) String() string {
	var out bytes.Buffer
	out.WriteString(string(ins.Op))
	for _, arg := range ins.Args {
		out.WriteString(" ")
		out.WriteString(arg.String())
	}
	return out.String()
}

// Label is a named callable region of the instruction sequence.
//
// Start is the index of the declaration instruction, End the index of the
// matching end marker; the body is (Start, End). Encloser names the label
// whose body textually contains this one ("" for top level) and is what ties
// a fresh call scope to its definition site rather than its call site.
type Label struct {
	Name       string
	Parameters []string
	Start      int
	End        int
	Encloser   string
}

// Program is the read-only table the VM executes: a flat, 0-indexed
// instruction sequence with label bodies inlined in program order, plus the
// label map. It is produced once by the parser and never mutated during a
// run.
type Program struct {
	Instructions []*Instruction
	Labels       map[string]*Label
}

func NewProgram() *Program {
	return &Program{Labels: make(map[string]*Label)}
}

// Len returns the number of instructions; valid jump targets are [0, Len).
func (p *Program) Len() int {
	return len(p.Instructions)
}

// Extend appends another program's instructions, rebasing its label indices.
// The REPL uses this to grow the session program one parsed line at a time.
func (p *Program) Extend(other *Program) error {
	offset := len(p.Instructions)
	for name := range other.Labels {
		if _, exists := p.Labels[name]; exists {
			return fmt.Errorf("label '@%s' is already defined", name)
		}
	}
	for name, label := range other.Labels {
		p.Labels[name] = &Label{
			Name:       label.Name,
			Parameters: label.Parameters,
			Start:      label.Start + offset,
			End:        label.End + offset,
			Encloser:   label.Encloser,
		}
	}
	p.Instructions = append(p.Instructions, other.Instructions...)
	return nil
}

func (p *Program) String() string {
	var out bytes.Buffer
	for i, ins := range p.Instructions {
		fmt.Fprintf(&out, "%04d %s\n", i, ins.String())
	}
	return out.String()
}
