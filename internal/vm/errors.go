package vm

import "fmt"

type ErrorKind string

// Every kind is fatal: the run transitions to its terminal faulted state the
// moment one is raised and no further instructions execute.
const (
	StackUnderflow    ErrorKind = "StackUnderflow"
	TypeError         ErrorKind = "TypeError"
	DivisionByZero    ErrorKind = "DivisionByZero"
	UndefinedVariable ErrorKind = "UndefinedVariable"
	UndefinedLabel    ErrorKind = "UndefinedLabel"
	InvalidJumpTarget ErrorKind = "InvalidJumpTarget"
	IOError           ErrorKind = "IOError"
	Aborted           ErrorKind = "Aborted"
)

// Error reports which instruction failed and why. Index is the instruction
// index in the program sequence, Position the source byte offset of the
// failing token.
type Error struct {
	Kind     ErrorKind
	Index    int
	Position int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at instruction %d (src %d): %s", e.Kind, e.Index, e.Position, e.Message)
}

func (vm *VM) newError(kind ErrorKind, position int, format string, a ...interface{}) *Error {
	return &Error{
		Kind:     kind,
		Index:    vm.pc,
		Position: position,
		Message:  fmt.Sprintf(format, a...),
	}
}
