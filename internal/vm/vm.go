package vm

import (
	"darkvm/internal/code"
	"darkvm/internal/object"
	"log/slog"
)

// StepHook observes each instruction just before it executes. The trace
// recorder hangs off this; a nil hook costs nothing.
type StepHook func(index int, ins *code.Instruction)

// frame is one activation record: where to resume after the label's end, and
// the scope created for this call. The scope's parent is the callee's
// definition scope, never the caller's.
type frame struct {
	label       *code.Label
	returnIndex int
	env         *object.Environment
}

// VM executes a program against an operand stack, a call stack and a lexical
// scope chain. One instruction evaluates at a time, to completion; the only
// state shared across instructions is what lives in the VM itself, so a
// fresh VM over the same program always replays the same run.
type VM struct {
	program *code.Program
	sink    Sink

	operandStack []object.Object
	callStack    []*frame
	rootEnv      *object.Environment
	templates    map[string]*object.Environment
	pc           int

	// StepLimit aborts the run after that many instructions when > 0.
	// This is host policy, not a language construct.
	StepLimit int
	Hook      StepHook

	steps int
}

func New(program *code.Program, sink Sink) *VM {
	return &VM{
		program:   program,
		sink:      sink,
		rootEnv:   object.NewEnvironment(),
		templates: make(map[string]*object.Environment),
	}
}

// Program exposes the table the VM was built over; the REPL extends it
// between runs.
func (vm *VM) Program() *code.Program {
	return vm.program
}

// CurrentEnv returns the scope of the innermost active frame, or the root
// scope when the call stack is empty.
func (vm *VM) CurrentEnv() *object.Environment {
	if len(vm.callStack) == 0 {
		return vm.rootEnv
	}
	return vm.callStack[len(vm.callStack)-1].env
}

// StackDepth reports the operand stack size. Used by tests and the REPL.
func (vm *VM) StackDepth() int {
	return len(vm.operandStack)
}

// Run executes instructions from the current program counter until the end
// of the sequence or a fatal error. It returns the evaluation value of the
// last instruction executed, which the REPL echoes back.
func (vm *VM) Run() (object.Object, error) {
	var last object.Object = object.VOID
	for vm.pc < vm.program.Len() {
		if vm.StepLimit > 0 {
			vm.steps++
			if vm.steps > vm.StepLimit {
				return last, vm.newError(Aborted, 0, "step limit of %d exceeded", vm.StepLimit)
			}
		}

		ins := vm.program.Instructions[vm.pc]
		if vm.Hook != nil {
			vm.Hook(vm.pc, ins)
		}
		slog.Debug("step",
			slog.Int("pc", vm.pc),
			slog.String("op", string(ins.Op)))

		result, transferred, err := vm.evaluate(ins)
		if err != nil {
			return last, err
		}
		last = result
		if !transferred {
			vm.pc++
		}
	}
	return last, nil
}

// RunLabel enters a named label as the program's entry point: its end
// transfers past the last instruction, halting the run. File execution uses
// this for the conventional `@main`.
func (vm *VM) RunLabel(name string) (object.Object, error) {
	label, ok := vm.program.Labels[name]
	if !ok {
		return object.VOID, vm.newError(UndefinedLabel, 0, "label '@%s' is not defined", name)
	}
	vm.enterLabel(label, nil, vm.program.Len())
	return vm.Run()
}

// enterLabel pushes a fresh activation frame for label and moves the program
// counter to its body. The frame scope is chained to the label's definition
// scope; formal parameters are bound positionally to args, and arity is
// deliberately not enforced: extra args are dropped, missing formals stay
// unbound.
func (vm *VM) enterLabel(label *code.Label, args []object.Object, returnIndex int) {
	env := object.NewEnclosedEnvironment(vm.definitionScope(label))
	for i, name := range label.Parameters {
		if i >= len(args) {
			break
		}
		env.Define(name, args[i])
	}
	vm.callStack = append(vm.callStack, &frame{
		label:       label,
		returnIndex: returnIndex,
		env:         env,
	})
	vm.pc = label.Start + 1
}

// definitionScope resolves the scope a fresh call frame chains to: the scope
// that was current where the label's header appears textually. For a
// top-level label that is the root scope. For a nested label it is the
// nearest live frame of the enclosing label, so the body sees bindings set
// at runtime by its encloser; when the encloser has no live frame, the
// label's load-time scope template stands in.
func (vm *VM) definitionScope(label *code.Label) *object.Environment {
	if label.Encloser == "" {
		return vm.rootEnv
	}
	for i := len(vm.callStack) - 1; i >= 0; i-- {
		if vm.callStack[i].label.Name == label.Encloser {
			return vm.callStack[i].env
		}
	}
	return vm.template(label)
}

// template lazily builds the definition-scope stand-in for a label whose
// encloser is not active: an empty scope chained to the encloser's own
// template. The cache is per machine, keeping the program read-only and
// runs over a shared program independent; lazy because the REPL can add
// labels after construction.
func (vm *VM) template(label *code.Label) *object.Environment {
	if env, ok := vm.templates[label.Name]; ok {
		return env
	}
	encloser, ok := vm.program.Labels[label.Encloser]
	if !ok || label.Encloser == "" {
		vm.templates[label.Name] = vm.rootEnv
		return vm.rootEnv
	}
	env := object.NewEnclosedEnvironment(vm.template(encloser))
	vm.templates[label.Name] = env
	return env
}

// Halt moves the program counter past the end of the sequence. The REPL
// uses this to step over a faulted instruction before resuming.
func (vm *VM) Halt() {
	vm.pc = vm.program.Len()
	vm.callStack = nil
}

func (vm *VM) push(obj object.Object) {
	vm.operandStack = append(vm.operandStack, obj)
}

func (vm *VM) pop(position int) (object.Object, error) {
	if len(vm.operandStack) == 0 {
		return nil, vm.newError(StackUnderflow, position, "tried to pop from an empty stack")
	}
	top := vm.operandStack[len(vm.operandStack)-1]
	vm.operandStack = vm.operandStack[:len(vm.operandStack)-1]
	return top, nil
}

func (vm *VM) peek(position int) (object.Object, error) {
	if len(vm.operandStack) == 0 {
		return nil, vm.newError(StackUnderflow, position, "tried to peek at an empty stack")
	}
	return vm.operandStack[len(vm.operandStack)-1], nil
}
