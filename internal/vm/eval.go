package vm

import (
	"darkvm/internal/code"
	"darkvm/internal/object"
	"math"
)

// evaluate runs a single instruction, returning its evaluation value and
// whether it transferred control (in which case the program counter was set
// explicitly and must not be advanced).
//
// Argument slots are evaluated depth-first, left-to-right; a nested
// instruction in an argument position behaves exactly like a top-level one,
// side effects included.
func (vm *VM) evaluate(ins *code.Instruction) (object.Object, bool, error) {
	switch ins.Op {

	case code.OpLabel:
		// A label declaration in straight-line execution just skips its
		// body; the body only runs when called.
		name := ins.Args[0].(*code.Identifier).Name
		label, ok := vm.program.Labels[name]
		if !ok {
			return nil, false, vm.newError(UndefinedLabel, ins.Position, "label '@%s' is not defined", name)
		}
		vm.pc = label.End + 1
		return object.VOID, true, nil

	case code.OpEnd:
		if len(vm.callStack) == 0 {
			return nil, false, vm.newError(StackUnderflow, ins.Position, "'end' with no active call frame")
		}
		top := vm.callStack[len(vm.callStack)-1]
		vm.callStack = vm.callStack[:len(vm.callStack)-1]
		vm.pc = top.returnIndex
		return object.VOID, true, nil

	case code.OpPush:
		value, transferred, err := vm.evalValueArg(ins.Args[0])
		if err != nil {
			return nil, transferred, err
		}
		vm.push(value)
		return object.VOID, transferred, nil

	case code.OpPop:
		value, err := vm.pop(ins.Position)
		if err != nil {
			return nil, false, err
		}
		return value, false, nil

	case code.OpPeek:
		value, err := vm.peek(ins.Position)
		if err != nil {
			return nil, false, err
		}
		return value, false, nil

	case code.OpAdd, code.OpSub, code.OpMul, code.OpDiv, code.OpMod:
		return vm.evalArithmetic(ins)

	case code.OpLt, code.OpLte, code.OpGt, code.OpGte:
		return vm.evalOrdering(ins)

	case code.OpEq, code.OpNeq:
		left, ltr, err := vm.evalValueArg(ins.Args[0])
		if err != nil {
			return nil, ltr, err
		}
		right, rtr, err := vm.evalValueArg(ins.Args[1])
		if err != nil {
			return nil, ltr || rtr, err
		}
		equal := object.Equals(left, right)
		if ins.Op == code.OpNeq {
			equal = !equal
		}
		return nativeBoolToBooleanObject(equal), ltr || rtr, nil

	case code.OpJmp, code.OpRjmp:
		return vm.evalJump(ins, ins.Op == code.OpRjmp)

	case code.OpJmpt, code.OpJmpf, code.OpRjmpt, code.OpRjmpf:
		return vm.evalConditionalJump(ins)

	case code.OpSet:
		name := ins.Args[0].(*code.Identifier).Name
		value, transferred, err := vm.evalValueArg(ins.Args[1])
		if err != nil {
			return nil, transferred, err
		}
		vm.CurrentEnv().Define(name, value)
		return object.VOID, transferred, nil

	case code.OpCall:
		return vm.evalCall(ins)

	case code.OpPrint, code.OpPrintn:
		value, transferred, err := vm.evalValueArg(ins.Args[0])
		if err != nil {
			return nil, transferred, err
		}
		if err := vm.sink.Write(value.Inspect(), ins.Op == code.OpPrintn); err != nil {
			return nil, transferred, vm.newError(IOError, ins.Position, "output sink failed: %s", err)
		}
		return object.VOID, transferred, nil
	}

	return nil, false, vm.newError(TypeError, ins.Position, "unknown instruction '%s'", ins.Op)
}

// evalArg resolves one argument slot to its value: literals evaluate to
// themselves, identifiers through the scope chain, nested instructions
// recursively.
func (vm *VM) evalArg(arg code.Arg) (object.Object, bool, error) {
	switch arg := arg.(type) {
	case *code.Literal:
		return arg.Value, false, nil
	case *code.Identifier:
		value, ok := vm.CurrentEnv().Get(arg.Name)
		if !ok {
			return nil, false, vm.newError(UndefinedVariable, arg.Position, "'%s' is not defined", arg.Name)
		}
		return value, false, nil
	case *code.Nested:
		return vm.evaluate(arg.Instruction)
	}
	return nil, false, vm.newError(TypeError, arg.Pos(), "unsupported argument form")
}

// evalValueArg is evalArg for positions that require an actual value: a Void
// result (or an empty Any) is a type error, and Any wrappers are unwrapped.
func (vm *VM) evalValueArg(arg code.Arg) (object.Object, bool, error) {
	value, transferred, err := vm.evalArg(arg)
	if err != nil {
		return nil, transferred, err
	}
	value = object.Unwrap(value)
	if value.Type() == object.VOID_OBJ || value.Type() == object.ANY_OBJ {
		return nil, transferred, vm.newError(TypeError, arg.Pos(), "expected a value, got %s", value.Type())
	}
	return value, transferred, nil
}

func (vm *VM) evalArithmetic(ins *code.Instruction) (object.Object, bool, error) {
	var left, right object.Object
	var transferred bool

	if len(ins.Args) == 0 {
		// Stack form: first pop is the right-hand operand, so that
		// push a, push b computes a OP b.
		var err error
		if right, err = vm.pop(ins.Position); err != nil {
			return nil, false, err
		}
		if left, err = vm.pop(ins.Position); err != nil {
			return nil, false, err
		}
	} else {
		var ltr, rtr bool
		var err error
		if left, ltr, err = vm.evalValueArg(ins.Args[0]); err != nil {
			return nil, ltr, err
		}
		if right, rtr, err = vm.evalValueArg(ins.Args[1]); err != nil {
			return nil, ltr || rtr, err
		}
		transferred = ltr || rtr
	}

	lhs, err := vm.numericOperand(left, ins)
	if err != nil {
		return nil, transferred, err
	}
	rhs, err := vm.numericOperand(right, ins)
	if err != nil {
		return nil, transferred, err
	}

	// Mixed operands promote to floating point.
	if lhs.isFloat || rhs.isFloat {
		result, err := vm.floatArithmetic(ins, lhs.asFloat(), rhs.asFloat())
		return result, transferred, err
	}
	result, err := vm.integerArithmetic(ins, lhs.intValue, rhs.intValue)
	return result, transferred, err
}

func (vm *VM) integerArithmetic(ins *code.Instruction, left, right int64) (object.Object, error) {
	switch ins.Op {
	case code.OpAdd:
		return &object.Integer{Value: left + right}, nil
	case code.OpSub:
		return &object.Integer{Value: left - right}, nil
	case code.OpMul:
		return &object.Integer{Value: left * right}, nil
	case code.OpDiv:
		if right == 0 {
			return nil, vm.newError(DivisionByZero, ins.Position, "tried to divide by 0")
		}
		return &object.Integer{Value: left / right}, nil
	case code.OpMod:
		if right == 0 {
			return nil, vm.newError(DivisionByZero, ins.Position, "tried to divide by 0")
		}
		return &object.Integer{Value: left % right}, nil
	}
	return nil, vm.newError(TypeError, ins.Position, "unknown arithmetic instruction '%s'", ins.Op)
}

func (vm *VM) floatArithmetic(ins *code.Instruction, left, right float64) (object.Object, error) {
	switch ins.Op {
	case code.OpAdd:
		return &object.Float{Value: left + right}, nil
	case code.OpSub:
		return &object.Float{Value: left - right}, nil
	case code.OpMul:
		return &object.Float{Value: left * right}, nil
	case code.OpDiv:
		if right == 0 {
			return nil, vm.newError(DivisionByZero, ins.Position, "tried to divide by 0")
		}
		return &object.Float{Value: left / right}, nil
	case code.OpMod:
		if right == 0 {
			return nil, vm.newError(DivisionByZero, ins.Position, "tried to divide by 0")
		}
		return &object.Float{Value: math.Mod(left, right)}, nil
	}
	return nil, vm.newError(TypeError, ins.Position, "unknown arithmetic instruction '%s'", ins.Op)
}

func (vm *VM) evalOrdering(ins *code.Instruction) (object.Object, bool, error) {
	left, ltr, err := vm.evalValueArg(ins.Args[0])
	if err != nil {
		return nil, ltr, err
	}
	right, rtr, err := vm.evalValueArg(ins.Args[1])
	if err != nil {
		return nil, ltr || rtr, err
	}
	transferred := ltr || rtr

	lhs, err := vm.numericOperand(left, ins)
	if err != nil {
		return nil, transferred, err
	}
	rhs, err := vm.numericOperand(right, ins)
	if err != nil {
		return nil, transferred, err
	}

	lf, rf := lhs.asFloat(), rhs.asFloat()
	var result bool
	switch ins.Op {
	case code.OpLt:
		result = lf < rf
	case code.OpLte:
		result = lf <= rf
	case code.OpGt:
		result = lf > rf
	case code.OpGte:
		result = lf >= rf
	}
	return nativeBoolToBooleanObject(result), transferred, nil
}

func (vm *VM) evalJump(ins *code.Instruction, relative bool) (object.Object, bool, error) {
	target, transferred, err := vm.jumpTarget(ins, relative)
	if err != nil {
		return nil, transferred, err
	}
	vm.pc = target
	return object.VOID, true, nil
}

// evalConditionalJump peeks the branch condition without consuming it, so
// the condition is still on the stack on both sides of the branch.
func (vm *VM) evalConditionalJump(ins *code.Instruction) (object.Object, bool, error) {
	top, err := vm.peek(ins.Position)
	if err != nil {
		return nil, false, err
	}
	cond, ok := object.Unwrap(top).(*object.Boolean)
	if !ok {
		return nil, false, vm.newError(TypeError, ins.Position, "expected BOOLEAN on top of the stack, got %s", top.Type())
	}

	wantTrue := ins.Op == code.OpJmpt || ins.Op == code.OpRjmpt
	relative := ins.Op == code.OpRjmpt || ins.Op == code.OpRjmpf

	if cond.Value != wantTrue {
		return object.VOID, false, nil
	}

	target, transferred, err := vm.jumpTarget(ins, relative)
	if err != nil {
		return nil, transferred, err
	}
	vm.pc = target
	return object.VOID, true, nil
}

// jumpTarget evaluates a jump's target argument, applies the relative offset
// when asked, and bounds-checks the result against [0, len).
func (vm *VM) jumpTarget(ins *code.Instruction, relative bool) (int, bool, error) {
	value, transferred, err := vm.evalValueArg(ins.Args[0])
	if err != nil {
		return 0, transferred, err
	}
	operand, ok := value.(*object.Integer)
	if !ok {
		return 0, transferred, vm.newError(TypeError, ins.Args[0].Pos(), "expected INT jump target, got %s", value.Type())
	}
	target := operand.Value
	if relative {
		target += int64(vm.pc)
	}
	if target < 0 || target >= int64(vm.program.Len()) {
		return 0, transferred, vm.newError(InvalidJumpTarget, ins.Position,
			"jump target %d is outside [0, %d)", target, vm.program.Len())
	}
	return int(target), transferred, nil
}

func (vm *VM) evalCall(ins *code.Instruction) (object.Object, bool, error) {
	name := ins.Args[0].(*code.Identifier).Name
	label, ok := vm.program.Labels[name]
	if !ok {
		return nil, false, vm.newError(UndefinedLabel, ins.Position, "label '@%s' is not defined", name)
	}

	args := make([]object.Object, 0, len(ins.Args)-1)
	for _, arg := range ins.Args[1:] {
		value, _, err := vm.evalValueArg(arg)
		if err != nil {
			return nil, false, err
		}
		args = append(args, value)
	}

	vm.enterLabel(label, args, vm.pc+1)
	return object.VOID, true, nil
}

// numeric is an arithmetic operand after type checking, pre-promotion.
type numeric struct {
	isFloat    bool
	intValue   int64
	floatValue float64
}

func (n numeric) asFloat() float64 {
	if n.isFloat {
		return n.floatValue
	}
	return float64(n.intValue)
}

func (vm *VM) numericOperand(obj object.Object, ins *code.Instruction) (numeric, error) {
	switch obj := object.Unwrap(obj).(type) {
	case *object.Integer:
		return numeric{intValue: obj.Value}, nil
	case *object.Float:
		return numeric{isFloat: true, floatValue: obj.Value}, nil
	}
	return numeric{}, vm.newError(TypeError, ins.Position,
		"'%s' cannot be applied to %s", ins.Op, obj.Type())
}

func nativeBoolToBooleanObject(input bool) *object.Boolean {
	if input {
		return object.TRUE
	}
	return object.FALSE
}
