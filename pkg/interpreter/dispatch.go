package interpreter

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/mpplang/mpp/pkg/parser"
	"github.com/mpplang/mpp/pkg/program"
	"github.com/mpplang/mpp/pkg/types"
)

// execute dispatches one instruction. Control-flow opcodes assign i.PC
// directly; Step adds one afterwards.
func (i *Interpreter) execute(inst *program.Instruction) {
	if inst.Op.IsArith() || inst.Op.IsCompare() {
		i.binary(inst)
		return
	}

	switch inst.Op {
	case program.OpLabel:
		// nothing

	// === Output / control ===
	case program.OpPrint:
		text := i.render(inst.Template)
		fmt.Fprintln(i.Output, i.Color+text+ColorReset)
		i.Log = append(i.Log, text)

	case program.OpHalt:
		i.Running = false

	case program.OpColor:
		if op, ok := inst.Operand(0); ok {
			i.Color = ColorCode(op.Raw)
		}

	// === Stack / memory ===
	case program.OpPush:
		op, ok := inst.Operand(0)
		if !ok {
			fmt.Fprintln(i.Output)
			return
		}
		i.Push(i.operandValue(op))

	case program.OpPopPrint:
		fmt.Fprintln(i.Output, i.Pop().String())

	case program.OpMemSet:
		addr, okAddr := i.intOperand(inst, 0)
		v, okVal := i.intOperand(inst, 1)
		if okAddr && okVal {
			i.MemWrite(addr, v)
		}

	case program.OpMemGet:
		addr, ok := i.intOperand(inst, 0)
		if !ok {
			i.Push(types.Int(0))
			return
		}
		i.Push(types.Int(i.MemRead(addr)))

	case program.OpRandom:
		limit := int64(256)
		if len(inst.Operands) > 0 {
			n, ok := i.intOperand(inst, 0)
			if !ok {
				i.Push(types.Int(0))
				return
			}
			limit = n
		}
		if limit <= 0 {
			i.fault(types.ErrParse, fmt.Sprintf("random limit %d is not positive", limit))
			i.Push(types.Int(0))
			return
		}
		i.Push(types.Int(i.Rand.Int63n(limit)))

	case program.OpDup:
		v := i.Pop()
		i.Push(v)
		i.Push(v)

	case program.OpSwap:
		a := i.Pop()
		b := i.Pop()
		i.Push(a)
		i.Push(b)

	case program.OpReverse:
		slices.Reverse(i.Stack)

	case program.OpRandMem:
		for addr := int64(0); addr < 16; addr++ {
			i.MemWrite(addr, i.Rand.Int63n(256))
		}

	case program.OpSumFirst:
		i.Push(types.Int(i.MemRead(0) + i.MemRead(1)))

	case program.OpStackText:
		i.printStackText()

	// === Logic ===
	case program.OpAnd, program.OpOr:
		b := i.Pop()
		a := i.Pop()
		v, ok := bitwise(inst.Op, a, b)
		i.pushResult(inst, v, ok, a, b)

	case program.OpXor:
		// popped in the opposite order to & and |
		a := i.Pop()
		b := i.Pop()
		v, ok := bitwise(inst.Op, a, b)
		i.pushResult(inst, v, ok, a, b)

	case program.OpNot:
		a := i.Pop()
		n, ok := toNumber(a)
		if !ok || n.isFloat {
			i.fault(types.ErrTypeMismatch, fmt.Sprintf("%s %s", inst.Mnemonic, a.Type()))
			i.Push(types.Int(0))
			return
		}
		i.Push(types.Int(^n.i))

	// === Control flow ===
	case program.OpBranchZero:
		if types.IsZero(i.Pop()) {
			i.jump(inst)
		}

	case program.OpLoopOpen:
		i.LoopMarkers = append(i.LoopMarkers, i.PC)

	case program.OpLoopClose:
		if n := len(i.LoopMarkers); n > 0 {
			i.PC = i.LoopMarkers[n-1] - 1
		}

	case program.OpJumpNZ:
		if !types.IsZero(i.Pop()) {
			i.jump(inst)
		}

	case program.OpCallOpen:
		i.CallReturns = append(i.CallReturns, i.PC)

	case program.OpCallClose:
		if n := len(i.CallReturns); n > 0 {
			i.PC = i.CallReturns[n-1]
			i.CallReturns = i.CallReturns[:n-1]
		}

	// === Input / variables ===
	case program.OpInput:
		i.readInput(inst)

	case program.OpDeclInt, program.OpDeclFlt, program.OpDeclStr, program.OpDeclBool:
		i.declare(inst)

	default:
		i.fault(types.ErrUnknownSymbol, inst.Mnemonic)
	}
}

// jump moves the PC to the label named by the first operand, if known
func (i *Interpreter) jump(inst *program.Instruction) {
	op, ok := inst.Operand(0)
	if !ok {
		return
	}
	if idx, ok := i.Program.Label(op.Raw); ok {
		i.PC = idx
	}
}

// binary pops b then a and pushes the result of + - * / % > < =
func (i *Interpreter) binary(inst *program.Instruction) {
	b := i.Pop()
	a := i.Pop()
	var v types.Value
	var ok bool
	if inst.Op.IsArith() {
		v, ok = arith(inst.Op, a, b)
	} else {
		v, ok = compare(inst.Op, a, b)
	}
	i.pushResult(inst, v, ok, a, b)
}

func (i *Interpreter) pushResult(inst *program.Instruction, v types.Value, ok bool, a, b types.Value) {
	if !ok {
		i.fault(types.ErrTypeMismatch, fmt.Sprintf("%s %s %s", a.Type(), inst.Mnemonic, b.Type()))
		v = types.Int(0)
	}
	i.Push(v)
}

// render substitutes $name references in print text
func (i *Interpreter) render(tmpl []parser.Segment) string {
	var sb strings.Builder
	for _, seg := range tmpl {
		if seg.Var != "" {
			sb.WriteString(i.GetVar(seg.Var).String())
			continue
		}
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// operandValue resolves a push operand
func (i *Interpreter) operandValue(op program.Operand) types.Value {
	switch op.Kind {
	case program.VariableRef:
		return i.GetVar(op.Name)
	case program.IntegerLiteral:
		return types.Int(op.Int)
	default:
		return types.Str(op.Raw)
	}
}

// intOperand resolves the n-th operand as an integer, reporting a fault
// when it is missing or not an integer.
func (i *Interpreter) intOperand(inst *program.Instruction, n int) (int64, bool) {
	op, ok := inst.Operand(n)
	if !ok {
		i.fault(types.ErrMissingOperand, fmt.Sprintf("%s needs operand %d", inst.Mnemonic, n+1))
		return 0, false
	}

	switch op.Kind {
	case program.IntegerLiteral:
		return op.Int, true
	case program.VariableRef:
		v := i.GetVar(op.Name)
		if s, isStr := v.(types.Str); isStr {
			if parsed, err := strconv.ParseInt(string(s), 10, 64); err == nil {
				return parsed, true
			}
		} else if iv, ok := types.ToInt(v); ok {
			return int64(iv), true
		}
	}

	i.fault(types.ErrParse, fmt.Sprintf("%q is not an integer", op.Raw))
	return 0, false
}

// printStackText writes every stack element mod 256 as one character
func (i *Interpreter) printStackText() {
	var sb strings.Builder
	for _, v := range i.Stack {
		n, ok := toNumber(v)
		if !ok || n.isFloat {
			i.fault(types.ErrTypeMismatch, fmt.Sprintf("cannot print %s as a character", v.Type()))
			continue
		}
		sb.WriteRune(rune(floorMod(n.i, 256)))
	}
	fmt.Fprintln(i.Output, sb.String())
}

// readInput handles INPUT: a line of digits is pushed and stored as an
// Int, anything else is pushed as character codes followed by 10 and
// stored as a Str.
func (i *Interpreter) readInput(inst *program.Instruction) {
	name := "in"
	if op, ok := inst.Operand(0); ok {
		name = op.Raw
	}

	fmt.Fprint(i.Output, i.Prompt)
	line, err := i.Input.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line == "" {
				i.fault(types.ErrInput, "end of input")
			}
		} else {
			i.fault(types.ErrInput, err.Error())
		}
	}
	line = strings.TrimRight(line, "\r\n")

	if isDigits(line) {
		if n, err := strconv.ParseInt(line, 10, 64); err == nil {
			i.Push(types.Int(n))
			i.SetVar(name, types.Int(n))
			return
		}
	}

	for _, r := range line {
		i.Push(types.Int(r))
	}
	i.Push(types.Int(10))
	i.SetVar(name, types.Str(line))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// declare handles NU FL ST BO
func (i *Interpreter) declare(inst *program.Instruction) {
	nameOp, ok := inst.Operand(0)
	if !ok {
		i.fault(types.ErrMissingOperand, inst.Mnemonic+" needs a variable name")
		return
	}
	valueOp, hasValue := inst.Operand(1)

	var v types.Value
	switch inst.Op {
	case program.OpDeclInt:
		v = types.Int(0)
		if hasValue {
			if valueOp.Kind == program.IntegerLiteral {
				v = types.Int(valueOp.Int)
			} else {
				i.fault(types.ErrParse, fmt.Sprintf("%q is not an integer", valueOp.Raw))
			}
		}

	case program.OpDeclFlt:
		v = types.Float(0)
		if hasValue {
			f, err := strconv.ParseFloat(valueOp.Raw, 64)
			if err != nil {
				i.fault(types.ErrParse, fmt.Sprintf("%q is not a float", valueOp.Raw))
			} else {
				v = types.Float(f)
			}
		}

	case program.OpDeclStr:
		s := inst.RawFrom(1)
		if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
			// a lone quote strips to ""
			s = strings.TrimSuffix(s[1:], `"`)
		}
		v = types.Str(s)

	case program.OpDeclBool:
		v = types.Bool(hasValue && strings.EqualFold(valueOp.Raw, "true"))
	}

	i.SetVar(nameOp.Raw, v)
}
