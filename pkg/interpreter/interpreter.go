// Package interpreter provides the M++ execution engine.
// It owns the data stack, linear memory, loop and call stacks, the
// variable table and the program counter of one running program.
package interpreter

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/mpplang/mpp/pkg/program"
	"github.com/mpplang/mpp/pkg/types"
)

// MemorySize is the number of linear memory cells
const MemorySize = 1_000_000

// DefaultPrompt is written before every INPUT read
const DefaultPrompt = "> "

// Interpreter is the M++ execution engine
type Interpreter struct {
	// Program is the loaded program; never mutated
	Program *program.Program

	// Stack is the main data stack
	Stack []types.Value

	// Memory is the linear memory, all zero at start
	Memory []int64

	// LoopMarkers holds the PCs saved by '['; ']' reads but never pops them
	LoopMarkers []int

	// CallReturns holds the PCs saved by '{'; '}' pops them
	CallReturns []int

	// Variables maps names to typed values
	Variables map[string]types.Value

	// PC is the index of the current line
	PC int

	// Running is cleared by Q
	Running bool

	// Color is the escape sequence prefixed to printed text
	Color string

	// Log collects the substituted text of every print instruction
	Log []string

	// Faults collects every reported anomaly in order
	Faults []*types.Fault

	// Gas is the remaining step budget; MaxGas 0 means unlimited
	Gas    int
	MaxGas int

	// Steps counts dispatched instructions
	Steps int

	// Output writer (default: os.Stdout)
	Output io.Writer

	// Input is read by INPUT (default: os.Stdin)
	Input *bufio.Reader

	// Prompt is written to Output before every INPUT read
	Prompt string

	// Logger receives faults and, in debug mode, a trace of every step
	Logger *slog.Logger

	// Rand drives ~ and RM
	Rand *rand.Rand

	// Debug mode traces every step
	Debug bool
}

// New creates an interpreter for prog with standard I/O attached
func New(prog *program.Program) *Interpreter {
	interp := &Interpreter{
		Program:   prog,
		Stack:     make([]types.Value, 0, 64),
		Memory:    make([]int64, MemorySize),
		Variables: make(map[string]types.Value),
		Running:   true,
		Color:     ColorReset,
		Output:    os.Stdout,
		Input:     bufio.NewReader(os.Stdin),
		Prompt:    DefaultPrompt,
		Logger:    slog.Default(),
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return interp
}

// SetInput replaces the input stream
func (i *Interpreter) SetInput(r io.Reader) {
	i.Input = bufio.NewReader(r)
}

// Seed reseeds the random source
func (i *Interpreter) Seed(seed int64) {
	i.Rand = rand.New(rand.NewSource(seed))
}

// SetGas sets the step budget (0 = unlimited)
func (i *Interpreter) SetGas(gas int) {
	i.MaxGas = gas
	i.Gas = gas
}

// Reset returns the execution state to its initial values; the program,
// I/O streams and configuration are kept.
func (i *Interpreter) Reset() {
	i.Stack = i.Stack[:0]
	clear(i.Memory)
	i.LoopMarkers = nil
	i.CallReturns = nil
	i.Variables = make(map[string]types.Value)
	i.PC = 0
	i.Running = true
	i.Color = ColorReset
	i.Log = nil
	i.Faults = nil
	i.Steps = 0
	if i.MaxGas > 0 {
		i.Gas = i.MaxGas
	}
}

// ConsumeGas decrements gas and returns true if execution can continue
func (i *Interpreter) ConsumeGas(amount int) bool {
	if i.MaxGas == 0 {
		return true // unlimited
	}
	if i.Gas < amount {
		return false
	}
	i.Gas -= amount
	return true
}

// fault records and logs an anomaly against the current line
func (i *Interpreter) fault(code int, detail string) {
	f := &types.Fault{Code: code, PC: i.PC, Detail: detail}
	if i.PC >= 0 && i.PC < i.Program.Len() {
		f.Line = i.Program.Lines[i.PC].Text
	}
	i.Faults = append(i.Faults, f)
	i.Logger.Warn(types.ErrorMessage(code), "pc", f.PC, "line", f.Line, "detail", detail)
}

// === Stack ===

// Push pushes a value onto the stack
func (i *Interpreter) Push(v types.Value) {
	i.Stack = append(i.Stack, v)
}

// Pop removes and returns the top value. An empty stack yields Int 0.
func (i *Interpreter) Pop() types.Value {
	if len(i.Stack) == 0 {
		return types.Int(0)
	}
	v := i.Stack[len(i.Stack)-1]
	i.Stack = i.Stack[:len(i.Stack)-1]
	return v
}

// === Memory ===

// MemWrite stores v at addr; out-of-range writes are reported and dropped
func (i *Interpreter) MemWrite(addr, v int64) {
	if addr < 0 || addr >= int64(len(i.Memory)) {
		i.fault(types.ErrMemoryRange, fmt.Sprintf("address %d", addr))
		return
	}
	i.Memory[addr] = v
}

// MemRead loads the cell at addr; out-of-range reads are reported and yield 0
func (i *Interpreter) MemRead(addr int64) int64 {
	if addr < 0 || addr >= int64(len(i.Memory)) {
		i.fault(types.ErrMemoryRange, fmt.Sprintf("address %d", addr))
		return 0
	}
	return i.Memory[addr]
}

// === Driver loop ===

// Step fetches and dispatches the current line, then advances the PC by
// one. Jumps land one line before their target for that reason.
func (i *Interpreter) Step() {
	inst := i.Program.Lines[i.PC]
	if i.Debug {
		i.Logger.Debug("step", "pc", i.PC, "op", inst.Op.String(), "depth", len(i.Stack))
	}
	i.execute(inst)
	i.Steps++
	i.PC++
}

// Run executes until Q or until the PC runs off the end of the program.
// It returns an error only when the gas budget is exhausted.
func (i *Interpreter) Run() error {
	for i.Running && i.PC >= 0 && i.PC < i.Program.Len() {
		if !i.ConsumeGas(1) {
			i.fault(types.ErrGasExhausted, fmt.Sprintf("after %d steps", i.Steps))
			i.Running = false
			return fmt.Errorf("gas exhausted after %d steps", i.Steps)
		}
		i.Step()
	}
	return nil
}

// StackString returns a string representation of the stack
func (i *Interpreter) StackString() string {
	if len(i.Stack) == 0 {
		return "[]"
	}
	parts := make([]string, len(i.Stack))
	for n, v := range i.Stack {
		parts[n] = v.String()
	}
	return "[ " + strings.Join(parts, " ") + " ]"
}
