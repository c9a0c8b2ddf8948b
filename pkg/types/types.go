// Package types defines the runtime values of M++ and its fault codes.
// Every value on the data stack or in the variable table implements Value.
package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the interface all M++ values implement.
type Value interface {
	// String returns the printed representation
	String() string
	// Type returns the type name for fault messages
	Type() string
	// Equal checks equality with another value of the same type
	Equal(other Value) bool
}

// Int is a signed 64-bit integer. Arithmetic wraps on overflow.
type Int int64

func (n Int) String() string { return strconv.FormatInt(int64(n), 10) }
func (n Int) Type() string   { return "int" }

func (n Int) Equal(other Value) bool {
	if o, ok := other.(Int); ok {
		return n == o
	}
	return false
}

// Float is a floating-point value, produced only by FL declarations
// and arithmetic involving one.
type Float float64

// String prints the shortest digits that round-trip. Whole values keep a
// trailing ".0" so they never read as an Int; magnitudes below 1e-4 or
// from 1e16 up use exponent form.
func (f Float) String() string {
	x := float64(f)
	switch {
	case math.IsNaN(x):
		return "nan"
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	}
	if abs := math.Abs(x); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(x, 'e', -1, 64)
	}
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func (f Float) Type() string { return "float" }

func (f Float) Equal(other Value) bool {
	if o, ok := other.(Float); ok {
		return f == o
	}
	return false
}

// Str is raw text: ST declarations, non-numeric input and unparsed push operands.
type Str string

func (s Str) String() string { return string(s) }
func (s Str) Type() string   { return "string" }

func (s Str) Equal(other Value) bool {
	if o, ok := other.(Str); ok {
		return s == o
	}
	return false
}

// Bool represents true/false, printed as True/False
type Bool bool

func (b Bool) String() string {
	if b {
		return "True"
	}
	return "False"
}

func (b Bool) Type() string { return "bool" }

func (b Bool) Equal(other Value) bool {
	if o, ok := other.(Bool); ok {
		return b == o
	}
	return false
}

// ToInt coerces v to an integer. Bool counts as 0/1 and Float truncates
// toward zero. Strings report ok=false.
func ToInt(v Value) (Int, bool) {
	switch x := v.(type) {
	case Int:
		return x, true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	case Float:
		return Int(int64(x)), true
	}
	return 0, false
}

// IsZero reports whether v compares equal to zero. Strings never do.
func IsZero(v Value) bool {
	switch x := v.(type) {
	case Int:
		return x == 0
	case Float:
		return x == 0
	case Bool:
		return !bool(x)
	}
	return false
}

// Fault codes
const (
	ErrUnknownSymbol  = 1
	ErrMemoryRange    = 2
	ErrParse          = 3
	ErrMissingOperand = 4
	ErrTypeMismatch   = 5
	ErrInput          = 6
	ErrGasExhausted   = 7
)

// ErrorMessage returns a human-readable message for a fault code
func ErrorMessage(code int) string {
	switch code {
	case ErrUnknownSymbol:
		return "unknown symbol"
	case ErrMemoryRange:
		return "memory address out of range"
	case ErrParse:
		return "malformed operand"
	case ErrMissingOperand:
		return "missing operand"
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrInput:
		return "input error"
	case ErrGasExhausted:
		return "gas exhausted"
	default:
		return fmt.Sprintf("unknown error %d", code)
	}
}

// Fault is one reported anomaly. Faults never stop execution on their own.
type Fault struct {
	Code   int
	PC     int    // program counter of the faulting line
	Line   string // source text of the faulting line
	Detail string
}

func (f *Fault) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("line %d: %s", f.PC, ErrorMessage(f.Code))
	}
	return fmt.Sprintf("line %d: %s: %s", f.PC, ErrorMessage(f.Code), f.Detail)
}
