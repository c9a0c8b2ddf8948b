package interpreter

import (
	"math"
	"strings"

	"github.com/mpplang/mpp/pkg/program"
	"github.com/mpplang/mpp/pkg/types"
)

// number is a numeric operand after coercion
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func toNumber(v types.Value) (number, bool) {
	switch x := v.(type) {
	case types.Int:
		return number{i: int64(x)}, true
	case types.Bool:
		if x {
			return number{i: 1}, true
		}
		return number{}, true
	case types.Float:
		return number{f: float64(x), isFloat: true}, true
	}
	return number{}, false
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// floorDiv divides rounding toward negative infinity
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// floorMod returns a remainder with the sign of the divisor
func floorMod(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// maxRepeat bounds the length of a string built by *
const maxRepeat = 1 << 24

// repeat builds s repeated n times; a count below one gives "". The count
// must be an Int or Bool.
func repeat(s types.Str, n types.Value) (types.Value, bool) {
	count, ok := toNumber(n)
	if !ok || count.isFloat {
		return nil, false
	}
	if count.i <= 0 || s == "" {
		return types.Str(""), true
	}
	if count.i > int64(maxRepeat/len(s)) {
		return nil, false
	}
	return types.Str(strings.Repeat(string(s), int(count.i))), true
}

// arith applies + - * / % to a and b. A zero divisor yields Int 0.
// ok is false when the operand types cannot be combined.
func arith(op program.Opcode, a, b types.Value) (types.Value, bool) {
	sa, strA := a.(types.Str)
	sb, strB := b.(types.Str)
	switch {
	case op == program.OpAdd && strA && strB:
		return sa + sb, true
	case op == program.OpMul && strA && !strB:
		return repeat(sa, b)
	case op == program.OpMul && strB && !strA:
		return repeat(sb, a)
	}

	na, okA := toNumber(a)
	nb, okB := toNumber(b)
	if !okA || !okB {
		return nil, false
	}

	if na.isFloat || nb.isFloat {
		fa, fb := na.float(), nb.float()
		switch op {
		case program.OpAdd:
			return types.Float(fa + fb), true
		case program.OpSub:
			return types.Float(fa - fb), true
		case program.OpMul:
			return types.Float(fa * fb), true
		case program.OpDiv:
			if fb == 0 {
				return types.Int(0), true
			}
			return types.Float(math.Floor(fa / fb)), true
		case program.OpMod:
			if fb == 0 {
				return types.Int(0), true
			}
			r := math.Mod(fa, fb)
			if r != 0 && (r < 0) != (fb < 0) {
				r += fb
			}
			return types.Float(r), true
		}
		return nil, false
	}

	ia, ib := na.i, nb.i
	switch op {
	case program.OpAdd:
		return types.Int(ia + ib), true
	case program.OpSub:
		return types.Int(ia - ib), true
	case program.OpMul:
		return types.Int(ia * ib), true
	case program.OpDiv:
		if ib == 0 {
			return types.Int(0), true
		}
		return types.Int(floorDiv(ia, ib)), true
	case program.OpMod:
		if ib == 0 {
			return types.Int(0), true
		}
		return types.Int(floorMod(ia, ib)), true
	}
	return nil, false
}

// bitwise applies & | ^ to integer (or boolean) operands
func bitwise(op program.Opcode, a, b types.Value) (types.Value, bool) {
	na, okA := toNumber(a)
	nb, okB := toNumber(b)
	if !okA || !okB || na.isFloat || nb.isFloat {
		return nil, false
	}
	switch op {
	case program.OpAnd:
		return types.Int(na.i & nb.i), true
	case program.OpOr:
		return types.Int(na.i | nb.i), true
	case program.OpXor:
		return types.Int(na.i ^ nb.i), true
	}
	return nil, false
}

// compare evaluates > < = and returns Int 1 or 0. Equality between a
// number and a string is simply false; ordering them is a mismatch.
func compare(op program.Opcode, a, b types.Value) (types.Value, bool) {
	var result bool

	na, okA := toNumber(a)
	nb, okB := toNumber(b)
	sa, strA := a.(types.Str)
	sb, strB := b.(types.Str)

	switch {
	case okA && okB && (na.isFloat || nb.isFloat):
		fa, fb := na.float(), nb.float()
		switch op {
		case program.OpGt:
			result = fa > fb
		case program.OpLt:
			result = fa < fb
		default:
			result = fa == fb
		}
	case okA && okB:
		switch op {
		case program.OpGt:
			result = na.i > nb.i
		case program.OpLt:
			result = na.i < nb.i
		default:
			result = na.i == nb.i
		}
	case strA && strB:
		switch op {
		case program.OpGt:
			result = sa > sb
		case program.OpLt:
			result = sa < sb
		default:
			result = sa == sb
		}
	case op == program.OpEq:
		result = false
	default:
		return nil, false
	}

	if result {
		return types.Int(1), true
	}
	return types.Int(0), true
}
