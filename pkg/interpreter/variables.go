package interpreter

import (
	"hash/fnv"
	"strconv"

	"github.com/mpplang/mpp/pkg/types"
)

// Every variable is mirrored into the memory cell at
// FNV-1a-64(name) mod MemorySize.

// VarSlot returns the memory address a variable name is mirrored to
func VarSlot(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64() % MemorySize)
}

// GetVar returns a registered variable, or the mirrored memory cell as an
// Int when the name was never registered.
func (i *Interpreter) GetVar(name string) types.Value {
	if v, ok := i.Variables[name]; ok {
		return v
	}
	return types.Int(i.Memory[VarSlot(name)])
}

// SetVar registers or overwrites a variable and mirrors it into memory
func (i *Interpreter) SetVar(name string, v types.Value) {
	i.Variables[name] = v
	i.Memory[VarSlot(name)] = memoryValue(v)
}

// memoryValue coerces a value for integer memory: Bool is 1/0, Float
// truncates toward zero and Str is parsed base 10, or 0 if it doesn't parse.
func memoryValue(v types.Value) int64 {
	if s, ok := v.(types.Str); ok {
		n, err := strconv.ParseInt(string(s), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	n, _ := types.ToInt(v)
	return int64(n)
}
