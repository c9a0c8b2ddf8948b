package interpreter

import (
	"fmt"
	"io"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/mpplang/mpp/pkg/types"
)

// Canonical mode keeps snapshots of equal states byte-identical
var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("interpreter: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// SnapValue is a tagged stack or variable value
type SnapValue struct {
	Kind  string  `cbor:"k"`
	Int   int64   `cbor:"i,omitempty"`
	Float float64 `cbor:"f,omitempty"`
	Str   string  `cbor:"s,omitempty"`
	Bool  bool    `cbor:"b,omitempty"`
}

// Snapshot is the execution state at one point in a run. Memory holds
// only non-zero cells.
type Snapshot struct {
	Program     string               `cbor:"program"`
	PC          int                  `cbor:"pc"`
	Running     bool                 `cbor:"running"`
	Steps       int                  `cbor:"steps"`
	Color       string               `cbor:"color"`
	Stack       []SnapValue          `cbor:"stack"`
	Variables   map[string]SnapValue `cbor:"vars"`
	Memory      map[int64]int64      `cbor:"mem"`
	LoopMarkers []int                `cbor:"loops"`
	CallReturns []int                `cbor:"calls"`
	Faults      []string             `cbor:"faults,omitempty"`
}

func snapValue(v types.Value) SnapValue {
	switch x := v.(type) {
	case types.Int:
		return SnapValue{Kind: x.Type(), Int: int64(x)}
	case types.Float:
		return SnapValue{Kind: x.Type(), Float: float64(x)}
	case types.Str:
		return SnapValue{Kind: x.Type(), Str: string(x)}
	case types.Bool:
		return SnapValue{Kind: x.Type(), Bool: bool(x)}
	}
	return SnapValue{Kind: "int"}
}

// Value converts back to a runtime value
func (s SnapValue) Value() types.Value {
	switch s.Kind {
	case "float":
		return types.Float(s.Float)
	case "string":
		return types.Str(s.Str)
	case "bool":
		return types.Bool(s.Bool)
	}
	return types.Int(s.Int)
}

// Snapshot captures the current execution state
func (i *Interpreter) Snapshot() *Snapshot {
	s := &Snapshot{
		Program:     i.Program.Name,
		PC:          i.PC,
		Running:     i.Running,
		Steps:       i.Steps,
		Color:       i.Color,
		Stack:       make([]SnapValue, 0, len(i.Stack)),
		Variables:   make(map[string]SnapValue, len(i.Variables)),
		Memory:      make(map[int64]int64),
		LoopMarkers: append([]int(nil), i.LoopMarkers...),
		CallReturns: append([]int(nil), i.CallReturns...),
	}
	for _, v := range i.Stack {
		s.Stack = append(s.Stack, snapValue(v))
	}
	for name, v := range i.Variables {
		s.Variables[name] = snapValue(v)
	}
	for addr, v := range i.Memory {
		if v != 0 {
			s.Memory[int64(addr)] = v
		}
	}
	for _, f := range i.Faults {
		s.Faults = append(s.Faults, f.Error())
	}
	return s
}

// Cells returns the addresses of the non-zero memory cells in order
func (s *Snapshot) Cells() []int64 {
	addrs := make([]int64, 0, len(s.Memory))
	for addr := range s.Memory {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(a, b int) bool { return addrs[a] < addrs[b] })
	return addrs
}

// MarshalSnapshot serializes a Snapshot to CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("interpreter: unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// WriteSnapshot encodes the current state to w
func (i *Interpreter) WriteSnapshot(w io.Writer) error {
	data, err := MarshalSnapshot(i.Snapshot())
	if err != nil {
		return fmt.Errorf("interpreter: marshal snapshot: %w", err)
	}
	_, err = w.Write(data)
	return err
}
