// Package program is the M++ program store: the ordered instruction lines
// of one source file and the label table built from them. A Program is
// built once by Load and never mutated afterwards.
package program

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mpplang/mpp/pkg/parser"
)

// OperandKind tags how an operand token was classified at load time
type OperandKind uint8

const (
	RawText OperandKind = iota
	IntegerLiteral
	VariableRef
)

// Operand is one token after the mnemonic
type Operand struct {
	Kind OperandKind
	Raw  string // token exactly as written
	Int  int64  // IntegerLiteral only
	Name string // VariableRef only, without the leading $
}

// Instruction is one content line of the program
type Instruction struct {
	Op       Opcode
	Mnemonic string
	Operands []Operand
	Text     string // trimmed source line
	Line     int    // 1-based line number in the source file

	// Template holds the pre-split print text for OpPrint
	Template []parser.Segment
}

// Program holds the parsed lines and label table
type Program struct {
	Name   string
	Lines  []*Instruction
	Labels map[string]int
}

// LoadFile reads and loads a program file
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Load(path, string(data))
}

// Load builds a program from source text. Blank lines and lines starting
// with // are dropped. A line ending in ':' registers a label bound to its
// own index; a later declaration of the same name wins.
func Load(name, source string) (*Program, error) {
	p := &Program{
		Name:   name,
		Labels: make(map[string]int),
	}

	for lineNum, text := range strings.Split(source, "\n") {
		text = strings.TrimSpace(text)

		// Skip empty lines and comments
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}

		if strings.HasSuffix(text, ":") {
			p.Labels[strings.TrimSuffix(text, ":")] = len(p.Lines)
		}

		inst, err := parseInstruction(name, lineNum+1, text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNum+1, err)
		}
		p.Lines = append(p.Lines, inst)
	}

	return p, nil
}

func parseInstruction(filename string, lineNum int, text string) (*Instruction, error) {
	line, err := parser.ParseLine(filename, lineNum, text)
	if err != nil {
		return nil, err
	}

	inst := &Instruction{
		Op:       Lookup(line.Mnemonic),
		Mnemonic: line.Mnemonic,
		Operands: make([]Operand, 0, len(line.Operands)),
		Text:     text,
		Line:     lineNum,
	}
	for _, tok := range line.Operands {
		inst.Operands = append(inst.Operands, ClassifyOperand(tok))
	}

	if inst.Op == OpPrint {
		inst.Template, err = parser.ParseTemplate(inst.RawFrom(0))
		if err != nil {
			return nil, fmt.Errorf("print text: %w", err)
		}
	}
	return inst, nil
}

// ClassifyOperand tags a token as a variable reference, an integer
// literal or raw text, in that order of precedence.
func ClassifyOperand(tok string) Operand {
	if strings.HasPrefix(tok, "$") {
		return Operand{Kind: VariableRef, Raw: tok, Name: tok[1:]}
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Operand{Kind: IntegerLiteral, Raw: tok, Int: n}
	}
	return Operand{Kind: RawText, Raw: tok}
}

// Operand returns the n-th operand (0-based)
func (inst *Instruction) Operand(n int) (Operand, bool) {
	if n < 0 || n >= len(inst.Operands) {
		return Operand{}, false
	}
	return inst.Operands[n], true
}

// RawFrom joins the raw operand tokens from index n onward with single spaces
func (inst *Instruction) RawFrom(n int) string {
	if n >= len(inst.Operands) {
		return ""
	}
	raw := make([]string, 0, len(inst.Operands)-n)
	for _, o := range inst.Operands[n:] {
		raw = append(raw, o.Raw)
	}
	return strings.Join(raw, " ")
}

// Len returns the number of content lines
func (p *Program) Len() int {
	return len(p.Lines)
}

// Label looks up a label's line index
func (p *Program) Label(name string) (int, bool) {
	idx, ok := p.Labels[name]
	return idx, ok
}

// Disassemble lists the program one instruction per line with its index
// and opcode, marking label targets.
func (p *Program) Disassemble() string {
	targets := make(map[int][]string)
	for name, idx := range p.Labels {
		targets[idx] = append(targets[idx], name)
	}

	var sb strings.Builder
	for i, inst := range p.Lines {
		fmt.Fprintf(&sb, "%04d  %-8s %s", i, inst.Op, inst.Text)
		if names, ok := targets[i]; ok {
			sort.Strings(names)
			fmt.Fprintf(&sb, "    ; label %s", strings.Join(names, ","))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
