// Package parser provides M++ line parsing using Participle v2.
// Grammar is defined as Go structs with tags.
package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Line is one instruction line: a mnemonic followed by whitespace
// separated operand tokens. Operand classification happens in pkg/program.
type Line struct {
	Pos      lexer.Position
	Mnemonic string   `@Word`
	Operands []string `@Word*`
}

// Template is the text of a print instruction split into literal runs
// and $name references.
type Template struct {
	Parts []*Part `@@*`
}

// Part is either a variable reference or literal text
type Part struct {
	Var  *string `  @Var`
	Text *string `| @Text`
}

// Segment is a resolved template part
type Segment struct {
	Text string
	Var  string // non-empty when the segment is a $name reference
}

var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\f\v]+`},
	{Name: "Word", Pattern: `\S+`},
})

// Only [A-Za-z0-9_] continue a variable name; a lone $ stays literal.
var templateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Var", Pattern: `\$\w+`},
	{Name: "Text", Pattern: `[^$]+|\$`},
})

// LineParser parses a single instruction line
var LineParser = participle.MustBuild[Line](
	participle.Lexer(lineLexer),
	participle.Elide("Whitespace"),
)

// TemplateParser parses print text
var TemplateParser = participle.MustBuild[Template](
	participle.Lexer(templateLexer),
)

// ParseLine parses one non-empty source line. filename and lineNum are
// used only for error positions.
func ParseLine(filename string, lineNum int, source string) (*Line, error) {
	line, err := LineParser.ParseString(filename, source)
	if err != nil {
		return nil, err
	}
	line.Pos.Line = lineNum
	return line, nil
}

// ParseTemplate splits print text into segments
func ParseTemplate(text string) ([]Segment, error) {
	if text == "" {
		return nil, nil
	}
	tmpl, err := TemplateParser.ParseString("", text)
	if err != nil {
		return nil, err
	}
	return tmpl.Segments(), nil
}

// Segments converts the AST to segments, merging adjacent literal runs
func (t *Template) Segments() []Segment {
	var segs []Segment
	for _, p := range t.Parts {
		switch {
		case p.Var != nil:
			segs = append(segs, Segment{Var: strings.TrimPrefix(*p.Var, "$")})
		case p.Text != nil:
			if n := len(segs); n > 0 && segs[n-1].Var == "" {
				segs[n-1].Text += *p.Text
				continue
			}
			segs = append(segs, Segment{Text: *p.Text})
		}
	}
	return segs
}
