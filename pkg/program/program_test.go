package program_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mpplang/mpp/pkg/parser"
	"github.com/mpplang/mpp/pkg/program"
)

var _ = Describe("Load", func() {
	It("should drop blank and comment lines", func() {
		p, err := program.Load("t", "// header\n\n  P 1  \n\t// note\n   \nO\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Len()).To(Equal(2))
		Expect(p.Lines[0].Text).To(Equal("P 1"))
		Expect(p.Lines[0].Line).To(Equal(3))
		Expect(p.Lines[1].Op).To(Equal(program.OpPopPrint))
		Expect(p.Lines[1].Line).To(Equal(6))
	})

	It("should keep a trailing comment marker inside an instruction", func() {
		p, err := program.Load("t", "# a // b")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Lines[0].RawFrom(0)).To(Equal("a // b"))
	})

	Context("labels", func() {
		It("should bind a label to its own line index", func() {
			p, err := program.Load("t", "P 0\nstart:\nO\n? start")
			Expect(err).NotTo(HaveOccurred())
			idx, ok := p.Label("start")
			Expect(ok).To(BeTrue())
			Expect(idx).To(Equal(1))
			Expect(p.Lines[idx].Op).To(Equal(program.OpLabel))
		})

		It("should let the last declaration win", func() {
			p, err := program.Load("t", "a:\nP 1\na:\nP 2")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Labels).To(HaveKeyWithValue("a", 2))
		})

		It("should register any line ending in a colon", func() {
			p, err := program.Load("t", "# total:\nmy label:")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Labels).To(HaveKeyWithValue("# total", 0))
			Expect(p.Labels).To(HaveKeyWithValue("my label", 1))
			Expect(p.Lines[0].Op).To(Equal(program.OpPrint))
			Expect(p.Lines[1].Op).To(Equal(program.OpUnknown))
		})

		It("should report unknown labels", func() {
			p, err := program.Load("t", "Q")
			Expect(err).NotTo(HaveOccurred())
			_, ok := p.Label("nowhere")
			Expect(ok).To(BeFalse())
		})
	})

	Context("operands", func() {
		It("should tag integers, variable references and raw text", func() {
			p, err := program.Load("t", "MSET -5 $addr 12abc")
			Expect(err).NotTo(HaveOccurred())
			ops := p.Lines[0].Operands
			Expect(ops).To(HaveLen(3))
			Expect(ops[0]).To(Equal(program.Operand{Kind: program.IntegerLiteral, Raw: "-5", Int: -5}))
			Expect(ops[1]).To(Equal(program.Operand{Kind: program.VariableRef, Raw: "$addr", Name: "addr"}))
			Expect(ops[2]).To(Equal(program.Operand{Kind: program.RawText, Raw: "12abc"}))
		})

		It("should return false for missing operands", func() {
			p, err := program.Load("t", "P")
			Expect(err).NotTo(HaveOccurred())
			_, ok := p.Lines[0].Operand(0)
			Expect(ok).To(BeFalse())
			Expect(p.Lines[0].RawFrom(1)).To(Equal(""))
		})

		It("should pre-split print text", func() {
			p, err := program.Load("t", "#  Value   is $x")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Lines[0].Template).To(Equal([]parser.Segment{{Text: "Value is "}, {Var: "x"}}))
		})
	})

	Context("opcodes", func() {
		DescribeTable("mnemonic lookup",
			func(mnemonic string, op program.Opcode) {
				Expect(program.Lookup(mnemonic)).To(Equal(op))
			},
			Entry("print", "#", program.OpPrint),
			Entry("halt", "Q", program.OpHalt),
			Entry("color", "COLOR", program.OpColor),
			Entry("push", "P", program.OpPush),
			Entry("xor", "XX", program.OpXor),
			Entry("not", "!", program.OpNot),
			Entry("stack text", "!!", program.OpStackText),
			Entry("branch", "?", program.OpBranchZero),
			Entry("jump", "CJ", program.OpJumpNZ),
			Entry("call close", "}", program.OpCallClose),
			Entry("input", "INPUT", program.OpInput),
			Entry("declare bool", "BO", program.OpDeclBool),
			Entry("label", "done:", program.OpLabel),
			Entry("bare colon", ":", program.OpLabel),
			Entry("case sensitive", "p", program.OpUnknown),
			Entry("unknown", "FOO", program.OpUnknown),
		)

		It("should name every mnemonic", func() {
			Expect(program.OpMemSet.String()).To(Equal("MSET"))
			Expect(program.OpLabel.String()).To(Equal("label"))
			Expect(program.Opcode(0xFF).String()).To(Equal("?"))
		})

		It("should group arithmetic and comparison opcodes", func() {
			Expect(program.OpMod.IsArith()).To(BeTrue())
			Expect(program.OpAnd.IsArith()).To(BeFalse())
			Expect(program.OpEq.IsCompare()).To(BeTrue())
			Expect(program.OpXor.IsCompare()).To(BeFalse())
		})
	})
})

var _ = Describe("LoadFile", func() {
	It("should read a program from disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "hello.m++")
		Expect(os.WriteFile(path, []byte("# hello\nQ\n"), 0o644)).To(Succeed())

		p, err := program.LoadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Name).To(Equal(path))
		Expect(p.Len()).To(Equal(2))
	})

	It("should fail on a missing file", func() {
		_, err := program.LoadFile(filepath.Join(GinkgoT().TempDir(), "missing.m++"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Disassemble", func() {
	It("should list opcodes and label targets", func() {
		p, err := program.Load("t", "top:\nP 1\nQ")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Disassemble()).To(Equal(
			"0000  label    top:    ; label top\n" +
				"0001  P        P 1\n" +
				"0002  Q        Q\n"))
	})
})
