package program

import "strings"

// Opcode identifies the operation of one instruction line. Opcodes are
// decided once at load time; the dispatcher never compares mnemonics.
type Opcode uint8

// === Output / control ===
const (
	OpUnknown Opcode = iota // unrecognized mnemonic
	OpLabel                 // name: (no-op)
	OpPrint                 // # text with $refs
	OpHalt                  // Q
	OpColor                 // COLOR name
)

// === Stack / memory ===
const (
	OpPush     Opcode = iota + 0x10 // P [value]
	OpPopPrint                      // O
	OpMemSet                        // MSET addr value
	OpMemGet                        // MGET addr
	OpRandom                        // ~ [limit]
	OpDup                           // DU
	OpSwap                          // @
	OpReverse                       // RS
	OpRandMem                       // RM
	OpSumFirst                      // XY
	OpStackText                     // !!
)

// === Arithmetic / logic / comparison ===
const (
	OpAdd Opcode = iota + 0x20 // a b -- (a+b)
	OpSub                      // a b -- (a-b)
	OpMul                      // a b -- (a*b)
	OpDiv                      // a b -- floor(a/b)
	OpMod                      // a b -- (a mod b)
	OpAnd                      // a b -- (a&b)
	OpOr                       // a b -- (a|b)
	OpNot                      // a -- (^a)
	OpXor                      // b a -- (a^b)
	OpGt                       // a b -- (a>b)
	OpLt                       // a b -- (a<b)
	OpEq                       // a b -- (a==b)
)

// === Control flow ===
const (
	OpBranchZero Opcode = iota + 0x30 // ? label
	OpLoopOpen                        // [
	OpLoopClose                       // ]
	OpJumpNZ                          // CJ label
	OpCallOpen                        // {
	OpCallClose                       // }
)

// === Input / variables ===
const (
	OpInput   Opcode = iota + 0x40 // INPUT [name]
	OpDeclInt                      // NU name [int]
	OpDeclFlt                      // FL name [float]
	OpDeclStr                      // ST name [text...]
	OpDeclBool                     // BO name [true|false]
)

// mnemonics maps source text to opcodes
var mnemonics = map[string]Opcode{
	"#":     OpPrint,
	"Q":     OpHalt,
	"COLOR": OpColor,

	"P":    OpPush,
	"O":    OpPopPrint,
	"MSET": OpMemSet,
	"MGET": OpMemGet,
	"~":    OpRandom,
	"DU":   OpDup,
	"@":    OpSwap,
	"RS":   OpReverse,
	"RM":   OpRandMem,
	"XY":   OpSumFirst,
	"!!":   OpStackText,

	"+":  OpAdd,
	"-":  OpSub,
	"*":  OpMul,
	"/":  OpDiv,
	"%":  OpMod,
	"&":  OpAnd,
	"|":  OpOr,
	"!":  OpNot,
	"XX": OpXor,
	">":  OpGt,
	"<":  OpLt,
	"=":  OpEq,

	"?":  OpBranchZero,
	"[":  OpLoopOpen,
	"]":  OpLoopClose,
	"CJ": OpJumpNZ,
	"{":  OpCallOpen,
	"}":  OpCallClose,

	"INPUT": OpInput,
	"NU":    OpDeclInt,
	"FL":    OpDeclFlt,
	"ST":    OpDeclStr,
	"BO":    OpDeclBool,
}

var names map[Opcode]string

func init() {
	names = make(map[Opcode]string, len(mnemonics)+2)
	for m, op := range mnemonics {
		names[op] = m
	}
	names[OpUnknown] = "?unknown"
	names[OpLabel] = "label"
}

// Lookup returns the opcode for a mnemonic. Any mnemonic ending in ':'
// is a label declaration.
func Lookup(mnemonic string) Opcode {
	if op, ok := mnemonics[mnemonic]; ok {
		return op
	}
	if strings.HasSuffix(mnemonic, ":") {
		return OpLabel
	}
	return OpUnknown
}

// String returns the mnemonic of an opcode for debugging
func (op Opcode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "?"
}

// IsArith returns true for the binary arithmetic opcodes
func (op Opcode) IsArith() bool {
	return op >= OpAdd && op <= OpMod
}

// IsCompare returns true for > < =
func (op Opcode) IsCompare() bool {
	return op >= OpGt && op <= OpEq
}
