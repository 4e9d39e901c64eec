package astpack

import (
	"github.com/kg/design/astpack/internal/binary"
)

// TreeOptions selects the optional Layer-1 transforms applied on top of the
// plain pre-order encoding.
type TreeOptions struct {
	// Dedup enables subtree deduplication on encode. Decoders handle
	// back-references unconditionally; the wire form is self-describing.
	Dedup bool

	// Split partitions the encoding into per-category streams (opcodes,
	// integer immediates, float immediates) for better downstream
	// compression. Encoder and decoder must agree on this setting.
	Split bool
}

// immKind describes the immediate operand an opcode carries.
type immKind uint8

const (
	immNone   immKind = iota
	immCount          // child count, varuint
	immIndex          // local/global slot, varuint
	immSig            // signature table index, varuint
	immOffset         // heap address offset, varuint
	immI32            // signed varint32 constant
	immI64            // signed varint64 constant
	immF32            // fixed 4-byte float
	immF64            // fixed 8-byte float
	immRef            // subtree arena index, varuint
)

// arityKind describes how an opcode's child count is resolved.
type arityKind uint8

const (
	arityFixed   arityKind = iota // child count fixed by the opcode
	arityCount                    // child count carried in the immediate
	aritySig                      // parameter count of the referenced signature
	aritySigCall                  // signature parameter count plus the target operand
)

// opShape is one row of the opcode registry: immediate layout plus arity
// resolution rule.
type opShape struct {
	name  string
	imm   immKind
	arity arityKind
	fixed int
}

// opShapes is the versioned opcode index table. A nil entry is an unknown
// opcode.
var opShapes = [256]*opShape{
	OpNop:          {name: "nop"},
	OpBlock:        {name: "block", imm: immCount, arity: arityCount},
	OpLoop:         {name: "loop", imm: immCount, arity: arityCount},
	OpIf:           {name: "if", fixed: 2},
	OpIfElse:       {name: "if_else", fixed: 3},
	OpReturnVoid:   {name: "return_void"},
	OpReturn:       {name: "return", fixed: 1},
	OpCall:         {name: "call", imm: immSig, arity: aritySig},
	OpCallIndirect: {name: "call_indirect", imm: immSig, arity: aritySigCall},

	OpGetLocal:  {name: "get_local", imm: immIndex},
	OpSetLocal:  {name: "set_local", imm: immIndex, fixed: 1},
	OpGetGlobal: {name: "get_global", imm: immIndex},
	OpSetGlobal: {name: "set_global", imm: immIndex, fixed: 1},

	OpI32Const: {name: "i32.const", imm: immI32},
	OpI64Const: {name: "i64.const", imm: immI64},
	OpF32Const: {name: "f32.const", imm: immF32},
	OpF64Const: {name: "f64.const", imm: immF64},

	OpI32Add:  {name: "i32.add", fixed: 2},
	OpI32Sub:  {name: "i32.sub", fixed: 2},
	OpI32Mul:  {name: "i32.mul", fixed: 2},
	OpI32DivS: {name: "i32.div_s", fixed: 2},
	OpI32DivU: {name: "i32.div_u", fixed: 2},
	OpI32And:  {name: "i32.and", fixed: 2},
	OpI32Or:   {name: "i32.or", fixed: 2},
	OpI32Xor:  {name: "i32.xor", fixed: 2},
	OpI32Shl:  {name: "i32.shl", fixed: 2},
	OpI32ShrU: {name: "i32.shr_u", fixed: 2},
	OpI32Eq:   {name: "i32.eq", fixed: 2},
	OpI32Ne:   {name: "i32.ne", fixed: 2},
	OpI32LtS:  {name: "i32.lt_s", fixed: 2},
	OpI32LeS:  {name: "i32.le_s", fixed: 2},

	OpF64Add: {name: "f64.add", fixed: 2},
	OpF64Sub: {name: "f64.sub", fixed: 2},
	OpF64Mul: {name: "f64.mul", fixed: 2},
	OpF64Div: {name: "f64.div", fixed: 2},

	OpI32Load:  {name: "i32.load", imm: immOffset, fixed: 1},
	OpI32Store: {name: "i32.store", imm: immOffset, fixed: 2},
	OpF64Load:  {name: "f64.load", imm: immOffset, fixed: 1},
	OpF64Store: {name: "f64.store", imm: immOffset, fixed: 2},

	OpSubtreeRef: {name: "subtree_ref", imm: immRef},
}

// Name returns the mnemonic for op, or "unknown" for unregistered bytes.
func (op Opcode) Name() string {
	if s := opShapes[op]; s != nil {
		return s.name
	}
	return "unknown"
}

func (op Opcode) String() string {
	return op.Name()
}

// treeSource supplies the decoder's three byte categories. In the plain
// interleaved encoding all three fields alias one reader; in split mode
// each points at its own stream.
type treeSource struct {
	ops    *binary.Reader
	ints   *binary.Reader
	floats *binary.Reader
}

func interleavedSource(r *binary.Reader) *treeSource {
	return &treeSource{ops: r, ints: r, floats: r}
}

// treeSink mirrors treeSource for encoding.
type treeSink struct {
	ops    *binary.Writer
	ints   *binary.Writer
	floats *binary.Writer
}

func interleavedSink(w *binary.Writer) *treeSink {
	return &treeSink{ops: w, ints: w, floats: w}
}

func splitSink() *treeSink {
	return &treeSink{
		ops:    binary.NewWriter(),
		ints:   binary.NewWriter(),
		floats: binary.NewWriter(),
	}
}
