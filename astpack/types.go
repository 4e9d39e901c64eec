package astpack

// Module is the decoded form of a binary container: memory configuration
// plus ordered tables of signatures, functions, globals, data segments, and
// indirect-call entries.
type Module struct {
	Memory        *MemoryConfig
	Signatures    []FunctionSignature
	Functions     []Function
	Globals       []Global
	DataSegments  []DataSegment
	FunctionTable []uint16

	// WLL holds the opaque payload of a WLL section, if one was present.
	WLL []byte
}

// MemoryConfig describes the module heap. Sizes are power-of-two exponents.
type MemoryConfig struct {
	MinExponent uint8
	MaxExponent uint8
	Exported    bool
}

// FunctionSignature is an ordered parameter list plus one return type.
// Signatures are identified by their dense declaration-order index.
type FunctionSignature struct {
	Params []ValType
	Return ValType
}

// ParamCount returns the number of parameters.
func (s FunctionSignature) ParamCount() int {
	return len(s.Params)
}

// LocalCounts holds per-type local variable counts for a function body.
type LocalCounts struct {
	I32 uint16
	I64 uint16
	F32 uint16
	F64 uint16
}

// Function is one entry of the Functions section. Imports carry no body;
// for all other functions Body holds the decoded tree forest.
type Function struct {
	Flags          byte
	SignatureIndex uint16

	// NameOffset points at a null-terminated UTF-8 string elsewhere in the
	// container (valid only when FuncFlagName is set).
	NameOffset uint32

	Locals LocalCounts
	Body   []*AstNode
}

// HasName reports whether the function declares a name offset.
func (f *Function) HasName() bool { return f.Flags&FuncFlagName != 0 }

// IsImport reports whether the function is an import without a body.
func (f *Function) IsImport() bool { return f.Flags&FuncFlagImport != 0 }

// HasLocals reports whether per-type local counts were declared.
func (f *Function) HasLocals() bool { return f.Flags&FuncFlagLocals != 0 }

// IsExported reports whether the function is externally visible.
func (f *Function) IsExported() bool { return f.Flags&FuncFlagExported != 0 }

// Global is one entry of the Globals section.
type Global struct {
	NameOffset uint32
	Type       ValType
	Exported   bool
}

// DataSegment describes a static data region. DataOffset locates the
// segment bytes within the surrounding container file; the core codec
// carries the reference without dereferencing it.
type DataSegment struct {
	BaseAddress uint32
	DataOffset  uint32
	Size        uint32
	AutoLoad    bool
}

// AstNode is one node of a pre-order encoded expression tree. A node owns
// its children exclusively except when subtree deduplication attaches a
// decoded subtree to several parents; shared subtrees are never mutated.
type AstNode struct {
	Imm  Immediate
	Kids []*AstNode
	Op   Opcode
}

// Immediate is the decoded immediate operand of a node, one of the *Imm
// types below, or nil for opcodes without immediates.
type Immediate interface{}

// CountImm holds the child count for Block and Loop.
type CountImm struct {
	Count uint32
}

// IndexImm holds a local or global slot index.
type IndexImm struct {
	Index uint32
}

// SigImm holds the signature table index for Call and CallIndirect.
type SigImm struct {
	SigIndex uint32
}

// I32Imm holds the value of an i32 constant.
type I32Imm struct {
	Value int32
}

// I64Imm holds the value of an i64 constant.
type I64Imm struct {
	Value int64
}

// F32Imm holds the value of an f32 constant.
type F32Imm struct {
	Value float32
}

// F64Imm holds the value of an f64 constant.
type F64Imm struct {
	Value float64
}

// OffsetImm holds the constant address offset of a heap access.
type OffsetImm struct {
	Offset uint32
}

// RefImm holds the arena index of a back-referenced subtree. It only occurs
// in the wire form; decoded trees substitute the referenced subtree.
type RefImm struct {
	Arena uint32
}

// NewNode builds a node from an opcode, immediate, and children. Intended
// for constructing bodies in tests and by embedders.
func NewNode(op Opcode, imm Immediate, kids ...*AstNode) *AstNode {
	return &AstNode{Op: op, Imm: imm, Kids: kids}
}
