package astpack

// FormatVersion identifies the index-table registry revision this package
// encodes and decodes. Section tags, opcode values, and type enumerations
// below are all part of registry v1; any change to them requires a bump.
const FormatVersion = 1

// Section tags identify each module section. Except for WLL, section bodies
// are not self-delimiting, so an unknown tag makes the remainder of the
// stream unparsable.
const (
	SectionMemory        byte = 0x00 // Memory configuration
	SectionSignatures    byte = 0x01 // Function signature table
	SectionFunctions     byte = 0x02 // Function declarations and bodies
	SectionGlobals       byte = 0x03 // Global variable declarations
	SectionDataSegments  byte = 0x04 // Static data segments
	SectionFunctionTable byte = 0x05 // Indirect call table
	SectionEnd           byte = 0x06 // End marker, no body
	SectionWLL           byte = 0x11 // Opaque length-prefixed payload
)

// ValType encodes the value types used by signatures, globals, and locals.
type ValType byte

// Value type encodings. ValVoid is only valid as a return type.
const (
	ValVoid ValType = 0x00 // No value (return type only)
	ValI32  ValType = 0x01 // 32-bit integer
	ValI64  ValType = 0x02 // 64-bit integer
	ValF32  ValType = 0x03 // 32-bit float
	ValF64  ValType = 0x04 // 64-bit float
)

// Valid reports whether t is a known value type; ret additionally permits
// the void return marker.
func (t ValType) Valid(ret bool) bool {
	if t == ValVoid {
		return ret
	}
	return t >= ValI32 && t <= ValF64
}

func (t ValType) String() string {
	switch t {
	case ValVoid:
		return "void"
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Function declaration flags.
const (
	FuncFlagName     byte = 0x01 // Name offset present
	FuncFlagImport   byte = 0x02 // Imported function, no body
	FuncFlagLocals   byte = 0x04 // Per-type local counts present
	FuncFlagExported byte = 0x08 // Externally visible
)

// Opcode is the tag byte of an AST node.
type Opcode byte

// Control flow opcodes. Block and Loop carry a child-count immediate; Call
// and CallIndirect resolve their arity through the signature table.
const (
	OpNop          Opcode = 0x00
	OpBlock        Opcode = 0x01
	OpLoop         Opcode = 0x02
	OpIf           Opcode = 0x03
	OpIfElse       Opcode = 0x04
	OpReturnVoid   Opcode = 0x05
	OpReturn       Opcode = 0x06
	OpCall         Opcode = 0x07
	OpCallIndirect Opcode = 0x08
)

// Local and global access opcodes.
const (
	OpGetLocal  Opcode = 0x09
	OpSetLocal  Opcode = 0x0a
	OpGetGlobal Opcode = 0x0b
	OpSetGlobal Opcode = 0x0c
)

// Constant opcodes.
const (
	OpI32Const Opcode = 0x10
	OpI64Const Opcode = 0x11
	OpF32Const Opcode = 0x12
	OpF64Const Opcode = 0x13
)

// 32-bit integer arithmetic, bitwise, and comparison opcodes.
const (
	OpI32Add  Opcode = 0x20
	OpI32Sub  Opcode = 0x21
	OpI32Mul  Opcode = 0x22
	OpI32DivS Opcode = 0x23
	OpI32DivU Opcode = 0x24
	OpI32And  Opcode = 0x25
	OpI32Or   Opcode = 0x26
	OpI32Xor  Opcode = 0x27
	OpI32Shl  Opcode = 0x28
	OpI32ShrU Opcode = 0x29
	OpI32Eq   Opcode = 0x2a
	OpI32Ne   Opcode = 0x2b
	OpI32LtS  Opcode = 0x2c
	OpI32LeS  Opcode = 0x2d
)

// 64-bit float arithmetic opcodes.
const (
	OpF64Add Opcode = 0x30
	OpF64Sub Opcode = 0x31
	OpF64Mul Opcode = 0x32
	OpF64Div Opcode = 0x33
)

// Heap access opcodes. Each carries a constant address-offset immediate.
const (
	OpI32Load  Opcode = 0x38
	OpI32Store Opcode = 0x39
	OpF64Load  Opcode = 0x3a
	OpF64Store Opcode = 0x3b
)

// OpSubtreeRef substitutes a previously emitted subtree by arena index.
// Only appears in streams encoded with deduplication enabled.
const OpSubtreeRef Opcode = 0xf0

// MaxTreeDepth bounds the nesting of decoded trees. Untrusted input deeper
// than this is rejected rather than allowed to grow the decode stack.
const MaxTreeDepth = 1024

// MaxFunctionBodySize is the largest encodable function body, fixed by the
// u16 body-size field.
const MaxFunctionBodySize = 0xffff
