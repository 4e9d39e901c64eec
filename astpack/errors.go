package astpack

import (
	"errors"

	"github.com/kg/design/astpack/internal/binary"
)

// Decode failure taxonomy. Every decode error wraps exactly one of these
// sentinels, so callers can classify failures with errors.Is while the
// wrapped form carries byte-offset and section context.
var (
	// ErrTruncatedInput reports a buffer exhausted in the middle of a field.
	ErrTruncatedInput = binary.ErrTruncated

	// ErrMalformedVarint reports a VarUint32 whose fifth byte still sets the
	// continuation bit or whose accumulation overflows 32 bits.
	ErrMalformedVarint = binary.ErrMalformedVarint

	// ErrUnknownOpcode reports a tree byte matching no registered opcode.
	ErrUnknownOpcode = errors.New("astpack: unknown opcode")

	// ErrUnknownSectionType reports a section tag with no registered schema.
	ErrUnknownSectionType = errors.New("astpack: unknown section type")

	// ErrSignatureIndexOutOfRange reports a signature index beyond the
	// signature table.
	ErrSignatureIndexOutOfRange = errors.New("astpack: signature index out of range")

	// ErrFunctionIndexOutOfRange reports a function table entry referencing
	// a non-existent function.
	ErrFunctionIndexOutOfRange = errors.New("astpack: function index out of range")

	// ErrSectionOrderViolation reports a section encountered before a
	// section it depends on.
	ErrSectionOrderViolation = errors.New("astpack: section order violation")

	// ErrInvalidBackReference reports a subtree back-reference that is not
	// strictly backward or is out of arena range.
	ErrInvalidBackReference = errors.New("astpack: invalid subtree back-reference")

	// ErrRecursionDepthExceeded reports a tree nested beyond MaxTreeDepth.
	ErrRecursionDepthExceeded = errors.New("astpack: recursion depth exceeded")

	// ErrBodySizeMismatch reports a function body whose declared byte length
	// does not match what the tree codec consumed.
	ErrBodySizeMismatch = errors.New("astpack: body size mismatch")

	// ErrInvalidValueType reports a type byte outside the ValType
	// enumeration.
	ErrInvalidValueType = errors.New("astpack: invalid value type")

	// ErrInvalidModule reports an encode-time invariant violation in the
	// caller-provided module.
	ErrInvalidModule = errors.New("astpack: invalid module")
)
