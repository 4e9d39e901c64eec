package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode   Phase = "decode"   // bytes to module
	PhaseEncode   Phase = "encode"   // module to bytes
	PhaseValidate Phase = "validate" // cross-section invariants
	PhaseCompress Phase = "compress" // outer byte-level compression
	PhaseInspect  Phase = "inspect"  // tooling over decoded modules
)

// Kind categorizes the error
type Kind string

const (
	KindTruncated       Kind = "truncated_input"
	KindMalformedVarint Kind = "malformed_varint"
	KindUnknownOpcode   Kind = "unknown_opcode"
	KindUnknownSection  Kind = "unknown_section"
	KindSigIndexRange   Kind = "signature_index_out_of_range"
	KindFuncIndexRange  Kind = "function_index_out_of_range"
	KindSectionOrder    Kind = "section_order_violation"
	KindBackReference   Kind = "invalid_back_reference"
	KindDepthExceeded   Kind = "recursion_depth_exceeded"
	KindSizeMismatch    Kind = "body_size_mismatch"
	KindInvalidData     Kind = "invalid_data"
	KindOverflow        Kind = "overflow"
	KindNotFound        Kind = "not_found"
)

// Error is the structured error type used above the codec's sentinel layer
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string

	// Offset is the byte position of the fault within the container, or -1
	// when no position applies.
	Offset int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Path sets the fault path (section name, entry index)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the byte position of the fault
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Truncated creates a truncated-input error at the given offset
func Truncated(phase Phase, path []string, offset int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Path:   path,
		Offset: offset,
		Detail: "buffer exhausted mid-field",
	}
}

// SectionOrder creates a section ordering violation error
func SectionOrder(section, dependency string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindSectionOrder,
		Path:   []string{section},
		Offset: -1,
		Detail: fmt.Sprintf("%s section before %s", section, dependency),
	}
}

// OutOfBounds creates an out-of-range index error
func OutOfBounds(phase Phase, kind Kind, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Path:   path,
		Offset: -1,
		Detail: fmt.Sprintf("index %d out of bounds (table size %d)", index, length),
		Value:  index,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Offset: -1,
		Detail: detail,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, limit string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Offset: -1,
		Detail: fmt.Sprintf("value %v overflows %s", value, limit),
		Value:  value,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Offset: -1,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: -1,
		Detail: detail,
		Cause:  cause,
	}
}
