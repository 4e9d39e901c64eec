package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// Errors shared by the low-level readers. Callers match these with errors.Is
// after position wrapping.
var (
	// ErrTruncated is returned when the buffer ends in the middle of a field.
	ErrTruncated = errors.New("binary: truncated input")
	// ErrMalformedVarint is returned for a varuint32 that sets the
	// continuation bit on its fifth byte or carries value bits above bit 31.
	ErrMalformedVarint = errors.New("binary: malformed varint")
	// ErrInvalidUTF8 is returned for a name that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("binary: invalid UTF-8 in string")
)

// Reader decodes primitive fields from an in-memory buffer with position
// tracking. All multi-byte fixed-width integers are little-endian.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte offset.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, r.wrapError(ErrTruncated)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, r.wrapError(ErrTruncated)
	}
	buf := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return buf, nil
}

// ReadVarUint32 reads a VarUint32: 1-5 bytes of 7 value bits each, high bit
// as continuation flag. Rejects non-terminating and overflowing encodings.
func (r *Reader) ReadVarUint32() (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if shift == 28 {
			// Fifth byte: 4 value bits remain, continuation must be clear.
			if b&0x80 != 0 || b > 0x0f {
				return 0, r.wrapError(ErrMalformedVarint)
			}
			return result | uint32(b)<<28, nil
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// ReadVarInt32 reads a signed LEB128 int32 (constant immediates).
func (r *Reader) ReadVarInt32() (int32, error) {
	var result int32
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 35 {
			return 0, r.wrapError(ErrMalformedVarint)
		}
	}
	// Sign extend
	if shift < 32 && b&0x40 != 0 {
		result |= ^int32(0) << shift
	}
	return result, nil
}

// ReadVarInt64 reads a signed LEB128 int64 (constant immediates).
func (r *Reader) ReadVarInt64() (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 70 {
			return 0, r.wrapError(ErrMalformedVarint)
		}
	}
	// Sign extend
	if shift < 64 && b&0x40 != 0 {
		result |= ^int64(0) << shift
	}
	return result, nil
}

// ReadU16 reads a little-endian uint16 (fixed 2 bytes).
func (r *Reader) ReadU16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadU32 reads a little-endian uint32 (fixed 4 bytes).
func (r *Reader) ReadU32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadF32 reads a little-endian float32.
func (r *Reader) ReadF32() (float32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf)), nil
}

// ReadF64 reads a little-endian float64.
func (r *Reader) ReadF64() (float64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// ReadCString reads a null-terminated UTF-8 string, consuming the
// terminator.
func (r *Reader) ReadCString() (string, error) {
	start := r.pos
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
	}
	data := r.data[start : r.pos-1]
	if !utf8.Valid(data) {
		return "", r.wrapError(ErrInvalidUTF8)
	}
	return string(data), nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at offset %d: %w", r.pos, err)
}

// WrapError attaches the current offset and a context label to err.
func (r *Reader) WrapError(context string, err error) error {
	return &ParseError{
		Offset:  r.pos,
		Context: context,
		Err:     err,
	}
}

// ParseError carries the byte offset and context of a decode failure.
type ParseError struct {
	Err     error
	Context string
	Offset  int
}

func (e *ParseError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("astpack: %s at offset %d: %v", e.Context, e.Offset, e.Err)
	}
	return fmt.Sprintf("astpack: at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
