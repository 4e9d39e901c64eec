package binary

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestVarUint32RoundTrip(t *testing.T) {
	values := []uint32{
		0, 1, 0x7f, 0x80, 0x3fff, 0x4000, 0x1fffff, 0x200000,
		0xfffffff, 0x10000000, 0xffffffff,
	}
	for _, v := range values {
		w := NewWriter()
		w.WriteVarUint32(v)
		if got := w.Len(); got != VarUint32Size(v) {
			t.Errorf("VarUint32Size(%#x) = %d, encoder emitted %d bytes", v, VarUint32Size(v), got)
		}
		r := NewReader(w.Bytes())
		got, err := r.ReadVarUint32()
		if err != nil {
			t.Fatalf("ReadVarUint32(%#x): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %#x: got %#x", v, got)
		}
		if r.Remaining() != 0 {
			t.Errorf("value %#x: %d trailing bytes", v, r.Remaining())
		}
	}
}

func TestVarUint32Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint32
	}{
		{"single byte max", []byte{0x7f}, 0x7f},
		{"two bytes min", []byte{0x80, 0x01}, 0x80},
		{"five bytes max", []byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xffffffff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.input)
			got, err := r.ReadVarUint32()
			if err != nil {
				t.Fatalf("ReadVarUint32: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestVarUint32Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"empty", nil, ErrTruncated},
		{"dangling continuation", []byte{0x80}, ErrTruncated},
		{"four dangling continuations", []byte{0xff, 0xff, 0xff, 0xff}, ErrTruncated},
		{"fifth byte continues", []byte{0xff, 0xff, 0xff, 0xff, 0x8f}, ErrMalformedVarint},
		{"fifth byte overflows", []byte{0xff, 0xff, 0xff, 0xff, 0x10}, ErrMalformedVarint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.input)
			_, err := r.ReadVarUint32()
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVarInt32RoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 63, 64, -64, -65, math.MaxInt32, math.MinInt32}
	for _, v := range values {
		w := NewWriter()
		w.WriteVarInt32(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarInt32()
		if err != nil {
			t.Fatalf("ReadVarInt32(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestVarInt64RoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, math.MaxInt64, math.MinInt64, 1 << 40, -(1 << 40)}
	for _, v := range values {
		w := NewWriter()
		w.WriteVarInt64(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadVarInt64()
		if err != nil {
			t.Fatalf("ReadVarInt64(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestFixedWidthLittleEndian(t *testing.T) {
	w := NewWriter()
	w.WriteU16(0x1234)
	w.WriteU32(0xdeadbeef)
	want := []byte{0x34, 0x12, 0xef, 0xbe, 0xad, 0xde}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got % x, want % x", w.Bytes(), want)
	}

	r := NewReader(w.Bytes())
	u16, err := r.ReadU16()
	if err != nil || u16 != 0x1234 {
		t.Errorf("ReadU16: %#x, %v", u16, err)
	}
	u32, err := r.ReadU32()
	if err != nil || u32 != 0xdeadbeef {
		t.Errorf("ReadU32: %#x, %v", u32, err)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteF32(3.5)
	w.WriteF64(-0.1)
	w.WriteF64(math.Inf(1))

	r := NewReader(w.Bytes())
	f32, err := r.ReadF32()
	if err != nil || f32 != 3.5 {
		t.Errorf("ReadF32: %v, %v", f32, err)
	}
	f64, err := r.ReadF64()
	if err != nil || f64 != -0.1 {
		t.Errorf("ReadF64: %v, %v", f64, err)
	}
	inf, err := r.ReadF64()
	if err != nil || !math.IsInf(inf, 1) {
		t.Errorf("ReadF64 inf: %v, %v", inf, err)
	}
}

func TestCString(t *testing.T) {
	w := NewWriter()
	w.WriteCString("addTwo")
	w.WriteCString("")

	r := NewReader(w.Bytes())
	s, err := r.ReadCString()
	if err != nil || s != "addTwo" {
		t.Errorf("ReadCString: %q, %v", s, err)
	}
	s, err = r.ReadCString()
	if err != nil || s != "" {
		t.Errorf("ReadCString empty: %q, %v", s, err)
	}

	r = NewReader([]byte{'a', 'b'})
	if _, err := r.ReadCString(); !errors.Is(err, ErrTruncated) {
		t.Errorf("unterminated string: got %v, want %v", err, ErrTruncated)
	}

	r = NewReader([]byte{0xff, 0xfe, 0x00})
	if _, err := r.ReadCString(); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("invalid UTF-8: got %v, want %v", err, ErrInvalidUTF8)
	}
}

func TestReadBytesAliasing(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	r := NewReader(data)
	buf, err := r.ReadBytes(2)
	if err != nil {
		t.Fatal(err)
	}
	// The returned slice must have no spare capacity into the source.
	if cap(buf) != 2 {
		t.Errorf("cap = %d, want 2", cap(buf))
	}
	if r.Position() != 2 || r.Remaining() != 2 {
		t.Errorf("position %d remaining %d", r.Position(), r.Remaining())
	}
}

func TestParseError(t *testing.T) {
	r := NewReader(nil)
	err := r.WrapError("memory section", ErrTruncated)
	if !errors.Is(err, ErrTruncated) {
		t.Error("ParseError does not unwrap to its cause")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatal("expected *ParseError")
	}
	if pe.Context != "memory section" || pe.Offset != 0 {
		t.Errorf("unexpected fields: %+v", pe)
	}
}
