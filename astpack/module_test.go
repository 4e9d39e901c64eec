package astpack_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kg/design/astpack"
)

// fixtureModule builds a module exercising every section: an exported
// 16-page heap, an add-two-locals function, an import, globals, data
// segments, an indirect call table, and an opaque WLL payload.
func fixtureModule() *astpack.Module {
	return &astpack.Module{
		Memory: &astpack.MemoryConfig{MinExponent: 16, MaxExponent: 20, Exported: true},
		Signatures: []astpack.FunctionSignature{
			{Params: []astpack.ValType{astpack.ValI32, astpack.ValI32}, Return: astpack.ValI32},
			{Return: astpack.ValVoid},
		},
		Functions: []astpack.Function{
			{
				Flags:          astpack.FuncFlagName | astpack.FuncFlagLocals | astpack.FuncFlagExported,
				SignatureIndex: 0,
				NameOffset:     0x100,
				Locals:         astpack.LocalCounts{I32: 1},
				Body: []*astpack.AstNode{
					astpack.NewNode(astpack.OpReturn, nil,
						astpack.NewNode(astpack.OpI32Add, nil, getLocal(0), getLocal(1))),
				},
			},
			{
				Flags:          astpack.FuncFlagName | astpack.FuncFlagImport,
				SignatureIndex: 1,
				NameOffset:     0x140,
			},
			{
				SignatureIndex: 1,
				Body: []*astpack.AstNode{
					astpack.NewNode(astpack.OpCall, astpack.SigImm{SigIndex: 1}),
					astpack.NewNode(astpack.OpReturnVoid, nil),
				},
			},
		},
		Globals: []astpack.Global{
			{NameOffset: 0x180, Type: astpack.ValI32, Exported: true},
			{NameOffset: 0x190, Type: astpack.ValF64},
		},
		DataSegments: []astpack.DataSegment{
			{BaseAddress: 0x1000, DataOffset: 0x200, Size: 64, AutoLoad: true},
		},
		FunctionTable: []uint16{0, 2},
		WLL:           []byte{0xde, 0xad, 0xbe, 0xef},
	}
}

func TestModuleRoundTrip(t *testing.T) {
	m := fixtureModule()
	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := astpack.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, m)
	}
}

func TestEmptyModule(t *testing.T) {
	m := &astpack.Module{}
	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Nothing but the end marker.
	if len(data) != 1 || data[0] != astpack.SectionEnd {
		t.Errorf("empty module encoded as % x", data)
	}
	got, err := astpack.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("got %+v", got)
	}
}

func TestTrailingBytesIgnored(t *testing.T) {
	data, err := fixtureModule().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Content past the end marker belongs to the surrounding file format.
	data = append(data, []byte("name table and segment bytes")...)
	if _, err := astpack.Decode(data); err != nil {
		t.Errorf("Decode with trailing bytes: %v", err)
	}
}

func TestEveryPrefixFailsTruncated(t *testing.T) {
	data, err := fixtureModule().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for n := 0; n < len(data); n++ {
		_, err := astpack.Decode(data[:n])
		if err == nil {
			t.Fatalf("prefix of %d/%d bytes decoded successfully", n, len(data))
		}
		if !errors.Is(err, astpack.ErrTruncatedInput) {
			t.Fatalf("prefix of %d bytes: got %v, want %v", n, err, astpack.ErrTruncatedInput)
		}
	}
}

func TestSectionOrderViolation(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"functions before signatures", []byte{astpack.SectionFunctions}},
		{"function table before functions", []byte{
			astpack.SectionSignatures, 0x00,
			astpack.SectionFunctionTable,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := astpack.Decode(tt.input)
			if !errors.Is(err, astpack.ErrSectionOrderViolation) {
				t.Errorf("got %v, want %v", err, astpack.ErrSectionOrderViolation)
			}
		})
	}
}

func TestUnknownSectionType(t *testing.T) {
	_, err := astpack.Decode([]byte{0xff})
	if !errors.Is(err, astpack.ErrUnknownSectionType) {
		t.Errorf("got %v, want %v", err, astpack.ErrUnknownSectionType)
	}
}

func TestFunctionTableIndexOutOfRange(t *testing.T) {
	// Empty signature and function sections, then a table entry naming
	// function 0 of 0.
	input := []byte{
		astpack.SectionSignatures, 0x00,
		astpack.SectionFunctions, 0x00,
		astpack.SectionFunctionTable, 0x01, 0x00, 0x00,
	}
	_, err := astpack.Decode(input)
	if !errors.Is(err, astpack.ErrFunctionIndexOutOfRange) {
		t.Errorf("got %v, want %v", err, astpack.ErrFunctionIndexOutOfRange)
	}
}

func TestFunctionSignatureOutOfRange(t *testing.T) {
	// One void signature, then a function naming signature 7.
	input := []byte{
		astpack.SectionSignatures, 0x01, 0x00, 0x00,
		astpack.SectionFunctions, 0x01,
		0x00,       // flags
		0x07, 0x00, // signature index 7
	}
	_, err := astpack.Decode(input)
	if !errors.Is(err, astpack.ErrSignatureIndexOutOfRange) {
		t.Errorf("got %v, want %v", err, astpack.ErrSignatureIndexOutOfRange)
	}
}

func TestBodySizeMismatch(t *testing.T) {
	// The declared 1-byte body holds an add whose operands lie beyond the
	// body's extent.
	input := []byte{
		astpack.SectionSignatures, 0x01, 0x00, 0x00,
		astpack.SectionFunctions, 0x01,
		0x00,       // flags
		0x00, 0x00, // signature index 0
		0x01, 0x00, // body size 1
		byte(astpack.OpI32Add),
		astpack.SectionEnd,
	}
	_, err := astpack.Decode(input)
	if !errors.Is(err, astpack.ErrBodySizeMismatch) {
		t.Errorf("got %v, want %v", err, astpack.ErrBodySizeMismatch)
	}
}

func TestInvalidValueType(t *testing.T) {
	// A signature declaring return type 0x09.
	input := []byte{astpack.SectionSignatures, 0x01, 0x00, 0x09}
	_, err := astpack.Decode(input)
	if !errors.Is(err, astpack.ErrInvalidValueType) {
		t.Errorf("got %v, want %v", err, astpack.ErrInvalidValueType)
	}
}

func TestEncodeValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *astpack.Module)
		want   error
	}{
		{
			"memory min above max",
			func(m *astpack.Module) { m.Memory.MinExponent = 24 },
			astpack.ErrInvalidModule,
		},
		{
			"function signature out of range",
			func(m *astpack.Module) { m.Functions[0].SignatureIndex = 9 },
			astpack.ErrSignatureIndexOutOfRange,
		},
		{
			"import with a body",
			func(m *astpack.Module) {
				m.Functions[1].Body = []*astpack.AstNode{astpack.NewNode(astpack.OpNop, nil)}
			},
			astpack.ErrInvalidModule,
		},
		{
			"table entry out of range",
			func(m *astpack.Module) { m.FunctionTable = append(m.FunctionTable, 99) },
			astpack.ErrFunctionIndexOutOfRange,
		},
		{
			"invalid global type",
			func(m *astpack.Module) { m.Globals[0].Type = astpack.ValType(0x55) },
			astpack.ErrInvalidValueType,
		},
		{
			"void as parameter type",
			func(m *astpack.Module) { m.Signatures[0].Params[0] = astpack.ValVoid },
			astpack.ErrInvalidValueType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := fixtureModule()
			tt.mutate(m)
			_, err := m.Encode()
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDedupBodiesOption(t *testing.T) {
	m := fixtureModule()
	// Give the first function a body with a repeated large subexpression.
	m.Functions[0].Body = []*astpack.AstNode{
		astpack.NewNode(astpack.OpSetLocal, astpack.IndexImm{Index: 2}, bigSubtree()),
		astpack.NewNode(astpack.OpReturn, nil, bigSubtree()),
	}

	plain, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	deduped, err := m.EncodeWithOptions(astpack.EncodeOptions{DedupBodies: true})
	if err != nil {
		t.Fatalf("EncodeWithOptions: %v", err)
	}
	if len(deduped) >= len(plain) {
		t.Errorf("dedup encoding is not smaller: %d >= %d", len(deduped), len(plain))
	}

	got, err := astpack.Decode(deduped)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Error("dedup round trip mismatch")
	}
}

func TestSplitBodiesOption(t *testing.T) {
	m := fixtureModule()
	data, err := m.EncodeWithOptions(astpack.EncodeOptions{SplitBodies: true})
	if err != nil {
		t.Fatalf("EncodeWithOptions: %v", err)
	}

	// Split bodies are not self-describing; the decode side must opt in.
	if got, err := astpack.Decode(data); err == nil && reflect.DeepEqual(got, m) {
		t.Error("split bodies decoded without Tree.Split")
	}

	got, err := astpack.DecodeWithOptions(data, astpack.DecodeOptions{
		Tree: astpack.TreeOptions{Split: true},
	})
	if err != nil {
		t.Fatalf("DecodeWithOptions: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Error("split bodies round trip mismatch")
	}
}

func TestParallelBodyDecode(t *testing.T) {
	m := fixtureModule()
	// Pad the module with enough bodies to keep several workers busy.
	for i := 0; i < 32; i++ {
		m.Functions = append(m.Functions, astpack.Function{
			SignatureIndex: 0,
			Body: []*astpack.AstNode{
				astpack.NewNode(astpack.OpReturn, nil,
					astpack.NewNode(astpack.OpI32Mul, nil, getLocal(0), i32Const(int32(i)))),
			},
		})
	}

	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	sequential, err := astpack.Decode(data)
	if err != nil {
		t.Fatalf("sequential decode: %v", err)
	}
	parallel, err := astpack.DecodeWithOptions(data, astpack.DecodeOptions{Workers: 4})
	if err != nil {
		t.Fatalf("parallel decode: %v", err)
	}
	if !reflect.DeepEqual(sequential, parallel) {
		t.Error("parallel decode disagrees with sequential decode")
	}
}

func TestNameAt(t *testing.T) {
	container := []byte("\x00\x00\x00addTwo\x00fp_mul\x00")
	tests := []struct {
		offset uint32
		want   string
	}{
		{3, "addTwo"},
		{10, "fp_mul"},
		{9, ""}, // terminator of the first name
	}
	for _, tt := range tests {
		got, err := astpack.NameAt(container, tt.offset)
		if err != nil {
			t.Errorf("NameAt(%d): %v", tt.offset, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NameAt(%d) = %q, want %q", tt.offset, got, tt.want)
		}
	}

	if _, err := astpack.NameAt(container, 999); !errors.Is(err, astpack.ErrTruncatedInput) {
		t.Errorf("out of range offset: got %v, want %v", err, astpack.ErrTruncatedInput)
	}
	if _, err := astpack.NameAt([]byte("abc"), 0); !errors.Is(err, astpack.ErrTruncatedInput) {
		t.Errorf("unterminated name: got %v, want %v", err, astpack.ErrTruncatedInput)
	}
}

func TestFunctionFlagAccessors(t *testing.T) {
	fn := &astpack.Function{Flags: astpack.FuncFlagName | astpack.FuncFlagExported}
	if !fn.HasName() || !fn.IsExported() || fn.IsImport() || fn.HasLocals() {
		t.Errorf("flag accessors disagree with flags 0x%02x", fn.Flags)
	}
}
