package astpack

import (
	"fmt"

	"github.com/kg/design/astpack/internal/binary"
)

// DecodeOptions tunes module decoding.
type DecodeOptions struct {
	// Workers sets the number of goroutines decoding function bodies after
	// the sequential section pass. Values below 2 decode inline. Bodies are
	// mutually independent once the signature table is sealed, so outputs
	// are simply reassembled in declaration order.
	Workers int

	// Tree applies to every function body. Tree.Split must match the
	// encoder's SplitBodies setting.
	Tree TreeOptions
}

// Decode parses a binary container. Input is untrusted: any structural
// fault fails fast with a taxonomy error carrying byte offset and
// section/function context. No partial module is ever returned.
func Decode(data []byte) (*Module, error) {
	return DecodeWithOptions(data, DecodeOptions{})
}

// DecodeWithOptions is Decode with explicit options.
func DecodeWithOptions(data []byte, opts DecodeOptions) (*Module, error) {
	r := binary.NewReader(data)
	m := &Module{}
	st := &decodeState{
		sigs: &SignatureTable{},
		seen: make(map[byte]bool),
		opts: opts,
	}

	if err := readSections(r, m, st); err != nil {
		return nil, err
	}
	if err := decodeBodies(m, st); err != nil {
		return nil, err
	}
	return m, nil
}

func readMemorySection(r *binary.Reader, m *Module, _ *decodeState) error {
	minExp, err := r.ReadByte()
	if err != nil {
		return err
	}
	maxExp, err := r.ReadByte()
	if err != nil {
		return err
	}
	visible, err := r.ReadByte()
	if err != nil {
		return err
	}
	m.Memory = &MemoryConfig{
		MinExponent: minExp,
		MaxExponent: maxExp,
		Exported:    visible != 0,
	}
	return nil
}

func readSignaturesSection(r *binary.Reader, m *Module, st *decodeState) error {
	count, err := r.ReadVarUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		paramCount, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("signature %d: %w", i, err)
		}
		ret, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("signature %d: %w", i, err)
		}
		if !ValType(ret).Valid(true) {
			return fmt.Errorf("signature %d: %w: return type 0x%02x", i, ErrInvalidValueType, ret)
		}
		sig := FunctionSignature{Return: ValType(ret)}
		if paramCount > 0 {
			sig.Params = make([]ValType, paramCount)
		}
		for j := range sig.Params {
			t, err := r.ReadByte()
			if err != nil {
				return fmt.Errorf("signature %d: %w", i, err)
			}
			if !ValType(t).Valid(false) {
				return fmt.Errorf("signature %d: %w: param type 0x%02x", i, ErrInvalidValueType, t)
			}
			sig.Params[j] = ValType(t)
		}
		st.sigs.Register(sig)
		m.Signatures = append(m.Signatures, sig)
	}
	return nil
}

func readFunctionsSection(r *binary.Reader, m *Module, st *decodeState) error {
	count, err := r.ReadVarUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		fn, err := readFunction(r, st, int(i))
		if err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
		m.Functions = append(m.Functions, fn)
	}
	return nil
}

func readFunction(r *binary.Reader, st *decodeState, index int) (Function, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Function{}, err
	}
	sigIndex, err := r.ReadU16()
	if err != nil {
		return Function{}, err
	}
	if int(sigIndex) >= st.sigs.Len() {
		return Function{}, fmt.Errorf("%w: %d (table size %d)",
			ErrSignatureIndexOutOfRange, sigIndex, st.sigs.Len())
	}

	fn := Function{Flags: flags, SignatureIndex: sigIndex}

	if flags&FuncFlagName != 0 {
		fn.NameOffset, err = r.ReadU32()
		if err != nil {
			return Function{}, err
		}
	}
	if flags&FuncFlagImport != 0 {
		return fn, nil
	}
	if flags&FuncFlagLocals != 0 {
		for _, dst := range []*uint16{&fn.Locals.I32, &fn.Locals.I64, &fn.Locals.F32, &fn.Locals.F64} {
			*dst, err = r.ReadU16()
			if err != nil {
				return Function{}, err
			}
		}
	}

	bodySize, err := r.ReadU16()
	if err != nil {
		return Function{}, err
	}
	body, err := r.ReadBytes(int(bodySize))
	if err != nil {
		return Function{}, err
	}
	st.bodies = append(st.bodies, pendingBody{data: body, index: index})
	return fn, nil
}

func readGlobalsSection(r *binary.Reader, m *Module, _ *decodeState) error {
	count, err := r.ReadVarUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		nameOffset, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("global %d: %w", i, err)
		}
		t, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("global %d: %w", i, err)
		}
		if !ValType(t).Valid(false) {
			return fmt.Errorf("global %d: %w: type 0x%02x", i, ErrInvalidValueType, t)
		}
		exported, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("global %d: %w", i, err)
		}
		m.Globals = append(m.Globals, Global{
			NameOffset: nameOffset,
			Type:       ValType(t),
			Exported:   exported != 0,
		})
	}
	return nil
}

func readDataSegmentsSection(r *binary.Reader, m *Module, _ *decodeState) error {
	count, err := r.ReadVarUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		var seg DataSegment
		for _, dst := range []*uint32{&seg.BaseAddress, &seg.DataOffset, &seg.Size} {
			*dst, err = r.ReadU32()
			if err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
		}
		auto, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		seg.AutoLoad = auto != 0
		m.DataSegments = append(m.DataSegments, seg)
	}
	return nil
}

func readFunctionTableSection(r *binary.Reader, m *Module, _ *decodeState) error {
	count, err := r.ReadVarUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		idx, err := r.ReadU16()
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if int(idx) >= len(m.Functions) {
			return fmt.Errorf("entry %d: %w: %d (%d functions)",
				i, ErrFunctionIndexOutOfRange, idx, len(m.Functions))
		}
		m.FunctionTable = append(m.FunctionTable, idx)
	}
	return nil
}

func readWLLSection(r *binary.Reader, m *Module, _ *decodeState) error {
	size, err := r.ReadVarUint32()
	if err != nil {
		return err
	}
	m.WLL, err = r.ReadBytes(int(size))
	return err
}

// NameAt resolves a null-terminated UTF-8 string referenced by offset
// fields (function and global names) against the full container bytes.
func NameAt(container []byte, offset uint32) (string, error) {
	if offset >= uint32(len(container)) {
		return "", fmt.Errorf("name offset %d: %w", offset, ErrTruncatedInput)
	}
	r := binary.NewReader(container[offset:])
	return r.ReadCString()
}
