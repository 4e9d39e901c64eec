package astpack

import "fmt"

// Validate checks the cross-section invariants an encoder relies on: every
// index a later table references must land inside its earlier-declared
// table, and field values must fit their wire widths. Encode runs this
// before emitting any bytes.
func (m *Module) Validate() error {
	if m.Memory != nil && m.Memory.MinExponent > m.Memory.MaxExponent {
		return fmt.Errorf("%w: memory min exponent %d exceeds max %d",
			ErrInvalidModule, m.Memory.MinExponent, m.Memory.MaxExponent)
	}

	if len(m.Signatures) > 0xffff {
		return fmt.Errorf("%w: %d signatures exceed the u16 index space",
			ErrInvalidModule, len(m.Signatures))
	}
	for i, sig := range m.Signatures {
		if len(sig.Params) > 0xff {
			return fmt.Errorf("%w: signature %d has %d params, limit 255",
				ErrInvalidModule, i, len(sig.Params))
		}
		if !sig.Return.Valid(true) {
			return fmt.Errorf("%w: signature %d return type", ErrInvalidValueType, i)
		}
		for j, p := range sig.Params {
			if !p.Valid(false) {
				return fmt.Errorf("%w: signature %d param %d", ErrInvalidValueType, i, j)
			}
		}
	}

	if len(m.Functions) > 0xffff {
		return fmt.Errorf("%w: %d functions exceed the u16 index space",
			ErrInvalidModule, len(m.Functions))
	}
	for i := range m.Functions {
		fn := &m.Functions[i]
		if int(fn.SignatureIndex) >= len(m.Signatures) {
			return fmt.Errorf("function %d: %w: %d (%d signatures)",
				i, ErrSignatureIndexOutOfRange, fn.SignatureIndex, len(m.Signatures))
		}
		if fn.IsImport() && len(fn.Body) > 0 {
			return fmt.Errorf("%w: function %d is an import with a body", ErrInvalidModule, i)
		}
	}

	for i, g := range m.Globals {
		if !g.Type.Valid(false) {
			return fmt.Errorf("%w: global %d", ErrInvalidValueType, i)
		}
	}

	for i, idx := range m.FunctionTable {
		if int(idx) >= len(m.Functions) {
			return fmt.Errorf("function table entry %d: %w: %d (%d functions)",
				i, ErrFunctionIndexOutOfRange, idx, len(m.Functions))
		}
	}
	return nil
}
