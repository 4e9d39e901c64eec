package astpack

import (
	"fmt"

	"github.com/kg/design/astpack/internal/binary"
)

// EncodeOptions tunes module encoding.
type EncodeOptions struct {
	// DedupBodies enables subtree deduplication inside function bodies.
	// Decoders handle the resulting back-references transparently.
	DedupBodies bool

	// SplitBodies encodes every function body as a split container of
	// per-category streams. Decoders must set DecodeOptions.Tree.Split.
	SplitBodies bool
}

// Encode serializes the module. Sections are emitted in canonical order
// (Memory, Signatures, Functions, Globals, Data Segments, Function Table,
// WLL, End), which trivially satisfies the ordering dependencies. The
// module is validated before any bytes are produced.
func (m *Module) Encode() ([]byte, error) {
	return m.EncodeWithOptions(EncodeOptions{})
}

// EncodeWithOptions is Encode with explicit options.
func (m *Module) EncodeWithOptions(opts EncodeOptions) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	sigs := NewSignatureTable(m.Signatures...)
	treeOpts := TreeOptions{Dedup: opts.DedupBodies, Split: opts.SplitBodies}

	var entries []sectionEntry
	if m.Memory != nil {
		entries = append(entries, sectionEntry{SectionMemory, func(w *binary.Writer) error {
			w.Byte(m.Memory.MinExponent)
			w.Byte(m.Memory.MaxExponent)
			w.Byte(boolByte(m.Memory.Exported))
			return nil
		}})
	}
	if len(m.Signatures) > 0 {
		entries = append(entries, sectionEntry{SectionSignatures, func(w *binary.Writer) error {
			w.WriteVarUint32(uint32(len(m.Signatures)))
			for _, sig := range m.Signatures {
				w.Byte(byte(len(sig.Params)))
				w.Byte(byte(sig.Return))
				for _, p := range sig.Params {
					w.Byte(byte(p))
				}
			}
			return nil
		}})
	}
	if len(m.Functions) > 0 {
		entries = append(entries, sectionEntry{SectionFunctions, func(w *binary.Writer) error {
			w.WriteVarUint32(uint32(len(m.Functions)))
			for i := range m.Functions {
				if err := writeFunction(w, &m.Functions[i], sigs, treeOpts); err != nil {
					return fmt.Errorf("function %d: %w", i, err)
				}
			}
			return nil
		}})
	}
	if len(m.Globals) > 0 {
		entries = append(entries, sectionEntry{SectionGlobals, func(w *binary.Writer) error {
			w.WriteVarUint32(uint32(len(m.Globals)))
			for _, g := range m.Globals {
				w.WriteU32(g.NameOffset)
				w.Byte(byte(g.Type))
				w.Byte(boolByte(g.Exported))
			}
			return nil
		}})
	}
	if len(m.DataSegments) > 0 {
		entries = append(entries, sectionEntry{SectionDataSegments, func(w *binary.Writer) error {
			w.WriteVarUint32(uint32(len(m.DataSegments)))
			for _, seg := range m.DataSegments {
				w.WriteU32(seg.BaseAddress)
				w.WriteU32(seg.DataOffset)
				w.WriteU32(seg.Size)
				w.Byte(boolByte(seg.AutoLoad))
			}
			return nil
		}})
	}
	if len(m.FunctionTable) > 0 {
		entries = append(entries, sectionEntry{SectionFunctionTable, func(w *binary.Writer) error {
			w.WriteVarUint32(uint32(len(m.FunctionTable)))
			for _, idx := range m.FunctionTable {
				w.WriteU16(idx)
			}
			return nil
		}})
	}
	if len(m.WLL) > 0 {
		entries = append(entries, sectionEntry{SectionWLL, func(w *binary.Writer) error {
			w.WriteVarUint32(uint32(len(m.WLL)))
			w.WriteBytes(m.WLL)
			return nil
		}})
	}

	w := binary.NewWriter()
	if err := writeSections(w, entries); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func writeFunction(w *binary.Writer, fn *Function, sigs *SignatureTable, opts TreeOptions) error {
	w.Byte(fn.Flags)
	w.WriteU16(fn.SignatureIndex)
	if fn.HasName() {
		w.WriteU32(fn.NameOffset)
	}
	if fn.IsImport() {
		return nil
	}
	if fn.HasLocals() {
		w.WriteU16(fn.Locals.I32)
		w.WriteU16(fn.Locals.I64)
		w.WriteU16(fn.Locals.F32)
		w.WriteU16(fn.Locals.F64)
	}

	body, err := EncodeTree(fn.Body, sigs, opts)
	if err != nil {
		return err
	}
	if len(body) > MaxFunctionBodySize {
		return fmt.Errorf("%w: body is %d bytes, limit %d",
			ErrInvalidModule, len(body), MaxFunctionBodySize)
	}
	w.WriteU16(uint16(len(body)))
	w.WriteBytes(body)
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
