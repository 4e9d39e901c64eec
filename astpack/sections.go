package astpack

import (
	"fmt"

	"github.com/kg/design/astpack/internal/binary"
)

// sectionReader decodes one section body in place. Bodies are not
// self-delimiting (except WLL), so a reader must consume exactly its
// section's bytes.
type sectionReader func(r *binary.Reader, m *Module, st *decodeState) error

// sectionRegistry maps a section tag to its schema handler. New section
// types are added here without touching the dispatch loop.
var sectionRegistry = map[byte]struct {
	name string
	read sectionReader
}{
	SectionMemory:        {"memory", readMemorySection},
	SectionSignatures:    {"signatures", readSignaturesSection},
	SectionFunctions:     {"functions", readFunctionsSection},
	SectionGlobals:       {"globals", readGlobalsSection},
	SectionDataSegments:  {"data segments", readDataSegmentsSection},
	SectionFunctionTable: {"function table", readFunctionTableSection},
	SectionWLL:           {"wll", readWLLSection},
}

// sectionDeps records which section must already have populated its table
// before the key section can be decoded.
var sectionDeps = map[byte]byte{
	SectionFunctions:     SectionSignatures,
	SectionFunctionTable: SectionFunctions,
}

// decodeState is the forward-pass context shared by section readers: the
// signature table under construction, which tables are populated, and
// function bodies pending tree decode.
type decodeState struct {
	sigs   *SignatureTable
	seen   map[byte]bool
	bodies []pendingBody
	opts   DecodeOptions
}

// pendingBody is a function body captured during the section pass and
// decoded afterwards, possibly concurrently.
type pendingBody struct {
	data  []byte
	index int
}

// readSections drives the forward-only section iteration: one tag byte,
// then the tag's schema handler. Iteration stops at End; trailing bytes
// after End belong to external collaborators and are ignored.
func readSections(r *binary.Reader, m *Module, st *decodeState) error {
	for {
		tag, err := r.ReadByte()
		if err != nil {
			return r.WrapError("section tag", err)
		}
		if tag == SectionEnd {
			return nil
		}

		entry, ok := sectionRegistry[tag]
		if !ok {
			return r.WrapError("section tag", fmt.Errorf("%w: 0x%02x", ErrUnknownSectionType, tag))
		}
		if dep, ok := sectionDeps[tag]; ok && !st.seen[dep] {
			return r.WrapError(entry.name+" section",
				fmt.Errorf("%w: %s before %s", ErrSectionOrderViolation,
					entry.name, sectionRegistry[dep].name))
		}

		if err := entry.read(r, m, st); err != nil {
			return fmt.Errorf("%s section: %w", entry.name, err)
		}
		st.seen[tag] = true
	}
}

// sectionEntry pairs a tag with the writer producing its body bytes.
type sectionEntry struct {
	tag   byte
	write func(w *binary.Writer) error
}

// writeSections emits each entry's tag byte followed by its body, then the
// End marker.
func writeSections(w *binary.Writer, entries []sectionEntry) error {
	for _, e := range entries {
		w.Byte(e.tag)
		if err := e.write(w); err != nil {
			return fmt.Errorf("%s section: %w", sectionRegistry[e.tag].name, err)
		}
	}
	w.Byte(SectionEnd)
	return nil
}
