// Package astpack implements a portable binary container for syntax trees
// and module metadata, built for small files, fast decode, and low memory
// overhead.
//
// A container is an ordered sequence of tagged sections terminated by an
// End marker. Function bodies inside the Functions section are expression
// trees in a dense pre-order encoding: opcode byte, immediates, then
// children. Most opcodes have a fixed arity; call-like opcodes resolve
// their arity through the signature table populated by the Signatures
// section, which is why Functions may never precede Signatures.
//
// # Decoding
//
//	data, _ := os.ReadFile("module.pack")
//	m, err := astpack.Decode(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Input is treated as untrusted. Decoding is a single forward pass that
// fails fast on the first structural fault; errors wrap the package's
// sentinel taxonomy (ErrTruncatedInput, ErrMalformedVarint, and friends)
// and carry the byte offset and section context of the fault. Tree decode
// uses an explicit work stack bounded by MaxTreeDepth, so adversarially
// deep input cannot exhaust the native call stack.
//
// # Encoding
//
//	encoded, err := m.Encode()
//
// Round trips are lossless: Decode(Encode(m)) reproduces m structurally.
//
// # Structural compression
//
// Two optional transforms re-encode the same logical content:
//
//   - Subtree deduplication replaces repeated subtrees with compact
//     back-references into an arena ordered by emission. Enable with
//     EncodeOptions.DedupBodies or TreeOptions.Dedup; decoding handles
//     references unconditionally.
//   - Stream splitting partitions tree bytes into opcode, integer, and
//     float streams for better downstream generic compression. Enable with
//     EncodeOptions.SplitBodies and DecodeOptions.Tree.Split, or
//     TreeOptions.Split on both sides of the standalone tree codec.
//
// Trees can also be coded standalone against an explicit signature table
// with EncodeTree and DecodeTree.
package astpack
