package astpack

import (
	"github.com/zeebo/blake3"

	"github.com/kg/design/astpack/internal/binary"
)

// splitStreamCount fixes the number of category streams in a split
// container: opcodes, integer immediates, float immediates.
const splitStreamCount = 3

// dedupTable content-addresses subtrees during encode. A subtree's address
// is the blake3 hash of its canonical interleaved Layer-0 bytes, which is
// well defined because varint encodings are minimal.
//
// Arena indices are assigned in post-order of inline emissions, children
// before parents, mirroring the decoder's pop-time registration. Duplicate
// subtrees re-emitted inline (because a back-reference would not be
// shorter) still consume an index; the hash keeps its first index.
type dedupTable struct {
	index map[[32]byte]uint32
	canon map[*AstNode][]byte
	sums  map[*AstNode][32]byte
	next  uint32
}

func newDedupTable() *dedupTable {
	return &dedupTable{
		index: make(map[[32]byte]uint32),
		canon: make(map[*AstNode][]byte),
		sums:  make(map[*AstNode][32]byte),
	}
}

// tryEmitRef emits a SubtreeRef for n when a structurally identical subtree
// was already emitted and the reference is strictly shorter than
// re-emission. Reports whether the node is fully handled.
func (d *dedupTable) tryEmitRef(e *treeEncoder, n *AstNode, depth int) (bool, error) {
	canon, err := d.canonical(e, n, depth)
	if err != nil {
		return false, err
	}
	idx, ok := d.index[d.sums[n]]
	if !ok {
		return false, nil
	}
	if 1+binary.VarUint32Size(idx) >= len(canon) {
		return false, nil
	}
	e.sink.ops.Byte(byte(OpSubtreeRef))
	e.sink.ints.WriteVarUint32(idx)
	return true, nil
}

// registered records that n was emitted inline, assigning the next arena
// index. Must be called after the subtree's children, in post-order.
func (d *dedupTable) registered(n *AstNode) {
	idx := d.next
	d.next++
	if _, ok := d.index[d.sums[n]]; !ok {
		d.index[d.sums[n]] = idx
	}
}

// canonical returns the plain interleaved Layer-0 encoding of n, memoized
// per node pointer so shared subtrees are serialized once.
func (d *dedupTable) canonical(e *treeEncoder, n *AstNode, depth int) ([]byte, error) {
	if depth >= MaxTreeDepth {
		return nil, ErrRecursionDepthExceeded
	}
	if c, ok := d.canon[n]; ok {
		return c, nil
	}

	shape, err := e.resolve(n)
	if err != nil {
		return nil, err
	}

	head := binary.NewWriter()
	writeNodeHead(interleavedSink(head), n, shape)

	out := append([]byte(nil), head.Bytes()...)
	for _, kid := range n.Kids {
		kc, err := d.canonical(e, kid, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, kc...)
	}

	d.canon[n] = out
	d.sums[n] = blake3.Sum256(out)
	return out, nil
}
