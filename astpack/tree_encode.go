package astpack

import (
	"fmt"

	"github.com/kg/design/astpack/internal/binary"
)

// EncodeTree serializes a forest in dense pre-order: each node's opcode
// byte, then its immediates, then its children left to right. Call-like
// nodes are validated against table before any of their bytes are emitted.
func EncodeTree(forest []*AstNode, table *SignatureTable, opts TreeOptions) ([]byte, error) {
	if table == nil {
		table = &SignatureTable{}
	}

	var sink *treeSink
	if opts.Split {
		sink = splitSink()
	} else {
		sink = interleavedSink(binary.NewWriter())
	}

	enc := &treeEncoder{table: table, sink: sink}
	if opts.Dedup {
		enc.dedup = newDedupTable()
	}

	for i, n := range forest {
		if err := enc.encode(n, 0); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}

	if opts.Split {
		return packStreams(sink), nil
	}
	return sink.ops.Bytes(), nil
}

type treeEncoder struct {
	table *SignatureTable
	sink  *treeSink
	dedup *dedupTable
}

func (e *treeEncoder) encode(n *AstNode, depth int) error {
	if depth >= MaxTreeDepth {
		return ErrRecursionDepthExceeded
	}

	shape, err := e.resolve(n)
	if err != nil {
		return err
	}

	if e.dedup != nil {
		if done, err := e.dedup.tryEmitRef(e, n, depth); done || err != nil {
			return err
		}
	}

	writeNodeHead(e.sink, n, shape)
	for _, kid := range n.Kids {
		if err := e.encode(kid, depth+1); err != nil {
			return err
		}
	}

	if e.dedup != nil {
		e.dedup.registered(n)
	}
	return nil
}

// resolve validates the node against the opcode registry and the signature
// table, before anything is written for it.
func (e *treeEncoder) resolve(n *AstNode) (*opShape, error) {
	shape := opShapes[n.Op]
	if shape == nil || n.Op == OpSubtreeRef {
		return nil, fmt.Errorf("%w: opcode 0x%02x not encodable", ErrInvalidModule, byte(n.Op))
	}

	switch shape.imm {
	case immNone:
		if n.Imm != nil {
			return nil, fmt.Errorf("%w: %s carries unexpected immediate", ErrInvalidModule, shape.name)
		}
	case immCount:
		if imm, ok := n.Imm.(CountImm); ok && imm.Count != uint32(len(n.Kids)) {
			return nil, fmt.Errorf("%w: %s count %d != %d children",
				ErrInvalidModule, shape.name, imm.Count, len(n.Kids))
		}
	case immIndex:
		if _, ok := n.Imm.(IndexImm); !ok {
			return nil, immTypeError(shape, n)
		}
	case immOffset:
		if _, ok := n.Imm.(OffsetImm); !ok {
			return nil, immTypeError(shape, n)
		}
	case immSig:
		imm, ok := n.Imm.(SigImm)
		if !ok {
			return nil, immTypeError(shape, n)
		}
		arity, err := e.table.Arity(imm.SigIndex)
		if err != nil {
			return nil, err
		}
		want := arity
		if shape.arity == aritySigCall {
			want++
		}
		if len(n.Kids) != want {
			return nil, fmt.Errorf("%w: %s expects %d operands, has %d",
				ErrInvalidModule, shape.name, want, len(n.Kids))
		}
		return shape, nil
	case immI32:
		if _, ok := n.Imm.(I32Imm); !ok {
			return nil, immTypeError(shape, n)
		}
	case immI64:
		if _, ok := n.Imm.(I64Imm); !ok {
			return nil, immTypeError(shape, n)
		}
	case immF32:
		if _, ok := n.Imm.(F32Imm); !ok {
			return nil, immTypeError(shape, n)
		}
	case immF64:
		if _, ok := n.Imm.(F64Imm); !ok {
			return nil, immTypeError(shape, n)
		}
	}

	if shape.arity == arityFixed && len(n.Kids) != shape.fixed {
		return nil, fmt.Errorf("%w: %s expects %d children, has %d",
			ErrInvalidModule, shape.name, shape.fixed, len(n.Kids))
	}
	return shape, nil
}

func immTypeError(shape *opShape, n *AstNode) error {
	return fmt.Errorf("%w: %s has immediate %T", ErrInvalidModule, shape.name, n.Imm)
}

// writeNodeHead emits the opcode byte and immediates to their streams. The
// node must already be validated by resolve.
func writeNodeHead(sink *treeSink, n *AstNode, shape *opShape) {
	sink.ops.Byte(byte(n.Op))

	switch shape.imm {
	case immCount:
		sink.ints.WriteVarUint32(uint32(len(n.Kids)))
	case immIndex:
		sink.ints.WriteVarUint32(n.Imm.(IndexImm).Index)
	case immOffset:
		sink.ints.WriteVarUint32(n.Imm.(OffsetImm).Offset)
	case immSig:
		sink.ints.WriteVarUint32(n.Imm.(SigImm).SigIndex)
	case immI32:
		sink.ints.WriteVarInt32(n.Imm.(I32Imm).Value)
	case immI64:
		sink.ints.WriteVarInt64(n.Imm.(I64Imm).Value)
	case immF32:
		sink.floats.WriteF32(n.Imm.(F32Imm).Value)
	case immF64:
		sink.floats.WriteF64(n.Imm.(F64Imm).Value)
	}
}
