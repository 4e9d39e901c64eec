package astpack

import (
	"fmt"

	"github.com/kg/design/astpack/internal/binary"
)

// DecodeTree parses a pre-order encoded forest from data. opts.Split must
// match the encoder; subtree back-references are handled unconditionally.
// The signature table supplies the arity of call-like nodes and is only
// read, never modified.
func DecodeTree(data []byte, table *SignatureTable, opts TreeOptions) ([]*AstNode, error) {
	var src *treeSource
	if opts.Split {
		var err error
		src, err = unpackStreams(data)
		if err != nil {
			return nil, err
		}
	} else {
		src = interleavedSource(binary.NewReader(data))
	}
	return decodeForest(src, table)
}

// treeFrame is one entry of the decoder's explicit work stack: a node whose
// head has been read and that still owes remaining children.
type treeFrame struct {
	node      *AstNode
	remaining int
}

// decodeForest runs the decoder loop. Natural recursion is converted to an
// explicit stack so adversarially deep input cannot grow the native call
// stack; the stack height is bounded by MaxTreeDepth.
func decodeForest(src *treeSource, table *SignatureTable) ([]*AstNode, error) {
	if table == nil {
		table = &SignatureTable{}
	}

	var (
		forest []*AstNode
		stack  []treeFrame
		arena  []*AstNode
	)

	for {
		if len(stack) == 0 && src.ops.Remaining() == 0 {
			return forest, nil
		}

		opByte, err := src.ops.ReadByte()
		if err != nil {
			return nil, err
		}
		op := Opcode(opByte)

		var node *AstNode
		inline := true

		if op == OpSubtreeRef {
			ref, err := src.ints.ReadVarUint32()
			if err != nil {
				return nil, err
			}
			if ref >= uint32(len(arena)) {
				return nil, fmt.Errorf("%w: #%d with %d subtrees decoded",
					ErrInvalidBackReference, ref, len(arena))
			}
			node = arena[ref]
			inline = false
		} else {
			shape := opShapes[op]
			if shape == nil {
				return nil, fmt.Errorf("at offset %d: %w: 0x%02x",
					src.ops.Position()-1, ErrUnknownOpcode, opByte)
			}

			node = &AstNode{Op: op}
			count := shape.fixed

			switch shape.imm {
			case immCount:
				v, err := src.ints.ReadVarUint32()
				if err != nil {
					return nil, err
				}
				node.Imm = CountImm{Count: v}
				count = int(v)
			case immIndex:
				v, err := src.ints.ReadVarUint32()
				if err != nil {
					return nil, err
				}
				node.Imm = IndexImm{Index: v}
			case immOffset:
				v, err := src.ints.ReadVarUint32()
				if err != nil {
					return nil, err
				}
				node.Imm = OffsetImm{Offset: v}
			case immSig:
				v, err := src.ints.ReadVarUint32()
				if err != nil {
					return nil, err
				}
				arity, err := table.Arity(v)
				if err != nil {
					return nil, err
				}
				node.Imm = SigImm{SigIndex: v}
				count = arity
				if shape.arity == aritySigCall {
					count++
				}
			case immI32:
				v, err := src.ints.ReadVarInt32()
				if err != nil {
					return nil, err
				}
				node.Imm = I32Imm{Value: v}
			case immI64:
				v, err := src.ints.ReadVarInt64()
				if err != nil {
					return nil, err
				}
				node.Imm = I64Imm{Value: v}
			case immF32:
				v, err := src.floats.ReadF32()
				if err != nil {
					return nil, err
				}
				node.Imm = F32Imm{Value: v}
			case immF64:
				v, err := src.floats.ReadF64()
				if err != nil {
					return nil, err
				}
				node.Imm = F64Imm{Value: v}
			}

			if count > 0 {
				if len(stack) >= MaxTreeDepth {
					return nil, fmt.Errorf("at offset %d: %w",
						src.ops.Position(), ErrRecursionDepthExceeded)
				}
				stack = append(stack, treeFrame{node: node, remaining: count})
				continue
			}
		}

		// The node is complete. Register it, attach it to its parent, and
		// pop every frame this completes in turn.
		for {
			if inline {
				arena = append(arena, node)
			}
			if len(stack) == 0 {
				forest = append(forest, node)
				break
			}
			top := &stack[len(stack)-1]
			top.node.Kids = append(top.node.Kids, node)
			top.remaining--
			if top.remaining > 0 {
				break
			}
			stack = stack[:len(stack)-1]
			node = top.node
			inline = true
		}
	}
}
