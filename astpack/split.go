package astpack

import (
	"fmt"

	"github.com/kg/design/astpack/internal/binary"
)

// Stream splitting is a pure re-encoding: the same logical pre-order
// content, partitioned by category so that runs of similar bytes sit
// together for downstream generic compression. The container is a stream
// count byte followed by a varuint-length-prefixed body per stream, in
// fixed order: opcodes, integer immediates, float immediates.

// packStreams frames the three category streams into one blob.
func packStreams(sink *treeSink) []byte {
	out := binary.NewWriter()
	out.Byte(splitStreamCount)
	for _, s := range []*binary.Writer{sink.ops, sink.ints, sink.floats} {
		out.WriteVarUint32(uint32(s.Len()))
		out.WriteBytes(s.Bytes())
	}
	return out.Bytes()
}

// unpackStreams splits a framed container back into per-category readers.
func unpackStreams(data []byte) (*treeSource, error) {
	r := binary.NewReader(data)
	count, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if count != splitStreamCount {
		return nil, fmt.Errorf("astpack: split container declares %d streams, want %d",
			count, splitStreamCount)
	}

	streams := make([]*binary.Reader, splitStreamCount)
	for i := range streams {
		n, err := r.ReadVarUint32()
		if err != nil {
			return nil, err
		}
		body, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		streams[i] = binary.NewReader(body)
	}
	return &treeSource{ops: streams[0], ints: streams[1], floats: streams[2]}, nil
}
