// Package compress applies optional general-purpose byte compression to
// encoded containers. The codec itself stays oblivious to the algorithm;
// this package wraps a zstd frame around whatever bytes the encoder
// produced, and tooling sniffs the frame magic to decompress transparently.
package compress

import (
	"encoding/binary"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/kg/design/errors"
)

// zstd frame magic, little-endian.
const frameMagic = 0xfd2fb528

var (
	encOnce sync.Once
	encoder *zstd.Encoder
	decOnce sync.Once
	decoder *zstd.Decoder
)

func getEncoder() *zstd.Encoder {
	encOnce.Do(func() {
		// EncodeAll never fails with default options.
		encoder, _ = zstd.NewWriter(nil)
	})
	return encoder
}

func getDecoder() *zstd.Decoder {
	decOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil)
	})
	return decoder
}

// IsCompressed reports whether data begins with a zstd frame.
func IsCompressed(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == frameMagic
}

// Compress wraps data in a zstd frame.
func Compress(data []byte) []byte {
	return getEncoder().EncodeAll(data, nil)
}

// Decompress unwraps a zstd frame produced by Compress.
func Decompress(data []byte) ([]byte, error) {
	out, err := getDecoder().DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCompress, errors.KindInvalidData, err, "zstd frame")
	}
	return out, nil
}

// MaybeDecompress returns data unchanged unless it carries a zstd frame, in
// which case the frame is unwrapped.
func MaybeDecompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}
	return Decompress(data)
}
