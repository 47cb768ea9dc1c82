package gamesave

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// decompressSlack lets a frame overshoot the declared length far enough for
// the mismatch to be reported as corruption rather than a memory error.
const decompressSlack = 64 << 10

// ParseCompressionLevel accepts fastest, default, better or best.
func ParseCompressionLevel(s string) (zstd.EncoderLevel, error) {
	ok, level := zstd.EncoderLevelFromString(s)
	if !ok {
		return 0, fmt.Errorf("unknown compression level %q", s)
	}
	return level, nil
}

func decompress(src []byte, want int) ([]byte, error) {
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(want)+decompressSlack),
	)
	if err != nil {
		return nil, parseErrorf(ParseInternalError, "zstd decoder: %v", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(src, make([]byte, 0, want))
	if err != nil {
		return nil, parseErrorf(ParseCorrupt, "cannot decompress body: %v", err)
	}
	if len(out) != want {
		return nil, parseErrorf(ParseCorrupt, "body is %d bytes, header declares %d", len(out), want)
	}
	return out, nil
}

func compress(body []byte, level zstd.EncoderLevel) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(body, make([]byte, 0, len(body)/2+64)), nil
}
