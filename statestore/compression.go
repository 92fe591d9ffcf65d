package statestore

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression compresses/decompresses snapshot payloads.
// Implementations must be safe for concurrent use.
type Compression interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
	Name() string
}

// CompressionByName returns a built-in compression by its stable name.
// Snapshot headers store the compression name so snapshots are
// self-describing.
func CompressionByName(name string) (Compression, bool) {
	switch name {
	case "none":
		return None{}, true
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// None is the identity compression.
type None struct{}

// Compress returns src unchanged.
func (None) Compress(src []byte) ([]byte, error) { return src, nil }

// Decompress returns src unchanged.
func (None) Decompress(src []byte) ([]byte, error) { return src, nil }

// Name returns the unique name of the compression ("none").
func (None) Name() string { return "none" }

// Zstd encoder/decoder pools for efficiency.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Zstd is zstandard block compression (better ratio, good default).
type Zstd struct{}

// Compress compresses src as one zstd block.
func (Zstd) Compress(src []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(src, nil), nil
}

// Decompress decompresses one zstd block.
func (Zstd) Decompress(src []byte) ([]byte, error) {
	dec := getZstdDecoder()
	defer zstdDecoderPool.Put(dec)
	out, err := dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

// Name returns the unique name of the compression ("zstd").
func (Zstd) Name() string { return "zstd" }

const (
	lz4BlockRaw        = 0
	lz4BlockCompressed = 1
)

// LZ4 is LZ4 block compression (fast, lighter ratio).
//
// Format: 4-byte little-endian uncompressed size, a 1-byte flag
// (0 = stored raw, 1 = LZ4 block), then the body. Incompressible payloads
// are stored raw.
type LZ4 struct{}

// Compress compresses src as one LZ4 block.
func (LZ4) Compress(src []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(src))
	dst := make([]byte, 5+bound)
	putUint32(dst, uint32(len(src))) //nolint:gosec
	dst[4] = lz4BlockCompressed

	n, err := lz4.CompressBlock(src, dst[5:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 || n >= len(src) {
		// No gain; store raw.
		out := make([]byte, 5+len(src))
		putUint32(out, uint32(len(src))) //nolint:gosec
		out[4] = lz4BlockRaw
		copy(out[5:], src)
		return out, nil
	}
	return dst[:5+n], nil
}

// Decompress decompresses one LZ4 block.
func (LZ4) Decompress(src []byte) ([]byte, error) {
	if len(src) < 5 {
		return nil, fmt.Errorf("lz4 decompress: truncated block")
	}
	size := getUint32(src)
	flag := src[4]
	body := src[5:]

	if flag == lz4BlockRaw {
		if len(body) != int(size) {
			return nil, fmt.Errorf("lz4 decompress: raw size mismatch")
		}
		out := make([]byte, size)
		copy(out, body)
		return out, nil
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != int(size) {
		return nil, fmt.Errorf("lz4 decompress: size mismatch")
	}
	return out, nil
}

// Name returns the unique name of the compression ("lz4").
func (LZ4) Name() string { return "lz4" }

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
