package quantgo

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/quantgo/internal/conv"
)

// PackQValues encodes quantized values into the quantizer's narrowest
// integer type, little-endian. Integer-only backends consume the resulting
// fixed-width buffer directly.
//
// Values produced with clipping enabled always fit; out-of-range values
// (possible with NoClipping) fail with an overflow error rather than being
// silently truncated.
func (q *Quantizer) PackQValues(qvalues []int64) ([]byte, error) {
	dt := q.DType()
	width := dt.Bits() / 8
	buf := make([]byte, len(qvalues)*width)

	for i, v := range qvalues {
		off := i * width
		switch dt {
		case DTypeInt8:
			b, err := conv.Int64ToInt8(v)
			if err != nil {
				return nil, fmt.Errorf("pack qvalue %d: %w", i, err)
			}
			buf[off] = byte(b)
		case DTypeUint8:
			b, err := conv.Int64ToUint8(v)
			if err != nil {
				return nil, fmt.Errorf("pack qvalue %d: %w", i, err)
			}
			buf[off] = b
		case DTypeInt16:
			u, err := conv.Int64ToInt16(v)
			if err != nil {
				return nil, fmt.Errorf("pack qvalue %d: %w", i, err)
			}
			binary.LittleEndian.PutUint16(buf[off:], uint16(u))
		case DTypeUint16:
			u, err := conv.Int64ToUint16(v)
			if err != nil {
				return nil, fmt.Errorf("pack qvalue %d: %w", i, err)
			}
			binary.LittleEndian.PutUint16(buf[off:], u)
		case DTypeInt32:
			u, err := conv.Int64ToInt32(v)
			if err != nil {
				return nil, fmt.Errorf("pack qvalue %d: %w", i, err)
			}
			binary.LittleEndian.PutUint32(buf[off:], uint32(u))
		case DTypeUint32:
			u, err := conv.Int64ToUint32(v)
			if err != nil {
				return nil, fmt.Errorf("pack qvalue %d: %w", i, err)
			}
			binary.LittleEndian.PutUint32(buf[off:], u)
		case DTypeUint64:
			u, err := conv.Int64ToUint64(v)
			if err != nil {
				return nil, fmt.Errorf("pack qvalue %d: %w", i, err)
			}
			binary.LittleEndian.PutUint64(buf[off:], u)
		default:
			binary.LittleEndian.PutUint64(buf[off:], uint64(v))
		}
	}
	return buf, nil
}

// UnpackQValues decodes a buffer previously produced by PackQValues back
// into int64 quantized values.
func (q *Quantizer) UnpackQValues(data []byte) ([]int64, error) {
	dt := q.DType()
	width := dt.Bits() / 8
	if len(data)%width != 0 {
		return nil, fmt.Errorf("packed buffer length %d is not a multiple of %d", len(data), width)
	}

	out := make([]int64, len(data)/width)
	for i := range out {
		off := i * width
		switch dt {
		case DTypeInt8:
			out[i] = int64(int8(data[off]))
		case DTypeUint8:
			out[i] = int64(data[off])
		case DTypeInt16:
			out[i] = int64(int16(binary.LittleEndian.Uint16(data[off:])))
		case DTypeUint16:
			out[i] = int64(binary.LittleEndian.Uint16(data[off:]))
		case DTypeInt32:
			out[i] = int64(int32(binary.LittleEndian.Uint32(data[off:])))
		case DTypeUint32:
			out[i] = int64(binary.LittleEndian.Uint32(data[off:]))
		case DTypeUint64:
			u := binary.LittleEndian.Uint64(data[off:])
			v, err := conv.Uint64ToInt64(u)
			if err != nil {
				return nil, fmt.Errorf("unpack qvalue %d: %w", i, err)
			}
			out[i] = v
		default:
			out[i] = int64(binary.LittleEndian.Uint64(data[off:]))
		}
	}
	return out, nil
}
