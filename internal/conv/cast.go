package conv

import (
	"fmt"
	"math"
)

// Int64ToInt8 converts int64 to int8 safely.
func Int64ToInt8(v int64) (int8, error) {
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int8", v)
	}
	return int8(v), nil
}

// Int64ToUint8 converts int64 to uint8 safely.
func Int64ToUint8(v int64) (uint8, error) {
	if v < 0 || v > math.MaxUint8 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint8", v)
	}
	return uint8(v), nil
}

// Int64ToInt16 converts int64 to int16 safely.
func Int64ToInt16(v int64) (int16, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int16", v)
	}
	return int16(v), nil
}

// Int64ToUint16 converts int64 to uint16 safely.
func Int64ToUint16(v int64) (uint16, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint16", v)
	}
	return uint16(v), nil
}

// Int64ToInt32 converts int64 to int32 safely.
func Int64ToInt32(v int64) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int32", v)
	}
	return int32(v), nil
}

// Int64ToUint32 converts int64 to uint32 safely.
func Int64ToUint32(v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32", v)
	}
	return uint32(v), nil
}

// Int64ToUint64 converts int64 to uint64 safely.
func Int64ToUint64(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint64 (negative)", v)
	}
	return uint64(v), nil
}

// Uint64ToInt64 converts uint64 to int64 safely.
func Uint64ToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int64 (too large)", v)
	}
	return int64(v), nil
}
