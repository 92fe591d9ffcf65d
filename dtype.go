package quantgo

// DType identifies the narrowest standard integer type that holds the
// quantized values for a given bit width and signedness.
type DType uint8

const (
	DTypeInt8 DType = iota
	DTypeUint8
	DTypeInt16
	DTypeUint16
	DTypeInt32
	DTypeUint32
	DTypeInt64
	DTypeUint64
)

// String returns the string representation of the DType.
func (d DType) String() string {
	switch d {
	case DTypeInt8:
		return "int8"
	case DTypeUint8:
		return "uint8"
	case DTypeInt16:
		return "int16"
	case DTypeUint16:
		return "uint16"
	case DTypeInt32:
		return "int32"
	case DTypeUint32:
		return "uint32"
	case DTypeInt64:
		return "int64"
	case DTypeUint64:
		return "uint64"
	default:
		return "unknown"
	}
}

// Bits returns the storage width in bits.
func (d DType) Bits() int {
	switch d {
	case DTypeInt8, DTypeUint8:
		return 8
	case DTypeInt16, DTypeUint16:
		return 16
	case DTypeInt32, DTypeUint32:
		return 32
	default:
		return 64
	}
}

// Signed reports whether the type carries a sign bit.
func (d DType) Signed() bool {
	switch d {
	case DTypeInt8, DTypeInt16, DTypeInt32, DTypeInt64:
		return true
	default:
		return false
	}
}

// dtypeFor picks the narrowest integer type holding an nBits-wide range.
// For signed ranges nBits already includes the sign bit: [-2^(n-1), 2^(n-1)-1]
// fits an n-bit two's complement integer.
func dtypeFor(nBits uint, signed bool) DType {
	width := nBits
	switch {
	case width <= 8:
		if signed {
			return DTypeInt8
		}
		return DTypeUint8
	case width <= 16:
		if signed {
			return DTypeInt16
		}
		return DTypeUint16
	case width <= 32:
		if signed {
			return DTypeInt32
		}
		return DTypeUint32
	default:
		if signed {
			return DTypeInt64
		}
		return DTypeUint64
	}
}
