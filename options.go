package quantgo

import (
	"github.com/hupe1980/quantgo/record"
)

// maxNBits bounds the representable range so that level arithmetic stays
// within int64.
const maxNBits = 60

// QuantizationOptions holds the mode flags of a quantizer. The flags are set
// once at construction and never mutated afterwards; dependent structures
// embed a copy, never an alias.
type QuantizationOptions struct {
	nBits       uint
	isSigned    bool
	isSymmetric bool
	isQAT       bool
}

// NewOptions creates validated quantization options.
//
// nBits is the target integer bit width. isSymmetric requires isSigned:
// symmetric ranges are defined around zero and need negative representable
// values. isQAT marks quantization-aware-training input, where float values
// already sit on a discrete grid and only the scale needs to be inferred.
func NewOptions(nBits uint, isSigned, isSymmetric, isQAT bool) (QuantizationOptions, error) {
	if nBits == 0 {
		return QuantizationOptions{}, &ErrInvalidOptions{Reason: "bit width must be positive"}
	}
	if nBits > maxNBits {
		return QuantizationOptions{}, &ErrInvalidOptions{Reason: "bit width exceeds supported maximum"}
	}
	if isSymmetric && !isSigned {
		return QuantizationOptions{}, &ErrInvalidOptions{Reason: "symmetric quantization requires a signed range"}
	}
	return QuantizationOptions{
		nBits:       nBits,
		isSigned:    isSigned,
		isSymmetric: isSymmetric,
		isQAT:       isQAT,
	}, nil
}

// NBits returns the integer bit width.
func (o QuantizationOptions) NBits() uint { return o.nBits }

// IsSigned reports whether the integer range is signed.
func (o QuantizationOptions) IsSigned() bool { return o.isSigned }

// IsSymmetric reports whether the range is symmetric around zero.
func (o QuantizationOptions) IsSymmetric() bool { return o.isSymmetric }

// IsQAT reports whether input values are assumed already quantized in float
// form.
func (o QuantizationOptions) IsQAT() bool { return o.isQAT }

// Equal reports structural equality on all four fields.
//
// When ignoreSignQAT is set and either side is in QAT mode, the signedness
// flag is excluded from the comparison: QAT-trained values may use either a
// signed or an unsigned container without affecting semantic equivalence.
func (o QuantizationOptions) Equal(other QuantizationOptions, ignoreSignQAT bool) bool {
	if o.nBits != other.nBits || o.isSymmetric != other.isSymmetric || o.isQAT != other.isQAT {
		return false
	}
	if ignoreSignQAT && (o.isQAT || other.isQAT) {
		return true
	}
	return o.isSigned == other.isSigned
}

// Clone returns an owned value copy.
func (o QuantizationOptions) Clone() QuantizationOptions { return o }

// levels returns the number of representable integer levels, 2^nBits.
func (o QuantizationOptions) levels() int64 {
	return int64(1) << o.nBits
}

// IntRange returns the representable integer range [lo, hi] implied by the
// bit width, signedness and symmetry flags.
func (o QuantizationOptions) IntRange() (lo, hi int64) {
	n := o.levels()
	if o.isSigned {
		return -(n / 2), n/2 - 1
	}
	return 0, n - 1
}

// RecordKindOptions tags serialized quantization options.
const RecordKindOptions = "quant_options"

// ToRecord serializes the options to a tagged field record.
func (o QuantizationOptions) ToRecord() *record.Record {
	r := record.New(RecordKindOptions)
	r.SetInt("n_bits", int64(o.nBits))
	r.SetBool("is_signed", o.isSigned)
	r.SetBool("is_symmetric", o.isSymmetric)
	r.SetBool("is_qat", o.isQAT)
	return r
}

// OptionsFromRecord deserializes options from a tagged field record.
func OptionsFromRecord(r *record.Record) (QuantizationOptions, error) {
	if err := r.ExpectKind(RecordKindOptions); err != nil {
		return QuantizationOptions{}, err
	}
	nBits, err := r.Int("n_bits")
	if err != nil {
		return QuantizationOptions{}, err
	}
	isSigned, err := r.Bool("is_signed")
	if err != nil {
		return QuantizationOptions{}, err
	}
	isSymmetric, err := r.Bool("is_symmetric")
	if err != nil {
		return QuantizationOptions{}, err
	}
	isQAT, err := r.Bool("is_qat")
	if err != nil {
		return QuantizationOptions{}, err
	}
	if nBits <= 0 {
		return QuantizationOptions{}, &record.SerializationError{
			Kind: RecordKindOptions, Field: "n_bits", Reason: "must be positive",
		}
	}
	return NewOptions(uint(nBits), isSigned, isSymmetric, isQAT)
}
