package quantgo

import (
	"math"

	"github.com/hupe1980/quantgo/record"
)

// StabilityConst is the floor substituted for a collapsed statistical range
// so that the scale never reaches zero.
const StabilityConst = 1e-6

// ZeroPointKind discriminates the zero-point variant.
type ZeroPointKind uint8

const (
	// ZeroPointScalar is a single zero-point shared by all elements.
	ZeroPointScalar ZeroPointKind = iota
	// ZeroPointPerChannel is one zero-point per channel; element i of an
	// n-element array belongs to channel i*C/n (contiguous channel blocks).
	ZeroPointPerChannel
)

// String returns the string representation of the ZeroPointKind.
func (k ZeroPointKind) String() string {
	switch k {
	case ZeroPointScalar:
		return "scalar"
	case ZeroPointPerChannel:
		return "per-channel"
	default:
		return "unknown"
	}
}

// ZeroPoint is an explicit tagged variant: either a single scalar or a
// per-channel sequence. Downstream transforms branch on the tag instead of
// an untyped union.
type ZeroPoint struct {
	kind       ZeroPointKind
	scalar     float64
	perChannel []float64
}

// ScalarZeroPoint returns a scalar zero-point.
func ScalarZeroPoint(v float64) ZeroPoint {
	return ZeroPoint{kind: ZeroPointScalar, scalar: v}
}

// PerChannelZeroPoint returns a per-channel zero-point. The slice is copied.
func PerChannelZeroPoint(vs []float64) ZeroPoint {
	out := make([]float64, len(vs))
	copy(out, vs)
	return ZeroPoint{kind: ZeroPointPerChannel, perChannel: out}
}

// Kind returns the variant tag.
func (z ZeroPoint) Kind() ZeroPointKind { return z.kind }

// Scalar returns the scalar value. For a per-channel zero-point it returns
// the first channel's value.
func (z ZeroPoint) Scalar() float64 {
	if z.kind == ZeroPointPerChannel {
		if len(z.perChannel) == 0 {
			return 0
		}
		return z.perChannel[0]
	}
	return z.scalar
}

// PerChannel returns a copy of the per-channel values, or nil for a scalar
// zero-point.
func (z ZeroPoint) PerChannel() []float64 {
	if z.kind != ZeroPointPerChannel {
		return nil
	}
	out := make([]float64, len(z.perChannel))
	copy(out, z.perChannel)
	return out
}

// At returns the zero-point applying to element i of an n-element array.
func (z ZeroPoint) At(i, n int) float64 {
	if z.kind != ZeroPointPerChannel || len(z.perChannel) == 0 || n <= 0 {
		return z.scalar
	}
	ch := i * len(z.perChannel) / n
	if ch >= len(z.perChannel) {
		ch = len(z.perChannel) - 1
	}
	return z.perChannel[ch]
}

// Equal reports structural equality.
func (z ZeroPoint) Equal(other ZeroPoint) bool {
	if z.kind != other.kind {
		return false
	}
	if z.kind == ZeroPointScalar {
		return z.scalar == other.scalar
	}
	if len(z.perChannel) != len(other.perChannel) {
		return false
	}
	for i := range z.perChannel {
		if z.perChannel[i] != other.perChannel[i] {
			return false
		}
	}
	return true
}

// Clone returns an owned value copy.
func (z ZeroPoint) Clone() ZeroPoint {
	if z.kind == ZeroPointPerChannel {
		return PerChannelZeroPoint(z.perChannel)
	}
	return z
}

// QuantizationParameters are the numeric constants of the transform, derived
// deterministically from one (options, statistics) pair. Scale is always
// positive once computed. The parameters are never mutated field-by-field
// after computation except via an explicit full copy.
type QuantizationParameters struct {
	scale     float64
	zeroPoint ZeroPoint
	offset    int64

	initialized bool
}

// NewParameters builds fully specified parameters, e.g. recovered from an
// external source for already-quantized data.
func NewParameters(scale float64, zeroPoint ZeroPoint, offset int64) (QuantizationParameters, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return QuantizationParameters{}, ErrUninitializedParameters
	}
	return QuantizationParameters{
		scale:       scale,
		zeroPoint:   zeroPoint.Clone(),
		offset:      offset,
		initialized: true,
	}, nil
}

// Scale returns the float step size between adjacent representable integers.
func (p QuantizationParameters) Scale() float64 { return p.scale }

// ZeroPoint returns the integer value (as float, possibly per-channel)
// representing real 0.0.
func (p *QuantizationParameters) ZeroPoint() ZeroPoint { return p.zeroPoint.Clone() }

// Offset returns the signed-range offset.
func (p *QuantizationParameters) Offset() int64 { return p.offset }

// IsInitialized reports whether the parameters have been computed or
// supplied.
func (p *QuantizationParameters) IsInitialized() bool { return p.initialized }

// Clone returns an owned value copy.
func (p *QuantizationParameters) Clone() QuantizationParameters {
	out := *p
	out.zeroPoint = p.zeroPoint.Clone()
	return out
}

// CopyFrom replaces the receiver with a structural copy of other.
func (p *QuantizationParameters) CopyFrom(other *QuantizationParameters) {
	*p = other.Clone()
}

// Compute derives scale, zero-point and offset from the options and the
// calibration statistics.
//
// It fails with ErrMissingStatistics when stats have not been computed, or
// when the QAT derivation lacks the captured distinct-value set it needs.
// On failure no field of the receiver is mutated.
func (p *QuantizationParameters) Compute(opts QuantizationOptions, stats *CalibrationStats) error {
	if stats == nil || stats.IsZero() {
		return ErrMissingStatistics
	}

	levels := float64(opts.levels())
	rmin, rmax := stats.RangeMin(), stats.RangeMax()

	if opts.IsQAT() {
		return p.computeQAT(opts, stats, levels)
	}

	if opts.IsSymmetric() {
		bound := math.Max(math.Abs(rmin), math.Abs(rmax))
		p.scale = math.Max(bound, StabilityConst) * 2 / (levels - 1)
		p.zeroPoint = ScalarZeroPoint(0)
		p.offset = 0
		p.initialized = true
		return nil
	}

	var offset int64
	if opts.IsSigned() {
		offset = opts.levels() / 2
	}
	scale := math.Max(rmax-rmin, StabilityConst) / (levels - 1)
	zp := math.Round(-rmin/scale) - float64(offset)

	lo, hi := opts.IntRange()
	if zp < float64(lo) {
		zp = float64(lo)
	} else if zp > float64(hi) {
		zp = float64(hi)
	}

	p.scale = scale
	p.zeroPoint = ScalarZeroPoint(zp)
	p.offset = offset
	p.initialized = true
	return nil
}

// computeQAT derives parameters for calibration data that is assumed to be
// already quantized in float form. The scale follows the range formula
// (refined by the inferred grid step when the distinct values form a uniform
// grid) and the zero-point is forced to the value implied by the smallest
// observed magnitude, skipping the asymmetric offset search. This keeps
// previously trained discrete levels aligned to an integer grid.
func (p *QuantizationParameters) computeQAT(opts QuantizationOptions, stats *CalibrationStats, levels float64) error {
	v0, ok := stats.smallestMagnitudeValue()
	if !ok {
		// An ill-formed QAT calibration set (no captured distinct values)
		// is a hard failure, never a silent guess.
		return ErrMissingStatistics
	}

	rmin, rmax := stats.RangeMin(), stats.RangeMax()
	var scale float64
	if opts.IsSymmetric() {
		bound := math.Max(math.Abs(rmin), math.Abs(rmax))
		scale = math.Max(bound, StabilityConst) * 2 / (levels - 1)
	} else {
		scale = math.Max(rmax-rmin, StabilityConst) / (levels - 1)
	}
	if step, uniform := stats.gridStep(opts); uniform && step > scale {
		scale = step
	}

	p.scale = scale
	p.zeroPoint = ScalarZeroPoint(math.Round(-v0 / scale))
	p.offset = 0
	p.initialized = true
	return nil
}

// RecordKindParameters tags serialized quantization parameters.
const RecordKindParameters = "quant_params"

// ToRecord serializes the parameters to a tagged field record.
func (p *QuantizationParameters) ToRecord() *record.Record {
	r := record.New(RecordKindParameters)
	r.SetFloat("scale", p.scale)
	r.SetInt("offset", p.offset)
	r.SetBool("initialized", p.initialized)
	switch p.zeroPoint.kind {
	case ZeroPointPerChannel:
		r.SetFloats("zero_point", p.zeroPoint.perChannel)
	default:
		r.SetFloat("zero_point", p.zeroPoint.scalar)
	}
	return r
}

// ParametersFromRecord deserializes parameters from a tagged field record.
func ParametersFromRecord(r *record.Record) (QuantizationParameters, error) {
	if err := r.ExpectKind(RecordKindParameters); err != nil {
		return QuantizationParameters{}, err
	}
	scale, err := r.Float("scale")
	if err != nil {
		return QuantizationParameters{}, err
	}
	offset, err := r.Int("offset")
	if err != nil {
		return QuantizationParameters{}, err
	}
	initialized, err := r.Bool("initialized")
	if err != nil {
		return QuantizationParameters{}, err
	}
	if initialized && scale <= 0 {
		return QuantizationParameters{}, &record.SerializationError{
			Kind: RecordKindParameters, Field: "scale", Reason: "must be positive",
		}
	}

	var zp ZeroPoint
	switch r.KindOf("zero_point") {
	case record.KindFloatSlice:
		vs, err := r.Floats("zero_point")
		if err != nil {
			return QuantizationParameters{}, err
		}
		zp = PerChannelZeroPoint(vs)
	default:
		v, err := r.Float("zero_point")
		if err != nil {
			return QuantizationParameters{}, err
		}
		zp = ScalarZeroPoint(v)
	}

	return QuantizationParameters{
		scale:       scale,
		zeroPoint:   zp,
		offset:      offset,
		initialized: initialized,
	}, nil
}
