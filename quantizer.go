package quantgo

import (
	"context"
	"math"

	"github.com/hupe1980/quantgo/record"
)

// Quantizer applies the forward and inverse numeric transforms for one
// (options, statistics, parameters) triple. It owns value copies of the
// three objects and never mutates them during quant/dequant; both transforms
// are pure functions of the stored parameters and are bit-for-bit
// reproducible given identical parameters and input.
type Quantizer struct {
	opts   QuantizationOptions
	stats  CalibrationStats
	params QuantizationParameters

	// noClipping skips clamping to the representable integer range. Used
	// when the caller already guarantees in-range values, e.g. QAT.
	noClipping bool
}

// QuantizerOption configures a Quantizer at construction.
type QuantizerOption func(*quantizerConfig)

type quantizerConfig struct {
	values     []float64
	stats      *CalibrationStats
	params     *QuantizationParameters
	noClipping bool
	logger     *Logger
}

// WithCalibrationData derives statistics (and from them, parameters) from a
// calibration sample.
func WithCalibrationData(values []float64) QuantizerOption {
	return func(c *quantizerConfig) { c.values = values }
}

// WithStats supplies pre-computed calibration statistics.
func WithStats(stats CalibrationStats) QuantizerOption {
	return func(c *quantizerConfig) {
		s := stats.Clone()
		c.stats = &s
	}
}

// WithParameters supplies fully specified parameters, bypassing derivation
// from statistics.
func WithParameters(params QuantizationParameters) QuantizerOption {
	return func(c *quantizerConfig) {
		p := params.Clone()
		c.params = &p
	}
}

// WithNoClipping disables clamping of quantized values to the representable
// integer range.
func WithNoClipping(noClipping bool) QuantizerOption {
	return func(c *quantizerConfig) { c.noClipping = noClipping }
}

// WithLogger attaches a logger for calibration and batch outcomes.
func WithLogger(logger *Logger) QuantizerOption {
	return func(c *quantizerConfig) { c.logger = logger }
}

// NewQuantizer creates a quantizer for the given options.
//
// Statistics come from WithStats or are computed from WithCalibrationData.
// Parameters come from WithParameters or are derived from the statistics.
// A quantizer built without statistics and parameters can only transform
// after parameters are supplied; Quant and Dequant report
// ErrUninitializedParameters until then.
func NewQuantizer(opts QuantizationOptions, fns ...QuantizerOption) (*Quantizer, error) {
	var cfg quantizerConfig
	for _, fn := range fns {
		fn(&cfg)
	}

	q := &Quantizer{opts: opts.Clone(), noClipping: cfg.noClipping}

	switch {
	case cfg.stats != nil:
		q.stats = cfg.stats.Clone()
	case cfg.values != nil:
		q.stats.Compute(cfg.values)
	}

	switch {
	case cfg.params != nil:
		q.params = cfg.params.Clone()
	case !q.stats.IsZero():
		err := q.params.Compute(q.opts, &q.stats)
		if cfg.logger != nil {
			cfg.logger.WithNBits(q.opts.NBits()).LogCalibration(context.Background(), &q.stats, &q.params, err)
		}
		if err != nil {
			return nil, err
		}
	}

	return q, nil
}

// Options returns a copy of the stored options.
func (q *Quantizer) Options() QuantizationOptions { return q.opts.Clone() }

// Stats returns a copy of the stored calibration statistics.
func (q *Quantizer) Stats() CalibrationStats { return q.stats.Clone() }

// Parameters returns a copy of the stored parameters.
func (q *Quantizer) Parameters() QuantizationParameters { return q.params.Clone() }

// NoClipping reports whether clamping is disabled.
func (q *Quantizer) NoClipping() bool { return q.noClipping }

// DType returns the narrowest integer type that holds the quantized values.
func (q *Quantizer) DType() DType {
	return dtypeFor(q.opts.NBits(), q.opts.IsSigned())
}

// Quant converts float values to quantized integers:
//
//	q_i = round(v_i / scale) + zero_point_i + offset
//
// using round-half-away-from-zero. Unless clipping is disabled, every
// element is clamped into the representable integer range implied by the
// options. It fails with ErrUninitializedParameters when parameters have
// never been computed or supplied.
func (q *Quantizer) Quant(values []float64) ([]int64, error) {
	if !q.params.IsInitialized() {
		return nil, ErrUninitializedParameters
	}

	scale := q.params.scale
	offset := float64(q.params.offset)
	lo, hi := q.opts.IntRange()
	n := len(values)

	out := make([]int64, n)
	for i, v := range values {
		zp := q.params.zeroPoint.At(i, n)
		qv := math.Round(v/scale) + zp + offset
		if !q.noClipping {
			if qv < float64(lo) {
				qv = float64(lo)
			} else if qv > float64(hi) {
				qv = float64(hi)
			}
		}
		out[i] = int64(qv)
	}
	return out, nil
}

// Dequant converts quantized integers back to floats:
//
//	v_i = (q_i - zero_point_i - offset) * scale
//
// Like Quant, it fails with ErrUninitializedParameters when parameters have
// never been computed or supplied; a zero scale is never silently applied.
func (q *Quantizer) Dequant(qvalues []int64) ([]float64, error) {
	if !q.params.IsInitialized() {
		return nil, ErrUninitializedParameters
	}

	scale := q.params.scale
	offset := float64(q.params.offset)
	n := len(qvalues)

	out := make([]float64, n)
	for i, qv := range qvalues {
		zp := q.params.zeroPoint.At(i, n)
		out[i] = (float64(qv) - zp - offset) * scale
	}
	return out, nil
}

// Clone returns a deep copy of the quantizer.
func (q *Quantizer) Clone() *Quantizer {
	return &Quantizer{
		opts:       q.opts.Clone(),
		stats:      q.stats.Clone(),
		params:     q.params.Clone(),
		noClipping: q.noClipping,
	}
}

// RecordKindQuantizer tags a serialized quantizer.
const RecordKindQuantizer = "quantizer"

// ToRecord serializes the quantizer and its three value objects to one
// tagged field record. Nested entity fields are flattened with their own
// names; records hold only primitives and arrays.
func (q *Quantizer) ToRecord() *record.Record {
	r := record.New(RecordKindQuantizer)
	r.SetBool("no_clipping", q.noClipping)

	r.SetInt("n_bits", int64(q.opts.nBits))
	r.SetBool("is_signed", q.opts.isSigned)
	r.SetBool("is_symmetric", q.opts.isSymmetric)
	r.SetBool("is_qat", q.opts.isQAT)

	r.SetFloat("rmin", q.stats.rangeMin)
	r.SetFloat("rmax", q.stats.rangeMax)
	r.SetBool("stats_computed", q.stats.computed)
	if q.stats.uniqueValues != nil {
		r.SetFloats("unique_values", q.stats.uniqueValues)
	}

	r.SetFloat("scale", q.params.scale)
	r.SetInt("offset", q.params.offset)
	r.SetBool("params_initialized", q.params.initialized)
	switch q.params.zeroPoint.kind {
	case ZeroPointPerChannel:
		r.SetFloats("zero_point", q.params.zeroPoint.perChannel)
	default:
		r.SetFloat("zero_point", q.params.zeroPoint.scalar)
	}

	return r
}

// QuantizerFromRecord deserializes a quantizer from a tagged field record.
func QuantizerFromRecord(r *record.Record) (*Quantizer, error) {
	if err := r.ExpectKind(RecordKindQuantizer); err != nil {
		return nil, err
	}
	noClipping, err := r.Bool("no_clipping")
	if err != nil {
		return nil, err
	}

	nBits, err := r.Int("n_bits")
	if err != nil {
		return nil, err
	}
	isSigned, err := r.Bool("is_signed")
	if err != nil {
		return nil, err
	}
	isSymmetric, err := r.Bool("is_symmetric")
	if err != nil {
		return nil, err
	}
	isQAT, err := r.Bool("is_qat")
	if err != nil {
		return nil, err
	}
	if nBits <= 0 {
		return nil, &record.SerializationError{
			Kind: RecordKindQuantizer, Field: "n_bits", Reason: "must be positive",
		}
	}
	opts, err := NewOptions(uint(nBits), isSigned, isSymmetric, isQAT)
	if err != nil {
		return nil, &record.SerializationError{
			Kind: RecordKindQuantizer, Field: "n_bits", Reason: err.Error(),
		}
	}

	rmin, err := r.Float("rmin")
	if err != nil {
		return nil, err
	}
	rmax, err := r.Float("rmax")
	if err != nil {
		return nil, err
	}
	statsComputed, err := r.Bool("stats_computed")
	if err != nil {
		return nil, err
	}
	stats := CalibrationStats{rangeMin: rmin, rangeMax: rmax, computed: statsComputed}
	if r.Has("unique_values") {
		uv, err := r.Floats("unique_values")
		if err != nil {
			return nil, err
		}
		stats.uniqueValues = uv
	}

	scale, err := r.Float("scale")
	if err != nil {
		return nil, err
	}
	offset, err := r.Int("offset")
	if err != nil {
		return nil, err
	}
	initialized, err := r.Bool("params_initialized")
	if err != nil {
		return nil, err
	}
	var zp ZeroPoint
	switch r.KindOf("zero_point") {
	case record.KindFloatSlice:
		vs, err := r.Floats("zero_point")
		if err != nil {
			return nil, err
		}
		zp = PerChannelZeroPoint(vs)
	default:
		v, err := r.Float("zero_point")
		if err != nil {
			return nil, err
		}
		zp = ScalarZeroPoint(v)
	}
	if initialized && scale <= 0 {
		return nil, &record.SerializationError{
			Kind: RecordKindQuantizer, Field: "scale", Reason: "must be positive",
		}
	}

	return &Quantizer{
		opts:       opts,
		stats:      stats,
		params:     QuantizationParameters{scale: scale, zeroPoint: zp, offset: offset, initialized: initialized},
		noClipping: noClipping,
	}, nil
}
