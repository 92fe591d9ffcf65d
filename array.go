package quantgo

import (
	"github.com/hupe1980/quantgo/record"
)

// QuantizedArray keeps a float view and an integer view of the same logical
// data synchronized under one fixed quantizer.
//
// Outside of a just-mutated, not-yet-resynchronized instant, the views
// satisfy values[i] == Dequant(qvalues[i]) within rounding tolerance. The
// array exclusively owns its two buffers and its quantizer; accessors return
// copies, never aliases to internal state.
//
// A QuantizedArray is not safe for concurrent mutation.
type QuantizedArray struct {
	quantizer *Quantizer
	values    []float64
	qvalues   []int64
}

// NewQuantizedArray builds an array from float data, quantizing immediately.
//
// Statistics are computed from values unless supplied via WithStats;
// parameters are derived from the statistics unless supplied via
// WithParameters.
func NewQuantizedArray(opts QuantizationOptions, values []float64, fns ...QuantizerOption) (*QuantizedArray, error) {
	fns = append([]QuantizerOption{WithCalibrationData(values)}, fns...)
	q, err := NewQuantizer(opts, fns...)
	if err != nil {
		return nil, err
	}

	qvalues, err := q.Quant(values)
	if err != nil {
		return nil, err
	}

	vals := make([]float64, len(values))
	copy(vals, values)

	return &QuantizedArray{quantizer: q, values: vals, qvalues: qvalues}, nil
}

// NewQuantizedArrayFromQuantized builds an array from already-quantized
// integer data, dequantizing immediately.
//
// Fully specified parameters are required: statistics alone cannot recover
// the zero-point and scale of already-quantized data. It fails with
// ErrUninitializedParameters when the parameters are not initialized.
func NewQuantizedArrayFromQuantized(opts QuantizationOptions, qvalues []int64, params QuantizationParameters, fns ...QuantizerOption) (*QuantizedArray, error) {
	if !params.IsInitialized() {
		return nil, ErrUninitializedParameters
	}

	fns = append([]QuantizerOption{WithParameters(params)}, fns...)
	q, err := NewQuantizer(opts, fns...)
	if err != nil {
		return nil, err
	}

	qvals := make([]int64, len(qvalues))
	copy(qvals, qvalues)

	values, err := q.Dequant(qvals)
	if err != nil {
		return nil, err
	}

	return &QuantizedArray{
		quantizer: q,
		values:    values,
		qvalues:   qvals,
	}, nil
}

// Len returns the number of elements.
func (a *QuantizedArray) Len() int { return len(a.values) }

// Values returns a copy of the float view.
func (a *QuantizedArray) Values() []float64 {
	out := make([]float64, len(a.values))
	copy(out, a.values)
	return out
}

// QValues returns a copy of the integer view.
func (a *QuantizedArray) QValues() []int64 {
	out := make([]int64, len(a.qvalues))
	copy(out, a.qvalues)
	return out
}

// Quantizer returns a deep copy of the backing quantizer.
func (a *QuantizedArray) Quantizer() *Quantizer { return a.quantizer.Clone() }

// UpdateValues replaces the float view and re-quantizes to refresh the
// integer view. It returns the new integer view. On failure neither view is
// mutated.
func (a *QuantizedArray) UpdateValues(newValues []float64) ([]int64, error) {
	qvalues, err := a.quantizer.Quant(newValues)
	if err != nil {
		return nil, err
	}

	a.values = make([]float64, len(newValues))
	copy(a.values, newValues)
	a.qvalues = qvalues

	return a.QValues(), nil
}

// UpdateQuantizedValues replaces the integer view and re-dequantizes to
// refresh the float view. It returns the new float view. On failure neither
// view is mutated.
func (a *QuantizedArray) UpdateQuantizedValues(newQValues []int64) ([]float64, error) {
	qvals := make([]int64, len(newQValues))
	copy(qvals, newQValues)

	values, err := a.quantizer.Dequant(qvals)
	if err != nil {
		return nil, err
	}

	a.qvalues = qvals
	a.values = values

	return a.Values(), nil
}

// RecordKindArray tags a serialized quantized array.
const RecordKindArray = "quant_array"

// ToRecord serializes the array and its quantizer to one tagged field
// record.
func (a *QuantizedArray) ToRecord() *record.Record {
	r := a.quantizer.ToRecord()
	r.Retag(RecordKindArray)
	r.SetFloats("values", a.values)
	r.SetInts("qvalues", a.qvalues)
	return r
}

// ArrayFromRecord deserializes a quantized array from a tagged field record.
func ArrayFromRecord(r *record.Record) (*QuantizedArray, error) {
	if err := r.ExpectKind(RecordKindArray); err != nil {
		return nil, err
	}

	qr := r.Clone()
	qr.Retag(RecordKindQuantizer)
	q, err := QuantizerFromRecord(qr)
	if err != nil {
		return nil, err
	}

	values, err := r.Floats("values")
	if err != nil {
		return nil, err
	}
	qvalues, err := r.Ints("qvalues")
	if err != nil {
		return nil, err
	}
	if len(values) != len(qvalues) {
		return nil, &record.SerializationError{
			Kind: RecordKindArray, Field: "qvalues", Reason: "length differs from values",
		}
	}

	return &QuantizedArray{quantizer: q, values: values, qvalues: qvalues}, nil
}
