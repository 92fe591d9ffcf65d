package quantgo

import (
	"errors"
	"math"
	"testing"
)

const floatTol = 1e-12

func TestParameters_AsymmetricUnsigned8Bit(t *testing.T) {
	// Calibration range [-2, 3] on 8 unsigned bits.
	opts, _ := NewOptions(8, false, false, false)
	stats := ComputeStats([]float64{-2.0, 3.0, 0.0, 1.5})

	var params QuantizationParameters
	if err := params.Compute(opts, &stats); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	wantScale := 5.0 / 255.0
	if math.Abs(params.Scale()-wantScale) > floatTol {
		t.Errorf("expected scale %v, got %v", wantScale, params.Scale())
	}
	if zp := params.ZeroPoint().Scalar(); zp != 102 {
		t.Errorf("expected zero point 102, got %v", zp)
	}
	if params.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", params.Offset())
	}
}

func TestParameters_AsymmetricSignedOffset(t *testing.T) {
	opts, _ := NewOptions(8, true, false, false)
	stats := ComputeStats([]float64{-2.0, 3.0})

	var params QuantizationParameters
	if err := params.Compute(opts, &stats); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if params.Offset() != 128 {
		t.Errorf("expected offset 128, got %d", params.Offset())
	}

	// zp = round(-rmin/scale) - offset = 102 - 128 = -26, within [-128, 127].
	if zp := params.ZeroPoint().Scalar(); zp != -26 {
		t.Errorf("expected zero point -26, got %v", zp)
	}
}

func TestParameters_Symmetric4Bit(t *testing.T) {
	opts, _ := NewOptions(4, true, true, false)
	stats := ComputeStats([]float64{-1.0, 1.0, 0.25})

	var params QuantizationParameters
	if err := params.Compute(opts, &stats); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	wantScale := 2.0 / 15.0
	if math.Abs(params.Scale()-wantScale) > floatTol {
		t.Errorf("expected scale %v, got %v", wantScale, params.Scale())
	}
	if zp := params.ZeroPoint().Scalar(); zp != 0 {
		t.Errorf("symmetric zero point must be 0, got %v", zp)
	}
	if params.Offset() != 0 {
		t.Errorf("symmetric offset must be 0, got %d", params.Offset())
	}
}

func TestParameters_DegenerateRange(t *testing.T) {
	// rmin == rmax collapses the range; the stability floor keeps the scale
	// positive.
	opts, _ := NewOptions(8, false, false, false)
	stats := ComputeStats([]float64{5.0, 5.0, 5.0})

	var params QuantizationParameters
	if err := params.Compute(opts, &stats); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	wantScale := StabilityConst / 255.0
	if math.Abs(params.Scale()-wantScale) > floatTol {
		t.Errorf("expected floored scale %v, got %v", wantScale, params.Scale())
	}
	if params.Scale() <= 0 {
		t.Error("scale must stay positive for a collapsed range")
	}

	// The raw zero point is far out of range and must be clamped.
	zp := params.ZeroPoint().Scalar()
	if zp < 0 || zp > 255 {
		t.Errorf("zero point not clamped into [0, 255]: %v", zp)
	}
}

func TestParameters_MissingStats(t *testing.T) {
	opts, _ := NewOptions(8, false, false, false)

	var (
		params QuantizationParameters
		empty  CalibrationStats
	)

	if err := params.Compute(opts, &empty); !errors.Is(err, ErrMissingStatistics) {
		t.Errorf("expected ErrMissingStatistics, got %v", err)
	}
	if err := params.Compute(opts, nil); !errors.Is(err, ErrMissingStatistics) {
		t.Errorf("expected ErrMissingStatistics for nil stats, got %v", err)
	}
	if params.IsInitialized() {
		t.Error("failed Compute must not initialize parameters")
	}
}

func TestParameters_QAT(t *testing.T) {
	opts, _ := NewOptions(3, true, true, true)

	// Five distinct values on a 0.25 grid: the QAT derivation should adopt
	// the grid step as scale since it exceeds the range-based value.
	stats := ComputeStats([]float64{-0.5, -0.25, 0.0, 0.25, 0.5})

	var params QuantizationParameters
	if err := params.Compute(opts, &stats); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if math.Abs(params.Scale()-0.25) > floatTol {
		t.Errorf("expected grid-refined scale 0.25, got %v", params.Scale())
	}

	// Smallest observed magnitude is 0.0, so the zero point is 0.
	if zp := params.ZeroPoint().Scalar(); zp != 0 {
		t.Errorf("expected zero point 0, got %v", zp)
	}
	if params.Offset() != 0 {
		t.Errorf("QAT offset must be 0, got %d", params.Offset())
	}
}

func TestParameters_QATShiftedGrid(t *testing.T) {
	opts, _ := NewOptions(4, true, false, true)

	// Grid offset from zero: the smallest magnitude value implies the zero
	// point.
	stats := ComputeStats([]float64{0.1, 0.35, 0.6, 0.85})

	var params QuantizationParameters
	if err := params.Compute(opts, &stats); err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if math.Abs(params.Scale()-0.25) > 1e-9 {
		t.Errorf("expected scale 0.25, got %v", params.Scale())
	}

	// zp = round(-0.1/0.25) = round(-0.4) = 0
	if zp := params.ZeroPoint().Scalar(); zp != 0 {
		t.Errorf("expected zero point 0, got %v", zp)
	}
}

func TestParameters_QATWithoutDistinctSet(t *testing.T) {
	opts, _ := NewOptions(8, true, false, true)

	// Enough distinct values to overflow the capture limit: the QAT
	// derivation has no value set to anchor on and must fail hard.
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i) * 0.013
	}
	stats := ComputeStats(values)

	params, err := NewParameters(0.5, ScalarZeroPoint(3), 1)
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}

	if err := params.Compute(opts, &stats); !errors.Is(err, ErrMissingStatistics) {
		t.Fatalf("expected ErrMissingStatistics, got %v", err)
	}

	// No field may change on failure.
	if params.Scale() != 0.5 || params.ZeroPoint().Scalar() != 3 || params.Offset() != 1 {
		t.Error("failed Compute mutated existing parameters")
	}
}

func TestNewParameters_Validation(t *testing.T) {
	for _, scale := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewParameters(scale, ScalarZeroPoint(0), 0); err == nil {
			t.Errorf("expected error for scale %v", scale)
		}
	}
}

func TestZeroPoint_PerChannelAt(t *testing.T) {
	zp := PerChannelZeroPoint([]float64{10, 20, 30})

	// 6 elements over 3 channels: contiguous blocks of 2.
	wants := []float64{10, 10, 20, 20, 30, 30}
	for i, want := range wants {
		if got := zp.At(i, 6); got != want {
			t.Errorf("At(%d, 6) = %v, want %v", i, got, want)
		}
	}

	scalar := ScalarZeroPoint(5)
	if scalar.At(3, 6) != 5 {
		t.Error("scalar zero point should apply to every element")
	}
}

func TestZeroPoint_Equal(t *testing.T) {
	if !ScalarZeroPoint(1).Equal(ScalarZeroPoint(1)) {
		t.Error("equal scalars should compare equal")
	}
	if ScalarZeroPoint(1).Equal(PerChannelZeroPoint([]float64{1})) {
		t.Error("scalar and per-channel should differ")
	}
	if !PerChannelZeroPoint([]float64{1, 2}).Equal(PerChannelZeroPoint([]float64{1, 2})) {
		t.Error("equal per-channel values should compare equal")
	}
	if PerChannelZeroPoint([]float64{1, 2}).Equal(PerChannelZeroPoint([]float64{1, 3})) {
		t.Error("different per-channel values should differ")
	}
}

func TestParameters_RecordRoundTrip(t *testing.T) {
	params, err := NewParameters(0.25, PerChannelZeroPoint([]float64{1, 2, 3}), 8)
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}

	got, err := ParametersFromRecord(params.ToRecord())
	if err != nil {
		t.Fatalf("ParametersFromRecord failed: %v", err)
	}

	if got.Scale() != params.Scale() || got.Offset() != params.Offset() {
		t.Error("scale or offset changed in round trip")
	}
	if !got.ZeroPoint().Equal(params.ZeroPoint()) {
		t.Error("zero point changed in round trip")
	}
	if !got.IsInitialized() {
		t.Error("initialized flag lost in round trip")
	}
}
