package quantgo

import (
	"math"
	"testing"

	"github.com/hupe1980/quantgo/testutil"
)

func TestComputeStats_Range(t *testing.T) {
	stats := ComputeStats([]float64{-1.0, 0.0, 1.0, -0.5, 0.5, 2.0, -2.0, 3.0})

	if stats.RangeMin() != -2.0 {
		t.Errorf("expected rmin=-2.0, got %f", stats.RangeMin())
	}
	if stats.RangeMax() != 3.0 {
		t.Errorf("expected rmax=3.0, got %f", stats.RangeMax())
	}
	if stats.IsZero() {
		t.Error("computed stats should not be zero")
	}
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)

	if !stats.IsZero() {
		t.Error("stats of an empty sample should stay uninitialized")
	}
}

func TestComputeStats_DistinctCapture(t *testing.T) {
	stats := ComputeStats([]float64{0.5, -0.5, 0.0, 0.5, -0.5})

	uv := stats.UniqueValues()
	if len(uv) != 3 {
		t.Fatalf("expected 3 distinct values, got %d", len(uv))
	}

	// Sorted ascending.
	want := []float64{-0.5, 0.0, 0.5}
	for i := range want {
		if uv[i] != want[i] {
			t.Errorf("distinct value %d: got %v, want %v", i, uv[i], want[i])
		}
	}
}

func TestComputeStats_DistinctLimitExceeded(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}

	stats := ComputeStats(values)

	if stats.UniqueValues() != nil {
		t.Error("distinct set should be dropped beyond the capture limit")
	}
	if stats.RangeMin() != 0 || stats.RangeMax() != 99 {
		t.Errorf("range should still be tracked: [%f, %f]", stats.RangeMin(), stats.RangeMax())
	}
}

func TestStats_IsUniformlyQuantized(t *testing.T) {
	opts, _ := NewOptions(3, true, false, false)

	rng := testutil.NewRNG(11)

	grid := ComputeStats(rng.GridValues(100, -0.5, 0.25, 5))
	if !grid.IsUniformlyQuantized(opts) {
		t.Error("grid values should be recognized as uniformly quantized")
	}

	offGrid := ComputeStats([]float64{0.0, 0.25, 0.6})
	if offGrid.IsUniformlyQuantized(opts) {
		t.Error("off-grid values should not be recognized as uniformly quantized")
	}

	// More distinct values than representable levels cannot be a grid for
	// this bit width.
	narrow, _ := NewOptions(2, true, false, false)
	wide := ComputeStats(rng.GridValues(100, 0, 0.1, 8))
	if wide.IsUniformlyQuantized(narrow) {
		t.Error("8 levels cannot fit a 2-bit grid")
	}

	single := ComputeStats([]float64{1.0, 1.0})
	if single.IsUniformlyQuantized(opts) {
		t.Error("a single distinct value has no inferable step")
	}
}

func TestStats_UniformGridWithGaps(t *testing.T) {
	opts, _ := NewOptions(4, true, false, false)

	// Values on a 0.25 grid with missing intermediate levels.
	stats := ComputeStats([]float64{-0.5, 0.0, 0.25, 1.0})
	if !stats.IsUniformlyQuantized(opts) {
		t.Error("gaps that are integer multiples of the step still form a grid")
	}
}

func TestStats_CloneIsolation(t *testing.T) {
	stats := ComputeStats([]float64{-1, 0, 1})
	clone := stats.Clone()

	clone.Compute([]float64{5, 6})

	if stats.RangeMax() != 1 {
		t.Error("mutating a clone leaked into the original")
	}
}

func TestStats_RecordRoundTrip(t *testing.T) {
	stats := ComputeStats([]float64{-2, 0, 3})

	got, err := StatsFromRecord(stats.ToRecord())
	if err != nil {
		t.Fatalf("StatsFromRecord failed: %v", err)
	}

	if got.RangeMin() != stats.RangeMin() || got.RangeMax() != stats.RangeMax() {
		t.Errorf("range changed in round trip: [%f, %f]", got.RangeMin(), got.RangeMax())
	}

	uvWant, uvGot := stats.UniqueValues(), got.UniqueValues()
	if len(uvWant) != len(uvGot) {
		t.Fatalf("distinct set length changed: %d != %d", len(uvGot), len(uvWant))
	}
	for i := range uvWant {
		if math.Abs(uvWant[i]-uvGot[i]) != 0 {
			t.Errorf("distinct value %d changed: %v != %v", i, uvGot[i], uvWant[i])
		}
	}
}
