package quantgo

import (
	"math"
	"sort"

	"github.com/hupe1980/quantgo/record"
)

// distinctValueLimit caps the size of the captured distinct-value set.
// Beyond this cardinality the set stops being useful as a QAT heuristic and
// is dropped.
const distinctValueLimit = 32

// gridTolerance is the relative tolerance used when checking whether
// distinct values sit on an evenly spaced grid.
const gridTolerance = 1e-6

// CalibrationStats summarizes a calibration sample: its value range, and a
// small sorted set of distinct values when the sample's cardinality is low
// enough for the set to be useful.
//
// The zero value is the uninitialized state (RangeMin == RangeMax == 0, no
// distinct set).
type CalibrationStats struct {
	rangeMin float64
	rangeMax float64

	// uniqueValues is nil when the distinct-value count exceeded
	// distinctValueLimit during Compute, or when Compute has not run.
	uniqueValues []float64

	computed bool
}

// ComputeStats runs a single pass over the calibration sample and returns
// its statistics.
func ComputeStats(values []float64) CalibrationStats {
	var s CalibrationStats
	s.Compute(values)
	return s
}

// Compute sets the range statistics from the calibration sample and collects
// the sorted distinct-value set when its cardinality stays below the capture
// limit. An empty sample leaves the stats uninitialized.
func (s *CalibrationStats) Compute(values []float64) {
	if len(values) == 0 {
		*s = CalibrationStats{}
		return
	}

	rmin, rmax := values[0], values[0]
	distinct := make(map[float64]struct{}, distinctValueLimit+1)
	capture := true

	for _, v := range values {
		if v < rmin {
			rmin = v
		}
		if v > rmax {
			rmax = v
		}
		if capture {
			distinct[v] = struct{}{}
			if len(distinct) > distinctValueLimit {
				capture = false
			}
		}
	}

	s.rangeMin = rmin
	s.rangeMax = rmax
	s.uniqueValues = nil
	s.computed = true

	if capture {
		s.uniqueValues = make([]float64, 0, len(distinct))
		for v := range distinct {
			s.uniqueValues = append(s.uniqueValues, v)
		}
		sort.Float64s(s.uniqueValues)
	}
}

// RangeMin returns the smallest observed calibration value.
func (s *CalibrationStats) RangeMin() float64 { return s.rangeMin }

// RangeMax returns the largest observed calibration value.
func (s *CalibrationStats) RangeMax() float64 { return s.rangeMax }

// UniqueValues returns a copy of the captured sorted distinct-value set, or
// nil when no set was captured.
func (s *CalibrationStats) UniqueValues() []float64 {
	if s.uniqueValues == nil {
		return nil
	}
	out := make([]float64, len(s.uniqueValues))
	copy(out, s.uniqueValues)
	return out
}

// IsZero reports whether the stats are still in the uninitialized state.
func (s *CalibrationStats) IsZero() bool { return !s.computed }

// Clone returns an owned value copy.
func (s *CalibrationStats) Clone() CalibrationStats {
	out := *s
	if s.uniqueValues != nil {
		out.uniqueValues = make([]float64, len(s.uniqueValues))
		copy(out.uniqueValues, s.uniqueValues)
	}
	return out
}

// CopyFrom replaces the receiver with a structural copy of other.
func (s *CalibrationStats) CopyFrom(other *CalibrationStats) {
	*s = other.Clone()
}

// IsUniformlyQuantized reports whether the captured distinct-value set is
// consistent with an evenly spaced integer grid implied by the bit width in
// opts: the number of distinct values does not exceed the number of
// representable levels, and consecutive values are separated by integer
// multiples of a single inferred step.
//
// It returns false, not an error, when no distinct-value set was captured.
func (s *CalibrationStats) IsUniformlyQuantized(opts QuantizationOptions) bool {
	_, ok := s.gridStep(opts)
	return ok
}

// gridStep infers the grid step from the distinct-value set. ok is false
// when no set was captured or the values do not form a uniform grid.
func (s *CalibrationStats) gridStep(opts QuantizationOptions) (step float64, ok bool) {
	if s.uniqueValues == nil || len(s.uniqueValues) < 2 {
		return 0, false
	}
	if int64(len(s.uniqueValues)) > opts.levels() {
		return 0, false
	}

	// The smallest gap between consecutive distinct values is the candidate
	// step; every other gap must be an integer multiple of it.
	step = math.Inf(1)
	for i := 1; i < len(s.uniqueValues); i++ {
		if d := s.uniqueValues[i] - s.uniqueValues[i-1]; d < step {
			step = d
		}
	}
	if step <= 0 || math.IsInf(step, 1) {
		return 0, false
	}

	for i := 1; i < len(s.uniqueValues); i++ {
		d := s.uniqueValues[i] - s.uniqueValues[i-1]
		mult := d / step
		if math.Abs(mult-math.Round(mult)) > gridTolerance*math.Max(1, mult) {
			return 0, false
		}
	}
	return step, true
}

// smallestMagnitudeValue returns the captured distinct value closest to
// zero. ok is false when no distinct-value set was captured.
func (s *CalibrationStats) smallestMagnitudeValue() (v float64, ok bool) {
	if s.uniqueValues == nil || len(s.uniqueValues) == 0 {
		return 0, false
	}
	v = s.uniqueValues[0]
	for _, u := range s.uniqueValues[1:] {
		if math.Abs(u) < math.Abs(v) {
			v = u
		}
	}
	return v, true
}

// RecordKindStats tags serialized calibration statistics.
const RecordKindStats = "calibration_stats"

// ToRecord serializes the statistics to a tagged field record.
func (s *CalibrationStats) ToRecord() *record.Record {
	r := record.New(RecordKindStats)
	r.SetFloat("rmin", s.rangeMin)
	r.SetFloat("rmax", s.rangeMax)
	r.SetBool("computed", s.computed)
	if s.uniqueValues != nil {
		r.SetFloats("unique_values", s.uniqueValues)
	}
	return r
}

// StatsFromRecord deserializes calibration statistics from a tagged field
// record.
func StatsFromRecord(r *record.Record) (CalibrationStats, error) {
	if err := r.ExpectKind(RecordKindStats); err != nil {
		return CalibrationStats{}, err
	}
	rmin, err := r.Float("rmin")
	if err != nil {
		return CalibrationStats{}, err
	}
	rmax, err := r.Float("rmax")
	if err != nil {
		return CalibrationStats{}, err
	}
	computed, err := r.Bool("computed")
	if err != nil {
		return CalibrationStats{}, err
	}
	if rmin > rmax {
		return CalibrationStats{}, &record.SerializationError{
			Kind: RecordKindStats, Field: "rmin", Reason: "exceeds rmax",
		}
	}
	s := CalibrationStats{rangeMin: rmin, rangeMax: rmax, computed: computed}
	if r.Has("unique_values") {
		uv, err := r.Floats("unique_values")
		if err != nil {
			return CalibrationStats{}, err
		}
		s.uniqueValues = uv
	}
	return s, nil
}
