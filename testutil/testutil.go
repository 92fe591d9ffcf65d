package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformValues generates n calibration values in range [minVal, maxVal).
// The endpoints themselves are always included so derived ranges are exact.
func (r *RNG) UniformValues(n int, minVal, maxVal float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]float64, n)
	span := maxVal - minVal

	for i := range values {
		values[i] = minVal + r.rand.Float64()*span
	}

	if n >= 2 {
		values[0] = minVal
		values[n-1] = maxVal
	}

	return values
}

// GaussianValues generates n values from a normal distribution with the
// given mean and standard deviation. Typical weight-tensor shape.
func (r *RNG) GaussianValues(n int, mean, stddev float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]float64, n)
	for i := range values {
		values[i] = mean + r.rand.NormFloat64()*stddev
	}

	return values
}

// ConstantValues generates n copies of v. Degenerate range input for
// stability-floor checks.
func ConstantValues(n int, v float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}

	return values
}

// GridValues generates n values lying on the uniform grid
// base + k*step for k in [0, levels). The output of a fake
// quantization-aware training round: few distinct values, evenly spaced.
func (r *RNG) GridValues(n int, base, step float64, levels int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]float64, n)
	for i := range values {
		values[i] = base + float64(r.rand.Intn(levels))*step
	}

	// Guarantee the extreme grid points occur so the inferred step is
	// stable regardless of seed.
	if n >= 2 {
		values[0] = base
		values[n-1] = base + float64(levels-1)*step
	}

	return values
}

// OutlierValues generates mostly-uniform values in [minVal, maxVal) with a
// few large outliers at outlierVal. Stresses clipping behavior.
func (r *RNG) OutlierValues(n int, minVal, maxVal, outlierVal float64, outlierRate float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	values := make([]float64, n)
	span := maxVal - minVal

	for i := range values {
		if r.rand.Float64() < outlierRate {
			values[i] = outlierVal
		} else {
			values[i] = minVal + r.rand.Float64()*span
		}
	}

	return values
}
