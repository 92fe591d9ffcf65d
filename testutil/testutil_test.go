package testutil

import (
	"math"
	"testing"
)

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	va := a.UniformValues(100, -1, 1)
	vb := b.UniformValues(100, -1, 1)

	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("same seed diverged at index %d: %v != %v", i, va[i], vb[i])
		}
	}

	a.Reset()

	vc := a.UniformValues(100, -1, 1)
	for i := range va {
		if va[i] != vc[i] {
			t.Fatalf("Reset did not replay sequence at index %d", i)
		}
	}
}

func TestUniformValuesBounds(t *testing.T) {
	rng := NewRNG(1)
	values := rng.UniformValues(1000, -2, 3)

	if values[0] != -2 || values[len(values)-1] != 3 {
		t.Errorf("endpoints not pinned: first=%v last=%v", values[0], values[len(values)-1])
	}

	for i, v := range values {
		if v < -2 || v > 3 {
			t.Fatalf("value %d out of range: %v", i, v)
		}
	}
}

func TestGridValues(t *testing.T) {
	rng := NewRNG(7)

	const (
		base   = -0.5
		step   = 0.25
		levels = 5
	)

	values := rng.GridValues(200, base, step, levels)

	if values[0] != base {
		t.Errorf("expected first value %v, got %v", base, values[0])
	}

	if want := base + float64(levels-1)*step; values[len(values)-1] != want {
		t.Errorf("expected last value %v, got %v", want, values[len(values)-1])
	}

	for i, v := range values {
		k := (v - base) / step
		if math.Abs(k-math.Round(k)) > 1e-12 {
			t.Fatalf("value %d off grid: %v", i, v)
		}
	}
}

func TestConstantValues(t *testing.T) {
	values := ConstantValues(10, 5)

	if len(values) != 10 {
		t.Fatalf("expected 10 values, got %d", len(values))
	}

	for _, v := range values {
		if v != 5 {
			t.Fatalf("expected constant 5, got %v", v)
		}
	}
}
