// Package testutil provides deterministic calibration data generators for
// tests and benchmarks.
package testutil
