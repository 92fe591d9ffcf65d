// Package quantgo converts real-valued tensors into fixed-width integer
// representations and back, for consumers that require bounded-bit-width
// integers instead of floats.
//
// The package derives quantization parameters (scale, zero-point, offset)
// from calibration-set statistics and a set of mode options, applies the
// forward and inverse transforms with clipping and round-half-away-from-zero
// rounding, and keeps a float view and an integer view of the same logical
// data synchronized.
//
// # Quick Start
//
//	opts, err := quantgo.NewOptions(8, false, false, false)
//	if err != nil { ... }
//
//	qa, err := quantgo.NewQuantizedArray(opts, []float64{-2.0, 0.0, 3.0})
//	if err != nil { ... }
//
//	ints := qa.QValues()  // integer view, clamped to [0, 255]
//	vals := qa.Values()   // float view, consistent with the integer view
//
// Either view can later be replaced; the other view is recomputed from the
// fixed quantizer:
//
//	_, err = qa.UpdateValues([]float64{0.5, 1.5, 2.5})
//
// # Persistence
//
// Every entity serializes to a tagged field record (package record) and can
// be written through a statestore.Store backed by memory, local files, S3 or
// MinIO. Snapshot files are self-describing: they record the codec and
// compression by name so they can be validated on load.
//
// # Concurrency
//
// Quant/dequant are pure transforms and safe to run in parallel across
// independent instances. A single QuantizedArray is not safe for concurrent
// mutation; callers must serialize updates to the same instance.
package quantgo
