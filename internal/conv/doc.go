// Package conv provides overflow-checked integer conversions used when
// narrowing quantized values to their storage width.
package conv
