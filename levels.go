package quantgo

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// LevelOccupancy reports which representable quantization levels an integer
// view actually uses. It is a diagnostic: a low utilization after
// calibration usually means the bit width is larger than the data needs.
type LevelOccupancy struct {
	occupied *roaring64.Bitmap
	lo       int64
	levels   uint64
}

// LevelOccupancy computes the occupied-level bitmap of the current integer
// view. Levels are indexed relative to the lower bound of the representable
// range, so the bitmap stays dense for signed ranges.
func (a *QuantizedArray) LevelOccupancy() *LevelOccupancy {
	lo, hi := a.quantizer.opts.IntRange()

	bm := roaring64.New()
	for _, qv := range a.qvalues {
		// Out-of-range values (possible with clipping disabled) are not
		// representable levels and are excluded.
		if qv < lo || qv > hi {
			continue
		}
		bm.Add(uint64(qv - lo))
	}

	return &LevelOccupancy{
		occupied: bm,
		lo:       lo,
		levels:   uint64(hi-lo) + 1,
	}
}

// OccupiedLevels returns the number of distinct representable levels in use.
func (o *LevelOccupancy) OccupiedLevels() uint64 {
	return o.occupied.GetCardinality()
}

// TotalLevels returns the number of representable levels, 2^nBits.
func (o *LevelOccupancy) TotalLevels() uint64 { return o.levels }

// Utilization returns the fraction of representable levels in use.
func (o *LevelOccupancy) Utilization() float64 {
	if o.levels == 0 {
		return 0
	}
	return float64(o.occupied.GetCardinality()) / float64(o.levels)
}

// Contains reports whether the given quantized level is in use.
func (o *LevelOccupancy) Contains(level int64) bool {
	if level < o.lo || uint64(level-o.lo) >= o.levels {
		return false
	}
	return o.occupied.Contains(uint64(level - o.lo))
}

// Levels returns the occupied levels in ascending order, in the quantized
// integer domain.
func (o *LevelOccupancy) Levels() []int64 {
	out := make([]int64, 0, o.occupied.GetCardinality())
	it := o.occupied.Iterator()
	for it.HasNext() {
		out = append(out, int64(it.Next())+o.lo)
	}
	return out
}
