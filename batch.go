package quantgo

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// QuantizeAll quantizes independent calibration arrays in parallel, one
// QuantizedArray per input. Each array gets its own quantizer calibrated on
// its own data; instances share no state, so the transforms run concurrently
// (bounded by GOMAXPROCS).
//
// The first failure cancels the remaining work and is returned. Results are
// positionally aligned with the inputs.
func QuantizeAll(ctx context.Context, opts QuantizationOptions, arrays [][]float64, fns ...QuantizerOption) ([]*QuantizedArray, error) {
	var cfg quantizerConfig
	for _, fn := range fns {
		fn(&cfg)
	}

	out := make([]*QuantizedArray, len(arrays))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, values := range arrays {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			qa, err := NewQuantizedArray(opts, values, fns...)
			if err != nil {
				return err
			}
			out[i] = qa
			return nil
		})
	}

	err := g.Wait()
	if cfg.logger != nil {
		cfg.logger.WithNBits(opts.NBits()).LogBatchQuantize(ctx, len(arrays), err)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
