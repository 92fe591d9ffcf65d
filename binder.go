package quantgo

import (
	"github.com/hupe1980/quantgo/bind"
)

// OptionsFromKV constructs options from a loosely typed key-value set, e.g.
// configuration decoded from JSON. Only keys matching declared option fields
// are consumed; the remaining keys are returned to the caller. A matched key
// whose value cannot be converted fails with bind.TypeMismatchError.
func OptionsFromKV(kv map[string]any) (QuantizationOptions, map[string]any, error) {
	var (
		nBits       uint
		isSigned    bool
		isSymmetric bool
		isQAT       bool
	)

	rest, err := bind.Apply(kv, []bind.Field{
		{Name: "n_bits", Assign: bind.Uint(&nBits)},
		{Name: "is_signed", Assign: bind.Bool(&isSigned)},
		{Name: "is_symmetric", Assign: bind.Bool(&isSymmetric)},
		{Name: "is_qat", Assign: bind.Bool(&isQAT)},
	})
	if err != nil {
		return QuantizationOptions{}, nil, err
	}

	opts, err := NewOptions(nBits, isSigned, isSymmetric, isQAT)
	if err != nil {
		return QuantizationOptions{}, nil, err
	}
	return opts, rest, nil
}

// ParametersFromKV constructs fully specified parameters from a loosely
// typed key-value set. A "zero_point" key may carry either a single number
// (scalar) or a sequence of numbers (per-channel). Unmatched keys are
// returned to the caller.
func ParametersFromKV(kv map[string]any) (QuantizationParameters, map[string]any, error) {
	var (
		scale        float64
		zeroPoint    float64
		perChannel   []float64
		isPerChannel bool
		offset       int64
	)

	rest, err := bind.Apply(kv, []bind.Field{
		{Name: "scale", Assign: bind.Float(&scale)},
		{Name: "zero_point", Assign: func(v any) error {
			if err := bind.Floats(&perChannel)(v); err == nil {
				isPerChannel = true
				return nil
			}
			return bind.Float(&zeroPoint)(v)
		}},
		{Name: "offset", Assign: bind.Int(&offset)},
	})
	if err != nil {
		return QuantizationParameters{}, nil, err
	}

	zp := ScalarZeroPoint(zeroPoint)
	if isPerChannel {
		zp = PerChannelZeroPoint(perChannel)
	}

	params, err := NewParameters(scale, zp, offset)
	if err != nil {
		return QuantizationParameters{}, nil, err
	}
	return params, rest, nil
}
