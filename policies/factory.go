package policies

import (
	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/config"
)

const (
	KindArgmax    = "argmax"
	KindEGreedy   = "egreedy"
	KindBoltzmann = "boltzmann"
	KindInverseN  = "inversen"
)

// New creates the selector described by the params.
//
// Recognized keys: policy, epsilon, epsilon_decay, epsilon_min,
// temperature, temperature_decay, temperature_min, inverse_scale, seed.
func New(params config.Params) (Selector, error) {
	seed, err := params.IntOr("seed", 0)
	if err != nil {
		return nil, err
	}

	kind := params.StringOr("policy", KindEGreedy)
	switch kind {
	case KindArgmax:
		return Greedy{}, nil
	case KindEGreedy:
		epsilon, err := params.FloatOr("epsilon", 0.1)
		if err != nil {
			return nil, err
		}
		schedule, err := scheduleFrom(params, "epsilon_decay", "epsilon_min", 0)
		if err != nil {
			return nil, err
		}
		return NewEGreedy(epsilon, schedule, uint64(seed)), nil
	case KindBoltzmann:
		temperature, err := params.FloatOr("temperature", 1)
		if err != nil {
			return nil, err
		}
		minimum, err := params.FloatOr("temperature_min", 0.01)
		if err != nil {
			return nil, err
		}
		schedule, err := scheduleFrom(params, "temperature_decay", "temperature_min", 0.01)
		if err != nil {
			return nil, err
		}
		return NewBoltzmann(temperature, minimum, schedule, uint64(seed)), nil
	case KindInverseN:
		epsilon, err := params.FloatOr("epsilon", 0.1)
		if err != nil {
			return nil, err
		}
		scale, err := params.FloatOr("inverse_scale", 100)
		if err != nil {
			return nil, err
		}
		return NewInverseNGreedy(epsilon, scale, uint64(seed)), nil
	}
	return nil, errors.Wrapf(config.ErrBadValue, "unknown policy %q", kind)
}

func scheduleFrom(params config.Params, rateKey, floorKey string, floor float64) (Schedule, error) {
	rate, err := params.FloatOr(rateKey, 1)
	if err != nil {
		return nil, err
	}
	floor, err = params.FloatOr(floorKey, floor)
	if err != nil {
		return nil, err
	}
	if rate <= 0 || rate > 1 {
		return nil, errors.Wrapf(config.ErrBadValue, "%s=%f not in (0, 1]", rateKey, rate)
	}
	if rate == 1 {
		return NoDecay(), nil
	}
	return ExponentialDecay(rate, floor), nil
}
