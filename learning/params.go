// Package learning implements the tabular temporal difference learners:
// off-policy Q-learning and on-policy SARSA.
package learning

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/config"
	"github.com/zeu5/tabular-marl/table"
)

// Params of a learner
type Params struct {
	// Alpha is the learning rate
	Alpha float64
	// Gamma is the discount factor
	Gamma float64
	// NumStates is the expected number of states, used to size the table
	NumStates int
	Table     table.Config
}

// ParseParams reads alpha and gamma (required) and the optional num_states,
// initial_value, min_value and max_value keys. An unusable num_states falls
// back to the default table capacity.
func ParseParams(p config.Params) (Params, error) {
	alpha, err := p.Float("alpha")
	if err != nil {
		return Params{}, errors.Wrap(err, "learner params")
	}
	gamma, err := p.Float("gamma")
	if err != nil {
		return Params{}, errors.Wrap(err, "learner params")
	}
	if alpha <= 0 || alpha > 1 {
		return Params{}, errors.Wrapf(config.ErrBadValue, "alpha=%f not in (0, 1]", alpha)
	}
	if gamma < 0 || gamma > 1 {
		return Params{}, errors.Wrapf(config.ErrBadValue, "gamma=%f not in [0, 1]", gamma)
	}

	tc := table.DefaultConfig()
	numStates, err := p.Int("num_states")
	switch {
	case err != nil && p.Has("num_states"):
		glog.V(1).Infof("ignoring num_states: %s", err)
		numStates = tc.Capacity
	case err != nil || numStates <= 0:
		glog.V(1).Infof("num_states not set, using default capacity %d", tc.Capacity)
		numStates = tc.Capacity
	}
	tc.Capacity = numStates

	if tc.Initial, err = p.FloatOr("initial_value", tc.Initial); err != nil {
		return Params{}, err
	}
	if tc.Min, err = p.FloatOr("min_value", tc.Min); err != nil {
		return Params{}, err
	}
	if tc.Max, err = p.FloatOr("max_value", tc.Max); err != nil {
		return Params{}, err
	}

	return Params{
		Alpha:     alpha,
		Gamma:     gamma,
		NumStates: numStates,
		Table:     tc,
	}, nil
}
