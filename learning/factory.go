package learning

import (
	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/config"
	"github.com/zeu5/tabular-marl/policies"
	"github.com/zeu5/tabular-marl/table"
	"github.com/zeu5/tabular-marl/types"
)

const (
	KindQLearning = "qlearning"
	KindSARSA     = "sarsa"
)

// Learner is implemented by both QLearning and SARSA
type Learner interface {
	types.Learner
	types.Decayer
	types.PolicyRecorder
	Actions() int
	Entries() []table.Entry
	Load([]table.Entry)
}

var (
	_ Learner = &QLearning{}
	_ Learner = &SARSA{}
)

// New creates the learner selected by the algorithm key (qlearning by
// default) together with its selector, see policies.New
func New(params config.Params) (Learner, error) {
	p, err := ParseParams(params)
	if err != nil {
		return nil, err
	}
	selector, err := policies.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "creating policy")
	}
	var l Learner
	switch kind := params.StringOr("algorithm", KindQLearning); kind {
	case KindQLearning:
		l, err = NewQLearning(p, selector)
	case KindSARSA:
		l, err = NewSARSA(p, selector)
	default:
		return nil, errors.Wrapf(config.ErrBadValue, "unknown algorithm %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}
