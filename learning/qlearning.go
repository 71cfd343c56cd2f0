package learning

import (
	"github.com/zeu5/tabular-marl/policies"
	"github.com/zeu5/tabular-marl/types"
)

// QLearning bootstraps with the value of the best action of the next state
type QLearning struct {
	*tabular
}

var (
	_ types.Learner        = &QLearning{}
	_ types.Decayer        = &QLearning{}
	_ types.PolicyRecorder = &QLearning{}
)

func NewQLearning(params Params, selector policies.Selector) (*QLearning, error) {
	t, err := newTabular(params, selector)
	if err != nil {
		return nil, err
	}
	return &QLearning{tabular: t}, nil
}

func (q *QLearning) Select(state types.State) types.Action {
	return q.choose(state)
}

// Update applies Q(s,a) += alpha*(r + gamma*max Q(next) - Q(s,a)), a nil next
// state bootstraps with 0. No-op in evaluation mode.
func (q *QLearning) Update(state, next types.State, action types.Action, reward float64) {
	if q.evaluation {
		return
	}
	maxQ := 0.0
	if next != nil {
		_, maxQ = q.qTable.Max(next)
	}
	q.backup(state, action, reward, maxQ)
}
