package learning

import (
	"github.com/zeu5/tabular-marl/policies"
	"github.com/zeu5/tabular-marl/types"
)

// SARSA bootstraps with the value of the action that will be taken next.
//
// Update samples the next action once and caches it, a following Select on
// the same state returns the cached action. Callers must therefore alternate
// Select and Update on the trajectory of a single agent. The cache is
// cleared by terminal updates, Reset and mode changes.
type SARSA struct {
	*tabular
	potentialState  types.State
	potentialAction types.Action
}

var (
	_ types.Learner        = &SARSA{}
	_ types.Decayer        = &SARSA{}
	_ types.PolicyRecorder = &SARSA{}
)

func NewSARSA(params Params, selector policies.Selector) (*SARSA, error) {
	t, err := newTabular(params, selector)
	if err != nil {
		return nil, err
	}
	return &SARSA{
		tabular:         t,
		potentialAction: types.NoAction,
	}, nil
}

func (s *SARSA) Select(state types.State) types.Action {
	if s.potentialAction != types.NoAction && s.potentialState != nil && s.potentialState.Equal(state) {
		return s.potentialAction
	}
	return s.choose(state)
}

func (s *SARSA) Update(state, next types.State, action types.Action, reward float64) {
	if s.evaluation {
		return
	}
	nextQ := 0.0
	if next != nil {
		nextAction := s.choose(next)
		s.potentialState = next.Copy()
		s.potentialAction = nextAction
		nextQ = s.qTable.Value(next, nextAction)
	} else {
		s.clearCache()
	}
	s.backup(state, action, reward, nextQ)
}

func (s *SARSA) clearCache() {
	s.potentialState = nil
	s.potentialAction = types.NoAction
}

func (s *SARSA) EvaluationMode(active bool) {
	s.clearCache()
	s.tabular.EvaluationMode(active)
}

func (s *SARSA) Reset() {
	s.clearCache()
	s.tabular.Reset()
}
