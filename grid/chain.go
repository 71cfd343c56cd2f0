package grid

import (
	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/types"
)

// Actions of the chain
const (
	ChainLeft types.Action = iota
	ChainRight
)

// ChainEnvironment is a single agent walking a chain of cells from the first
// to the last one. Every step costs one, reaching the end is worth nothing.
type ChainEnvironment struct {
	Length   int
	position int
	done     bool
	proposed types.Action
}

var _ types.Environment = &ChainEnvironment{}

func NewChainEnvironment(length int) (*ChainEnvironment, error) {
	if length < 2 {
		return nil, errors.Errorf("chain needs at least 2 cells, got %d", length)
	}
	return &ChainEnvironment{Length: length, proposed: types.NoAction}, nil
}

func (c *ChainEnvironment) Reset(_ *types.EpisodeContext) error {
	c.position = 0
	c.done = false
	c.proposed = types.NoAction
	return nil
}

func (c *ChainEnvironment) NumAgents() int {
	return 1
}

func (c *ChainEnvironment) NumActions(_ int) int {
	return 2
}

func (c *ChainEnvironment) State(_ int) types.State {
	return Position{Col: c.position}
}

func (c *ChainEnvironment) InTerminalState(_ int) bool {
	return c.done
}

func (c *ChainEnvironment) PerformAction(agent int, action types.Action) error {
	if agent != 0 {
		return errors.Errorf("unknown agent %d", agent)
	}
	if action != ChainLeft && action != ChainRight {
		return errors.Errorf("invalid action %d", action)
	}
	c.proposed = action
	return nil
}

func (c *ChainEnvironment) Tick(_ *types.StepContext) ([]*types.Observation, error) {
	if c.proposed == types.NoAction {
		return []*types.Observation{nil}, nil
	}
	if c.proposed == ChainRight {
		c.position = min(c.Length-1, c.position+1)
	} else {
		c.position = max(0, c.position-1)
	}
	c.proposed = types.NoAction

	obs := &types.Observation{State: Position{Col: c.position}, Reward: -1}
	if c.position == c.Length-1 {
		c.done = true
		obs.Terminal = true
	}
	return []*types.Observation{obs}, nil
}
