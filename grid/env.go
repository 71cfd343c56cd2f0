// Package grid provides small environments to exercise the learners: a
// multi-agent grid world with conflicting moves and a single agent chain.
package grid

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/types"
	"golang.org/x/exp/rand"
)

// ConflictPolicy decides which of the agents proposing the same cell moves
type ConflictPolicy int

const (
	// DenyAll keeps every conflicting agent in place
	DenyAll ConflictPolicy = iota
	// DenyByPriority lets the agent with the lowest index move
	DenyByPriority
	// DenyRandom lets one uniformly chosen agent move
	DenyRandom
)

func (c ConflictPolicy) String() string {
	switch c {
	case DenyAll:
		return "all"
	case DenyByPriority:
		return "priority"
	case DenyRandom:
		return "random"
	}
	return "unknown"
}

// ParseConflictPolicy is the inverse of String
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "all", "":
		return DenyAll, nil
	case "priority":
		return DenyByPriority, nil
	case "random":
		return DenyRandom, nil
	}
	return DenyAll, errors.Errorf("unknown conflict policy %q", s)
}

type GridConfig struct {
	Height int
	Width  int
	// Starts and Goals of the agents, one each per agent
	Starts   []Position
	Goals    []Position
	Conflict ConflictPolicy
	// StepReward is received for every tick, GoalReward as the terminal reward
	StepReward float64
	GoalReward float64
	Seed       uint64
}

// DefaultGridConfig places one agent per row on the left column with the goal
// at the opposite corner
func DefaultGridConfig(height, width, agents int) GridConfig {
	c := GridConfig{
		Height:     height,
		Width:      width,
		Starts:     make([]Position, agents),
		Goals:      make([]Position, agents),
		Conflict:   DenyByPriority,
		StepReward: -1,
		GoalReward: 0,
	}
	for i := 0; i < agents; i++ {
		c.Starts[i] = Position{Row: i % height, Col: 0}
		c.Goals[i] = Position{Row: height - 1 - i%height, Col: width - 1}
	}
	return c
}

func (c GridConfig) validate() error {
	if c.Height <= 0 || c.Width <= 0 {
		return errors.Errorf("invalid grid size %dx%d", c.Height, c.Width)
	}
	if len(c.Starts) == 0 || len(c.Starts) != len(c.Goals) {
		return errors.Errorf("need one start and goal per agent, got %d starts and %d goals", len(c.Starts), len(c.Goals))
	}
	inside := func(p Position) bool {
		return p.Row >= 0 && p.Row < c.Height && p.Col >= 0 && p.Col < c.Width
	}
	occupied := make(map[Position]bool)
	for i := range c.Starts {
		if !inside(c.Starts[i]) || !inside(c.Goals[i]) {
			return errors.Errorf("agent %d start or goal outside the grid", i)
		}
		if occupied[c.Starts[i]] {
			return errors.Errorf("agents share the start %s", c.Starts[i])
		}
		occupied[c.Starts[i]] = true
	}
	return nil
}

// GridEnvironment is a height x width grid shared by several agents.
// Every agent observes its own position. Agents that reach their goal are
// removed from the board.
type GridEnvironment struct {
	config    GridConfig
	positions []Position
	done      []bool
	proposals []types.Action
	rand      *rand.Rand

	// Conflicts counts the proposals denied since the last reset
	Conflicts int
}

var _ types.Environment = &GridEnvironment{}

func NewGridEnvironment(config GridConfig) (*GridEnvironment, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	n := len(config.Starts)
	g := &GridEnvironment{
		config:    config,
		positions: make([]Position, n),
		done:      make([]bool, n),
		proposals: make([]types.Action, n),
		rand:      rand.New(rand.NewSource(seed)),
	}
	g.reset()
	return g, nil
}

func (g *GridEnvironment) Config() GridConfig {
	return g.config
}

func (g *GridEnvironment) reset() {
	for i := range g.positions {
		g.positions[i] = g.config.Starts[i]
		g.done[i] = g.config.Starts[i] == g.config.Goals[i]
		g.proposals[i] = types.NoAction
	}
	g.Conflicts = 0
}

func (g *GridEnvironment) Reset(_ *types.EpisodeContext) error {
	g.reset()
	return nil
}

func (g *GridEnvironment) NumAgents() int {
	return len(g.positions)
}

func (g *GridEnvironment) NumActions(_ int) int {
	return len(movementNames)
}

func (g *GridEnvironment) State(agent int) types.State {
	return g.positions[agent]
}

func (g *GridEnvironment) InTerminalState(agent int) bool {
	return g.done[agent]
}

func (g *GridEnvironment) PerformAction(agent int, action types.Action) error {
	if agent < 0 || agent >= len(g.positions) {
		return errors.Errorf("unknown agent %d", agent)
	}
	if g.done[agent] {
		return errors.Errorf("agent %d already reached its goal", agent)
	}
	if action < 0 || int(action) >= len(movementNames) {
		return errors.Errorf("invalid action %d", action)
	}
	g.proposals[agent] = action
	return nil
}

// Tick moves the agents that proposed an action. Agents targeting the same
// cell are resolved by the conflict policy, the remaining moves into cells
// still occupied after resolution are denied.
func (g *GridEnvironment) Tick(sCtx *types.StepContext) ([]*types.Observation, error) {
	n := len(g.positions)
	targets := make([]Position, n)
	moving := make([]bool, n)
	byCell := make(map[Position][]int)
	cells := make([]Position, 0, n)
	for i, a := range g.proposals {
		if a == types.NoAction {
			continue
		}
		targets[i] = move(g.positions[i], a, g.config.Height, g.config.Width)
		moving[i] = targets[i] != g.positions[i]
		if _, ok := byCell[targets[i]]; !ok {
			cells = append(cells, targets[i])
		}
		byCell[targets[i]] = append(byCell[targets[i]], i)
	}

	denied := 0
	for _, cell := range cells {
		agents := byCell[cell]
		if len(agents) < 2 {
			continue
		}
		winner := -1
		switch g.config.Conflict {
		case DenyByPriority:
			winner = agents[0]
			for _, a := range agents {
				if a < winner {
					winner = a
				}
			}
		case DenyRandom:
			winner = agents[g.rand.Intn(len(agents))]
		}
		for _, a := range agents {
			if a != winner && moving[a] {
				moving[a] = false
				denied++
			}
		}
	}

	// deny moves into cells of agents that stay, until no more are denied
	for changed := true; changed; {
		changed = false
		staying := make(map[Position]bool)
		for i := range g.positions {
			if !g.done[i] && !moving[i] {
				staying[g.positions[i]] = true
			}
		}
		for i := range g.positions {
			if moving[i] && staying[targets[i]] {
				moving[i] = false
				denied++
				changed = true
			}
		}
	}
	g.Conflicts += denied
	if denied > 0 && sCtx != nil && sCtx.Report != nil {
		sCtx.Report.AddEntry(float64(denied), "denied_moves", "grid")
	}

	observations := make([]*types.Observation, n)
	for i, a := range g.proposals {
		if a == types.NoAction {
			continue
		}
		if moving[i] {
			g.positions[i] = targets[i]
		}
		obs := &types.Observation{
			State:  g.positions[i],
			Reward: g.config.StepReward,
		}
		if g.positions[i] == g.config.Goals[i] {
			g.done[i] = true
			obs.Terminal = true
			obs.TerminalReward = g.config.GoalReward
		}
		observations[i] = obs
		g.proposals[i] = types.NoAction
	}
	return observations, nil
}

// Occupant returns the agent on the cell, -1 if there is none
func (g *GridEnvironment) Occupant(p Position) int {
	for i, pos := range g.positions {
		if !g.done[i] && pos == p {
			return i
		}
	}
	return -1
}
