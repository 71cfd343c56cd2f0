package types

// State of an environment as perceived by a single agent.
// Equal states must have equal hashes, the converse need not hold.
type State interface {
	// Fingerprint used to index value tables
	Hash() uint64
	Equal(State) bool
	// Copy returns a value-equal state that does not alias the receiver
	Copy() State
}

// Action is an index into the action set of a state.
// The number of actions is supplied by the environment, see NumActions.
type Action int

// NoAction marks the absence of a chosen action
const NoAction Action = -1

// Observation is emitted by the environment to each agent after a tick
type Observation struct {
	State  State
	Reward float64
	// Terminal is set when the agent reached a terminal condition.
	// TerminalReward is delivered with a second, non-bootstrapping update.
	Terminal       bool
	TerminalReward float64
}

// Environment owns the shared state of all agents.
// Agents propose actions through PerformAction, the environment resolves
// all proposals of a tick in Tick and returns one observation per agent.
type Environment interface {
	// Reset called at the beginning of each episode
	Reset(*EpisodeContext) error
	NumAgents() int
	NumActions(agent int) int
	// State returns the current state of the agent
	State(agent int) State
	InTerminalState(agent int) bool
	// PerformAction records the proposal, nothing is committed until Tick
	PerformAction(agent int, action Action) error
	// Tick resolves the proposals and commits the joint transition.
	// Observations are indexed by agent, agents that did not propose get nil.
	Tick(*StepContext) ([]*Observation, error)
}

// Orderer is implemented by environments that decide the order in which
// agents propose their actions every tick
type Orderer interface {
	Order(tick int) []int
}

// StateAbstractor maps states to printable keys, used by analyzers
type StateAbstractor func(State) string
