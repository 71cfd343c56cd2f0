package types

// Learner is a tabular learning algorithm driven by an Agent.
//
// Select must be called with an up-to-date action count (see Inform).
// Update applies one TD backup, a nil next state signals a terminal
// transition. Implementations are not safe for concurrent use; a learner
// shared between agents relies on the serial scheduling of the Experiment.
type Learner interface {
	Select(State) Action
	Update(cur State, next State, action Action, reward float64)
	Inform(nActions int)
	// EvaluationMode suspends learning and forces greedy selection
	EvaluationMode(active bool)
	Reset()
	Size() int
	StateUsage() []Usage
}

// Decayer is implemented by learners (and policies) whose exploration
// decreases with the number of episodes
type Decayer interface {
	DecreaseEpsilon(episode int)
}

// Usage is the number of writes to the entry of a state
type Usage struct {
	State State
	Count int
}

// Phase of an agent within a single step
type Phase int

const (
	AwaitingPerception Phase = iota
	Reasoning
	Acting
	AwaitingReward
	Updated
	Finished
)

func (p Phase) String() string {
	switch p {
	case AwaitingPerception:
		return "AwaitingPerception"
	case Reasoning:
		return "Reasoning"
	case Acting:
		return "Acting"
	case AwaitingReward:
		return "AwaitingReward"
	case Updated:
		return "Updated"
	case Finished:
		return "Finished"
	}
	return "Unknown"
}

// Accumulator tracks the rewards of an agent within an episode
type Accumulator struct {
	Sum  float64
	Last float64
}

func (a *Accumulator) Add(reward float64) {
	a.Sum += reward
	a.Last = reward
}

func (a *Accumulator) Reset() {
	a.Sum = 0
	a.Last = 0
}

// Agent drives the perceive, reason, act and update cycle of one
// participant of the environment. Action choice and value updates are
// delegated to its Learner.
type Agent struct {
	ID   int
	Name string

	learner Learner
	state   State
	action  Action
	phase   Phase
	acc     Accumulator
}

// NewAgent creates an agent for the participant with index id in the environment
func NewAgent(id int, name string, learner Learner) *Agent {
	return &Agent{
		ID:      id,
		Name:    name,
		learner: learner,
		action:  NoAction,
		phase:   AwaitingPerception,
	}
}

func (a *Agent) Learner() Learner {
	return a.learner
}

func (a *Agent) Phase() Phase {
	return a.phase
}

// State returns the last perceived state
func (a *Agent) State() State {
	return a.state
}

// LastAction returns the action submitted in the current (or last) step
func (a *Agent) LastAction() Action {
	return a.action
}

func (a *Agent) Accumulator() Accumulator {
	return a.acc
}

func (a *Agent) Finished() bool {
	return a.phase == Finished
}

// Begin prepares the agent for a new episode. The environment must have
// been reset already.
func (a *Agent) Begin(env Environment) {
	a.acc.Reset()
	a.action = NoAction
	a.phase = AwaitingPerception
	a.learner.Inform(env.NumActions(a.ID))
	if env.InTerminalState(a.ID) {
		a.state = env.State(a.ID)
		a.phase = Finished
		return
	}
	a.Perceive(env.State(a.ID))
}

// Perceive records the current state of the agent
func (a *Agent) Perceive(state State) {
	if state != nil {
		state = state.Copy()
	}
	a.state = state
	a.phase = Reasoning
}

// Reason asks the learner for the next action
func (a *Agent) Reason() Action {
	a.action = a.learner.Select(a.state)
	a.phase = Acting
	return a.action
}

// Act submits the chosen action to the environment
func (a *Agent) Act(env Environment) error {
	if err := env.PerformAction(a.ID, a.action); err != nil {
		return err
	}
	a.phase = AwaitingReward
	return nil
}

// Step reasons and immediately acts
func (a *Agent) Step(env Environment) error {
	a.Reason()
	return a.Act(env)
}

// Update forwards the transition to the learner and perceives the new state.
// On a terminal observation the learner receives a second update carrying
// the terminal reward without a next state and the agent finishes.
func (a *Agent) Update(obs *Observation) {
	prior := a.state
	a.acc.Add(obs.Reward)
	if !obs.Terminal {
		a.learner.Update(prior, obs.State, a.action, obs.Reward)
		a.phase = Updated
		a.Perceive(obs.State)
		return
	}

	if obs.State == nil {
		a.learner.Update(prior, nil, a.action, obs.Reward)
	} else {
		a.learner.Update(prior, obs.State, a.action, obs.Reward)
		a.learner.Update(obs.State, nil, a.action, obs.TerminalReward)
		a.acc.Add(obs.TerminalReward)
		a.state = obs.State.Copy()
	}
	a.phase = Finished
}
