package types

// Transition of a single agent within a tick
type Transition struct {
	Agent     int     `json:"agent"`
	State     State   `json:"state"`
	Action    Action  `json:"action"`
	NextState State   `json:"next_state"`
	Reward    float64 `json:"reward"`
	Terminal  bool    `json:"terminal"`
}

// Step is the joint transition of all the agents that acted in a tick
type Step struct {
	Tick        int           `json:"tick"`
	Transitions []*Transition `json:"transitions"`
}

// Find returns the transition of the agent in this step
func (s *Step) Find(agent int) (*Transition, bool) {
	for _, t := range s.Transitions {
		if t.Agent == agent {
			return t, true
		}
	}
	return nil, false
}

// Trace of an episode as a sequence of joint steps
type Trace struct {
	Steps []*Step `json:"steps"`
}

func NewTrace() *Trace {
	return &Trace{
		Steps: make([]*Step, 0),
	}
}

func (t *Trace) Slice(from, to int) *Trace {
	slicedTrace := NewTrace()
	for i := from; i < to; i++ {
		slicedTrace.Append(t.Steps[i])
	}
	return slicedTrace
}

func (t *Trace) Append(step *Step) {
	t.Steps = append(t.Steps, step)
}

func (t *Trace) Len() int {
	return len(t.Steps)
}

func (t *Trace) Get(i int) (*Step, bool) {
	if i < 0 || i >= len(t.Steps) {
		return nil, false
	}
	return t.Steps[i], true
}

func (t *Trace) Last() (*Step, bool) {
	if len(t.Steps) < 1 {
		return nil, false
	}
	return t.Steps[len(t.Steps)-1], true
}

func (t *Trace) GetPrefix(i int) (*Trace, bool) {
	if i > len(t.Steps) {
		return nil, false
	}
	return &Trace{
		Steps: t.Steps[0:i],
	}, true
}

// AgentTrace returns the transitions of a single agent in order
func (t *Trace) AgentTrace(agent int) []*Transition {
	result := make([]*Transition, 0)
	for _, s := range t.Steps {
		if tr, ok := s.Find(agent); ok {
			result = append(result, tr)
		}
	}
	return result
}
