package types

var (
	InitState string = "init"
	FailState string = "fail"
)

// MonitorState is a state in the state machine (Monitor)
// Use MonitorBuilder to create monitor states (do not instantiate directly)
type MonitorState struct {
	Success     bool
	Name        string
	transitions map[string]MonitorCondition
}

// Transitions of a Monitor are labelled with a MonitorCondition
// MonitorCondition is a predicate on a joint step of the trace
type MonitorCondition func(*Step) bool

func (m MonitorCondition) Not() MonitorCondition {
	return func(s *Step) bool {
		return !m(s)
	}
}

func (m MonitorCondition) Or(other MonitorCondition) MonitorCondition {
	return func(s *Step) bool {
		return m(s) || other(s)
	}
}

func (m MonitorCondition) And(other MonitorCondition) MonitorCondition {
	return func(s *Step) bool {
		return m(s) && other(s)
	}
}

// AgentTerminated holds on steps where the agent reached a terminal condition
func AgentTerminated(agent int) MonitorCondition {
	return func(s *Step) bool {
		t, ok := s.Find(agent)
		return ok && t.Terminal
	}
}

// RewardBelow holds on steps where the agent received less than the threshold
func RewardBelow(agent int, threshold float64) MonitorCondition {
	return func(s *Step) bool {
		t, ok := s.Find(agent)
		return ok && t.Reward < threshold
	}
}

// Monitor is a generic state machine over the steps of a trace.
// Used to count the episodes satisfying a property.
type Monitor struct {
	states map[string]*MonitorState
}

// Check simulates the monitor on the trace and returns the prefix
// that results in a transition to a success state
func (m *Monitor) Check(t *Trace) (*Trace, bool) {
	curState := m.states[InitState]
	if t.Len() == 0 || curState.Success {
		return NewTrace(), curState.Success
	}
	for i := 0; i < t.Len(); i++ {
		s, _ := t.Get(i)
		for next, cond := range curState.transitions {
			if cond(s) {
				curState = m.states[next]
				break
			}
		}
		if curState.Success {
			return t.GetPrefix(i + 1)
		}
	}
	return nil, false
}

// Creates a new Monitor with a default initial state
func NewMonitor() *Monitor {
	m := &Monitor{
		states: make(map[string]*MonitorState),
	}
	m.states[InitState] = &MonitorState{
		Name:        InitState,
		Success:     false,
		transitions: make(map[string]MonitorCondition),
	}
	return m
}

// Returns a MonitorBuilder indexed at the initial state
func (m *Monitor) Build() *MonitorBuilder {
	return &MonitorBuilder{
		monitor:  m,
		curState: m.states[InitState],
	}
}

// MonitorBuilder constructs the state machine, indexed at a particular state
type MonitorBuilder struct {
	monitor  *Monitor
	curState *MonitorState
}

// On defines a transition from the current state to next under cond.
// next is created if it is not part of the state machine yet.
func (m *MonitorBuilder) On(cond MonitorCondition, next string) *MonitorBuilder {
	nextState, ok := m.monitor.states[next]
	if !ok {
		nextState = &MonitorState{
			Name:        next,
			transitions: make(map[string]MonitorCondition),
		}
		m.monitor.states[next] = nextState
	}
	m.curState.transitions[next] = cond
	return &MonitorBuilder{
		monitor:  m.monitor,
		curState: nextState,
	}
}

// Mark the state indexed at this builder as a success state
func (m *MonitorBuilder) MarkSuccess() *MonitorBuilder {
	m.curState.Success = true
	return m
}

// PropertyAnalyzer counts the episodes whose trace satisfies the monitor
type PropertyAnalyzer struct {
	monitor   *Monitor
	satisfied []int
	count     int
}

var _ Analyzer = &PropertyAnalyzer{}

func NewPropertyAnalyzer(m *Monitor) *PropertyAnalyzer {
	return &PropertyAnalyzer{
		monitor:   m,
		satisfied: make([]int, 0),
	}
}

func (p *PropertyAnalyzer) Analyze(_ int, _ string, summary *EpisodeSummary, trace *Trace) {
	if summary.Evaluation {
		return
	}
	if _, ok := p.monitor.Check(trace); ok {
		p.count++
	}
	p.satisfied = append(p.satisfied, p.count)
}

// DataSet is the cumulative number of satisfying episodes
func (p *PropertyAnalyzer) DataSet() DataSet {
	return p.satisfied
}

func (p *PropertyAnalyzer) Reset() {
	p.satisfied = make([]int, 0)
	p.count = 0
}
