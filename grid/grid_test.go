package grid

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/zeu5/tabular-marl/learning"
	"github.com/zeu5/tabular-marl/policies"
	"github.com/zeu5/tabular-marl/table"
	"github.com/zeu5/tabular-marl/types"
)

func TestPositionState(t *testing.T) {
	a := Position{Row: 2, Col: 3}
	b := Position{Row: 3, Col: 2}
	if a.Hash() == b.Hash() {
		t.Errorf("expected distinct hashes for %s and %s", a, b)
	}
	if !a.Equal(a.Copy()) || a.Equal(b) {
		t.Errorf("unexpected equality")
	}
	bs, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal: %s", err)
	}
	decoded, err := DecodePosition(bs)
	if err != nil {
		t.Fatalf("failed to decode: %s", err)
	}
	if !decoded.Equal(a) || decoded.Hash() != a.Hash() {
		t.Errorf("expected %s, got %v", a, decoded)
	}
	if _, err := DecodePosition([]byte{1, 2}); err == nil {
		t.Errorf("expected error for short encoding")
	}
}

// two agents at both ends of a 1x3 corridor moving to the middle
func corridor(t *testing.T, conflict ConflictPolicy) *GridEnvironment {
	t.Helper()
	g, err := NewGridEnvironment(GridConfig{
		Height:     1,
		Width:      3,
		Starts:     []Position{{0, 0}, {0, 2}},
		Goals:      []Position{{0, 2}, {0, 0}},
		Conflict:   conflict,
		StepReward: -1,
		Seed:       1,
	})
	if err != nil {
		t.Fatalf("failed to create grid: %s", err)
	}
	return g
}

func tick(t *testing.T, g *GridEnvironment, actions ...types.Action) []*types.Observation {
	t.Helper()
	for i, a := range actions {
		if a == types.NoAction {
			continue
		}
		if err := g.PerformAction(i, a); err != nil {
			t.Fatalf("agent %d failed to act: %s", i, err)
		}
	}
	obs, err := g.Tick(nil)
	if err != nil {
		t.Fatalf("tick failed: %s", err)
	}
	return obs
}

func TestConflictPolicies(t *testing.T) {
	cases := []struct {
		name     string
		conflict ConflictPolicy
		moved    func(p0, p1 Position) bool
	}{
		{name: "deny all", conflict: DenyAll, moved: func(p0, p1 Position) bool {
			return p0 == Position{0, 0} && p1 == Position{0, 2}
		}},
		{name: "priority", conflict: DenyByPriority, moved: func(p0, p1 Position) bool {
			return p0 == Position{0, 1} && p1 == Position{0, 2}
		}},
		{name: "random", conflict: DenyRandom, moved: func(p0, p1 Position) bool {
			return (p0 == Position{0, 1}) != (p1 == Position{0, 1})
		}},
	}
	for _, c := range cases {
		g := corridor(t, c.conflict)
		obs := tick(t, g, Right, Left)
		p0 := obs[0].State.(Position)
		p1 := obs[1].State.(Position)
		if !c.moved(p0, p1) {
			t.Errorf("%s: unexpected positions %s %s", c.name, p0, p1)
		}
		if obs[0].Reward != -1 || obs[1].Reward != -1 {
			t.Errorf("%s: expected step rewards of -1", c.name)
		}
		expected := 1
		if c.conflict == DenyAll {
			expected = 2
		}
		if g.Conflicts != expected {
			t.Errorf("%s: expected %d denied moves, got %d", c.name, expected, g.Conflicts)
		}
	}
}

func TestMoveIntoStayingAgentDenied(t *testing.T) {
	g := corridor(t, DenyByPriority)
	tick(t, g, Right, Stay)
	obs := tick(t, g, Stay, Left)
	if p := obs[1].State.(Position); p != (Position{0, 2}) {
		t.Errorf("expected agent 1 to be denied, got %s", p)
	}
}

func TestGoalRemovesAgent(t *testing.T) {
	g, err := NewGridEnvironment(GridConfig{
		Height:     2,
		Width:      2,
		Starts:     []Position{{0, 0}, {1, 1}},
		Goals:      []Position{{0, 1}, {1, 0}},
		Conflict:   DenyByPriority,
		StepReward: -1,
		GoalReward: 5,
	})
	if err != nil {
		t.Fatalf("failed to create grid: %s", err)
	}
	obs := tick(t, g, Right, Up)
	if !obs[0].Terminal || obs[0].TerminalReward != 5 {
		t.Errorf("expected agent 0 to reach its goal, got %+v", obs[0])
	}
	if obs[1].Terminal {
		t.Errorf("agent 1 denied by agent 0 should not terminate")
	}
	if !g.InTerminalState(0) || g.Occupant(Position{0, 1}) != -1 {
		t.Errorf("expected agent 0 removed from the board")
	}
	if err := g.PerformAction(0, Stay); err == nil {
		t.Errorf("expected error acting after reaching the goal")
	}
	obs = tick(t, g, types.NoAction, Left)
	if obs[0] != nil || !obs[1].Terminal {
		t.Errorf("unexpected observations %v %v", obs[0], obs[1])
	}
}

func TestInvalidGrid(t *testing.T) {
	cases := []struct {
		name   string
		config GridConfig
	}{
		{name: "empty", config: GridConfig{Height: 0, Width: 2, Starts: []Position{{0, 0}}, Goals: []Position{{0, 1}}}},
		{name: "missing goal", config: GridConfig{Height: 2, Width: 2, Starts: []Position{{0, 0}}}},
		{name: "outside", config: GridConfig{Height: 2, Width: 2, Starts: []Position{{0, 0}}, Goals: []Position{{2, 2}}}},
		{name: "shared start", config: GridConfig{Height: 2, Width: 2, Starts: []Position{{0, 0}, {0, 0}}, Goals: []Position{{1, 1}, {1, 0}}}},
	}
	for _, c := range cases {
		if _, err := NewGridEnvironment(c.config); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestRender(t *testing.T) {
	g := corridor(t, DenyAll)
	buf := new(bytes.Buffer)
	if err := g.Render(buf, false); err != nil {
		t.Fatalf("failed to render: %s", err)
	}
	if got := buf.String(); got != "0 . 1 \n" {
		t.Errorf("unexpected rendering %q", got)
	}
}

func TestChainEnvironment(t *testing.T) {
	c, err := NewChainEnvironment(3)
	if err != nil {
		t.Fatalf("failed to create chain: %s", err)
	}
	c.Reset(nil)
	c.PerformAction(0, ChainLeft)
	obs, _ := c.Tick(nil)
	if obs[0].State.(Position).Col != 0 || obs[0].Terminal {
		t.Errorf("expected to stay at the start, got %+v", obs[0])
	}
	for i := 0; i < 2; i++ {
		c.PerformAction(0, ChainRight)
		obs, _ = c.Tick(nil)
	}
	if !obs[0].Terminal || !c.InTerminalState(0) {
		t.Errorf("expected to reach the end of the chain")
	}
	if _, err := NewChainEnvironment(1); err == nil {
		t.Errorf("expected error for short chain")
	}
}

func newLearner(t *testing.T, algorithm string) learning.Learner {
	t.Helper()
	params := learning.Params{Alpha: 0.5, Gamma: 1, Table: table.DefaultConfig()}
	selector := policies.NewEGreedy(1, policies.ExponentialDecay(0.99, 0), 7)
	var l learning.Learner
	var err error
	if algorithm == learning.KindSARSA {
		l, err = learning.NewSARSA(params, selector)
	} else {
		l, err = learning.NewQLearning(params, selector)
	}
	if err != nil {
		t.Fatalf("failed to create learner: %s", err)
	}
	return l
}

func valueOf(l learning.Learner, s types.State, a types.Action) (float64, bool) {
	for _, e := range l.Entries() {
		if e.State.Equal(s) && int(a) < len(e.Values) {
			return e.Values[a], true
		}
	}
	return 0, false
}

func TestChainExperimentConverges(t *testing.T) {
	env, _ := NewChainEnvironment(2)
	for _, algorithm := range []string{learning.KindQLearning, learning.KindSARSA} {
		l := newLearner(t, algorithm)
		agent := types.NewAgent(0, "walker", l)
		e := types.NewExperiment("chain", env, agent)

		for episode := 0; episode < 1000; episode++ {
			eCtx := types.NewEpisodeContext(context.Background(), episode, e.Name, 50, 0)
			summary := e.RunEpisode(eCtx)
			eCtx.Cancel()
			if eCtx.Err != nil {
				t.Fatalf("%s: episode failed: %s", algorithm, eCtx.Err)
			}
			if summary.Returns["walker"] > -1 {
				t.Fatalf("%s: return above the optimum %+v", algorithm, summary)
			}
			l.DecreaseEpsilon(episode + 1)
		}

		v, ok := valueOf(l, Position{Col: 0}, ChainRight)
		if !ok || math.Abs(v-(-1)) > 0.01 {
			t.Errorf("%s: expected Q(start, right) within 0.01 of -1, got %f", algorithm, v)
		}

		eCtx := types.NewEpisodeContext(context.Background(), 1000, e.Name, 50, 0)
		eCtx.Evaluation = true
		before := l.Entries()
		summary := e.RunEpisode(eCtx)
		if !eCtx.Terminal || eCtx.Timesteps != 1 || summary.Returns["walker"] != -1 {
			t.Errorf("%s: expected greedy episode of one step, got %+v", algorithm, summary)
		}
		if after := l.Entries(); len(after) != len(before) {
			t.Errorf("%s: evaluation episode changed the table", algorithm)
		}
		if agent.Phase() != types.Finished {
			t.Errorf("%s: expected agent to be finished, got %s", algorithm, agent.Phase())
		}
	}
}

// recordingLearner logs the updates it receives
type recordingLearner struct {
	updates []string
	action  types.Action
}

func (r *recordingLearner) Select(types.State) types.Action { return r.action }
func (r *recordingLearner) Update(cur, next types.State, a types.Action, reward float64) {
	entry := cur.(Position).String() + "->"
	if next == nil {
		entry += "nil"
	} else {
		entry += next.(Position).String()
	}
	r.updates = append(r.updates, entry)
}
func (r *recordingLearner) Inform(int)                {}
func (r *recordingLearner) EvaluationMode(bool)       {}
func (r *recordingLearner) Reset()                    {}
func (r *recordingLearner) Size() int                 { return 0 }
func (r *recordingLearner) StateUsage() []types.Usage { return nil }

func TestAgentTerminalDoubleUpdate(t *testing.T) {
	env, _ := NewChainEnvironment(3)
	l := &recordingLearner{action: ChainRight}
	e := types.NewExperiment("chain", env, types.NewAgent(0, "walker", l))
	eCtx := types.NewEpisodeContext(context.Background(), 0, e.Name, 10, 0)
	e.RunEpisode(eCtx)

	expected := []string{"(0, 0)->(0, 1)", "(0, 1)->(0, 2)", "(0, 2)->nil"}
	if len(l.updates) != len(expected) {
		t.Fatalf("expected updates %v, got %v", expected, l.updates)
	}
	for i := range expected {
		if l.updates[i] != expected[i] {
			t.Errorf("update %d: expected %s, got %s", i, expected[i], l.updates[i])
		}
	}
	if eCtx.Trace.Len() != 2 {
		t.Errorf("expected 2 steps in the trace, got %d", eCtx.Trace.Len())
	}
}

func TestMultiAgentExperiment(t *testing.T) {
	config := DefaultGridConfig(3, 3, 2)
	config.Seed = 5
	env, err := NewGridEnvironment(config)
	if err != nil {
		t.Fatalf("failed to create grid: %s", err)
	}
	agents := []*types.Agent{
		types.NewAgent(0, "a", newLearner(t, learning.KindQLearning)),
		types.NewAgent(1, "b", newLearner(t, learning.KindSARSA)),
	}
	e := types.NewExperiment("grid", env, agents...)
	visits := NewVisitAnalyzer()
	goal := types.NewPropertyAnalyzer(GoalReached(0))

	for episode := 0; episode < 20; episode++ {
		eCtx := types.NewEpisodeContext(context.Background(), episode, e.Name, 100, 0)
		summary := e.RunEpisode(eCtx)
		eCtx.Cancel()
		if eCtx.Err != nil {
			t.Fatalf("episode failed: %s", eCtx.Err)
		}
		visits.Analyze(0, e.Name, summary, eCtx.Trace)
		goal.Analyze(0, e.Name, summary, eCtx.Trace)
		for _, step := range eCtx.Trace.Steps {
			cells := make(map[Position]bool)
			for _, tr := range step.Transitions {
				if tr.Terminal {
					continue
				}
				p := tr.NextState.(Position)
				if cells[p] {
					t.Fatalf("two agents share %s at tick %d", p, step.Tick)
				}
				cells[p] = true
			}
		}
	}

	ds := visits.DataSet().(*VisitDataSet)
	if ds.Visits[0][0] == 0 || ds.Height < 2 {
		t.Errorf("unexpected visits %+v", ds)
	}
	if counts := goal.DataSet().([]int); len(counts) != 20 {
		t.Errorf("expected 20 entries, got %d", len(counts))
	}
}
