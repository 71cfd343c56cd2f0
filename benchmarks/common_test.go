package benchmarks

import (
	"context"
	"testing"

	"github.com/zeu5/tabular-marl/config"
	"github.com/zeu5/tabular-marl/grid"
	"github.com/zeu5/tabular-marl/learning"
	"github.com/zeu5/tabular-marl/store"
	"github.com/zeu5/tabular-marl/types"
)

func TestNewEnvironment(t *testing.T) {
	cases := []struct {
		name    string
		section config.Section
		agents  int
		wantErr bool
	}{
		{name: "default grid", section: config.Section{Params: config.Params{}}, agents: 2},
		{name: "grid", section: config.Section{Kind: "grid", Params: config.Params{"height": "4", "width": "6", "agents": "3", "conflict": "random"}}, agents: 3},
		{name: "chain", section: config.Section{Kind: "chain", Params: config.Params{"length": "4"}}, agents: 1},
		{name: "bad conflict", section: config.Section{Kind: "grid", Params: config.Params{"conflict": "nope"}}, wantErr: true},
		{name: "short chain", section: config.Section{Kind: "chain", Params: config.Params{"length": "1"}}, wantErr: true},
		{name: "unknown", section: config.Section{Kind: "maze", Params: config.Params{}}, wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			env, err := newEnvironment(c.section)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if env.NumAgents() != c.agents {
				t.Errorf("expected %d agents, got %d", c.agents, env.NumAgents())
			}
		})
	}
}

func TestExperimentsFromFile(t *testing.T) {
	f, err := config.Parse([]byte(`
episodes: 10
horizon: 20
seed: 3
environment:
  kind: grid
  params: {height: "3", width: "3", agents: "2"}
agents:
  - name: q
    params: {algorithm: qlearning, alpha: "0.1", gamma: "0.9"}
  - name: s
    params: {algorithm: sarsa, alpha: "0.1", gamma: "0.9", policy: boltzmann}
`))
	if err != nil {
		t.Fatalf("failed to parse config: %s", err)
	}
	experiments, err := experimentsFromFile(f)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(experiments) != 2 {
		t.Fatalf("expected 2 experiments, got %d", len(experiments))
	}
	if experiments[0].Environment() == experiments[1].Environment() {
		t.Errorf("experiments must not share the environment")
	}
	agents := experiments[1].Agents()
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
	if _, ok := agents[0].Learner().(*learning.SARSA); !ok {
		t.Errorf("expected a sarsa learner, got %T", agents[0].Learner())
	}
	if agents[0].Learner() == agents[1].Learner() {
		t.Errorf("agents must have their own learners")
	}
}

func TestNewAgentsRejectsBadParams(t *testing.T) {
	env, err := newEnvironment(config.Section{Kind: "chain", Params: config.Params{}})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := newAgents(env, config.Params{"alpha": "0.1"}); err == nil {
		t.Errorf("expected error for missing gamma")
	}
	if _, err := newAgents(env, config.Params{"alpha": "0.1", "gamma": "1", "seed": "x"}); err == nil {
		t.Errorf("expected error for malformed seed")
	}
}

func TestTableSaver(t *testing.T) {
	ctx := context.Background()
	backend, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %s", err)
	}
	env, err := grid.NewChainEnvironment(4)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	agents, err := newAgents(env, config.Params{"alpha": "0.5", "gamma": "1", "seed": "1"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	e := types.NewExperiment("chain", env, agents...)
	saveTables(ctx, backend, []*types.Experiment{e})

	c := types.NewComparison(&types.ComparisonConfig{
		Runs:       1,
		Episodes:   20,
		Horizon:    20,
		RecordPath: t.TempDir(),
		Quiet:      true,
	})
	c.AddExperiment(e)
	c.Run(ctx)

	loaded, err := learning.New(config.Params{"alpha": "0.5", "gamma": "1"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := store.LoadTable(ctx, backend, tableName("chain", "agent0", 0), loaded, grid.DecodePosition); err != nil {
		t.Fatalf("failed to load saved table: %s", err)
	}
	if loaded.Size() == 0 {
		t.Errorf("expected a non empty table")
	}
	if agents[0].Learner().Size() != 0 {
		t.Errorf("expected the learner reset after the run")
	}
}
