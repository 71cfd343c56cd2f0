package benchmarks

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/config"
	"github.com/zeu5/tabular-marl/grid"
	"github.com/zeu5/tabular-marl/learning"
	"github.com/zeu5/tabular-marl/monitor"
	"github.com/zeu5/tabular-marl/store"
	"github.com/zeu5/tabular-marl/types"
)

// signalContext is cancelled on interrupt or when the returned function is called
func signalContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	doneCh := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}

type analysis struct {
	name       string
	ctor       func() types.Analyzer
	comparator types.Comparator
}

// defaultAnalyses plots the returns and prints their summary
func defaultAnalyses(savePath string, window int) []analysis {
	return []analysis{
		{"returns", func() types.Analyzer { return types.NewReturnAnalyzer() }, types.ReturnPlotter(savePath, window)},
		{"returns_chart", func() types.Analyzer { return types.NewReturnAnalyzer() }, types.ReturnChart(savePath, window)},
		{"summary", func() types.Analyzer { return types.NewReturnAnalyzer() }, types.ReturnSummary()},
		{"coverage", func() types.Analyzer { return types.NewCoverageAnalyzer(types.DefaultStateAbstractor()) }, types.CoveragePlotter(savePath)},
	}
}

func gridAnalyses(savePath string, agents int) []analysis {
	result := []analysis{
		{"visits", func() types.Analyzer { return grid.NewVisitAnalyzer() }, grid.HeatmapComparator(savePath)},
	}
	for i := 0; i < agents; i++ {
		agent := i
		result = append(result, analysis{
			name:       fmt.Sprintf("goal_%d", agent),
			ctor:       func() types.Analyzer { return types.NewPropertyAnalyzer(grid.GoalReached(agent)) },
			comparator: types.NoopComparator(),
		})
	}
	return result
}

// runComparison runs the experiments, concurrently when parallelism is above one
func runComparison(ctx context.Context, cfg *types.ComparisonConfig, analyses []analysis, experiments []*types.Experiment) {
	if monitorAddr != "" {
		server := monitor.NewServer(monitorAddr)
		for _, e := range experiments {
			server.Watch(e)
		}
		server.Start(ctx)
		fmt.Printf("Serving diagnostics on %s\n", monitorAddr)
	}

	if parallelism > 1 {
		c := types.NewParallelComparison(cfg, parallelism)
		for _, a := range analyses {
			c.AddAnalysis(a.name, a.ctor, a.comparator)
		}
		for _, e := range experiments {
			c.AddExperiment(e)
		}
		stop := startProfiling()
		defer stop()
		c.Run(ctx)
		return
	}

	c := types.NewComparison(cfg)
	for _, a := range analyses {
		c.AddAnalysis(a.name, a.ctor(), a.comparator)
	}
	for _, e := range experiments {
		c.AddExperiment(e)
	}
	stop := startProfiling()
	defer stop()
	c.Run(ctx)
}

func comparisonConfig() *types.ComparisonConfig {
	return &types.ComparisonConfig{
		Runs:         runs,
		Episodes:     episodes,
		Horizon:      horizon,
		EvalEvery:    evalEvery,
		RecordPath:   saveFile,
		RecordPolicy: true,
	}
}

// newAgents creates one agent per participant of the environment, every agent
// with its own learner
func newAgents(env types.Environment, params config.Params) ([]*types.Agent, error) {
	agents := make([]*types.Agent, env.NumAgents())
	for i := range agents {
		p := params
		if p.Has("seed") {
			// distinct but reproducible exploration per agent
			seed, err := p.Int("seed")
			if err != nil {
				return nil, err
			}
			p = p.With("seed", fmt.Sprint(seed+i))
		}
		l, err := learning.New(p)
		if err != nil {
			return nil, errors.Wrapf(err, "creating learner of agent %d", i)
		}
		agents[i] = types.NewAgent(i, fmt.Sprintf("agent%d", i), l)
	}
	return agents, nil
}

// tableSaver persists the tables of the learners at the end of every run
type tableSaver struct {
	ctx     context.Context
	backend store.Backend
}

var _ types.RunRecorder = &tableSaver{}

func (t *tableSaver) ObserveEpisode(*types.EpisodeSummary) {}

func (t *tableSaver) ObserveRun(e *types.Experiment, run int) {
	for _, a := range e.Agents() {
		d, ok := a.Learner().(store.Dumper)
		if !ok {
			continue
		}
		name := tableName(e.Name, a.Name, run)
		if err := store.SaveTable(t.ctx, t.backend, name, d); err != nil {
			glog.Warningf("failed to save table %s: %s", name, err)
		}
	}
}

func tableName(experiment, agent string, run int) string {
	return fmt.Sprintf("%s_%s_%d", experiment, agent, run)
}

// saveTables attaches a tableSaver on the backend to every experiment
func saveTables(ctx context.Context, backend store.Backend, experiments []*types.Experiment) {
	saver := &tableSaver{ctx: ctx, backend: backend}
	for _, e := range experiments {
		e.AddRecorder(saver)
	}
}

// newEnvironment creates the environment of the section. Kinds: grid (params
// height, width, agents, conflict, step_reward, goal_reward, seed) and chain
// (param length).
func newEnvironment(section config.Section) (types.Environment, error) {
	p := section.Params
	switch section.Kind {
	case "grid", "":
		height, err := p.IntOr("height", 5)
		if err != nil {
			return nil, err
		}
		width, err := p.IntOr("width", 5)
		if err != nil {
			return nil, err
		}
		agents, err := p.IntOr("agents", 2)
		if err != nil {
			return nil, err
		}
		cfg := grid.DefaultGridConfig(height, width, agents)
		if p.Has("conflict") {
			if cfg.Conflict, err = grid.ParseConflictPolicy(p.StringOr("conflict", "")); err != nil {
				return nil, err
			}
		}
		if cfg.StepReward, err = p.FloatOr("step_reward", cfg.StepReward); err != nil {
			return nil, err
		}
		if cfg.GoalReward, err = p.FloatOr("goal_reward", cfg.GoalReward); err != nil {
			return nil, err
		}
		seed, err := p.IntOr("seed", 0)
		if err != nil {
			return nil, err
		}
		cfg.Seed = uint64(seed)
		g, err := grid.NewGridEnvironment(cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "chain":
		length, err := p.IntOr("length", 10)
		if err != nil {
			return nil, err
		}
		c, err := grid.NewChainEnvironment(length)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, errors.Wrapf(config.ErrBadValue, "unknown environment %q", section.Kind)
}
