package benchmarks

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zeu5/tabular-marl/config"
	"github.com/zeu5/tabular-marl/grid"
	"github.com/zeu5/tabular-marl/store"
	"github.com/zeu5/tabular-marl/types"
)

// Play loads the tables saved for the experiment and run of the config file
// and runs a single greedy episode, printing the environment every tick
func Play(ctx context.Context, path, experiment string, run int, delay time.Duration) error {
	f, err := config.Load(path)
	if err != nil {
		return err
	}
	if f.Store.Kind == "" {
		return errors.New("config has no store")
	}
	var agentConfig *config.AgentConfig
	for i := range f.Agents {
		if f.Agents[i].Name == experiment {
			agentConfig = &f.Agents[i]
		}
	}
	if agentConfig == nil {
		return errors.Errorf("no experiment named %s", experiment)
	}

	backend, err := store.Open(f.Store)
	if err != nil {
		return errors.Wrap(err, "opening store")
	}
	defer backend.Close()

	env, err := newEnvironment(f.Environment)
	if err != nil {
		return err
	}
	agents, err := newAgents(env, agentConfig.Params)
	if err != nil {
		return err
	}
	for _, a := range agents {
		l, ok := a.Learner().(store.Loader)
		if !ok {
			continue
		}
		name := tableName(experiment, a.Name, run)
		if err := store.LoadTable(ctx, backend, name, l, grid.DecodePosition); err != nil {
			return errors.Wrapf(err, "loading table %s", name)
		}
		a.Learner().EvaluationMode(true)
	}

	eCtx := types.NewEpisodeContext(ctx, 0, experiment, f.Horizon, 0)
	defer eCtx.Cancel()
	if err := env.Reset(eCtx); err != nil {
		return err
	}
	for _, a := range agents {
		a.Begin(env)
	}
	render(env)

	for tick := 0; tick < f.Horizon; tick++ {
		proposed := 0
		for _, a := range agents {
			if a.Finished() {
				continue
			}
			if err := a.Step(env); err != nil {
				return errors.Wrapf(err, "agent %s acting", a.Name)
			}
			proposed++
		}
		if proposed == 0 {
			break
		}
		observations, err := env.Tick(types.NewStepContext(eCtx, tick))
		if err != nil {
			return err
		}
		for _, a := range agents {
			if obs := observations[a.ID]; obs != nil {
				a.Update(obs)
			}
		}
		fmt.Printf("tick %d\n", tick+1)
		render(env)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	for _, a := range agents {
		acc := a.Accumulator()
		fmt.Printf("%s: return %.2f, finished %v\n", a.Name, acc.Sum, a.Finished())
	}
	return nil
}

func render(env types.Environment) {
	if g, ok := env.(*grid.GridEnvironment); ok {
		if err := g.Render(os.Stdout, true); err != nil {
			glog.Warningf("render: %s", err)
		}
		return
	}
	for i := 0; i < env.NumAgents(); i++ {
		fmt.Printf("agent%d: %v\n", i, env.State(i))
	}
}

func PlayCommand() *cobra.Command {
	var configPath string
	var experiment string
	var run int
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Replay the greedy policy of saved tables",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			if err := Play(ctx, configPath, experiment, run, delay); err != nil {
				glog.Errorf("play: %s", err)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "experiment.yaml", "Path to the config file")
	cmd.PersistentFlags().StringVar(&experiment, "experiment", "", "Name of the experiment whose tables are played")
	cmd.PersistentFlags().IntVar(&run, "run", 0, "Run of the saved tables")
	cmd.PersistentFlags().DurationVar(&delay, "delay", 200*time.Millisecond, "Pause between ticks")
	return cmd
}
