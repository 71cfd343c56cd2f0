package benchmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zeu5/tabular-marl/config"
	"github.com/zeu5/tabular-marl/grid"
	"github.com/zeu5/tabular-marl/store"
	"github.com/zeu5/tabular-marl/types"
)

// experimentsFromFile creates one experiment per configured agent entry
func experimentsFromFile(f *config.File) ([]*types.Experiment, error) {
	experiments := make([]*types.Experiment, 0, len(f.Agents))
	for _, a := range f.Agents {
		env, err := newEnvironment(f.Environment)
		if err != nil {
			return nil, errors.Wrap(err, "creating environment")
		}
		params := a.Params
		if f.Seed != 0 && !params.Has("seed") {
			params = params.With("seed", fmt.Sprint(f.Seed))
		}
		agents, err := newAgents(env, params)
		if err != nil {
			return nil, errors.Wrapf(err, "experiment %s", a.Name)
		}
		experiments = append(experiments, types.NewExperiment(a.Name, env, agents...))
	}
	return experiments, nil
}

func RunFile(ctx context.Context, path string) error {
	f, err := config.Load(path)
	if err != nil {
		return err
	}
	experiments, err := experimentsFromFile(f)
	if err != nil {
		return err
	}

	cfg := &types.ComparisonConfig{
		Runs:         f.Runs,
		Episodes:     f.Episodes,
		Horizon:      f.Horizon,
		EvalEvery:    f.EvalEvery,
		RecordPath:   f.SavePath,
		RecordPolicy: true,
	}
	if f.Timeout != "" {
		if cfg.Timeout, err = time.ParseDuration(f.Timeout); err != nil {
			return errors.Wrapf(config.ErrBadValue, "timeout %q", f.Timeout)
		}
	}

	if f.Store.Kind != "" {
		backend, err := store.Open(f.Store)
		if err != nil {
			return errors.Wrap(err, "opening store")
		}
		defer backend.Close()
		saveTables(ctx, backend, experiments)
	}

	analyses := defaultAnalyses(f.SavePath, 100)
	if f.Environment.Kind == "grid" || f.Environment.Kind == "" {
		if g, ok := experiments[0].Environment().(*grid.GridEnvironment); ok {
			analyses = append(analyses, gridAnalyses(f.SavePath, g.NumAgents())...)
		}
	}
	// the save folder of the file takes precedence over the flag
	saveFile = f.SavePath
	runComparison(ctx, cfg, analyses, experiments)
	return nil
}

func RunCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the comparison described by a config file",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			if err := RunFile(ctx, configPath); err != nil {
				glog.Errorf("run: %s", err)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "experiment.yaml", "Path to the config file")
	return cmd
}
