package benchmarks

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/zeu5/tabular-marl/config"
	"github.com/zeu5/tabular-marl/types"
)

// learnerVariants compared by the built-in benchmarks
var learnerVariants = []struct {
	name   string
	params config.Params
}{
	{"qlearning-egreedy", config.Params{"algorithm": "qlearning", "policy": "egreedy", "epsilon": "0.2", "epsilon_decay": "0.999", "epsilon_min": "0.01"}},
	{"sarsa-egreedy", config.Params{"algorithm": "sarsa", "policy": "egreedy", "epsilon": "0.2", "epsilon_decay": "0.999", "epsilon_min": "0.01"}},
	{"qlearning-boltzmann", config.Params{"algorithm": "qlearning", "policy": "boltzmann", "temperature": "1", "temperature_decay": "0.999", "temperature_min": "0.05"}},
	{"qlearning-inversen", config.Params{"algorithm": "qlearning", "policy": "inversen", "epsilon": "0.5", "inverse_scale": "100"}},
}

// buildExperiments creates one experiment per learner variant, each with its
// own environment
func buildExperiments(env config.Section, alpha, gamma float64) ([]*types.Experiment, error) {
	experiments := make([]*types.Experiment, 0, len(learnerVariants))
	for _, v := range learnerVariants {
		e, err := newEnvironment(env)
		if err != nil {
			return nil, err
		}
		params := v.params.
			With("alpha", fmt.Sprint(alpha)).
			With("gamma", fmt.Sprint(gamma))
		agents, err := newAgents(e, params)
		if err != nil {
			return nil, err
		}
		experiments = append(experiments, types.NewExperiment(v.name, e, agents...))
	}
	return experiments, nil
}

func GridBenchmark(ctx context.Context, height, width, agents int, conflict string, alpha, gamma float64) error {
	section := config.Section{
		Kind: "grid",
		Params: config.Params{
			"height":   fmt.Sprint(height),
			"width":    fmt.Sprint(width),
			"agents":   fmt.Sprint(agents),
			"conflict": conflict,
		},
	}
	experiments, err := buildExperiments(section, alpha, gamma)
	if err != nil {
		return err
	}

	analyses := append(defaultAnalyses(saveFile, 100), gridAnalyses(saveFile, agents)...)
	runComparison(ctx, comparisonConfig(), analyses, experiments)
	return nil
}

func GridCommand() *cobra.Command {
	var height int
	var width int
	var agents int
	var conflict string
	var alpha float64
	var gamma float64

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Compare the learners on the multi-agent grid",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			if err := GridBenchmark(ctx, height, width, agents, conflict, alpha, gamma); err != nil {
				glog.Errorf("grid benchmark: %s", err)
			}
		},
	}
	cmd.PersistentFlags().IntVar(&height, "height", 5, "Height of the grid")
	cmd.PersistentFlags().IntVar(&width, "width", 5, "Width of the grid")
	cmd.PersistentFlags().IntVar(&agents, "agents", 2, "Number of agents")
	cmd.PersistentFlags().StringVar(&conflict, "conflict", "priority", "Conflict resolution: all, priority or random")
	cmd.PersistentFlags().Float64Var(&alpha, "alpha", 0.1, "Learning rate")
	cmd.PersistentFlags().Float64Var(&gamma, "gamma", 0.95, "Discount factor")
	return cmd
}
