package benchmarks

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/zeu5/tabular-marl/config"
)

func ChainBenchmark(ctx context.Context, length int, alpha, gamma float64) error {
	section := config.Section{
		Kind:   "chain",
		Params: config.Params{"length": fmt.Sprint(length)},
	}
	experiments, err := buildExperiments(section, alpha, gamma)
	if err != nil {
		return err
	}
	runComparison(ctx, comparisonConfig(), defaultAnalyses(saveFile, 50), experiments)
	return nil
}

func ChainCommand() *cobra.Command {
	var length int
	var alpha float64
	var gamma float64

	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Compare the learners on a single agent chain",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signalContext()
			defer cancel()
			if err := ChainBenchmark(ctx, length, alpha, gamma); err != nil {
				glog.Errorf("chain benchmark: %s", err)
			}
		},
	}
	cmd.PersistentFlags().IntVar(&length, "length", 10, "Number of cells of the chain")
	cmd.PersistentFlags().Float64Var(&alpha, "alpha", 0.5, "Learning rate")
	cmd.PersistentFlags().Float64Var(&gamma, "gamma", 1, "Discount factor")
	return cmd
}
