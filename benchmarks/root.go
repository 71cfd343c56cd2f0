package benchmarks

import (
	"flag"

	"github.com/spf13/cobra"
)

var (
	episodes    int
	horizon     int
	saveFile    string
	runs        int
	evalEvery   int
	parallelism int
	monitorAddr string
	cpuprofile  string
	memprofile  string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "tabrl",
		Short: "Tabular multi-agent reinforcement learning experiments",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// glog reads its flags from the standard flag set
			flag.CommandLine.Parse([]string{})
		},
	}
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 10000, "Number of episodes to run")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 100, "Horizon of each episode")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")
	rootCommand.PersistentFlags().IntVar(&evalEvery, "eval-every", 0, "Run a greedy evaluation episode every n episodes, 0 disables")
	rootCommand.PersistentFlags().IntVarP(&parallelism, "parallel", "p", 1, "Number of experiments run concurrently")
	rootCommand.PersistentFlags().StringVar(&monitorAddr, "monitor", "", "Serve learner diagnostics and metrics on the address")
	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write a cpu profile to the file (in the save folder)")
	rootCommand.PersistentFlags().StringVar(&memprofile, "memprofile", "", "Write a memory profile to the file (in the save folder)")
	rootCommand.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	// adding the subcommands here
	rootCommand.AddCommand(GridCommand())
	rootCommand.AddCommand(ChainCommand())
	rootCommand.AddCommand(RunCommand())
	rootCommand.AddCommand(PlayCommand())
	return rootCommand
}
