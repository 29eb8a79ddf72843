package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// defaultConfig is the config path used when --config is not given.
const defaultConfig = "minutes.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mm",
		Short:         "Minutes: meeting minutes with action-item carryover",
		Long:          "Minutes records meeting minutes per series and carries unresolved action items forward into the next meeting.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newSeriesCmd())
	cmd.AddCommand(newMinuteCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newPendingCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDigestCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mm %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
