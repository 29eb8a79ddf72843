package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/minutes/internal/carryover"
)

func newPendingCmd() *cobra.Command {
	var (
		configPath string
		exclude    string
	)

	cmd := &cobra.Command{
		Use:   "pending <series-id>",
		Short: "List unresolved action items of a series",
		Long: `Lists the open and in-progress action items of a series, newest minute first.
With --for, only minutes before the given minute are considered and items it
already carries are left out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			cs, err := carryover.Resolve(gormDB, args[0], exclude)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cs) == 0 {
				fmt.Fprintln(out, "No pending action items.")
				return nil
			}
			for _, c := range cs {
				fmt.Fprintf(out, "%s  [%s] %s (%s)\n", c.OriginalTaskID, c.Priority, c.Subject, styleStatus(out, c.Status))
				var meta []string
				meta = append(meta, "from "+c.SourceDate.Format("2006-01-02")+" / "+c.TopicSubject)
				if c.DueDate != nil {
					meta = append(meta, "due "+formatDue(c.DueDate))
				}
				if len(c.Responsibles) > 0 {
					meta = append(meta, strings.Join(c.Responsibles, ", "))
				}
				fmt.Fprintf(out, "    %s\n", strings.Join(meta, "; "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	cmd.Flags().StringVar(&exclude, "for", "", "target minute ID")
	return cmd
}
