package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/minutes/internal/series"
)

func newSeriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Meeting series commands",
	}

	cmd.AddCommand(newSeriesCreateCmd())
	cmd.AddCommand(newSeriesListCmd())
	return cmd
}

func newSeriesCreateCmd() *cobra.Command {
	var (
		configPath string
		project    string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a meeting series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			s, err := series.Create(gormDB, args[0], project)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created series %s (%s)\n", s.ID, s.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	cmd.Flags().StringVar(&project, "project", "", "project the series belongs to")
	return cmd
}

func newSeriesListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meeting series",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			list, err := series.List(gormDB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No series found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPROJECT\tNAME")
			for _, s := range list {
				p := s.Project
				if p == "" {
					p = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, p, s.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	return cmd
}
