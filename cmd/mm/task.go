package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/minutes/internal/task"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task record commands",
	}

	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	cmd.AddCommand(newTaskNoteCmd())
	cmd.AddCommand(newTaskFollowUpCmd())
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath string
		filters    task.ListFilters
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List task records",
		Long:  "Lists task records with optional filters. Output is formatted as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			list, err := task.List(gormDB, filters)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSUBJECT\tSTATUS\tPRI\tDUE\tRESPONSIBLE")
			for _, t := range list {
				resp := strings.Join(t.Responsibles, ",")
				if resp == "" {
					resp = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, truncate(t.Subject, 40), t.Status, t.Priority, formatDue(t.DueDate), resp)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	cmd.Flags().StringVar(&filters.SeriesID, "series", "", "filter by series ID")
	cmd.Flags().StringVar(&filters.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&filters.MinutesID, "minute", "", "filter by the minute holding the live copy")
	cmd.Flags().StringVar(&filters.Responsible, "responsible", "", "filter by responsible user")
	cmd.Flags().BoolVar(&filters.OpenOnly, "open", false, "only open and in-progress tasks")
	return cmd
}

func newTaskShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Long:  "Displays a task record with its notes and the chain of tasks it continues.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			t, err := task.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", t.ID)
			fmt.Fprintf(out, "Subject:     %s\n", t.Subject)
			fmt.Fprintf(out, "Status:      %s\n", styleStatus(out, t.Status))
			fmt.Fprintf(out, "Priority:    %s\n", t.Priority)
			fmt.Fprintf(out, "Due:         %s\n", formatDue(t.DueDate))
			if len(t.Responsibles) > 0 {
				fmt.Fprintf(out, "Responsible: %s\n", strings.Join(t.Responsibles, ", "))
			}
			if t.MinutesID != nil {
				fmt.Fprintf(out, "Minute:      %s\n", *t.MinutesID)
			}
			fmt.Fprintf(out, "Created:     %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Updated:     %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
			if t.CompletedAt != nil {
				fmt.Fprintf(out, "Completed:   %s\n", t.CompletedAt.Format("2006-01-02 15:04:05"))
			}
			if t.Details != "" {
				fmt.Fprintf(out, "\nDetails:\n%s\n", wrapIndented(out, t.Details, 2))
			}

			if t.SourceTaskID != nil {
				chain, err := task.Lineage(gormDB, t.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "\nContinues:")
				for _, c := range chain[1:] {
					fmt.Fprintf(out, "  %s %s (%s)\n", c.ID, c.Subject, c.Status)
				}
			}

			if len(t.Notes) > 0 {
				fmt.Fprintln(out, "\nNotes:")
				for _, n := range t.Notes {
					author := n.Author
					if author == "" {
						author = "-"
					}
					fmt.Fprintf(out, "  [%s] %s:\n%s\n", n.CreatedAt.Format("2006-01-02 15:04"), author, wrapIndented(out, n.Body, 4))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	var (
		configPath   string
		subject      string
		details      string
		status       string
		priority     string
		due          string
		clearDue     bool
		responsibles []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task record",
		Long:  "Updates the given fields of a task record. Status changes must follow the allowed transitions.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var changes []task.Change
			flags := cmd.Flags()
			if flags.Changed("subject") {
				changes = append(changes, task.SetSubject(subject))
			}
			if flags.Changed("details") {
				changes = append(changes, task.SetDetails(details))
			}
			if flags.Changed("status") {
				changes = append(changes, task.SetStatus(status))
			}
			if flags.Changed("priority") {
				changes = append(changes, task.SetPriority(priority))
			}
			switch {
			case clearDue:
				changes = append(changes, task.ClearDueDate{})
			case flags.Changed("due"):
				d, err := parseDate(due)
				if err != nil {
					return fmt.Errorf("invalid --due: %w", err)
				}
				changes = append(changes, task.SetDueDate(d))
			}
			if flags.Changed("responsible") {
				changes = append(changes, task.SetResponsibles(responsibles))
			}
			if len(changes) == 0 {
				return fmt.Errorf("no fields to update")
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			t, err := task.Update(gormDB, args[0], changes...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s (%s)\n", t.ID, t.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	cmd.Flags().StringVar(&subject, "subject", "", "new subject")
	cmd.Flags().StringVar(&details, "details", "", "new details")
	cmd.Flags().StringVar(&status, "status", "", "new status (open, in-progress, completed, cancelled)")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority (high, medium, low)")
	cmd.Flags().StringVar(&due, "due", "", "new due date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().StringSliceVar(&responsibles, "responsible", nil, "responsible users (replaces the list)")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func newTaskNoteCmd() *cobra.Command {
	var (
		configPath string
		author     string
	)

	cmd := &cobra.Command{
		Use:   "note <id> <text>",
		Short: "Add a note to a task record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if author == "" {
				author = cfg.Owner
			}
			if _, err := task.AddNote(gormDB, args[0], author, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Note added to %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	cmd.Flags().StringVar(&author, "author", "", "note author (default: config owner)")
	return cmd
}

func newTaskFollowUpCmd() *cobra.Command {
	var (
		configPath string
		subject    string
		priority   string
	)

	cmd := &cobra.Command{
		Use:   "follow-up <source-id>",
		Short: "Create a task that continues another",
		Long:  "Creates a task record continuing the given task. Each task can be continued once.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			src, err := task.Get(gormDB, args[0])
			if err != nil {
				return err
			}
			if subject == "" {
				subject = src.Subject
			}
			t, err := task.Create(gormDB, task.CreateOpts{
				Subject:      subject,
				Details:      src.Details,
				Priority:     priority,
				Responsibles: src.Responsibles,
				SeriesID:     src.SeriesID,
				SourceTaskID: src.ID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s continuing %s\n", t.ID, src.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	cmd.Flags().StringVar(&subject, "subject", "", "subject (default: the source task's)")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (default medium)")
	return cmd
}
