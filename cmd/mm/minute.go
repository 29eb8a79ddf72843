package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/minutes/internal/carryover"
	"github.com/zulandar/minutes/internal/minute"
	"github.com/zulandar/minutes/internal/models"
	"github.com/zulandar/minutes/internal/series"
)

func newMinuteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minute",
		Short: "Meeting minute commands",
	}

	cmd.AddCommand(newMinuteCreateCmd())
	cmd.AddCommand(newMinuteListCmd())
	cmd.AddCommand(newMinuteShowCmd())
	cmd.AddCommand(newMinuteItemCmd())
	cmd.AddCommand(newMinuteCarryCmd())
	cmd.AddCommand(newMinuteFinalizeCmd())
	return cmd
}

func newMinuteCreateCmd() *cobra.Command {
	var (
		configPath string
		seriesID   string
		date       string
		topics     []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft minute",
		Long:  "Creates a draft minute in a series, optionally with empty topics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			opts := minute.CreateOpts{SeriesID: seriesID}
			if date != "" {
				if opts.Date, err = parseDate(date); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}
			for _, t := range topics {
				opts.Topics = append(opts.Topics, models.Topic{Subject: t})
			}
			doc, err := minute.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created minute %s (%s)\n", doc.ID, doc.Date.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	cmd.Flags().StringVar(&seriesID, "series", "", "series ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "meeting date, YYYY-MM-DD (default today)")
	cmd.Flags().StringArrayVar(&topics, "topic", nil, "topic subject (repeatable)")
	cmd.MarkFlagRequired("series")
	return cmd
}

func newMinuteListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <series-id>",
		Short: "List the minutes of a series, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if _, err := series.Get(gormDB, args[0]); err != nil {
				return err
			}
			list, err := minute.List(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No minutes found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tSTATE")
			for _, m := range list {
				state := "draft"
				if m.IsFinalized {
					state = "finalized"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Date.Format("2006-01-02"), state)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	return cmd
}

func newMinuteShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a minute",
		Long:  "Renders a minute as markdown. On a terminal the markdown is formatted for display.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			doc, err := minute.Get(gormDB, args[0])
			if err != nil {
				return err
			}
			s, err := series.Get(gormDB, doc.SeriesID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderMarkdown(out, minute.Markdown(doc, s.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	return cmd
}

func newMinuteItemCmd() *cobra.Command {
	var (
		configPath   string
		topic        string
		subject      string
		details      string
		action       bool
		priority     string
		due          string
		responsibles []string
	)

	cmd := &cobra.Command{
		Use:   "item <minute-id>",
		Short: "Add an item to a draft minute",
		Long:  "Appends an info item, or an action item with --action, to a topic of a draft minute. The topic is created when missing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			doc, err := minute.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			it := models.InfoItem{Subject: subject, Details: details, ItemType: models.ItemTypeInfo}
			if action {
				it.ItemType = models.ItemTypeAction
				it.Priority = priority
				it.Responsibles = responsibles
				if due != "" {
					d, err := parseDate(due)
					if err != nil {
						return fmt.Errorf("invalid --due: %w", err)
					}
					it.DueDate = &d
				}
			}
			addItem(doc, topic, it)

			if _, err := minute.Save(gormDB, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q to topic %q\n", it.ItemType, subject, topic)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	cmd.Flags().StringVar(&topic, "topic", "", "topic subject (required)")
	cmd.Flags().StringVar(&subject, "subject", "", "item subject (required)")
	cmd.Flags().StringVar(&details, "details", "", "item details")
	cmd.Flags().BoolVar(&action, "action", false, "add an action item instead of an info item")
	cmd.Flags().StringVar(&priority, "priority", "", "action item priority (high, medium, low)")
	cmd.Flags().StringVar(&due, "due", "", "action item due date, YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&responsibles, "responsible", nil, "responsible users (comma-separated or repeated)")
	cmd.MarkFlagRequired("topic")
	cmd.MarkFlagRequired("subject")
	return cmd
}

// addItem appends it to the topic named subject, adding the topic if needed.
func addItem(doc *models.Minute, subject string, it models.InfoItem) {
	for i := range doc.Topics {
		if doc.Topics[i].Subject == subject {
			doc.Topics[i].Items = append(doc.Topics[i].Items, it)
			return
		}
	}
	doc.Topics = append(doc.Topics, models.Topic{Subject: subject, IsOpen: true, Items: []models.InfoItem{it}})
}

func newMinuteCarryCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "carry <minute-id>",
		Short: "Import all pending action items into a draft minute",
		Long:  "Copies every unresolved action item of earlier minutes in the series into the draft minute and saves it. Items already carried over are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			reg := carryover.NewRegistry(gormDB, 0)
			sess, err := reg.Open(args[0])
			if err != nil {
				return err
			}
			defer reg.Close(sess.ID)

			n, err := reg.ImportAll(sess)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if n == 0 {
				fmt.Fprintln(out, "Nothing to carry over.")
				return nil
			}
			if _, err := reg.Save(sess); err != nil {
				return err
			}
			fmt.Fprintf(out, "Carried over %d action items into %s\n", n, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	return cmd
}

func newMinuteFinalizeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "finalize <id>",
		Short: "Finalize a minute",
		Long:  "Makes a minute immutable and links each of its action items to a task record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			doc, err := minute.Finalize(gormDB, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Finalized minute %s with %d action items\n", doc.ID, len(doc.ActionItems()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	return cmd
}
