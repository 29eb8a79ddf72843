package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/minutes/internal/config"
	"github.com/zulandar/minutes/internal/series"
	"github.com/zulandar/minutes/internal/telegraph"
	"github.com/zulandar/minutes/internal/telegraph/discord"
	"github.com/zulandar/minutes/internal/telegraph/slack"
	"gorm.io/gorm"
)

func newDigestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Pending action-item digests for chat",
	}

	cmd.AddCommand(newDigestSendCmd())
	cmd.AddCommand(newDigestScheduleCmd())
	return cmd
}

func newDigestSendCmd() *cobra.Command {
	var (
		configPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "send [series-id...]",
		Short: "Send the pending action-item digest now",
		Long:  "Posts one digest per series (all series when none are given) to the configured chat channel.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			ids := args
			if len(ids) == 0 {
				if ids, err = allSeriesIDs(gormDB); err != nil {
					return err
				}
			}

			if dryRun {
				return printDigests(cmd, gormDB, ids)
			}
			adapter, err := newAdapter(cfg.Digest)
			if err != nil {
				return err
			}
			if err := telegraph.SendDigests(cmd.Context(), gormDB, adapter, cfg.Digest.Channel, ids); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d digests to %s\n", len(ids), cfg.Digest.Platform)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digests instead of sending them")
	return cmd
}

func newDigestScheduleCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Send digests on the configured cron schedule",
		Long:  "Runs in the foreground, sending the digest for every series at each fire time of digest.schedule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Digest.Schedule == "" {
				return fmt.Errorf("digest.schedule is not set in %s", configPath)
			}
			adapter, err := newAdapter(cfg.Digest)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			fmt.Fprintf(cmd.OutOrStdout(), "Sending digests to %s on schedule %q\n", cfg.Digest.Platform, cfg.Digest.Schedule)
			s := &telegraph.Scheduler{
				DB:        gormDB,
				Adapter:   adapter,
				ChannelID: cfg.Digest.Channel,
				Schedule:  cfg.Digest.Schedule,
				SeriesIDs: func() ([]string, error) { return allSeriesIDs(gormDB) },
			}
			return s.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	return cmd
}

// newAdapter builds the chat adapter for the configured platform.
func newAdapter(cfg config.DigestConfig) (telegraph.Adapter, error) {
	switch cfg.Platform {
	case "slack":
		return slack.New(slack.AdapterOpts{BotToken: cfg.Slack.BotToken, ChannelID: cfg.Channel})
	case "discord":
		return discord.New(discord.AdapterOpts{BotToken: cfg.Discord.BotToken, ChannelID: cfg.Channel})
	case "":
		return nil, fmt.Errorf("digest.platform is not configured")
	default:
		return nil, fmt.Errorf("unsupported digest platform %q", cfg.Platform)
	}
}

func allSeriesIDs(gormDB *gorm.DB) ([]string, error) {
	list, err := series.List(gormDB)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids, nil
}

func printDigests(cmd *cobra.Command, gormDB *gorm.DB, ids []string) error {
	out := cmd.OutOrStdout()
	for _, id := range ids {
		d, err := telegraph.BuildDigest(gormDB, id, nowFunc())
		if err != nil {
			return err
		}
		msg := telegraph.FormatDigest(d, "")
		fmt.Fprintln(out, msg.Text)
		for _, evt := range msg.Events {
			fmt.Fprintf(out, "  - %s\n", evt.Title)
			for _, f := range evt.Fields {
				fmt.Fprintf(out, "      %s: %s\n", f.Name, f.Value)
			}
		}
	}
	return nil
}
