package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/minutes/internal/api"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Minutes HTTP API",
		Long:  "Serves series, minutes, task records and carryover edit sessions as a JSON API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Server.Port
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			go func() {
				<-ctx.Done()
				fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
			}()

			return api.Start(ctx, api.StartOpts{
				DB:         gormDB,
				Port:       port,
				Out:        cmd.OutOrStdout(),
				SessionTTL: cfg.Server.SessionTTL,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfig, "path to Minutes config file")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on (default from config)")
	return cmd
}
