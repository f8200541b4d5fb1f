package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/singleton"
	"github.com/edachat/backend/internal/wire"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, websocket and MCP daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			listener, err := singleton.CheckAndLock(cfg.Server.HTTPPort)
			if err != nil {
				return err
			}
			if listener == nil {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "edachat is already running on", cfg.Server.HTTPPort)
				return err
			}
			_ = listener.Close()

			app, cleanup, err := wire.InitializeAll()
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer cleanup()

			if err := app.Start(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "edachat listening on", cfg.Server.HTTPPort)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			return app.Stop()
		},
	}
}
