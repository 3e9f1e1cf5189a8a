package main

import (
	"time"

	"github.com/spf13/cobra"

	"voice-qa-go/internal/app"
	"voice-qa-go/internal/history"
	"voice-qa-go/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			return ctx.withApp(cmd.Context(), func(a *app.App) error {
				var runs server.RunStore
				if store, ok := a.History.(*history.Store); ok {
					runs = store
				}
				timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
				return server.New(a, runs, timeout, log.WithComponent("server")).ListenAndServe(cmd.Context(), addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
