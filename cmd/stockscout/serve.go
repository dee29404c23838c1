package main

import (
	"os"
	"os/signal"
	"syscall"

	srv "github.com/mohammad-safakhou/stockscout/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Address
			}
			logger := newLogger("[HTTP] ", a.cfg.General.Debug)
			logger.Printf("listening on %s", addr)
			return srv.Run(ctx, addr, srv.Options{
				Researcher: a.orch,
				Gatherer:   a.registry,
				JWTSecret:  []byte(a.cfg.Server.JWTSecret),
				Logger:     logger,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.address)")
	return cmd
}
