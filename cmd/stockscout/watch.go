package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohammad-safakhou/stockscout/internal/agent/core"
	"github.com/mohammad-safakhou/stockscout/internal/queue/streams"
	"github.com/mohammad-safakhou/stockscout/internal/worker"
	"github.com/spf13/cobra"
)

func watchCMD(cfgPath *string) *cobra.Command {
	var (
		spec          string
		immediate     bool
		maxLinks      int
		maxSubqueries int
	)
	cmd := &cobra.Command{
		Use:   "watch [topic]",
		Short: "Re-run research for a topic on a cron schedule, one JSON report per line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if spec == "" {
				spec = a.cfg.Watch.Cron
			}
			req := core.Request{Topic: strings.Join(args, " "), MaxLinksPerQuery: maxLinks, MaxSubqueries: maxSubqueries}
			opts := worker.Options{Redis: a.rdb, Logger: newLogger("[WATCH] ", a.cfg.General.Debug)}
			if a.rdb != nil && a.cfg.Watch.Stream != "" {
				pub := streams.NewPublisher(a.rdb, a.cfg.Watch.Stream, a.cfg.Watch.StreamMaxLen)
				opts.Logger.Printf("publishing reports to stream %s", pub.Stream())
				opts.Publisher = pub
			}
			s, err := worker.NewScheduler(spec, req, a.orch, cmd.OutOrStdout(), opts)
			if err != nil {
				return err
			}
			return s.Start(ctx, immediate)
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", "cron schedule (default watch.cron)")
	cmd.Flags().BoolVar(&immediate, "now", false, "run once immediately before waiting for the schedule")
	cmd.Flags().IntVar(&maxLinks, "max-links", 0, "links visited per subquery")
	cmd.Flags().IntVar(&maxSubqueries, "max-subqueries", 0, "subqueries generated")
	return cmd
}
