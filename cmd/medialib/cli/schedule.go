package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"medialib/internal/metrics"
	"medialib/internal/scheduler"
)

func newScheduleCommand(a *app) *cobra.Command {
	var (
		metricsAddr string
		runNow      bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the configured clean ups on clean_ups.schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, err := a.open(ctx)
			if err != nil {
				return err
			}

			cfg := a.cfg.CleanUps
			cfg.Enabled = true
			sched := scheduler.New(services.Reaper, cfg, a.registry, a.logger)

			if runNow {
				if _, err := sched.RunOnce(ctx); err != nil {
					return err
				}
			}
			if err := sched.Start(); err != nil {
				return err
			}
			a.logger.Info("next clean up", "at", sched.Next())

			addr := metricsAddr
			if addr == "" {
				addr = a.cfg.Metrics.Addr
			}

			g, gctx := errgroup.WithContext(ctx)
			if addr != "" {
				server := metrics.NewServer(addr, a.registry, a.logger)
				g.Go(func() error { return server.Start(gctx) })
			}
			g.Go(func() error {
				<-gctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				return sched.Stop(stopCtx)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics listen address (metrics.addr when empty)")
	cmd.Flags().BoolVar(&runNow, "now", false, "run the clean up once before scheduling")
	return cmd
}
