package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/bobil/internal/config"
	"github.com/muurk/bobil/internal/coordinator"
	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/logging"
	"github.com/muurk/bobil/internal/server"
)

// waitInitialInterval is the first retry delay while waiting for the heater
var waitInitialInterval = backoff.DefaultInitialInterval

func newServeCmd(a *app) *cobra.Command {
	var (
		listen          string
		interval        time.Duration
		wait            time.Duration
		breakerFailures uint32
		breakerCooldown time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Long: `Poll the heater in the background and serve its state over HTTP.

Endpoints:
  GET  /healthz                liveness
  GET  /api/status             last published snapshot (JSON)
  POST /api/refresh            refresh now and return the snapshot
  POST /api/commands/{name}    send a command, e.g. air_on or temp_up
  GET  /ws                     WebSocket stream of snapshots
  GET  /metrics                Prometheus metrics

Communication errors are masked with the last good snapshot, so clients keep
seeing data while the heater is briefly unreachable. After --breaker-failures
consecutive communication errors polling pauses for --breaker-cooldown.`,
		Example: `  # Serve on the configured address
  bobil serve --host 192.168.4.1

  # Wait up to two minutes for the heater to come up first
  bobil serve --wait 2m --listen 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.LogLevel == "" {
				if err := logging.Initialize("info"); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			if flags.Changed("listen") {
				a.cfg.Server.Listen = listen
			}
			if flags.Changed("interval") {
				if interval <= 0 {
					return fmt.Errorf("--interval must be positive, got %s", interval)
				}
				a.cfg.Device.PollInterval = config.Duration(interval)
			}

			var breaker *coordinator.BreakerSettings
			if breakerFailures > 0 {
				breaker = &coordinator.BreakerSettings{Failures: breakerFailures, Cooldown: breakerCooldown}
			}
			st, err := a.newStack(breaker)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if wait > 0 {
				if err := waitForHeater(ctx, st.client, wait); err != nil {
					a.printer().PrintDeviceError(err)
					return fmt.Errorf("heater not reachable after %s: %w", wait, err)
				}
			}

			srv, err := server.New(&server.Config{
				Listen:   a.cfg.Server.Listen,
				Status:   st.coordinator,
				Commands: st.controller,
				Metrics:  st.metrics.Handler(),
			})
			if err != nil {
				return err
			}

			go st.coordinator.Run(ctx, a.cfg.Device.PollInterval.Std())

			logging.Info("Serving heater",
				zap.String("host", st.client.Host),
				zap.String("listen", a.cfg.Server.Listen),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", config.DefaultListen, "Address for the HTTP server")
	cmd.Flags().DurationVar(&interval, "interval", config.DefaultPollInterval, "How often to poll the heater")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait up to this long for the heater before serving (0 disables)")
	cmd.Flags().Uint32Var(&breakerFailures, "breaker-failures", 5, "Consecutive communication errors before polling pauses (0 disables)")
	cmd.Flags().DurationVar(&breakerCooldown, "breaker-cooldown", 2*time.Minute, "How long polling pauses once the breaker opens")
	return cmd
}

// waitForHeater probes the heater with exponential backoff until it answers,
// maxWait elapses or ctx ends. API errors stop the retries immediately.
func waitForHeater(ctx context.Context, client *heater.Client, maxWait time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = waitInitialInterval
	bo.MaxElapsedTime = maxWait

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		if _, err := client.Probe(ctx); err != nil {
			if heater.IsAPIError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		logging.Warn("Heater not reachable yet, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", next),
			zap.Error(err),
		)
	})
}
