package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/budgetsolve/pkg/api"
	"github.com/matzehuels/budgetsolve/pkg/observability"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noCache   bool
		noMetrics bool
		tracing   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on --addr (default from server.addr in the config).

Routes: GET /health, POST /solve, POST /compare, GET /results/{id},
GET /runs and GET /metrics. With --trace, request spans are written to
stderr as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Server.Addr
			}

			runner, err := c.newRunner(ctx, runnerOpts{noCache: noCache})
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := api.Options{
				Logger:       c.Logger,
				MaxBodyBytes: c.cfg.Server.MaxBodyBytes,
				Timeout:      c.cfg.Solver.Timeout.Std(),
			}
			if !noMetrics {
				metrics := observability.NewMetrics()
				observability.SetSolveHooks(metrics)
				observability.SetCacheHooks(metrics)
				observability.SetHTTPHooks(metrics)
				defer observability.Reset()
				opts.Metrics = metrics.Handler()
			}

			if tracing {
				shutdown, err := observability.InitTracing(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := shutdown(sctx); err != nil {
						c.Logger.Warn("flush spans", "err", err)
					}
				}()
			}

			c.Logger.Debug("starting server", "addr", addr, "store", c.cfg.Store.Backend, "cache", c.cfg.Cache.Backend)
			srv := api.New(runner, opts)
			return srv.ListenAndServe(ctx, addr, c.cfg.Server.ReadTimeout.Std(), c.cfg.Server.WriteTimeout.Std())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")
	cmd.Flags().BoolVar(&tracing, "trace", false, "write OpenTelemetry spans to stderr")

	return cmd
}
