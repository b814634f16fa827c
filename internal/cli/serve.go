package cli

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/internal/server"
	"github.com/matzehuels/pedigree/pkg/observability"
)

// serveCommand runs the HTTP API until the context is cancelled.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pedigree HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, b *backend) error {
				if addr == "" {
					addr = b.cfg.Server.Addr
				}
				srv := server.New(b.svc, c.Logger)
				if metrics || b.cfg.Server.Metrics {
					h, err := c.metricsHandler()
					if err != nil {
						return err
					}
					srv.WithMetrics(h)
				}
				return srv.ListenAndServe(ctx, addr, b.cfg.Server.ReadTimeout, b.cfg.Server.WriteTimeout)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "expose Prometheus metrics at /metrics")
	return cmd
}

// metricsHandler registers the Prometheus hooks, keeping the log hooks
// active when the logger is at debug level.
func (c *CLI) metricsHandler() (http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	prom, err := observability.NewPrometheusHooks(reg)
	if err != nil {
		return nil, err
	}
	hooks := observability.Fanout{prom}
	if c.Logger.GetLevel() <= LogDebug {
		hooks = append(hooks, observability.NewLogHooks(c.Logger))
	}
	observability.SetAll(hooks)

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), nil
}
