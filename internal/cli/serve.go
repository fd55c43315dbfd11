package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cadpage/pkg/cache"
	"github.com/matzehuels/cadpage/pkg/observability"
	"github.com/matzehuels/cadpage/pkg/pipeline"
	"github.com/matzehuels/cadpage/pkg/server"
)

// serveKeyPrefix keeps server cache entries apart from CLI entries when both
// share a backend.
const serveKeyPrefix = "serve:"

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export API over HTTP",
		Long: `Serve the export API over HTTP.

Routes:
  GET  /healthz         build information
  GET  /metrics         Prometheus metrics
  GET  /v1/sample.png   preview of the welcome drawing (?width=&height=)
  POST /v1/plan         page plan of the posted drawing
  POST /v1/export       pages of the posted drawing (?format=&layout=&paper=)

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache, cache.NewScopedKeyer(cache.NewDefaultKeyer(), serveKeyPrefix))
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observability.NewPrometheus(reg).Install()
	defer observability.Reset()

	srv := server.New(runner, c.Logger)
	srv.Gatherer = reg
	srv.Defaults = c.serverDefaults()

	printInfo("Serving on %s", StyleHighlight.Render(addr))
	printDetail("Cache: %s", c.Config.Cache.Backend)
	return srv.ListenAndServe(ctx, addr)
}

// serverDefaults seeds request options from the configuration file.
func (c *CLI) serverDefaults() pipeline.Options {
	cfg := c.Config
	margin := cfg.Paper.Margin
	return pipeline.Options{
		Paper:   cfg.PaperSpecs(),
		Margin:  &margin,
		Formats: cfg.Export.Formats,
		Theme:   cfg.Export.Theme,
		Workers: cfg.Export.Workers,
	}
}
