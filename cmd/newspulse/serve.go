package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsPulse/internal/api"
	"github.com/IshaanNene/NewsPulse/internal/dashboard"
)

var servePort int

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis API",
		Long: `Serve the analysis pipeline over HTTP.

Endpoints:
  POST /analyze       {"keyword": "...", "sources": ["naver"], "max_articles": 5}
  GET  /              live dashboard
  GET  /health
  GET  /api/sessions  most recent session summaries
  GET  /api/stats     crawl statistics
  GET  /metrics       Prometheus metrics`,
		RunE: runServe,
	}
	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default: config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	logger := setupLogger(cfg.Logging)

	p, err := newPipeline(cfg, logger, true)
	if err != nil {
		return err
	}
	defer p.coordinator.Close()

	opts := []api.Option{api.WithDashboard(dashboard.Handler())}
	if cfg.Metrics.Enabled {
		opts = append(opts, api.WithMetrics(p.metrics))
	}
	opts = append(opts, api.WithStats(func() any {
		return map[string]any{
			"crawl":    p.coordinator.Orchestrator().Stats().Snapshot(),
			"sessions": p.metrics.Snapshot(),
		}
	}))
	server := api.NewServer(cfg.Server, cfg.Metrics.Path, p.coordinator, logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("newspulse serving", "port", cfg.Server.Port, "llm", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return server.Start(ctx)
}
