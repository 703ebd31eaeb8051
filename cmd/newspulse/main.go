package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/NewsPulse/internal/ai"
	"github.com/IshaanNene/NewsPulse/internal/analysis"
	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/observability"
	"github.com/IshaanNene/NewsPulse/internal/scraper"
	"github.com/IshaanNene/NewsPulse/internal/storage"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newspulse",
		Short: "NewsPulse: Korean news sentiment analysis",
		Long: `NewsPulse searches Korean news portals for a keyword, extracts the
articles and their reader comments, and reports public sentiment.

Features:
  • Naver News and Google News (RSS) sources, HTTP or headless browser fetching
  • OR queries ("삼성전자 || LG전자") with per-keyword breakdowns
  • LLM sentiment classification via OpenAI, Ollama or any compatible API
  • Comment trend analysis, keyword frequencies and overall summaries
  • JSON, JSONL, CSV, SQLite, PostgreSQL and MongoDB result storage
  • HTTP API with Prometheus metrics`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("NewsPulse %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if asYAML {
				safe := *cfg
				if safe.LLM.APIKey != "" {
					safe.LLM.APIKey = "***"
				}
				out, err := yaml.Marshal(&safe)
				if err != nil {
					return fmt.Errorf("encode config: %w", err)
				}
				fmt.Print(string(out))
				return nil
			}

			fmt.Printf("Crawl:\n")
			fmt.Printf("  Concurrency:       %d\n", cfg.Crawl.Concurrency)
			fmt.Printf("  Timeout:           %s\n", cfg.Crawl.Timeout)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Crawl.RequestTimeout)
			fmt.Printf("  Courtesy Delay:    %s\n", cfg.Crawl.CourtesyDelay)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Crawl.UserAgents))
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Engine:            %s\n", cfg.Fetcher.Engine)
			fmt.Printf("\nSources:\n")
			fmt.Printf("  Naver:             %v\n", cfg.Naver.Enabled)
			fmt.Printf("  Google:            %v\n", cfg.Google.Enabled)
			fmt.Printf("\nLLM:\n")
			fmt.Printf("  Provider:          %s\n", cfg.LLM.Provider)
			fmt.Printf("  Model:             %s\n", cfg.LLM.Model)
			fmt.Printf("  Temperature:       %.2f\n", cfg.LLM.Temperature)
			fmt.Printf("  Article Summaries: %v\n", cfg.LLM.ArticleSummaries)
			fmt.Printf("\nAnalysis:\n")
			fmt.Printf("  Default Sources:   %s\n", strings.Join(cfg.Analysis.DefaultSources, ", "))
			fmt.Printf("  Max Articles:      %d (default %d)\n", cfg.Analysis.MaxArticles, cfg.Analysis.DefaultMaxArticles)
			fmt.Printf("  Max Comments:      %d\n", cfg.Analysis.MaxComments)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			fmt.Printf("  Path:              %s\n", cfg.Storage.Path)
			fmt.Printf("\nServer:\n")
			fmt.Printf("  Port:              %d\n", cfg.Server.Port)
			fmt.Printf("  Metrics:           %v (%s)\n", cfg.Metrics.Enabled, cfg.Metrics.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the effective configuration as YAML")
	return cmd
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		out = os.Stdout
	default:
		out = &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// pipeline is the wired analysis stack shared by analyze and serve.
type pipeline struct {
	coordinator *analysis.Coordinator
	metrics     *observability.Metrics
}

func newPipeline(cfg *config.Config, logger *slog.Logger, persist bool) (*pipeline, error) {
	client, err := ai.NewClient(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}

	metrics := observability.NewMetrics(logger)
	opts := []analysis.Option{
		analysis.WithObserver(metrics),
		analysis.WithRecorder(metrics),
	}
	if persist {
		store, err := storage.New(cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("create storage: %w", err)
		}
		if store != nil {
			opts = append(opts, analysis.WithStore(store))
		}
	}

	factory := scraper.NewFactory(cfg, logger)
	return &pipeline{
		coordinator: analysis.NewCoordinator(cfg, factory, client, logger, opts...),
		metrics:     metrics,
	}, nil
}
