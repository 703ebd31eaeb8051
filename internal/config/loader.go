package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("NEWSPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The provider SDK convention is honored when no prefixed key is set.
	_ = v.BindEnv("llm.api_key", "NEWSPULSE_LLM_API_KEY", "OPENAI_API_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("newspulse")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".newspulse"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so that every key can be
// overridden from the environment.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("crawl.concurrency", cfg.Crawl.Concurrency)
	v.SetDefault("crawl.timeout", cfg.Crawl.Timeout)
	v.SetDefault("crawl.request_timeout", cfg.Crawl.RequestTimeout)
	v.SetDefault("crawl.courtesy_delay", cfg.Crawl.CourtesyDelay)
	v.SetDefault("crawl.max_retries", cfg.Crawl.MaxRetries)
	v.SetDefault("crawl.user_agents", cfg.Crawl.UserAgents)
	v.SetDefault("crawl.accept_language", cfg.Crawl.AcceptLanguage)

	v.SetDefault("fetcher.engine", string(cfg.Fetcher.Engine))
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.max_pages", cfg.Browser.MaxPages)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.block_resources", cfg.Browser.BlockResources)
	v.SetDefault("browser.locale", cfg.Browser.Locale)
	v.SetDefault("browser.window_width", cfg.Browser.WindowWidth)
	v.SetDefault("browser.window_height", cfg.Browser.WindowHeight)
	v.SetDefault("browser.bin_path", cfg.Browser.BinPath)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)

	setSourceDefaults(v, "naver", cfg.Naver)
	setSourceDefaults(v, "google", cfg.Google)

	v.SetDefault("llm.provider", string(cfg.LLM.Provider))
	v.SetDefault("llm.model", cfg.LLM.Model)
	v.SetDefault("llm.endpoint", cfg.LLM.Endpoint)
	v.SetDefault("llm.api_key", cfg.LLM.APIKey)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)
	v.SetDefault("llm.sentiment_tokens", cfg.LLM.SentimentTokens)
	v.SetDefault("llm.trend_tokens", cfg.LLM.TrendTokens)
	v.SetDefault("llm.summary_tokens", cfg.LLM.SummaryTokens)
	v.SetDefault("llm.requests_per_sec", cfg.LLM.RequestsPerSec)
	v.SetDefault("llm.timeout", cfg.LLM.Timeout)
	v.SetDefault("llm.max_retries", cfg.LLM.MaxRetries)
	v.SetDefault("llm.article_summaries", cfg.LLM.ArticleSummaries)

	v.SetDefault("analysis.max_keyword_length", cfg.Analysis.MaxKeywordLength)
	v.SetDefault("analysis.default_sources", cfg.Analysis.DefaultSources)
	v.SetDefault("analysis.default_max_articles", cfg.Analysis.DefaultMaxArticles)
	v.SetDefault("analysis.max_articles", cfg.Analysis.MaxArticles)
	v.SetDefault("analysis.max_comments", cfg.Analysis.MaxComments)
	v.SetDefault("analysis.article_text_limit", cfg.Analysis.ArticleTextLimit)
	v.SetDefault("analysis.or_min_per_keyword", cfg.Analysis.ORMinPerKeyword)
	v.SetDefault("analysis.top_keywords", cfg.Analysis.TopKeywords)
	v.SetDefault("analysis.trend_comment_limit", cfg.Analysis.TrendCommentLimit)
	v.SetDefault("analysis.summary_top_k", cfg.Analysis.SummaryTopK)
	v.SetDefault("analysis.scoring_concurrency", cfg.Analysis.ScoringConcurrency)
	v.SetDefault("analysis.redact_pii", cfg.Analysis.RedactPII)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("storage.uri", cfg.Storage.URI)
	v.SetDefault("storage.database", cfg.Storage.Database)
	v.SetDefault("storage.collection", cfg.Storage.Collection)

	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.sessions_kept", cfg.Server.SessionsKept)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

func setSourceDefaults(v *viper.Viper, prefix string, sc SourceConfig) {
	v.SetDefault(prefix+".enabled", sc.Enabled)
	v.SetDefault(prefix+".search_url", sc.SearchURL)
	v.SetDefault(prefix+".more_comments", sc.MoreCommentsSel)
	v.SetDefault(prefix+".more_clicks", sc.MoreClicks)
	v.SetDefault(prefix+".min_title_length", sc.MinTitleLength)
	v.SetDefault(prefix+".min_content_length", sc.MinContentLength)
	v.SetDefault(prefix+".max_content_length", sc.MaxContentLength)
	v.SetDefault(prefix+".max_images", sc.MaxImages)
	v.SetDefault(prefix+".max_tables", sc.MaxTables)
	v.SetDefault(prefix+".resolve_redirects", sc.ResolveRedirects)
}
