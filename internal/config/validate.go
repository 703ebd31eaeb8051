package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Crawl.Concurrency < 1 {
		return fmt.Errorf("crawl.concurrency must be >= 1, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Crawl.Concurrency > 64 {
		return fmt.Errorf("crawl.concurrency must be <= 64, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Crawl.Timeout <= 0 {
		return fmt.Errorf("crawl.timeout must be > 0")
	}
	if cfg.Crawl.RequestTimeout <= 0 {
		return fmt.Errorf("crawl.request_timeout must be > 0")
	}
	if cfg.Crawl.CourtesyDelay < 0 {
		return fmt.Errorf("crawl.courtesy_delay must be >= 0")
	}
	if cfg.Crawl.MaxRetries < 0 {
		return fmt.Errorf("crawl.max_retries must be >= 0, got %d", cfg.Crawl.MaxRetries)
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Engine != EngineHTTP && cfg.Fetcher.Engine != EngineBrowser {
		return fmt.Errorf("fetcher.engine must be 'http' or 'browser', got %q", cfg.Fetcher.Engine)
	}
	if cfg.Fetcher.Engine == EngineBrowser && cfg.Browser.MaxPages < 1 {
		return fmt.Errorf("browser.max_pages must be >= 1, got %d", cfg.Browser.MaxPages)
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	if !cfg.Naver.Enabled && !cfg.Google.Enabled {
		return fmt.Errorf("at least one of naver.enabled or google.enabled must be true")
	}
	for name, sc := range map[string]SourceConfig{"naver": cfg.Naver, "google": cfg.Google} {
		if !sc.Enabled {
			continue
		}
		if err := ValidateURL(sc.SearchURL); err != nil {
			return fmt.Errorf("%s.search_url: %w", name, err)
		}
		if sc.MinTitleLength < 0 || sc.MinContentLength < 0 {
			return fmt.Errorf("%s minimum lengths must be >= 0", name)
		}
	}

	switch cfg.LLM.Provider {
	case ProviderOpenAI, ProviderOllama, ProviderCustom, ProviderLocal:
	default:
		return fmt.Errorf("llm.provider must be openai/ollama/custom/local, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Provider != ProviderLocal && cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required for provider %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2], got %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.RequestsPerSec < 0 {
		return fmt.Errorf("llm.requests_per_sec must be >= 0")
	}

	if cfg.Analysis.MaxKeywordLength < 1 {
		return fmt.Errorf("analysis.max_keyword_length must be >= 1")
	}
	if cfg.Analysis.ORMinPerKeyword < 1 {
		return fmt.Errorf("analysis.or_min_per_keyword must be >= 1, got %d", cfg.Analysis.ORMinPerKeyword)
	}
	if cfg.Analysis.MaxComments < 0 {
		return fmt.Errorf("analysis.max_comments must be >= 0")
	}
	if cfg.Analysis.ScoringConcurrency < 1 {
		return fmt.Errorf("analysis.scoring_concurrency must be >= 1")
	}
	if cfg.Analysis.MaxArticles < 1 {
		return fmt.Errorf("analysis.max_articles must be >= 1")
	}

	validStorageTypes := map[string]bool{
		"none": true, "json": true, "jsonl": true, "csv": true, "sqlite": true, "postgres": true, "mongodb": true,
	}
	for _, kind := range strings.Split(cfg.Storage.Type, ",") {
		kind = strings.ToLower(strings.TrimSpace(kind))
		if kind == "" {
			continue
		}
		if !validStorageTypes[kind] {
			return fmt.Errorf("storage.type %q is not supported (valid: none, json, jsonl, csv, sqlite, postgres, mongodb)", kind)
		}
		if kind == "postgres" && cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres")
		}
		if kind == "mongodb" && cfg.Storage.URI == "" {
			return fmt.Errorf("storage.uri is required for mongodb")
		}
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
