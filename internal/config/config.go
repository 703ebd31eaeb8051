package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for NewsPulse.
type Config struct {
	Crawl    CrawlConfig    `mapstructure:"crawl"    yaml:"crawl"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Browser  BrowserConfig  `mapstructure:"browser"  yaml:"browser"`
	Proxy    ProxyConfig    `mapstructure:"proxy"    yaml:"proxy"`
	Naver    SourceConfig   `mapstructure:"naver"    yaml:"naver"`
	Google   SourceConfig   `mapstructure:"google"   yaml:"google"`
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Pricing  PricingConfig  `mapstructure:"pricing"  yaml:"pricing"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// CrawlConfig controls the crawl orchestrator.
type CrawlConfig struct {
	Concurrency    int           `mapstructure:"concurrency"     yaml:"concurrency"`
	Timeout        time.Duration `mapstructure:"timeout"         yaml:"timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	CourtesyDelay  time.Duration `mapstructure:"courtesy_delay"  yaml:"courtesy_delay"`
	MaxRetries     int           `mapstructure:"max_retries"     yaml:"max_retries"`
	UserAgents     []string      `mapstructure:"user_agents"     yaml:"user_agents"`
	AcceptLanguage string        `mapstructure:"accept_language" yaml:"accept_language"`
}

// FetcherEngine selects the page fetching implementation.
type FetcherEngine string

const (
	EngineHTTP    FetcherEngine = "http"
	EngineBrowser FetcherEngine = "browser"
)

// FetcherConfig controls the HTTP fetcher.
type FetcherConfig struct {
	Engine          FetcherEngine `mapstructure:"engine"            yaml:"engine"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// BrowserConfig controls the headless browser fetcher.
type BrowserConfig struct {
	Headless       bool     `mapstructure:"headless"        yaml:"headless"`
	MaxPages       int      `mapstructure:"max_pages"       yaml:"max_pages"`
	Stealth        bool     `mapstructure:"stealth"         yaml:"stealth"`
	BlockResources []string `mapstructure:"block_resources" yaml:"block_resources"`
	Locale         string   `mapstructure:"locale"          yaml:"locale"`
	WindowWidth    int      `mapstructure:"window_width"    yaml:"window_width"`
	WindowHeight   int      `mapstructure:"window_height"   yaml:"window_height"`
	BinPath        string   `mapstructure:"bin_path"        yaml:"bin_path"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"  yaml:"enabled"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"`
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
}

// SourceConfig holds per-source scraper settings. Empty selector lists fall
// back to the built-in candidates for that source.
type SourceConfig struct {
	Enabled          bool     `mapstructure:"enabled"            yaml:"enabled"`
	SearchURL        string   `mapstructure:"search_url"         yaml:"search_url"`
	LinkSelectors    []string `mapstructure:"link_selectors"     yaml:"link_selectors"`
	TitleSelectors   []string `mapstructure:"title_selectors"    yaml:"title_selectors"`
	ContentSelectors []string `mapstructure:"content_selectors"  yaml:"content_selectors"`
	CommentSelectors []string `mapstructure:"comment_selectors"  yaml:"comment_selectors"`
	MoreCommentsSel  string   `mapstructure:"more_comments"      yaml:"more_comments"`
	MoreClicks       int      `mapstructure:"more_clicks"        yaml:"more_clicks"`
	MinTitleLength   int      `mapstructure:"min_title_length"   yaml:"min_title_length"`
	MinContentLength int      `mapstructure:"min_content_length" yaml:"min_content_length"`
	MaxContentLength int      `mapstructure:"max_content_length" yaml:"max_content_length"`
	MaxImages        int      `mapstructure:"max_images"         yaml:"max_images"`
	MaxTables        int      `mapstructure:"max_tables"         yaml:"max_tables"`
	ResolveRedirects bool     `mapstructure:"resolve_redirects"  yaml:"resolve_redirects"`
}

// LLMProvider selects the language model backend.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderOllama LLMProvider = "ollama"
	ProviderCustom LLMProvider = "custom"
	ProviderLocal  LLMProvider = "local"
)

// LLMConfig controls the language model client.
type LLMConfig struct {
	Provider         LLMProvider   `mapstructure:"provider"           yaml:"provider"`
	Model            string        `mapstructure:"model"              yaml:"model"`
	Endpoint         string        `mapstructure:"endpoint"           yaml:"endpoint"`
	APIKey           string        `mapstructure:"api_key"            yaml:"api_key"`
	Temperature      float64       `mapstructure:"temperature"        yaml:"temperature"`
	SentimentTokens  int           `mapstructure:"sentiment_tokens"   yaml:"sentiment_tokens"`
	TrendTokens      int           `mapstructure:"trend_tokens"       yaml:"trend_tokens"`
	SummaryTokens    int           `mapstructure:"summary_tokens"     yaml:"summary_tokens"`
	RequestsPerSec   float64       `mapstructure:"requests_per_sec"   yaml:"requests_per_sec"`
	Timeout          time.Duration `mapstructure:"timeout"            yaml:"timeout"`
	MaxRetries       int           `mapstructure:"max_retries"        yaml:"max_retries"`
	ArticleSummaries bool          `mapstructure:"article_summaries"  yaml:"article_summaries"`
}

// AnalysisConfig controls the session coordinator.
type AnalysisConfig struct {
	MaxKeywordLength   int      `mapstructure:"max_keyword_length"    yaml:"max_keyword_length"`
	DefaultSources     []string `mapstructure:"default_sources"       yaml:"default_sources"`
	DefaultMaxArticles int      `mapstructure:"default_max_articles"  yaml:"default_max_articles"`
	MaxArticles        int      `mapstructure:"max_articles"          yaml:"max_articles"`
	MaxComments        int      `mapstructure:"max_comments"          yaml:"max_comments"`
	ArticleTextLimit   int      `mapstructure:"article_text_limit"    yaml:"article_text_limit"`
	ORMinPerKeyword    int      `mapstructure:"or_min_per_keyword"    yaml:"or_min_per_keyword"`
	TopKeywords        int      `mapstructure:"top_keywords"          yaml:"top_keywords"`
	TrendCommentLimit  int      `mapstructure:"trend_comment_limit"   yaml:"trend_comment_limit"`
	SummaryTopK        int      `mapstructure:"summary_top_k"         yaml:"summary_top_k"`
	ScoringConcurrency int      `mapstructure:"scoring_concurrency"   yaml:"scoring_concurrency"`
	RedactPII          bool     `mapstructure:"redact_pii"            yaml:"redact_pii"`
}

// ModelPrice is the USD price per 1K tokens for one model.
type ModelPrice struct {
	Prompt     float64 `mapstructure:"prompt"     yaml:"prompt"`
	Completion float64 `mapstructure:"completion" yaml:"completion"`
}

// PricingConfig maps model names to token prices.
type PricingConfig struct {
	Models map[string]ModelPrice `mapstructure:"models" yaml:"models"`
}

// StorageConfig controls where finished analysis results are written.
type StorageConfig struct {
	Type       string `mapstructure:"type"       yaml:"type"`
	Path       string `mapstructure:"path"       yaml:"path"`
	DSN        string `mapstructure:"dsn"        yaml:"dsn"`
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port         int           `mapstructure:"port"          yaml:"port"`
	SessionsKept int           `mapstructure:"sessions_kept" yaml:"sessions_kept"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  yaml:"read_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level      string `mapstructure:"level"        yaml:"level"`
	Format     string `mapstructure:"format"       yaml:"format"`
	Output     string `mapstructure:"output"       yaml:"output"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"  yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"  yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			Concurrency:    5,
			Timeout:        120 * time.Second,
			RequestTimeout: 30 * time.Second,
			CourtesyDelay:  1 * time.Second,
			MaxRetries:     3,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			},
			AcceptLanguage: "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
		},
		Fetcher: FetcherConfig{
			Engine:          EngineHTTP,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		Browser: BrowserConfig{
			Headless:       true,
			MaxPages:       5,
			Stealth:        true,
			BlockResources: []string{"image", "font", "media"},
			Locale:         "ko-KR",
			WindowWidth:    1920,
			WindowHeight:   1080,
		},
		Proxy: ProxyConfig{
			Enabled:  false,
			Rotation: "round_robin",
		},
		Naver: SourceConfig{
			Enabled:          true,
			SearchURL:        "https://search.naver.com/search.naver",
			MoreCommentsSel:  ".u_cbox_btn_more",
			MoreClicks:       3,
			MinTitleLength:   10,
			MinContentLength: 50,
			MaxContentLength: 3000,
			MaxImages:        10,
			MaxTables:        5,
		},
		Google: SourceConfig{
			Enabled:          true,
			SearchURL:        "https://news.google.com/rss/search",
			MinTitleLength:   10,
			MinContentLength: 50,
			MaxContentLength: 3000,
			MaxImages:        10,
			MaxTables:        5,
			ResolveRedirects: true,
		},
		LLM: LLMConfig{
			Provider:         ProviderOpenAI,
			Model:            "gpt-3.5-turbo",
			Endpoint:         "https://api.openai.com/v1",
			Temperature:      0.3,
			SentimentTokens:  500,
			TrendTokens:      800,
			SummaryTokens:    300,
			RequestsPerSec:   5,
			Timeout:          60 * time.Second,
			MaxRetries:       2,
			ArticleSummaries: true,
		},
		Analysis: AnalysisConfig{
			MaxKeywordLength:   100,
			DefaultSources:     []string{"naver"},
			DefaultMaxArticles: 5,
			MaxArticles:        50,
			MaxComments:        10,
			ArticleTextLimit:   500,
			ORMinPerKeyword:    3,
			TopKeywords:        10,
			TrendCommentLimit:  20,
			SummaryTopK:        10,
			ScoringConcurrency: 4,
		},
		Pricing: PricingConfig{
			Models: map[string]ModelPrice{
				"gpt-3.5-turbo": {Prompt: 0.0005, Completion: 0.0015},
				"gpt-4o-mini":   {Prompt: 0.00015, Completion: 0.0006},
				"gpt-4o":        {Prompt: 0.0025, Completion: 0.01},
				"gpt-4-turbo":   {Prompt: 0.01, Completion: 0.03},
			},
		},
		Storage: StorageConfig{
			Type:       "none",
			Path:       "./output/results.jsonl",
			Database:   "newspulse",
			Collection: "analysis_results",
		},
		Server: ServerConfig{
			Port:         8000,
			SessionsKept: 50,
			ReadTimeout:  15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
