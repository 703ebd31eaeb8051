package scraper

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/fetcher"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Factory creates fresh scrapers for one analysis session.
type Factory interface {
	// Supports reports whether source is implemented and enabled.
	Supports(source types.SourceID) bool

	// New creates a scraper for source. The caller must Close it.
	New(source types.SourceID) (Scraper, error)
}

// ConfigFactory builds scrapers and their fetchers from configuration.
type ConfigFactory struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewFactory creates a ConfigFactory.
func NewFactory(cfg *config.Config, logger *slog.Logger) *ConfigFactory {
	return &ConfigFactory{cfg: cfg, logger: logger}
}

// Supports implements Factory.
func (f *ConfigFactory) Supports(source types.SourceID) bool {
	switch source {
	case types.SourceNaver:
		return f.cfg.Naver.Enabled
	case types.SourceGoogle:
		return f.cfg.Google.Enabled
	default:
		return false
	}
}

// New implements Factory.
func (f *ConfigFactory) New(source types.SourceID) (Scraper, error) {
	if !f.Supports(source) {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedSource, source)
	}

	switch source {
	case types.SourceNaver:
		pages, err := f.pageFetcher()
		if err != nil {
			return nil, err
		}
		return NewNaver(f.cfg.Naver, pages, f.cfg.Analysis.MaxComments, f.logger), nil

	case types.SourceGoogle:
		feed, err := fetcher.NewHTTPFetcher(f.cfg, f.logger)
		if err != nil {
			return nil, err
		}
		var pages fetcher.Fetcher = feed
		if f.cfg.Fetcher.Engine == config.EngineBrowser {
			pages, err = f.pageFetcher()
			if err != nil {
				_ = feed.Close()
				return nil, err
			}
		}
		return NewGoogle(f.cfg.Google, feed, pages, f.logger), nil
	}
	return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedSource, source)
}

// pageFetcher creates the fetcher for article pages per the configured
// engine.
func (f *ConfigFactory) pageFetcher() (fetcher.Fetcher, error) {
	switch f.cfg.Fetcher.Engine {
	case config.EngineBrowser:
		bf, err := fetcher.NewBrowserFetcher(f.cfg, f.logger, fetcher.WithMaxPages(f.cfg.Browser.MaxPages))
		if err != nil {
			return nil, fmt.Errorf("%w: browser: %v", types.ErrNoFetcher, err)
		}
		return bf, nil
	default:
		return fetcher.NewHTTPFetcher(f.cfg, f.logger)
	}
}
