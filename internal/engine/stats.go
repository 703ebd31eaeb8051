package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Stats tracks crawl statistics across every ScrapeAll call of an
// Orchestrator.
type Stats struct {
	Searches          atomic.Int64
	SearchesFailed    atomic.Int64
	URLsDiscovered    atomic.Int64
	URLsDuplicate     atomic.Int64
	ArticlesExtracted atomic.Int64
	ArticlesFailed    atomic.Int64
	ActiveWorkers     atomic.Int32
	StartTime         time.Time

	mu          sync.RWMutex
	sourceStats map[types.SourceID]*SourceStats
}

// SourceStats tracks per-source statistics.
type SourceStats struct {
	Discovered int64
	Extracted  int64
	Failed     int64
	LastFetch  time.Time
}

func newStats() *Stats {
	return &Stats{
		StartTime:   time.Now(),
		sourceStats: make(map[types.SourceID]*SourceStats),
	}
}

func (s *Stats) recordSource(id types.SourceID, update func(*SourceStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sourceStats[id]
	if !ok {
		ss = &SourceStats{}
		s.sourceStats[id] = ss
	}
	update(ss)
}

// Source returns a copy of the statistics for one source.
func (s *Stats) Source(id types.SourceID) SourceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ss, ok := s.sourceStats[id]; ok {
		return *ss
	}
	return SourceStats{}
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	s.mu.RLock()
	perSource := make(map[string]any, len(s.sourceStats))
	for id, ss := range s.sourceStats {
		perSource[string(id)] = map[string]int64{
			"discovered": ss.Discovered,
			"extracted":  ss.Extracted,
			"failed":     ss.Failed,
		}
	}
	s.mu.RUnlock()

	return map[string]any{
		"searches":           s.Searches.Load(),
		"searches_failed":    s.SearchesFailed.Load(),
		"urls_discovered":    s.URLsDiscovered.Load(),
		"urls_duplicate":     s.URLsDuplicate.Load(),
		"articles_extracted": s.ArticlesExtracted.Load(),
		"articles_failed":    s.ArticlesFailed.Load(),
		"active_workers":     s.ActiveWorkers.Load(),
		"elapsed":            time.Since(s.StartTime).String(),
		"sources":            perSource,
	}
}
