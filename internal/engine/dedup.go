package engine

import (
	"sync"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Deduplicator remembers which source first claimed each article URL
// during one crawl. URLs are compared in canonical form, so the same story
// reached through Naver and Google Search is extracted once.
type Deduplicator struct {
	mu     sync.Mutex
	owners map[string]types.SourceID
}

func NewDeduplicator(sizeHint int) *Deduplicator {
	return &Deduplicator{owners: make(map[string]types.SourceID, sizeHint)}
}

// Claim records rawURL for source. It reports false when any source
// already claimed the same canonical URL.
func (d *Deduplicator) Claim(source types.SourceID, rawURL string) bool {
	key := types.CanonicalURL(rawURL)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, taken := d.owners[key]; taken {
		return false
	}
	d.owners[key] = source
	return true
}

// Owner returns the source that claimed rawURL.
func (d *Deduplicator) Owner(rawURL string) (types.SourceID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	src, ok := d.owners[types.CanonicalURL(rawURL)]
	return src, ok
}

func (d *Deduplicator) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.owners)
}
