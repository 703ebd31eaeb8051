package types

import "strings"

// SourceID identifies one news provider.
type SourceID string

const (
	SourceNaver  SourceID = "naver"
	SourceGoogle SourceID = "google"
)

// SupportedSources lists every source with a scraper implementation, in
// display order.
var SupportedSources = []SourceID{SourceNaver, SourceGoogle}

// Label returns the display label used in results.
func (s SourceID) Label() string {
	switch s {
	case SourceNaver:
		return "네이버"
	case SourceGoogle:
		return "구글"
	default:
		return string(s)
	}
}

// Name returns the English display name.
func (s SourceID) Name() string {
	switch s {
	case SourceNaver:
		return "Naver"
	case SourceGoogle:
		return "Google"
	default:
		return string(s)
	}
}

// SupportedSourceNames returns the English names of SupportedSources.
func SupportedSourceNames() []string {
	names := make([]string, len(SupportedSources))
	for i, s := range SupportedSources {
		names[i] = s.Name()
	}
	return names
}

var sourceAliases = map[string]SourceID{
	"네이버":    SourceNaver,
	"naver":  SourceNaver,
	"구글":     SourceGoogle,
	"google": SourceGoogle,
}

// knownUnsupported are outlets users commonly request that have no scraper.
var knownUnsupported = map[string]bool{
	"다음": true, "daum": true, "kbs": true, "sbs": true,
	"mbc": true, "ytn": true, "jtbc": true, "연합뉴스": true,
}

// ParseSource maps a user supplied source name (Korean or English, any case)
// to a SourceID. The boolean is false for unknown and unsupported names.
func ParseSource(name string) (SourceID, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if knownUnsupported[key] {
		return "", false
	}
	id, ok := sourceAliases[key]
	return id, ok
}
