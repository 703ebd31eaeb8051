package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|EXEC|EXECUTE)\b`),
	regexp.MustCompile(`--|;|/\*|\*/`),
	regexp.MustCompile(`(?i)\bOR\b.*=`),
	regexp.MustCompile(`(?i)\bAND\b.*=`),
}

// NormalizeKeyword trims and NFC-normalizes keyword and checks its length
// and content. Errors wrap types.ErrInvalidKeyword.
func NormalizeKeyword(keyword string, maxLen int) (string, error) {
	k := norm.NFC.String(strings.TrimSpace(keyword))
	n := utf8.RuneCountInString(k)
	switch {
	case n == 0:
		return "", fmt.Errorf("%w: empty", types.ErrInvalidKeyword)
	case maxLen > 0 && n > maxLen:
		return "", fmt.Errorf("%w: longer than %d characters", types.ErrInvalidKeyword, maxLen)
	}
	for _, p := range injectionPatterns {
		if p.MatchString(k) {
			return "", fmt.Errorf("%w: disallowed pattern", types.ErrInvalidKeyword)
		}
	}
	return k, nil
}

// SourceSelection is the outcome of normalizing requested source names.
type SourceSelection struct {
	Valid    []types.SourceID
	Rejected []string
}

// SelectSources maps requested names through the alias table. Duplicates
// collapse, names that are unknown or not served by supports are rejected.
// An empty request selects defaults.
func SelectSources(requested, defaults []string, supports func(types.SourceID) bool) SourceSelection {
	if len(requested) == 0 {
		requested = defaults
	}
	var sel SourceSelection
	seen := make(map[types.SourceID]bool)
	for _, name := range requested {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := types.ParseSource(name)
		if !ok || (supports != nil && !supports(id)) {
			sel.Rejected = append(sel.Rejected, name)
			continue
		}
		if !seen[id] {
			seen[id] = true
			sel.Valid = append(sel.Valid, id)
		}
	}
	if len(sel.Valid) == 0 && len(sel.Rejected) == 0 {
		sel.Valid = []types.SourceID{types.SourceNaver}
	}
	return sel
}
