package ai

import (
	"encoding/json"
	"strings"
)

// ParseOrDefault decodes the JSON object embedded in a model reply into a
// T. Code fences are stripped, then the first balanced {...} object is
// decoded. On any failure def is returned with ok=false.
func ParseOrDefault[T any](reply string, def T) (T, bool) {
	obj, found := extractJSON(stripFences(reply))
	if !found {
		return def, false
	}
	var out T
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return def, false
	}
	return out, true
}

// stripFences removes a surrounding ```json ... ``` block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		rest = strings.TrimPrefix(rest, "JSON")
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	return s
}

// extractJSON finds the first balanced JSON object in s. Braces inside
// string literals are ignored.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
