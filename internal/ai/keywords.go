package ai

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// TopKeywords counts whitespace separated words across texts and returns
// the n most frequent. Single-rune words and every exclude word are
// skipped. Equal frequencies keep first-seen order.
func TopKeywords(texts []string, exclude []string, n int) []types.KeywordFrequency {
	skip := make(map[string]struct{}, len(exclude))
	for _, w := range exclude {
		// A sub-keyword may itself be several words ("삼성 전자").
		for _, part := range strings.Fields(w) {
			skip[strings.TrimFunc(part, isWordEdge)] = struct{}{}
		}
	}
	counts := make(map[string]int)
	var order []string

	for _, text := range texts {
		for _, word := range strings.Fields(text) {
			word = strings.TrimFunc(word, isWordEdge)
			if utf8.RuneCountInString(word) <= 1 {
				continue
			}
			if _, excluded := skip[word]; excluded {
				continue
			}
			if _, ok := counts[word]; !ok {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if n > 0 && len(order) > n {
		order = order[:n]
	}

	out := make([]types.KeywordFrequency, len(order))
	for i, w := range order {
		out[i] = types.KeywordFrequency{Keyword: w, Frequency: counts[w]}
	}
	return out
}

// Topics returns the words of TopKeywords.
func Topics(texts []string, exclude []string, n int) []string {
	freq := TopKeywords(texts, exclude, n)
	topics := make([]string, len(freq))
	for i, f := range freq {
		topics[i] = f.Keyword
	}
	return topics
}

// isWordEdge trims punctuation and quotes around a word.
func isWordEdge(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
