package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// selectCSS evaluates a CSS candidate. Selectors that fail to compile are
// skipped.
func (e *Extractor) selectCSS(doc *goquery.Document, selector string) *goquery.Selection {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		e.logger.Debug("invalid css selector", "selector", selector, "error", err)
		return nil
	}
	return doc.FindMatcher(matcher)
}

// Links returns the absolute http(s) href of every element in sel, resolved
// against baseURL, deduplicated and in document order.
func Links(sel *goquery.Selection, baseURL string) []string {
	if sel == nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	sel.Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		if abs := ResolveURL(base, href); abs != "" && !seen[abs] {
			seen[abs] = true
			links = append(links, abs)
		}
	})

	return links
}

// ResolveURL makes href absolute against base. Anchors, javascript:,
// mailto:, tel:, data: and non-http results resolve to "".
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	parsedHref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := parsedHref
	if base != nil {
		resolved = base.ResolveReference(parsedHref)
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}
