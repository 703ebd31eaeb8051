package parser

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageMeta is the article metadata a page declares about itself through
// JSON-LD, OpenGraph and standard meta tags.
type PageMeta struct {
	Title       string
	OGTitle     string
	Description string
	SiteName    string
	Canonical   string
	PublishedAt *time.Time
	JSONLD      []map[string]any
}

// BestTitle returns the OpenGraph title, falling back to the document
// title without its publisher suffix.
func (m PageMeta) BestTitle() string {
	if m.OGTitle != "" {
		return m.OGTitle
	}
	return StripSiteSuffix(m.Title)
}

var publishedMetaSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[property="og:article:published_time"]`,
	`meta[name="article:published_time"]`,
	`meta[itemprop="datePublished"]`,
	`meta[name="pubdate"]`,
	`meta[name="date"]`,
}

// Meta extracts PageMeta from doc.
func (e *Extractor) Meta(doc *goquery.Document) PageMeta {
	meta := PageMeta{
		Title:  CleanText(doc.Find("title").First().Text()),
		JSONLD: extractJSONLD(doc),
	}

	// OpenGraph
	doc.Find(`meta[property^="og:"]`).Each(func(i int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		content = CleanText(content)
		switch property {
		case "og:title":
			meta.OGTitle = content
		case "og:description":
			if meta.Description == "" {
				meta.Description = content
			}
		case "og:site_name":
			meta.SiteName = content
		}
	})

	// Plain meta tags fill what OpenGraph left empty
	if meta.Description == "" {
		if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			meta.Description = CleanText(content)
		}
	}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		meta.Canonical = strings.TrimSpace(canonical)
	}

	// Published time: JSON-LD first, then meta tags, then <time>
	for _, obj := range meta.JSONLD {
		if raw, ok := obj["datePublished"].(string); ok {
			if t, ok := ParseTime(raw); ok {
				meta.PublishedAt = &t
				break
			}
		}
	}
	if meta.PublishedAt == nil {
		for _, selector := range publishedMetaSelectors {
			content, ok := doc.Find(selector).Attr("content")
			if !ok {
				continue
			}
			if t, ok := ParseTime(content); ok {
				meta.PublishedAt = &t
				break
			}
		}
	}
	if meta.PublishedAt == nil {
		if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			if t, ok := ParseTime(dt); ok {
				meta.PublishedAt = &t
			}
		}
	}

	return meta
}

// extractJSONLD parses <script type="application/ld+json"> elements,
// flattening arrays and @graph containers into one list of objects.
func extractJSONLD(doc *goquery.Document) []map[string]any {
	var results []map[string]any

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		// Try parsing as single object
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			results = append(results, data)
			if graph, ok := data["@graph"].([]any); ok {
				for _, g := range graph {
					if obj, ok := g.(map[string]any); ok {
						results = append(results, obj)
					}
				}
			}
			return
		}

		// Try parsing as array
		var dataArr []map[string]any
		if err := json.Unmarshal([]byte(raw), &dataArr); err == nil {
			results = append(results, dataArr...)
		}
	})

	return results
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006.01.02. 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTime tries the timestamp layouts news sites commonly emit.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
