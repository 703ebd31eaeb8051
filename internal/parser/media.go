package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// ImageFilter decides which inline images are article photos rather than
// icons, trackers or layout assets.
type ImageFilter struct {
	Exclude      []string
	Extensions   []string
	TrustedHosts []string
}

// DefaultImageFilter matches the photo conventions of Korean news portals.
func DefaultImageFilter() ImageFilter {
	return ImageFilter{
		Exclude: []string{
			"icon", "logo", "banner", "ad_", "advert",
			"btn_", "button", "sprite", "blank", "spacer",
			"1x1", "pixel", ".gif",
			"naver.pstatic.net/static",
		},
		Extensions:   []string{".jpg", ".jpeg", ".png", ".webp"},
		TrustedHosts: []string{"imgnews.pstatic.net", "image.news.naver.com"},
	}
}

// Allow reports whether rawURL passes the filter. Exclusions win over
// trusted hosts; trusted hosts need no extension.
func (f ImageFilter) Allow(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	lower := strings.ToLower(rawURL)
	for _, pattern := range f.Exclude {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	for _, host := range f.TrustedHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	for _, ext := range f.Extensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

// MediaRules configures image and table extraction for one source.
type MediaRules struct {
	ImageCandidates []string
	TableCandidates []string
	CaptionSelector string
	Filter          ImageFilter
	MaxImages       int
	MaxTables       int
	MaxTableHTML    int
}

// Images collects up to rules.MaxImages images from the first image
// candidate that yields any. src is preferred over data-src; protocol
// relative and root relative URLs are made absolute against pageURL.
func (e *Extractor) Images(doc *goquery.Document, rules MediaRules, pageURL string) []types.ImageRef {
	base, _ := url.Parse(pageURL)
	images := []types.ImageRef{}

	for _, candidate := range rules.ImageCandidates {
		sel := e.selectAll(doc, candidate)
		if sel == nil {
			continue
		}
		sel.EachWithBreak(func(i int, img *goquery.Selection) bool {
			if rules.MaxImages > 0 && len(images) >= rules.MaxImages {
				return false
			}
			src := imageSource(img, rules.Filter)
			if src == "" {
				return true
			}
			images = append(images, types.ImageRef{
				URL:     absoluteImageURL(base, src),
				Alt:     strings.TrimSpace(img.AttrOr("alt", "")),
				Caption: imageCaption(img, rules.CaptionSelector),
				Width:   digitsOnly(img.AttrOr("width", "")),
				Height:  digitsOnly(img.AttrOr("height", "")),
				Order:   i,
			})
			return true
		})
		if len(images) > 0 {
			break
		}
	}
	return images
}

// Tables collects up to rules.MaxTables tables with at least two rows from
// the first table candidate that yields any.
func (e *Extractor) Tables(doc *goquery.Document, rules MediaRules) []types.TableRef {
	tables := []types.TableRef{}

	for _, candidate := range rules.TableCandidates {
		sel := e.selectAll(doc, candidate)
		if sel == nil {
			continue
		}
		sel.EachWithBreak(func(i int, tbl *goquery.Selection) bool {
			if rules.MaxTables > 0 && len(tables) >= rules.MaxTables {
				return false
			}
			rows := tbl.Find("tr")
			if rows.Length() < 2 {
				return true
			}
			html, err := tbl.Html()
			if err != nil {
				return true
			}
			if rules.MaxTableHTML > 0 {
				html = TruncateRunes(html, rules.MaxTableHTML)
			}
			tables = append(tables, types.TableRef{
				HTML:    html,
				Caption: CleanText(tbl.Find("caption").First().Text()),
				Rows:    rows.Length(),
				Cols:    rows.First().Find("td, th").Length(),
				Order:   i,
			})
			return true
		})
		if len(tables) > 0 {
			break
		}
	}
	return tables
}

func imageSource(img *goquery.Selection, filter ImageFilter) string {
	if src := strings.TrimSpace(img.AttrOr("src", "")); filter.Allow(src) {
		return src
	}
	if src := strings.TrimSpace(img.AttrOr("data-src", "")); filter.Allow(src) {
		return src
	}
	return ""
}

func absoluteImageURL(base *url.URL, src string) string {
	switch {
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "/") && base != nil:
		return base.Scheme + "://" + base.Host + src
	default:
		return src
	}
}

func imageCaption(img *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return CleanText(img.Parent().Find(selector).First().Text())
}

func digitsOnly(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}
