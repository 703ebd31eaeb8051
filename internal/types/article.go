package types

import "time"

// Article is one extracted news article. A scraper creates it; the analysis
// coordinator then fills Sentiment, Summary and per-comment sentiment in
// sequential stages.
type Article struct {
	URL            string           `json:"url"                       bson:"url"`
	Title          string           `json:"title"                     bson:"title"`
	Content        string           `json:"content"                   bson:"content"`
	Source         SourceID         `json:"source"                    bson:"source"`
	SourceLabel    string           `json:"sourceLabel"               bson:"source_label"`
	Keyword        string           `json:"keyword,omitempty"         bson:"keyword,omitempty"`
	MatchedKeyword string           `json:"matchedKeyword,omitempty"  bson:"matched_keyword,omitempty"`
	PublishedAt    *time.Time       `json:"publishedAt,omitempty"     bson:"published_at,omitempty"`
	Images         []ImageRef       `json:"images"                    bson:"images"`
	Tables         []TableRef       `json:"tables"                    bson:"tables"`
	Comments       []Comment        `json:"comments"                  bson:"comments"`
	CommentCount   int              `json:"commentCount"              bson:"comment_count"`
	Sentiment      *SentimentResult `json:"sentiment,omitempty"       bson:"sentiment,omitempty"`
	Summary        string           `json:"summary,omitempty"         bson:"summary,omitempty"`
	ScrapedAt      time.Time        `json:"scrapedAt"                 bson:"scraped_at"`
}

// NewArticle creates an empty article for url with non-nil collections.
func NewArticle(url string, source SourceID) *Article {
	return &Article{
		URL:         url,
		Source:      source,
		SourceLabel: source.Label(),
		Images:      []ImageRef{},
		Tables:      []TableRef{},
		Comments:    []Comment{},
		ScrapedAt:   time.Now(),
	}
}

// Text returns the title and body joined, which is what sentiment scoring
// and keyword counting operate on.
func (a *Article) Text() string {
	if a.Title == "" {
		return a.Content
	}
	if a.Content == "" {
		return a.Title
	}
	return a.Title + " " + a.Content
}

// ImageRef describes one inline article image.
type ImageRef struct {
	URL     string `json:"url"               bson:"url"`
	Alt     string `json:"alt,omitempty"     bson:"alt,omitempty"`
	Caption string `json:"caption,omitempty" bson:"caption,omitempty"`
	Width   string `json:"width,omitempty"   bson:"width,omitempty"`
	Height  string `json:"height,omitempty"  bson:"height,omitempty"`
	Order   int    `json:"order"             bson:"order"`
}

// TableRef describes one data table found in an article body.
type TableRef struct {
	HTML    string `json:"html"              bson:"html"`
	Caption string `json:"caption,omitempty" bson:"caption,omitempty"`
	Rows    int    `json:"rows"              bson:"rows"`
	Cols    int    `json:"cols"              bson:"cols"`
	Order   int    `json:"order"             bson:"order"`
}

// Comment is one reader comment attached to an article.
type Comment struct {
	ID        string           `json:"id"                  bson:"id"`
	Text      string           `json:"text"                bson:"text"`
	Author    string           `json:"author,omitempty"    bson:"author,omitempty"`
	Sentiment *SentimentResult `json:"sentiment,omitempty" bson:"sentiment,omitempty"`
}
