package parser

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

// selectXPath evaluates an XPath candidate against the document root and
// wraps the matched element nodes in a goquery selection so callers can
// treat both candidate kinds alike.
func (e *Extractor) selectXPath(doc *goquery.Document, expr string) *goquery.Selection {
	if len(doc.Nodes) == 0 {
		return nil
	}
	nodes, err := htmlquery.QueryAll(doc.Nodes[0], expr)
	if err != nil {
		e.logger.Debug("invalid xpath", "selector", expr, "error", err)
		return nil
	}
	if len(nodes) == 0 {
		return nil
	}
	return doc.FindNodes(nodes...)
}
