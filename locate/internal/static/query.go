package static

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// compileCSS rejects invalid selectors the way querySelectorAll throws a
// SyntaxError, instead of silently matching nothing.
func compileCSS(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("static: css %q: %w", selector, err)
	}
	return sel, nil
}

// queryCSS is root.querySelectorAll: descendants of root only, document order.
func queryCSS(root *html.Node, sel cascadia.Selector) []*html.Node {
	return goquery.NewDocumentFromNode(root).FindMatcher(sel).Nodes
}

func queryXPath(root *html.Node, path string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(root, path)
	if err != nil {
		return nil, fmt.Errorf("static: xpath %q: %w", path, err)
	}
	// Attribute results come back as detached stand-in elements; the
	// browser lookup yields Attr nodes, which are not elements either.
	out := nodes[:0]
	for _, n := range nodes {
		if n.Type == html.ElementNode && n.Parent == nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
