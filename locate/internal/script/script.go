// Package script holds the matching logic shipped into the searched document.
// Every source is a self-contained function expression: it only sees the
// value-only argument payload it is invoked with.
package script

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/hazyhaar/domfind/locate/internal/dom"
)

//go:embed text.js
var textJS string

//go:embed css.js
var cssJS string

//go:embed xpath.js
var xpathJS string

//go:embed walker.js
var walkerJS string

// Visible is evaluated with `this` bound to a matched node and returns
// whether it is rendered.
//
//go:embed visible.js
var Visible string

// Info is evaluated with `this` bound to a matched node and returns the
// fields of dom.Info.
//
//go:embed info.js
var Info string

const matcherPlaceholder = "__MATCHER__"

// AnyTag disables tag restriction in text searches.
const AnyTag = "*"

// TextArgs is the payload of the text matcher.
type TextArgs struct {
	Text       string `json:"text"`
	TagName    string `json:"tagName"`
	ExactMatch bool   `json:"exactMatch"`
}

// CSSArgs is the payload of the structural selector matcher.
type CSSArgs struct {
	Selector string `json:"selector"`
}

// XPathArgs is the payload of the path-query lookup.
type XPathArgs struct {
	Path string `json:"path"`
}

// ShadowAware wraps a matcher `(root, args) => nodes` into a function
// `(args) => nodes` that applies it to the document and then to every shadow
// root reachable from it, depth first, in document order.
func ShadowAware(matcher string) string {
	return strings.Replace(walkerJS, matcherPlaceholder, strings.TrimSpace(matcher), 1)
}

// Text builds the free-text search. An empty tag means any tag.
func Text(text, tag string, exact bool) dom.Query {
	if tag == "" {
		tag = AnyTag
	}
	return dom.Query{
		Kind:   dom.KindText,
		Source: ShadowAware(textJS),
		Args:   TextArgs{Text: text, TagName: tag, ExactMatch: exact},
		Shadow: true,
		Expr:   fmt.Sprintf("text - %q", text),
	}
}

// CSS builds a querySelectorAll lookup run in every shadow root.
func CSS(selector string) dom.Query {
	return dom.Query{
		Kind:   dom.KindCSS,
		Source: ShadowAware(cssJS),
		Args:   CSSArgs{Selector: selector},
		Shadow: true,
		Expr:   fmt.Sprintf("document.querySelectorAll('%s')", selector),
	}
}

// XPath builds a document.evaluate lookup. Shadow roots are not searched:
// path queries are scoped to the main tree.
func XPath(path string) dom.Query {
	return dom.Query{
		Kind:   dom.KindXPath,
		Source: strings.TrimSpace(xpathJS),
		Args:   XPathArgs{Path: path},
		Expr:   "xpath - " + path,
	}
}

// Custom wraps a caller-supplied matcher `(root, args) => nodes`.
func Custom(matcher string, args any, native dom.NativeMatcher) dom.Query {
	return dom.Query{
		Kind:   dom.KindCustom,
		Source: ShadowAware(matcher),
		Args:   args,
		Shadow: true,
		Native: native,
		Expr:   "custom - " + head(matcher, 60),
	}
}

func head(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
