package static

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domfind/locate/internal/script"
)

// skippedNames are never text-match candidates when no tag restriction is
// given. Their children are still visited.
var skippedNames = map[string]bool{
	"head": true, "script": true, "style": true,
	"html": true, "body": true, "#comment": true,
}

// matchText is the Go twin of text.js.
func (d *Document) matchText(root *html.Node, args script.TextArgs) []*html.Node {
	search := strings.TrimFunc(strings.ToLower(args.Text), isSpace)
	tag := strings.ToLower(args.TagName)
	anyTag := tag == "" || tag == script.AnyTag

	childMatches := func(n *html.Node, exact bool) bool {
		if !anyTag {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			text := normalize(d.textContent(c))
			if exact && text == search || !exact && strings.Contains(text, search) {
				return true
			}
		}
		return false
	}

	var exact, contains []*html.Node
	classify := func(n *html.Node) {
		name := strings.ToLower(d.nodeName(n))
		if anyTag && skippedNames[name] || !anyTag && name != tag {
			return
		}

		if n.Type == html.ElementNode && n.Data == "input" && n.Namespace == "" {
			value := normalize(getAttr(n, "value"))
			typ := inputType(n)
			button := typ == "submit" || typ == "reset"
			if value == search || button && typ == search {
				exact = append(exact, n)
				return
			}
			if !args.ExactMatch && (strings.Contains(value, search) || button && strings.Contains(typ, search)) {
				contains = append(contains, n)
				return
			}
		}

		text := normalize(d.textContent(n))
		switch {
		case text == search:
			if !childMatches(n, true) {
				exact = append(exact, n)
			}
		case !args.ExactMatch && strings.Contains(text, search):
			if !childMatches(n, false) {
				contains = append(contains, n)
			}
		}
	}
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		classify(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)

	picked := contains
	if len(exact) > 0 {
		picked = exact
	}
	return d.lift(picked)
}

// lift reports text nodes through their parent and shadow roots through
// their host, keeping the first occurrence of each.
func (d *Document) lift(nodes []*html.Node) []*html.Node {
	seen := make(map[*html.Node]bool, len(nodes))
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == html.TextNode && n.Parent != nil {
			n = n.Parent
		}
		if host, ok := d.hosts[n]; ok {
			n = host
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// nodeName mirrors Node.nodeName.
func (d *Document) nodeName(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	case html.DoctypeNode:
		return n.Data
	case html.DocumentNode:
		if d.isFragment(n) {
			return "#document-fragment"
		}
		return "#document"
	case html.ElementNode:
		if n.Namespace == "" {
			return strings.ToUpper(n.Data)
		}
		return n.Data
	}
	return ""
}

// textContent mirrors Node.textContent: null (empty) for the document and
// doctype, the data for text and comments, the concatenated descendant text
// otherwise.
func (d *Document) textContent(n *html.Node) string {
	switch n.Type {
	case html.TextNode, html.CommentNode:
		return n.Data
	case html.DoctypeNode:
		return ""
	case html.DocumentNode:
		if !d.isFragment(n) {
			return ""
		}
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// inputType mirrors HTMLInputElement.type for the values that matter here.
func inputType(n *html.Node) string {
	t := strings.ToLower(strings.TrimSpace(getAttr(n, "type")))
	if t == "" {
		return "text"
	}
	return t
}

// normalize lowercases, collapses every whitespace run to one space and trims.
func normalize(s string) string {
	return strings.ToLower(collapse(s))
}

func collapse(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// isSpace matches the characters of the JS \s class.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}
