package static

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/domfind/locate/internal/dom"
)

// nonRendered tags never produce a box.
var nonRendered = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Template: true,
	atom.Title: true, atom.Meta: true, atom.Link: true, atom.Noscript: true,
}

// Node is a matched node of a static Document. It implements dom.Node.
type Node struct {
	doc *Document
	n   *html.Node
}

// HTML returns the underlying parsed node.
func (n *Node) HTML() *html.Node { return n.n }

// Visible reports whether the node would be rendered: neither it nor an
// ancestor (across shadow hosts) is hidden by attribute, inline style or tag.
func (n *Node) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	el := n.element()
	if el == nil {
		return false, nil
	}
	for cur := el; cur != nil; cur = n.doc.parent(cur) {
		if cur.Type == html.ElementNode && hiddenElement(cur) {
			return false, nil
		}
	}
	return true, nil
}

// Info describes the node.
func (n *Node) Info(ctx context.Context) (dom.Info, error) {
	if err := ctx.Err(); err != nil {
		return dom.Info{}, err
	}
	info := dom.Info{
		Tag:  strings.ToLower(n.doc.nodeName(n.n)),
		Text: collapse(n.doc.textContent(n.n)),
	}
	if el := n.element(); el != nil {
		var b strings.Builder
		if err := html.Render(&b, el); err != nil {
			return dom.Info{}, fmt.Errorf("static: render: %w", err)
		}
		info.HTML = b.String()
		info.XPath = n.doc.xpath(el)
	}
	return info, nil
}

// element is the node itself, the parent element of a text node, or the host
// of a shadow root (directly or as a text node's parent).
func (n *Node) element() *html.Node {
	cur := n.n
	if cur.Type == html.TextNode && cur.Parent != nil {
		cur = cur.Parent
	}
	if host, ok := n.doc.hosts[cur]; ok {
		cur = host
	}
	if cur.Type != html.ElementNode {
		return nil
	}
	return cur
}

func hiddenElement(el *html.Node) bool {
	if nonRendered[el.DataAtom] {
		return true
	}
	if hasAttr(el, "hidden") {
		return true
	}
	if el.DataAtom == atom.Input && inputType(el) == "hidden" {
		return true
	}
	style := strings.ToLower(strings.Join(strings.Fields(getAttr(el, "style")), ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

// xpath computes an absolute path with sibling indices where a tag repeats.
// Shadow boundaries appear as a "shadow-root" step.
func (d *Document) xpath(el *html.Node) string {
	var parts []string
	for cur := el; cur != nil; {
		switch {
		case cur.Type == html.ElementNode:
			parts = append(parts, step(cur))
			cur = cur.Parent
		case d.isFragment(cur):
			parts = append(parts, "shadow-root")
			cur = d.hosts[cur]
		default:
			cur = nil
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

func step(el *html.Node) string {
	name := strings.ToLower(el.Data)
	if el.Parent == nil {
		return name
	}
	idx, total := 0, 0
	for s := el.Parent.FirstChild; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && s.Data == el.Data {
			total++
			if s == el {
				idx = total
			}
		}
	}
	if total > 1 {
		return fmt.Sprintf("%s[%d]", name, idx)
	}
	return name
}
