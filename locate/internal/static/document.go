// Package static evaluates queries in-process against a parsed HTML document.
// It is the stealth-level-0 backend: no browser, no script engine. Each
// shipped script has a Go equivalent here with the same semantics.
//
// Declarative shadow roots (<template shadowrootmode="open">) are detached
// from the light tree and attached to their host, so traversal sees the same
// shape a browser builds.
package static

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/domfind/locate/internal/dom"
	"github.com/hazyhaar/domfind/locate/internal/script"
)

type shadowRoot struct {
	fragment *html.Node
	open     bool
}

// Document is a parsed, immutable HTML document.
type Document struct {
	root *html.Node

	// shadows maps a host element to its shadow root.
	shadows map[*html.Node]shadowRoot
	// hosts maps a shadow root fragment back to its host.
	hosts map[*html.Node]*html.Node
	// contents holds detached <template> contents.
	contents map[*html.Node]*html.Node
}

// Parse reads and parses an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("static: parse: %w", err)
	}
	return New(root), nil
}

// ParseBytes parses an HTML document held in memory.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// New wraps an already-parsed tree. The tree is modified: template contents
// are detached.
func New(root *html.Node) *Document {
	d := &Document{
		root:     root,
		shadows:  make(map[*html.Node]shadowRoot),
		hosts:    make(map[*html.Node]*html.Node),
		contents: make(map[*html.Node]*html.Node),
	}
	d.detachTemplates()
	return d
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

func (d *Document) detachTemplates() {
	var templates []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Template {
			templates = append(templates, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)

	for _, t := range templates {
		frag := &html.Node{Type: html.DocumentNode}
		for c := t.FirstChild; c != nil; {
			next := c.NextSibling
			t.RemoveChild(c)
			frag.AppendChild(c)
			c = next
		}

		mode := strings.ToLower(getAttr(t, "shadowrootmode"))
		host := t.Parent
		_, taken := d.shadows[host]
		if (mode == "open" || mode == "closed") && host != nil && host.Type == html.ElementNode && !taken {
			host.RemoveChild(t)
			d.shadows[host] = shadowRoot{fragment: frag, open: mode == "open"}
			d.hosts[frag] = host
			continue
		}
		d.contents[t] = frag
	}
}

// ShadowRoot returns the open shadow root attached to el, like
// element.shadowRoot.
func (d *Document) ShadowRoot(el *html.Node) *html.Node {
	sr, ok := d.shadows[el]
	if !ok || !sr.open {
		return nil
	}
	return sr.fragment
}

func (d *Document) isFragment(n *html.Node) bool {
	_, ok := d.hosts[n]
	return ok
}

// parent crosses shadow boundaries: the parent of a shadow root is its host.
func (d *Document) parent(n *html.Node) *html.Node {
	if n.Parent != nil {
		return n.Parent
	}
	return d.hosts[n]
}

// Execute runs q against the document. It implements dom.Transport.
func (d *Document) Execute(ctx context.Context, q dom.Query) ([]dom.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var found []*html.Node
	switch q.Kind {
	case dom.KindText:
		args, ok := q.Args.(script.TextArgs)
		if !ok {
			return nil, fmt.Errorf("static: text query: unexpected args %T", q.Args)
		}
		found = d.collect(d.root, func(root *html.Node) []*html.Node {
			return d.matchText(root, args)
		})
	case dom.KindCSS:
		args, ok := q.Args.(script.CSSArgs)
		if !ok {
			return nil, fmt.Errorf("static: css query: unexpected args %T", q.Args)
		}
		m, err := compileCSS(args.Selector)
		if err != nil {
			return nil, err
		}
		found = d.collect(d.root, func(root *html.Node) []*html.Node {
			return queryCSS(root, m)
		})
	case dom.KindXPath:
		args, ok := q.Args.(script.XPathArgs)
		if !ok {
			return nil, fmt.Errorf("static: xpath query: unexpected args %T", q.Args)
		}
		nodes, err := queryXPath(d.root, args.Path)
		if err != nil {
			return nil, err
		}
		found = nodes
	case dom.KindCustom:
		if q.Native == nil {
			return nil, fmt.Errorf("static: custom predicate has no native implementation")
		}
		found = d.collect(d.root, func(root *html.Node) []*html.Node {
			return q.Native(root, q.Args)
		})
	default:
		return nil, fmt.Errorf("static: unknown query kind %q", q.Kind)
	}

	out := make([]dom.Node, len(found))
	for i, n := range found {
		out[i] = &Node{doc: d, n: n}
	}
	return out, nil
}

// collect applies match to root and then, depth first, to every open shadow
// root reachable from it.
func (d *Document) collect(root *html.Node, match func(*html.Node) []*html.Node) []*html.Node {
	acc := match(root)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if sr := d.ShadowRoot(c); sr != nil {
					acc = append(acc, d.collect(sr, match)...)
				}
			}
			walk(c)
		}
	}
	walk(root)
	return acc
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
