// Package dom defines the ports between the element-resolution core and the
// documents it searches: a Query is shipped through a Transport and comes back
// as Nodes.
package dom

import (
	"context"

	"golang.org/x/net/html"
)

// Kind identifies which matching strategy a Query carries.
type Kind string

const (
	KindText   Kind = "text"
	KindCSS    Kind = "css"
	KindXPath  Kind = "xpath"
	KindCustom Kind = "custom"
)

// NativeMatcher is the in-process counterpart of a shipped matcher, used by
// documents that are evaluated without a script engine. It receives a search
// root and the same value-only argument payload as the script.
type NativeMatcher func(root *html.Node, args any) []*html.Node

// Query is a self-contained unit of matching logic plus its argument payload.
// Source is a complete script function expression taking one argument (Args)
// and returning an array of nodes. It never captures state by reference.
type Query struct {
	Kind   Kind
	Source string
	Args   any

	// Shadow reports whether Source recurses into shadow roots.
	Shadow bool

	// Native is optional; only set for custom predicates that also have a Go
	// implementation.
	Native NativeMatcher

	// Expr is the human-readable expression used for query logging.
	Expr string
}

// Transport executes a Query against a live document and returns the matched
// node references in document order.
type Transport interface {
	Execute(ctx context.Context, q Query) ([]Node, error)
}

// Node is a reference to a node inside the searched document. Its lifetime is
// tied to the document, not to the search that produced it.
type Node interface {
	Visible(ctx context.Context) (bool, error)
	Info(ctx context.Context) (Info, error)
}

// Info is a serialisable description of a node.
type Info struct {
	Tag   string `json:"tag"`
	Text  string `json:"text"`
	HTML  string `json:"html"`
	XPath string `json:"xpath"`
}
