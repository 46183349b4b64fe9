// CLAUDE:SUMMARY Finder: descriptor normalization, query shipping, visibility filtering and polling over a dom.Transport.
// Package locate resolves human-style descriptions of page elements (visible
// text, CSS selectors, XPath, custom predicates) into element handles inside
// a live or static document, including elements behind open shadow roots.
//
// A Finder ships self-contained matching scripts through a Transport and
// polls until the document yields a match or the retry timeout expires. An
// expired timeout is an empty result, not an error; only the Resolve*
// operations turn it into an ElementNotFoundError.
package locate

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/hazyhaar/domfind/locate/internal/config"
	"github.com/hazyhaar/domfind/locate/internal/dom"
)

// Transport runs a shipped query inside a document.
type Transport = dom.Transport

// Node is a reference to a matched node.
type Node = dom.Node

// Info describes a matched node.
type Info = dom.Info

// Query is a shipped matching script plus its argument payload.
type Query = dom.Query

// QueryLogger receives every query before it is shipped. Implementations
// must not block or fail the search.
type QueryLogger interface {
	LogQuery(ctx context.Context, q Query)
}

// Refiner narrows a text match, e.g. to elements near another one.
type Refiner interface {
	Refine(ctx context.Context, elems []*Element) ([]*Element, error)
}

// RefinerFunc adapts a function to Refiner.
type RefinerFunc func(ctx context.Context, elems []*Element) ([]*Element, error)

func (f RefinerFunc) Refine(ctx context.Context, elems []*Element) ([]*Element, error) {
	return f(ctx, elems)
}

// Lookup tunes one search. Zero values fall back to the Finder's retry
// policy; an empty Tag means any tag.
type Lookup struct {
	Tag      string
	Interval time.Duration
	Timeout  time.Duration
}

// Finder resolves descriptors against one document. It holds no per-search
// state and is safe for concurrent use if its Transport is.
type Finder struct {
	transport  Transport
	logger     *slog.Logger
	queries    QueryLogger
	retry      config.RetryConfig
	singlePass bool
	caps       map[string]Capability
}

// Option configures a Finder.
type Option func(*Finder)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Finder) { f.logger = l }
}

// WithQueryLogger sets the sink for shipped queries. Default: debug log.
func WithQueryLogger(q QueryLogger) Option {
	return func(f *Finder) { f.queries = q }
}

// WithRetry sets the default poll interval and timeout.
func WithRetry(r RetryConfig) Option {
	return func(f *Finder) { f.retry = r }
}

// WithSinglePass makes every search a single attempt. For documents that
// cannot change between attempts.
func WithSinglePass() Option {
	return func(f *Finder) { f.singlePass = true }
}

// WithCapability attaches c under name to every returned element.
func WithCapability(name string, c Capability) Option {
	return func(f *Finder) {
		if f.caps == nil {
			f.caps = make(map[string]Capability)
		}
		f.caps[name] = c
	}
}

// New creates a Finder over t.
func New(t Transport, opts ...Option) *Finder {
	f := &Finder{
		transport: t,
		retry: config.RetryConfig{
			Interval: config.DefaultRetryInterval,
			Timeout:  config.DefaultRetryTimeout,
		},
	}
	for _, o := range opts {
		o(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.queries == nil {
		f.queries = slogQueries{f.logger}
	}
	return f
}

type slogQueries struct{ logger *slog.Logger }

func (s slogQueries) LogQuery(ctx context.Context, q Query) {
	s.logger.DebugContext(ctx, "locate: query", "kind", q.Kind, "expr", q.Expr)
}

// Find resolves d. An empty result after the retry timeout is returned as an
// empty slice with a nil error.
func (f *Finder) Find(ctx context.Context, d Descriptor, l Lookup) ([]*Element, error) {
	p, err := normalize(d, l.Tag)
	if err != nil {
		return nil, err
	}
	if p.fixed != nil {
		return p.fixed, nil
	}

	f.queries.LogQuery(ctx, p.query)
	fetch := func(ctx context.Context) ([]*Element, error) {
		return f.fetch(ctx, p, d.Describe())
	}

	interval := f.retry.ResolveInterval(l.Interval)
	timeout := f.retry.ResolveTimeout(l.Timeout)
	if f.singlePass {
		timeout = 0
	}
	elems, err := poll(ctx, interval, timeout, fetch)
	if err == errSoftTimeout {
		f.logger.DebugContext(ctx, "locate: no match", "description", d.Describe(), "timeout", timeout)
		return []*Element{}, nil
	}
	return elems, err
}

// fetch performs one attempt: ship the query, wrap the nodes, then drop
// hidden ones unless asked not to.
func (f *Finder) fetch(ctx context.Context, p plan, description string) ([]*Element, error) {
	nodes, err := f.transport.Execute(ctx, p.query)
	if err != nil {
		return nil, &RemoteExecutionError{Query: p.query.Expr, Err: err}
	}
	elems := make([]*Element, len(nodes))
	for i, n := range nodes {
		elems[i] = &Element{Node: n, Description: description, Capabilities: maps.Clone(f.caps)}
	}
	if p.includeHidden {
		return elems, nil
	}
	return filterVisible(ctx, elems)
}

// QueryCSS returns the elements matching selector, or none after the retry
// timeout.
func (f *Finder) QueryCSS(ctx context.Context, selector string, includeHidden bool) ([]*Element, error) {
	return f.Find(ctx, CSS{Selector: selector, IncludeHidden: includeHidden}, Lookup{})
}

// QueryXPath returns the elements matching path in the main document tree,
// or none after the retry timeout.
func (f *Finder) QueryXPath(ctx context.Context, path string, includeHidden bool) ([]*Element, error) {
	return f.Find(ctx, XPath{Path: path, IncludeHidden: includeHidden}, Lookup{})
}

// QueryCustom returns the elements p selects given args, or none after the
// retry timeout.
func (f *Finder) QueryCustom(ctx context.Context, p Predicate, args any, includeHidden bool) ([]*Element, error) {
	return f.Find(ctx, Custom{Predicate: p, Args: args, IncludeHidden: includeHidden}, Lookup{})
}

// ResolveAll is Find, failing with ElementNotFoundError when nothing matches.
func (f *Finder) ResolveAll(ctx context.Context, d Descriptor, tag string) ([]*Element, error) {
	elems, err := f.Find(ctx, d, Lookup{Tag: tag})
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, &ElementNotFoundError{Description: d.Describe()}
	}
	return elems, nil
}

// ResolveOne returns the first element ResolveAll finds.
func (f *Finder) ResolveOne(ctx context.Context, d Descriptor, tag string) (*Element, error) {
	elems, err := f.ResolveAll(ctx, d, tag)
	if err != nil {
		return nil, err
	}
	return elems[0], nil
}
