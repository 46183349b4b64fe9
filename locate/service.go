// CLAUDE:SUMMARY Service: picks a backend (http/rod/cdp/auto), opens the page, runs one locate request and renders results.
package locate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/domfind/locate/internal/browser"
	"github.com/hazyhaar/domfind/locate/internal/cdp"
	"github.com/hazyhaar/domfind/locate/internal/config"
	"github.com/hazyhaar/domfind/locate/internal/fetcher"
	"github.com/hazyhaar/domfind/locate/internal/querylog"
	"github.com/hazyhaar/domfind/locate/internal/render"
	"github.com/hazyhaar/domfind/locate/internal/static"
)

// Backend names.
const (
	BackendAuto = "auto"
	BackendHTTP = "http"
	BackendRod  = "rod"
	BackendCDP  = "cdp"
)

// Search modes of a Request.
const (
	ModeText  = "text"
	ModeCSS   = "css"
	ModeXPath = "xpath"
)

// Service opens pages and answers one-shot locate requests. It owns the
// managed Chrome and the query log.
type Service struct {
	cfg     *config.Config
	logger  *slog.Logger
	fetch   *fetcher.Fetcher
	render  *render.Renderer
	queries QueryLogger
	qlog    *querylog.Logger
	mu      sync.Mutex
	mgr     *browser.Manager
}

// NewService creates a Service. Chrome is only started by the first page
// that needs it.
func NewService(cfg *Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		cfg:    cfg,
		logger: logger,
		fetch:  fetcher.New(fetcher.WithLogger(logger)),
		render: render.New(),
	}
	if cfg.QueryLog.Path != "" {
		ql, err := querylog.Open(cfg.QueryLog.Path, querylog.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("locate: query log: %w", err)
		}
		s.qlog = ql
		s.queries = ql
	}
	return s, nil
}

// Close stops Chrome and closes the query log.
func (s *Service) Close() error {
	var errs []error
	s.mu.Lock()
	if s.mgr != nil {
		errs = append(errs, s.mgr.Close())
		s.mgr = nil
	}
	if s.qlog != nil {
		errs = append(errs, s.qlog.Close())
		s.qlog, s.queries = nil, nil
	}
	s.mu.Unlock()
	return errors.Join(errs...)
}

func (s *Service) manager() *browser.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mgr == nil {
		mode := browser.Headless
		if s.cfg.Browser.Stealth == "headful" {
			mode = browser.Headful
		}
		s.mgr = browser.NewManager(browser.Config{
			RemoteURL:        s.cfg.Browser.Remote,
			Mode:             mode,
			ResourceBlocking: s.cfg.Browser.ResourceBlocking,
			NavigateTimeout:  s.cfg.Browser.NavigateTimeout,
			MemoryLimit:      s.cfg.Browser.MemoryLimit,
			RecycleInterval:  s.cfg.Browser.RecycleInterval,
			XvfbDisplay:      s.cfg.Browser.XvfbDisplay,
			Logger:           s.logger,
		})
	}
	return s.mgr
}

// Page is an open document with a Finder over it. Close it when done.
type Page struct {
	*Finder
	URL     string
	Backend string
	closer  io.Closer
}

// Close releases the tab or connection behind the page.
func (p *Page) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// Open loads pageURL with backend ("" = configured backend).
func (s *Service) Open(ctx context.Context, pageURL, backend string) (*Page, error) {
	if backend == "" {
		backend = s.cfg.Backend
	}
	opts := []Option{WithLogger(s.logger), WithRetry(s.cfg.Retry)}
	s.mu.Lock()
	queries := s.queries
	s.mu.Unlock()
	if queries != nil {
		opts = append(opts, WithQueryLogger(queries))
	}

	switch backend {
	case BackendHTTP:
		res, err := s.fetch.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		return s.staticPage(pageURL, res.HTML, opts)

	case BackendAuto:
		res, err := s.fetch.Fetch(ctx, pageURL)
		if err == nil && res.Sufficient {
			return s.staticPage(pageURL, res.HTML, opts)
		}
		if err != nil {
			s.logger.Info("locate: http fetch failed, escalating to browser", "url", pageURL, "error", err)
		} else {
			s.logger.Info("locate: static html insufficient, escalating to browser", "url", pageURL)
		}
		return s.rodPage(ctx, pageURL, opts)

	case BackendRod:
		return s.rodPage(ctx, pageURL, opts)

	case BackendCDP:
		tab, err := cdp.Open(ctx, s.cfg.CDP.DebugURL, pageURL)
		if err != nil {
			return nil, err
		}
		return &Page{Finder: New(tab, opts...), URL: pageURL, Backend: BackendCDP, closer: tab}, nil

	default:
		return nil, fmt.Errorf("locate: unknown backend %q", backend)
	}
}

func (s *Service) staticPage(pageURL string, body []byte, opts []Option) (*Page, error) {
	doc, err := static.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("locate: parse %s: %w", pageURL, err)
	}
	// A fetched document never changes: one attempt is enough.
	opts = append(opts, WithSinglePass())
	return &Page{Finder: New(doc, opts...), URL: pageURL, Backend: BackendHTTP}, nil
}

func (s *Service) rodPage(ctx context.Context, pageURL string, opts []Option) (*Page, error) {
	tab, err := s.manager().OpenTab(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return &Page{Finder: New(tab, opts...), URL: pageURL, Backend: BackendRod, closer: tab}, nil
}

// Duration is a time.Duration that reads JSON strings ("500ms") or integer
// milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case float64:
		*d = Duration(time.Duration(v) * time.Millisecond)
	case string:
		p, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*d = Duration(p)
	case nil:
		*d = 0
	default:
		return fmt.Errorf("invalid duration %s", b)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Request is a one-shot locate.
type Request struct {
	URL           string   `json:"url"`
	Mode          string   `json:"mode"` // text | css | xpath, default text
	Query         string   `json:"query"`
	Exact         bool     `json:"exact,omitempty"`
	IncludeHidden bool     `json:"include_hidden,omitempty"`
	Tag           string   `json:"tag,omitempty"`
	Interval      Duration `json:"interval,omitempty"`
	Timeout       Duration `json:"timeout,omitempty"`
	Require       bool     `json:"require,omitempty"`
	Backend       string   `json:"backend,omitempty"`
}

// Descriptor maps the request to a search descriptor.
func (r Request) Descriptor() (Descriptor, error) {
	switch strings.ToLower(r.Mode) {
	case "", ModeText:
		return Text{Text: r.Query, Exact: r.Exact, IncludeHidden: r.IncludeHidden}, nil
	case ModeCSS:
		return CSS{Selector: r.Query, IncludeHidden: r.IncludeHidden}, nil
	case ModeXPath:
		return XPath{Path: r.Query, IncludeHidden: r.IncludeHidden}, nil
	default:
		return nil, &InvalidDescriptorError{Reason: fmt.Sprintf("unknown mode %q", r.Mode)}
	}
}

// ElementResult is one located element.
type ElementResult struct {
	Tag      string `json:"tag"`
	Text     string `json:"text"`
	XPath    string `json:"xpath"`
	HTML     string `json:"html"`
	Markdown string `json:"markdown,omitempty"`
}

// Response is the answer to a Request.
type Response struct {
	URL         string          `json:"url"`
	Backend     string          `json:"backend"`
	Description string          `json:"description"`
	Count       int             `json:"count"`
	Elements    []ElementResult `json:"elements"`
	ElapsedMs   int64           `json:"elapsed_ms"`
}

// Locate opens req.URL, resolves the request, describes every element and
// closes the page.
func (s *Service) Locate(ctx context.Context, req Request) (*Response, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("locate: url is required")
	}
	d, err := req.Descriptor()
	if err != nil {
		return nil, err
	}
	// Validate before paying for a page load.
	if _, err := normalize(d, req.Tag); err != nil {
		return nil, err
	}

	start := time.Now()
	page, err := s.Open(ctx, req.URL, req.Backend)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	elems, err := page.Find(ctx, d, Lookup{
		Tag:      req.Tag,
		Interval: time.Duration(req.Interval),
		Timeout:  time.Duration(req.Timeout),
	})
	if err != nil {
		return nil, err
	}
	if req.Require && len(elems) == 0 {
		return nil, &ElementNotFoundError{Description: d.Describe()}
	}

	resp := &Response{
		URL:         req.URL,
		Backend:     page.Backend,
		Description: d.Describe(),
		Count:       len(elems),
		Elements:    make([]ElementResult, 0, len(elems)),
	}
	for _, e := range elems {
		info, err := e.Info(ctx)
		if err != nil {
			return nil, &RemoteExecutionError{Query: "info of " + e.Description, Err: err}
		}
		r := ElementResult{
			Tag:   info.Tag,
			Text:  info.Text,
			XPath: info.XPath,
			HTML:  s.render.Sanitize(info.HTML),
		}
		if md, err := s.render.Markdown(info.HTML, req.URL); err == nil {
			r.Markdown = md
		} else {
			s.logger.Warn("locate: markdown failed", "xpath", info.XPath, "error", err)
		}
		resp.Elements = append(resp.Elements, r)
	}
	resp.ElapsedMs = time.Since(start).Milliseconds()

	s.logger.Info("locate: done",
		"url", req.URL, "backend", page.Backend,
		"description", resp.Description, "count", resp.Count, "elapsed_ms", resp.ElapsedMs)
	return resp, nil
}
