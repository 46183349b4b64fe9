package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/domfind/locate/internal/dom"
	"github.com/hazyhaar/domfind/locate/internal/script"
)

// Tab is one page of the managed Chrome. It implements dom.Transport.
type Tab struct {
	Page    *rod.Page
	PageURL string
	manager *Manager
}

// OpenTab creates a tab (a stealth page in headless mode), applies resource
// blocking and navigates to pageURL.
func (m *Manager) OpenTab(ctx context.Context, pageURL string) (*Tab, error) {
	b, err := m.acquire()
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if m.cfg.Mode == Headless {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		m.release()
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(m.cfg.ResourceBlocking) > 0 {
		if err := blockResources(page, m.cfg.ResourceBlocking); err != nil {
			m.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	tab := &Tab{Page: page, PageURL: pageURL, manager: m}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		tab.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	// A page that never fires load is still searchable; the retry contract
	// covers late rendering.
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	return tab, nil
}

// Execute ships q into the page and returns the node references it yields.
func (t *Tab) Execute(ctx context.Context, q dom.Query) ([]dom.Node, error) {
	els, err := t.Page.Context(ctx).ElementsByJS(rod.Eval(q.Source, q.Args).ByObject())
	if err != nil {
		return nil, fmt.Errorf("browser: %s: %w", q.Kind, err)
	}
	nodes := make([]dom.Node, len(els))
	for i, el := range els {
		nodes[i] = &node{el: el}
	}
	return nodes, nil
}

// Close closes the page and releases it from the manager.
func (t *Tab) Close() error {
	if t.Page == nil {
		return nil
	}
	err := t.Page.Close()
	t.Page = nil
	t.manager.release()
	return err
}

type node struct {
	el *rod.Element
}

func (n *node) Visible(ctx context.Context) (bool, error) {
	res, err := n.el.Context(ctx).Eval(script.Visible)
	if err != nil {
		return false, fmt.Errorf("browser: visible: %w", err)
	}
	return res.Value.Bool(), nil
}

func (n *node) Info(ctx context.Context) (dom.Info, error) {
	res, err := n.el.Context(ctx).Eval(script.Info)
	if err != nil {
		return dom.Info{}, fmt.Errorf("browser: info: %w", err)
	}
	v := res.Value
	return dom.Info{
		Tag:   v.Get("tag").Str(),
		Text:  v.Get("text").Str(),
		HTML:  v.Get("html").Str(),
		XPath: v.Get("xpath").Str(),
	}, nil
}

// blockResources fails requests for the listed resource types.
func blockResources(page *rod.Page, types []string) error {
	blocked := make(map[string]bool, len(types))
	for _, t := range types {
		blocked[strings.TrimSuffix(strings.ToLower(t), "s")] = true
	}

	router := page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if blocked[strings.ToLower(string(h.Request.Type()))] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return err
	}
	go router.Run()
	return nil
}
