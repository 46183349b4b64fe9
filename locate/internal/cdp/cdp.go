// Package cdp attaches to an already-running Chrome through chromedp and
// ships queries with raw Runtime domain calls.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/hazyhaar/domfind/locate/internal/dom"
	"github.com/hazyhaar/domfind/locate/internal/script"
)

// Tab is a chromedp target. It implements dom.Transport.
type Tab struct {
	ctx       context.Context
	cancel    context.CancelFunc
	allocStop context.CancelFunc
}

// Open connects to the Chrome exposing its DevTools endpoint at debugURL
// (http://host:9222 or a ws:// browser URL), opens a new target and navigates
// it to pageURL.
func Open(ctx context.Context, debugURL, pageURL string) (*Tab, error) {
	allocCtx, allocStop := chromedp.NewRemoteAllocator(context.Background(), debugURL)
	tabCtx, cancel := chromedp.NewContext(allocCtx)
	t := &Tab{ctx: tabCtx, cancel: cancel, allocStop: allocStop}

	// The first Run on tabCtx itself attaches the browser and creates the
	// target; their lifetime is tied to the context of that call.
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx)
	stop()
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("cdp: connect %s: %w", debugURL, err)
	}

	if err := t.run(ctx, chromedp.Navigate(pageURL)); err != nil {
		t.Close()
		return nil, fmt.Errorf("cdp: navigate %s: %w", pageURL, err)
	}
	return t, nil
}

// Close closes the target and drops the connection.
func (t *Tab) Close() error {
	t.cancel()
	t.allocStop()
	return nil
}

// run executes actions on the tab while honouring the caller's ctx.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Execute evaluates q and collects the node-typed entries of the returned
// array.
func (t *Tab) Execute(ctx context.Context, q dom.Query) ([]dom.Node, error) {
	args, err := json.Marshal(q.Args)
	if err != nil {
		return nil, fmt.Errorf("cdp: marshal args: %w", err)
	}
	expr := "(" + q.Source + ")(" + string(args) + ")"

	var nodes []dom.Node
	err = t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err := runtime.Evaluate(expr).WithAwaitPromise(true).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exceptionError(exc)
		}
		if obj.Subtype != runtime.SubtypeArray {
			return fmt.Errorf("expected an array, got %s/%s", obj.Type, obj.Subtype)
		}
		defer runtime.ReleaseObject(obj.ObjectID).Do(ctx)

		props, _, _, exc, err := runtime.GetProperties(obj.ObjectID).WithOwnProperties(true).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exceptionError(exc)
		}
		for _, p := range props {
			if p.Value == nil || p.Value.Subtype != runtime.SubtypeNode {
				continue
			}
			nodes = append(nodes, &node{tab: t, id: p.Value.ObjectID})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("cdp: %s: %w", q.Kind, err)
	}
	return nodes, nil
}

type node struct {
	tab *Tab
	id  runtime.RemoteObjectID
}

func (n *node) call(ctx context.Context, fn string, out any) error {
	return n.tab.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(n.id).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exceptionError(exc)
		}
		return json.Unmarshal([]byte(res.Value), out)
	}))
}

func (n *node) Visible(ctx context.Context) (bool, error) {
	var visible bool
	if err := n.call(ctx, script.Visible, &visible); err != nil {
		return false, fmt.Errorf("cdp: visible: %w", err)
	}
	return visible, nil
}

func (n *node) Info(ctx context.Context) (dom.Info, error) {
	var info dom.Info
	if err := n.call(ctx, script.Info, &info); err != nil {
		return dom.Info{}, fmt.Errorf("cdp: info: %w", err)
	}
	return info, nil
}

func exceptionError(exc *runtime.ExceptionDetails) error {
	msg := exc.Text
	if exc.Exception != nil && exc.Exception.Description != "" {
		msg = exc.Exception.Description
	}
	return fmt.Errorf("script exception: %s", strings.TrimSpace(msg))
}
