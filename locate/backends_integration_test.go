package locate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/hazyhaar/domfind/locate/internal/browser"
	"github.com/hazyhaar/domfind/locate/internal/cdp"
	"github.com/hazyhaar/domfind/locate/internal/static"
)

// formPage nests declarative shadow roots two deep and splits a word across
// the children of a third one.
const formPage = `<!DOCTYPE html>
<html>
<body>
<div id="outer"><template shadowrootmode="open"><section><div id="inner"><template shadowrootmode="open"><button>Submit</button></template></div></section></template></div>
<a href="/form">Submit Form</a>
<form><input type="text" value="name"><input type="reset"></form>
<div id="split"><template shadowrootmode="open"><span>Sub</span><span>mitted</span></template></div>
</body>
</html>`

type backendCase struct {
	name string
	d    Descriptor
	tag  string
}

var backendCases = []backendCase{
	{name: "text prefers exact match", d: Text{Text: "submit"}},
	{name: "exact text", d: Text{Text: "submit form", Exact: true}},
	{name: "text split across shadow children", d: Text{Text: "submitted"}},
	{name: "input type", d: Text{Text: "reset"}, tag: "input"},
	{name: "css through shadow roots", d: CSS{Selector: "button"}},
	{name: "xpath", d: XPath{Path: "//a"}},
	{name: "custom predicate", d: Custom{Predicate: inputsOfType, Args: map[string]string{"type": "reset"}}},
}

// snapshot runs every case and renders each result as "tag|text|xpath".
func snapshot(t *testing.T, f *Finder) map[string][]string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := make(map[string][]string, len(backendCases))
	for _, c := range backendCases {
		elems, err := f.Find(ctx, c.d, Lookup{Tag: c.tag})
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		var got []string
		for _, e := range elems {
			info, err := e.Info(ctx)
			if err != nil {
				t.Fatalf("%s: Info: %v", c.name, err)
			}
			got = append(got, fmt.Sprintf("%s|%s|%s", info.Tag, info.Text, info.XPath))
		}
		out[c.name] = got
	}
	return out
}

func staticSnapshot(t *testing.T) map[string][]string {
	t.Helper()
	doc, err := static.ParseBytes([]byte(formPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := snapshot(t, New(doc, WithSinglePass()))

	if got, w := want["text prefers exact match"], []string{"button|Submit|/html/body/div[1]/shadow-root/section/div/shadow-root/button"}; !slices.Equal(got, w) {
		t.Fatalf("static text = %q, want %q", got, w)
	}
	if got, w := want["text split across shadow children"], []string{"div||/html/body/div[2]"}; !slices.Equal(got, w) {
		t.Fatalf("static split text = %q, want %q", got, w)
	}
	return want
}

func servePage(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(formPage))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func compareSnapshots(t *testing.T, got, want map[string][]string) {
	t.Helper()
	for _, c := range backendCases {
		if !slices.Equal(got[c.name], want[c.name]) {
			t.Errorf("%s: got %q, want %q (static)", c.name, got[c.name], want[c.name])
		}
	}
}

func liveRetry() Option {
	return WithRetry(RetryConfig{Interval: 100 * time.Millisecond, Timeout: 2 * time.Second})
}

func TestBackends_RodMatchesStatic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no local Chrome found")
	}
	t.Logf("chrome: %s", bin)

	want := staticSnapshot(t)

	mgr := browser.NewManager(browser.Config{})
	defer mgr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	tab, err := mgr.OpenTab(ctx, servePage(t))
	if err != nil {
		t.Fatalf("OpenTab: %v", err)
	}
	defer tab.Close()

	compareSnapshots(t, snapshot(t, New(tab, liveRetry())), want)
}

func TestBackends_CDPMatchesStatic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	debugURL := os.Getenv("DOMFIND_CDP_URL")
	if debugURL == "" {
		t.Skipf("DOMFIND_CDP_URL not set (e.g. http://127.0.0.1:9222)")
	}

	want := staticSnapshot(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	tab, err := cdp.Open(ctx, debugURL, servePage(t))
	cancel()
	if err != nil {
		t.Fatalf("cdp.Open: %v", err)
	}
	defer tab.Close()

	// The target must outlive the context Open was called with.
	compareSnapshots(t, snapshot(t, New(tab, liveRetry())), want)

	p, err := normalize(CSS{Selector: "a"}, "")
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := tab.Execute(context.Background(), p.query)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	visible, err := nodes[0].Visible(context.Background())
	if err != nil || !visible {
		t.Errorf("Visible = %v, %v; want true", visible, err)
	}
}
