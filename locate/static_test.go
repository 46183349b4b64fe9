package locate

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domfind/locate/internal/static"
)

func staticFinder(t *testing.T, src string) *Finder {
	t.Helper()
	doc, err := static.ParseBytes([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return New(doc, WithRetry(RetryConfig{Interval: 10 * time.Millisecond, Timeout: 50 * time.Millisecond}))
}

func tagsOf(t *testing.T, elems []*Element) string {
	t.Helper()
	var s []string
	for _, e := range elems {
		info, err := e.Info(context.Background())
		if err != nil {
			t.Fatalf("Info: %v", err)
		}
		s = append(s, info.Tag)
	}
	return strings.Join(s, ",")
}

// inputsOfType selects <input> elements whose type equals args["type"].
var inputsOfType = Predicate{
	Source: `(root, args) => Array.from(root.querySelectorAll('input')).filter((e) => e.type === args.type)`,
	Native: func(root *html.Node, args any) []*html.Node {
		want := args.(map[string]string)["type"]
		var out []*html.Node
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode && n.Data == "input" {
				for _, a := range n.Attr {
					if a.Key == "type" && a.Val == want {
						out = append(out, n)
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(root)
		return out
	},
}

func TestStatic_CustomPredicateFindsResetInput(t *testing.T) {
	f := staticFinder(t, `<body><form><input type="text"><input type="reset"></form></body>`)

	got, err := f.QueryCustom(context.Background(), inputsOfType, map[string]string{"type": "reset"}, false)
	if err != nil {
		t.Fatalf("QueryCustom: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d elements, want 1", len(got))
	}
	info, _ := got[0].Info(context.Background())
	if !strings.Contains(info.HTML, `type="reset"`) {
		t.Errorf("HTML = %q", info.HTML)
	}
}

func TestStatic_CSSWithNoMatchIsEmptyAfterTimeout(t *testing.T) {
	f := staticFinder(t, `<body><p>nothing here</p></body>`)

	start := time.Now()
	got, err := f.QueryCSS(context.Background(), "button.missing", false)
	if err != nil {
		t.Fatalf("QueryCSS: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d elements, want 0", len(got))
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("returned before the timeout")
	}
}

func TestStatic_ExactTextOnlyVisible(t *testing.T) {
	f := staticFinder(t, `<body>
		<button>Save</button>
		<button hidden>Save</button>
		<a>Save draft</a>
	</body>`)

	got, err := f.ResolveAll(context.Background(), Text{Text: "save"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if tagsOf(t, got) != "button" {
		t.Errorf("got %q, want button", tagsOf(t, got))
	}

	got, err = f.ResolveAll(context.Background(), Text{Text: "save", IncludeHidden: true}, "")
	if err != nil {
		t.Fatal(err)
	}
	if tagsOf(t, got) != "button,button" {
		t.Errorf("with hidden: got %q, want button,button", tagsOf(t, got))
	}
}

func TestStatic_TextInsideShadowRoot(t *testing.T) {
	f := staticFinder(t, `<body>
		<my-card><template shadowrootmode="open">
			<inner-card><template shadowrootmode="open"><span>Deep</span></template></inner-card>
		</template></my-card>
	</body>`)

	el, err := f.ResolveOne(context.Background(), Text{Text: "Deep"}, "")
	if err != nil {
		t.Fatal(err)
	}
	info, _ := el.Info(context.Background())
	if info.Tag != "span" {
		t.Errorf("tag = %q, want span", info.Tag)
	}
}

func TestStatic_XPathMissesShadowContent(t *testing.T) {
	f := staticFinder(t, `<body><my-card><template shadowrootmode="open"><span>Deep</span></template></my-card></body>`)

	_, err := f.ResolveAll(context.Background(), XPath{Path: "//span"}, "")
	if err == nil {
		t.Fatal("xpath reached into a shadow root")
	}
	if err.Error() != `Custom selector $x("//span") not found` {
		t.Errorf("err = %v", err)
	}
}
