package fetcher

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// spaShells are empty mount points left by client-side frameworks.
var spaShells = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<div id="__next"></div>`,
	"<noscript>you need to enable javascript",
	"<noscript>enable javascript",
}

// IsSufficient reports whether the HTML carries enough server-rendered text
// to be searched without a browser.
func IsSufficient(body []byte) bool {
	if len(body) < 256 {
		return false
	}

	lower := bytes.ToLower(body)
	for _, shell := range spaShells {
		if bytes.Contains(lower, []byte(shell)) {
			return false
		}
	}

	text, markup := textMarkupRatio(body)
	total := text + markup
	if total == 0 || text < 200 {
		return false
	}
	return float64(text)/float64(total) >= 0.10
}

// textMarkupRatio counts non-whitespace text bytes outside script and style
// against every other byte of the document.
func textMarkupRatio(body []byte) (text, markup int) {
	z := html.NewTokenizer(bytes.NewReader(body))
	skip := 0
	for {
		tt := z.Next()
		raw := len(z.Raw())
		switch tt {
		case html.ErrorToken:
			return text, markup
		case html.TextToken:
			if skip > 0 {
				markup += raw
				continue
			}
			n := len(strings.Join(strings.Fields(string(z.Text())), ""))
			text += n
			markup += raw - n
		case html.StartTagToken:
			markup += raw
			if name, _ := z.TagName(); isRawText(name) {
				skip++
			}
		case html.EndTagToken:
			markup += raw
			if name, _ := z.TagName(); isRawText(name) && skip > 0 {
				skip--
			}
		default:
			markup += raw
		}
	}
}

func isRawText(name []byte) bool {
	return string(name) == "script" || string(name) == "style"
}
