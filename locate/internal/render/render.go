// Package render turns a located element's outer HTML into something safe to
// hand back to a caller: sanitized HTML and Markdown.
package render

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer is safe for concurrent use.
type Renderer struct {
	policy *bluemonday.Policy
	md     *converter.Converter
}

// New returns a Renderer using the UGC sanitization policy.
func New() *Renderer {
	return &Renderer{
		policy: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Sanitize strips scripts, event handlers and unsafe URLs.
func (r *Renderer) Sanitize(outerHTML string) string {
	return r.policy.Sanitize(outerHTML)
}

// Markdown converts sanitized outerHTML to Markdown. Relative links are
// resolved against domain when it is non-empty.
func (r *Renderer) Markdown(outerHTML, domain string) (string, error) {
	clean := r.Sanitize(outerHTML)
	var (
		md  string
		err error
	)
	if domain != "" {
		md, err = r.md.ConvertString(clean, converter.WithDomain(domain))
	} else {
		md, err = r.md.ConvertString(clean)
	}
	if err != nil {
		return "", fmt.Errorf("render: markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
