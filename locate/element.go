package locate

import (
	"context"
	"fmt"

	"github.com/hazyhaar/domfind/locate/internal/dom"
)

// Capability is an extra operation attached to every element a Finder
// returns.
type Capability func(ctx context.Context, e *Element) (any, error)

// Element is a located node plus the description of the search that found
// it. Its lifetime is the document's, not the Finder's.
type Element struct {
	Node         dom.Node
	Description  string
	Capabilities map[string]Capability
}

// Visible reports whether the element is rendered.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	return e.Node.Visible(ctx)
}

// Info returns the element's tag, text, outer HTML and XPath.
func (e *Element) Info(ctx context.Context) (Info, error) {
	return e.Node.Info(ctx)
}

// Call runs the named capability.
func (e *Element) Call(ctx context.Context, name string) (any, error) {
	c, ok := e.Capabilities[name]
	if !ok {
		return nil, fmt.Errorf("locate: %s: no capability %q", e.Description, name)
	}
	return c(ctx, e)
}

func (e *Element) String() string { return e.Description }
