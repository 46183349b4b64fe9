package locate

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/domfind/locate/internal/dom"
	"github.com/hazyhaar/domfind/locate/internal/script"
)

// Descriptor says what to find. The set of implementations is closed: Text,
// CSS, XPath, Custom and Resolved.
type Descriptor interface {
	// Describe returns the human-readable form used in element descriptions
	// and not-found errors.
	Describe() string

	descriptor()
}

// Text finds elements by their visible text.
type Text struct {
	Text          string
	Exact         bool
	IncludeHidden bool
}

// CSS finds elements with a structural selector, across open shadow roots.
type CSS struct {
	Selector      string
	IncludeHidden bool
}

// XPath finds elements with a path query. Shadow roots are not searched.
type XPath struct {
	Path          string
	IncludeHidden bool
}

// Predicate is caller-supplied matching logic. Source is a script function
// expression `(root, args) => Node[]`; it is shipped as text and must not
// reference anything outside its arguments. Native is its in-process
// equivalent for documents evaluated without a script engine.
type Predicate struct {
	Source string
	Native dom.NativeMatcher
}

// Custom finds elements with a Predicate, across open shadow roots.
type Custom struct {
	Predicate     Predicate
	Args          any
	IncludeHidden bool
}

// Resolved wraps an element that has already been found.
type Resolved struct {
	Element *Element
}

func (d Text) Describe() string   { return fmt.Sprintf("Element matching text %q", d.Text) }
func (d CSS) Describe() string    { return fmt.Sprintf("Custom selector $(%q)", d.Selector) }
func (d XPath) Describe() string  { return fmt.Sprintf("Custom selector $x(%q)", d.Path) }
func (d Custom) Describe() string { return "Custom predicate" }
func (d Resolved) Describe() string {
	if d.Element == nil {
		return "Resolved element"
	}
	return d.Element.Description
}

func (Text) descriptor()     {}
func (CSS) descriptor()      {}
func (XPath) descriptor()    {}
func (Custom) descriptor()   {}
func (Resolved) descriptor() {}

// plan is a normalized descriptor: either a query to ship or a fixed result.
type plan struct {
	query         dom.Query
	fixed         []*Element
	includeHidden bool
}

// normalize maps d to exactly one search strategy. tag restricts text
// searches to one element name.
func normalize(d Descriptor, tag string) (plan, error) {
	switch d := d.(type) {
	case Text:
		if strings.TrimSpace(d.Text) == "" {
			return plan{}, &InvalidDescriptorError{Reason: "empty text"}
		}
		return plan{query: script.Text(d.Text, tag, d.Exact), includeHidden: d.IncludeHidden}, nil
	case CSS:
		if strings.TrimSpace(d.Selector) == "" {
			return plan{}, &InvalidDescriptorError{Reason: "empty selector"}
		}
		return plan{query: script.CSS(d.Selector), includeHidden: d.IncludeHidden}, nil
	case XPath:
		if strings.TrimSpace(d.Path) == "" {
			return plan{}, &InvalidDescriptorError{Reason: "empty path"}
		}
		return plan{query: script.XPath(d.Path), includeHidden: d.IncludeHidden}, nil
	case Custom:
		if strings.TrimSpace(d.Predicate.Source) == "" {
			return plan{}, &InvalidDescriptorError{Reason: "empty predicate source"}
		}
		return plan{
			query:         script.Custom(d.Predicate.Source, d.Args, d.Predicate.Native),
			includeHidden: d.IncludeHidden,
		}, nil
	case Resolved:
		if d.Element == nil || d.Element.Node == nil {
			return plan{}, &InvalidDescriptorError{Reason: "nil element"}
		}
		return plan{fixed: []*Element{d.Element}}, nil
	case nil:
		return plan{}, &InvalidDescriptorError{Reason: "nil descriptor"}
	default:
		return plan{}, &InvalidDescriptorError{Reason: fmt.Sprintf("unsupported descriptor %T", d)}
	}
}
