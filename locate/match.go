package locate

import "context"

// MatchOptions configures MatchText.
type MatchOptions struct {
	Exact         bool
	IncludeHidden bool

	// Refine, when set, narrows the visible matches.
	Refine Refiner
}

// Match is a pending text search. Nothing is shipped until Elements.
type Match struct {
	f    *Finder
	desc Text
	opts MatchOptions
}

// MatchText prepares a search for elements showing text.
func (f *Finder) MatchText(text string, opts MatchOptions) (*Match, error) {
	d := Text{Text: text, Exact: opts.Exact, IncludeHidden: opts.IncludeHidden}
	if _, err := normalize(d, ""); err != nil {
		return nil, err
	}
	return &Match{f: f, desc: d, opts: opts}, nil
}

// Description is the human-readable form of the search.
func (m *Match) Description() string { return m.desc.Describe() }

// Elements runs the search. No match within the timeout is an empty slice.
func (m *Match) Elements(ctx context.Context, l Lookup) ([]*Element, error) {
	elems, err := m.f.Find(ctx, m.desc, l)
	if err != nil || m.opts.Refine == nil {
		return elems, err
	}
	return m.opts.Refine.Refine(ctx, elems)
}
