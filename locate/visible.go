package locate

import "context"

// filterVisible keeps the visible elements, in order. Every candidate is
// checked, one at a time.
func filterVisible(ctx context.Context, elems []*Element) ([]*Element, error) {
	out := make([]*Element, 0, len(elems))
	for _, e := range elems {
		ok, err := e.Visible(ctx)
		if err != nil {
			return nil, &RemoteExecutionError{Query: "visibility of " + e.Description, Err: err}
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}
