package locate

import "context"

// Get is the old name of Elements.
//
// Deprecated: use Elements.
func (m *Match) Get(ctx context.Context, l Lookup) ([]*Element, error) {
	m.f.logger.WarnContext(ctx, "locate: DEPRECATED use Elements", "description", m.Description())
	return m.Elements(ctx, l)
}
