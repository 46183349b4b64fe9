package locate

import (
	"context"
	"time"
)

// poll calls fetch until it returns elements or timeout elapses, waiting
// interval between attempts. After the timeout exactly one more attempt is
// made; if it is still empty, poll returns errSoftTimeout. Fetch errors and
// context cancellation end polling at once.
func poll(ctx context.Context, interval, timeout time.Duration, fetch func(context.Context) ([]*Element, error)) ([]*Element, error) {
	start := time.Now()
	for time.Since(start) < timeout {
		elems, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if len(elems) > 0 {
			return elems, nil
		}

		wait := interval
		if left := timeout - time.Since(start); left < wait {
			wait = left
		}
		if wait <= 0 {
			break
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	elems, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, errSoftTimeout
	}
	return elems, nil
}
