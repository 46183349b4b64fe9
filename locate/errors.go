package locate

import (
	"errors"
	"fmt"
)

// RemoteExecutionError reports that the document could not run a query:
// the connection dropped, the shipped script threw, or the transport timed
// out. It is never retried.
type RemoteExecutionError struct {
	Query string
	Err   error
}

func (e *RemoteExecutionError) Error() string {
	return fmt.Sprintf("locate: remote execution of %s: %v", e.Query, e.Err)
}

func (e *RemoteExecutionError) Unwrap() error { return e.Err }

// ElementNotFoundError is returned by the operations that require at least
// one match.
type ElementNotFoundError struct {
	Description string
}

func (e *ElementNotFoundError) Error() string {
	return e.Description + " not found"
}

// InvalidDescriptorError reports a descriptor that none of the search
// strategies accepts.
type InvalidDescriptorError struct {
	Reason string
}

func (e *InvalidDescriptorError) Error() string {
	return "locate: invalid descriptor: " + e.Reason
}

// errSoftTimeout ends a poll loop that found nothing. It is converted to an
// empty result before reaching callers.
var errSoftTimeout = errors.New("locate: no match before timeout")
