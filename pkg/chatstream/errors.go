package chatstream

import (
	"errors"
	"fmt"
)

// ErrCanceled is returned once a stream's context has been canceled. It
// always wraps context.Canceled as well.
var ErrCanceled = errors.New("chat stream canceled")

// StatusError is returned by Client.Stream when the backend answers with a
// non-2xx status or without a readable body. No events are produced.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("SSE request failed: %s", e.Status)
}
