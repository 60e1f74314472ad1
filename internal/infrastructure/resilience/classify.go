package resilience

import (
	"context"
	"errors"
)

// ClassifyContextError handles errors caused by the call's own context.
// A cancelled call is the caller walking away and is neither retried nor
// counted. An expired deadline means the dependency did not answer in time:
// it counts against the breaker so a hung dependency trips it, and it is not
// retried because the deadline is already spent.
// The second result is false when err is not a context error.
func ClassifyContextError(err error) (ErrorClassification, bool) {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrorClassification{}, true
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorClassification{Retryable: false, RecordFailure: true}, true
	default:
		return ErrorClassification{}, false
	}
}
