package reasoning

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ServiceError is an error response from the reasoning service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("reasoning service error (status %d): %s", e.StatusCode, e.Message)
}

// ErrNoCompletion is returned when the service answers 200 with no candidates.
var ErrNoCompletion = errors.New("no completion returned")

// IsRetryable classifies an error as transient. Only rate-limiting, 5xx and
// timeout signatures qualify; anything else (auth, malformed request, parse
// failures) must propagate immediately without retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode == 429 || svcErr.StatusCode >= 500
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Fall back to message signatures for errors that crossed a boundary
	// without structure.
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{"rate limit", "429", "timeout", "deadline exceeded", "overloaded", "unavailable", "resource exhausted"} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
