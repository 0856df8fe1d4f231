package gmapi

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError is a network-level or non-2xx HTTP failure for a single
// API operation. Status is 0 when the request never got an HTTP answer.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gmapi %s: http %d", e.Op, e.Status)
	}
	return fmt.Sprintf("gmapi %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err is a 429 answer from the platform.
func IsRateLimited(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == http.StatusTooManyRequests
}
