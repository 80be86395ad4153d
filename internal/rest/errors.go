package rest

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthFailed indicates credential acquisition or renewal failed.
	// A request rejected with 401 twice in a row wraps this error.
	ErrAuthFailed = errors.New("rest: authentication failed")

	// ErrSessionRejected indicates the session endpoint refused the
	// device registration that exchanges an OAuth token for a session token.
	ErrSessionRejected = errors.New("rest: session rejected")
)

// APIError is a non-2xx response from the Ring API.
//
// Code carries the vendor error code extracted from the response body,
// or 0 if the body carried none.
type APIError struct {
	StatusCode int
	Code       int64
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rest: api error %d (vendor code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("rest: api error %d: %s", e.StatusCode, e.Message)
}
