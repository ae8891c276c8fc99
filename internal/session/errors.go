// Package session implements the authenticated HTTP channel every API
// call travels through.  It decorates requests with the current access
// token, detects credential expiry from server rejections, and performs
// at most one refresh per expiry event no matter how many requests are
// in flight.  These sentinel errors let callers distinguish the failure
// classes without inspecting status codes themselves.
package session

import (
    "errors"
    "fmt"
)

// ErrAccountDeactivated is returned when the server rejects a request
// with the account-deactivation marker.  It is terminal: credentials are
// destroyed and no refresh is attempted, since a deactivated account
// must never be granted a refreshed token.
var ErrAccountDeactivated = errors.New("account deactivated")

// ErrSessionExpired is returned when a credential refresh fails for any
// reason other than deactivation.  Credentials are destroyed and the
// caller should route the user back to login.
var ErrSessionExpired = errors.New("session expired")

// ErrTimeout is returned when a request exceeds its deadline.  It is
// kept distinct from other network failures so the caller can offer
// "retry" rather than "contact support".
var ErrTimeout = errors.New("request timed out")

// deactivatedMarker is the substring the server places in a rejection
// body to signal account deactivation.
const deactivatedMarker = "account deactivated"

// APIError is any non-2xx response that is not an expiry case.  The
// channel propagates these unchanged; it never swallows unrelated
// failures.
type APIError struct {
    Status  int    // HTTP status code
    Message string // server-provided error message, may be empty
}

func (e *APIError) Error() string {
    if e.Message == "" {
        return fmt.Sprintf("api error: status %d", e.Status)
    }
    return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// StatusOf extracts the HTTP status from err when it wraps an APIError,
// returning 0 otherwise.
func StatusOf(err error) int {
    var ae *APIError
    if errors.As(err, &ae) {
        return ae.Status
    }
    return 0
}
