// Package checkout drives the reservation transaction: quote, hold,
// payment order, gateway handoff, verification, and the compensating
// actions (release, refund request).  Each failure class below owns its
// own recovery; callers map each one to a single stable user-facing
// message instead of guessing from status codes.
package checkout

import "errors"

// ErrAvailabilityConflict means someone else already booked these
// dates.  It is recovered by returning the user to selection and must
// never surface as a generic failure.
var ErrAvailabilityConflict = errors.New("dates no longer available")

// ErrNonChargeableAmount guards the gateway: a quote with a zero or
// absent final amount never creates a payment order.
var ErrNonChargeableAmount = errors.New("non-chargeable amount")

// ErrVerificationRejected means the server refused the gateway's signed
// confirmation.  It is terminal for the payment attempt and must never
// be silently retried, since it may indicate tampering.
var ErrVerificationRejected = errors.New("payment verification rejected")

// ErrPaymentInFlight rejects price-affecting input changes while a
// gateway wait is pending; the in-flight order must settle first.
var ErrPaymentInFlight = errors.New("payment in flight")

// ErrNoQuote is returned when a step requires a quote that has not been
// fetched (or was discarded by a selection change).
var ErrNoQuote = errors.New("no current quote")

// ErrNoSelection is returned when a quote is requested before any
// selection was made.
var ErrNoSelection = errors.New("no selection")

// ErrInvalidState rejects a step invoked outside its place in the
// sequence (e.g. creating an order with no held booking).
var ErrInvalidState = errors.New("operation not valid in current state")

// ErrRefundNotAllowed is returned when a refund request is submitted
// for a booking that is not cancelled/rejected or already carries an
// active refund.
var ErrRefundNotAllowed = errors.New("refund not allowed for this booking")
