package model

import (
    "fmt"
    "time"
)

// Status is the lifecycle state of a booking.  The set is ordered with
// branches: the happy path runs pending_payment → payment_completed →
// confirmed → checked_in → checked_out → completed, while rejected and
// cancelled are reachable from any pre-terminal state.  Transitions are
// validated through the table below instead of trusting raw server
// strings wherever they are read.
type Status string

const (
    StatusPendingPayment   Status = "pending_payment"
    StatusPaymentCompleted Status = "payment_completed"
    StatusConfirmed        Status = "confirmed"
    StatusCheckedIn        Status = "checked_in"
    StatusCheckedOut       Status = "checked_out"
    StatusCompleted        Status = "completed"
    StatusRejected         Status = "rejected"
    StatusCancelled        Status = "cancelled"
)

// RefundStatus tracks the independent refund chain.  It only becomes
// reachable once the booking status is cancelled or rejected.
type RefundStatus string

const (
    RefundNotRequested RefundStatus = "not_requested"
    RefundRequested    RefundStatus = "requested"
    RefundApproved     RefundStatus = "approved"
    RefundRejected     RefundStatus = "rejected"
    RefundProcessed    RefundStatus = "processed"
)

// statusTransitions is the full transition table for Status.  An empty
// target list marks a terminal state.
var statusTransitions = map[Status][]Status{
    StatusPendingPayment:   {StatusPaymentCompleted, StatusRejected, StatusCancelled},
    StatusPaymentCompleted: {StatusConfirmed, StatusRejected, StatusCancelled},
    StatusConfirmed:        {StatusCheckedIn, StatusRejected, StatusCancelled},
    StatusCheckedIn:        {StatusCheckedOut, StatusCancelled},
    StatusCheckedOut:       {StatusCompleted},
    StatusCompleted:        {},
    StatusRejected:         {},
    StatusCancelled:        {},
}

// refundTransitions mirrors statusTransitions for the refund chain.  A
// rejected refund is terminal; only an approved refund can be processed.
var refundTransitions = map[RefundStatus][]RefundStatus{
    RefundNotRequested: {RefundRequested},
    RefundRequested:    {RefundApproved, RefundRejected},
    RefundApproved:     {RefundProcessed},
    RefundRejected:     {},
    RefundProcessed:    {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
    _, ok := statusTransitions[s]
    return ok
}

// Terminal reports whether no further status transitions exist.
func (s Status) Terminal() bool {
    targets, ok := statusTransitions[s]
    return ok && len(targets) == 0
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
    for _, t := range statusTransitions[s] {
        if t == next {
            return true
        }
    }
    return false
}

// Valid reports whether r is a known refund status value.
func (r RefundStatus) Valid() bool {
    _, ok := refundTransitions[r]
    return ok
}

// CanTransition reports whether moving from r to next is legal.
func (r RefundStatus) CanTransition(next RefundStatus) bool {
    for _, t := range refundTransitions[r] {
        if t == next {
            return true
        }
    }
    return false
}

// Booking is the reservation record.  While the status is
// pending_payment the booking acts as a hold: it provisionally reserves
// the date range until HoldExpiresAt, after which the server releases it.
// Bookings are never deleted, only moved to a terminal status.
//
// Fields:
//  ID            – stable identifier assigned at hold creation.
//  Status        – current lifecycle state (see Status).
//  RefundStatus  – independent refund chain (see RefundStatus).
//  Selection     – the inputs the booking was created from.
//  FinalPrice    – total agreed at hold creation, whole currency units.
//  Currency      – ISO currency code.
//  HoldExpiresAt – when a pending_payment hold lapses server-side.
//  CreatedAt     – creation timestamp.
type Booking struct {
    ID            string       `json:"id"`
    Status        Status       `json:"status"`
    RefundStatus  RefundStatus `json:"refund_status"`
    Selection     Selection    `json:"selection"`
    FinalPrice    int64        `json:"final_price"`
    Currency      string       `json:"currency"`
    HoldExpiresAt time.Time    `json:"hold_expires_at,omitempty"`
    CreatedAt     time.Time    `json:"created_at"`
}

// TransitionTo mutates the booking status after validating the move
// against the transition table.
func (b *Booking) TransitionTo(next Status) error {
    if !next.Valid() {
        return fmt.Errorf("unknown booking status %q", next)
    }
    if !b.Status.CanTransition(next) {
        return fmt.Errorf("illegal booking transition %s -> %s", b.Status, next)
    }
    b.Status = next
    return nil
}

// TransitionRefundTo mutates the refund status after validating both the
// refund chain and the gate: refunds exist only for cancelled or
// rejected bookings.
func (b *Booking) TransitionRefundTo(next RefundStatus) error {
    if !next.Valid() {
        return fmt.Errorf("unknown refund status %q", next)
    }
    if b.Status != StatusCancelled && b.Status != StatusRejected {
        return fmt.Errorf("refund chain unreachable while booking is %s", b.Status)
    }
    if !b.RefundStatus.CanTransition(next) {
        return fmt.Errorf("illegal refund transition %s -> %s", b.RefundStatus, next)
    }
    b.RefundStatus = next
    return nil
}

// RefundRequestable reports whether a refund request may be submitted:
// the booking must be cancelled or rejected and must not already carry
// an active refund.
func (b *Booking) RefundRequestable() bool {
    return (b.Status == StatusCancelled || b.Status == StatusRejected) &&
        b.RefundStatus == RefundNotRequested
}
