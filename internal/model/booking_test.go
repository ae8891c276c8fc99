package model

import "testing"

func TestStatusTransitions(t *testing.T) {
    t.Parallel()

    tests := []struct {
        name string
        from Status
        to   Status
        ok   bool
    }{
        {"pending to paid", StatusPendingPayment, StatusPaymentCompleted, true},
        {"pending to cancelled", StatusPendingPayment, StatusCancelled, true},
        {"pending to rejected", StatusPendingPayment, StatusRejected, true},
        {"paid to confirmed", StatusPaymentCompleted, StatusConfirmed, true},
        {"confirmed to checked in", StatusConfirmed, StatusCheckedIn, true},
        {"checked in to checked out", StatusCheckedIn, StatusCheckedOut, true},
        {"checked out to completed", StatusCheckedOut, StatusCompleted, true},
        {"pending skips payment", StatusPendingPayment, StatusConfirmed, false},
        {"paid back to pending", StatusPaymentCompleted, StatusPendingPayment, false},
        {"cancelled is terminal", StatusCancelled, StatusPendingPayment, false},
        {"rejected is terminal", StatusRejected, StatusConfirmed, false},
        {"completed is terminal", StatusCompleted, StatusCheckedIn, false},
        {"checked out cannot cancel", StatusCheckedOut, StatusCancelled, false},
    }
    for _, tt := range tests {
        tt := tt
        t.Run(tt.name, func(t *testing.T) {
            t.Parallel()
            b := Booking{ID: "b1", Status: tt.from}
            err := b.TransitionTo(tt.to)
            if tt.ok && err != nil {
                t.Fatalf("expected %s -> %s to be legal, got %v", tt.from, tt.to, err)
            }
            if !tt.ok && err == nil {
                t.Fatalf("expected %s -> %s to be rejected", tt.from, tt.to)
            }
            if tt.ok && b.Status != tt.to {
                t.Fatalf("status not applied, got %s", b.Status)
            }
            if !tt.ok && b.Status != tt.from {
                t.Fatalf("illegal transition mutated status to %s", b.Status)
            }
        })
    }
}

func TestTransitionToUnknownStatus(t *testing.T) {
    t.Parallel()
    b := Booking{Status: StatusPendingPayment}
    if err := b.TransitionTo(Status("exploded")); err == nil {
        t.Fatal("expected unknown status to be rejected")
    }
}

func TestRefundChainGatedOnTerminalStatus(t *testing.T) {
    t.Parallel()

    b := Booking{Status: StatusPendingPayment, RefundStatus: RefundNotRequested}
    if err := b.TransitionRefundTo(RefundRequested); err == nil {
        t.Fatal("refund chain must be unreachable while pending_payment")
    }

    b.Status = StatusCancelled
    if err := b.TransitionRefundTo(RefundRequested); err != nil {
        t.Fatalf("cancelled booking should accept a refund request: %v", err)
    }
    // Second request against the same booking is illegal.
    if err := b.TransitionRefundTo(RefundRequested); err == nil {
        t.Fatal("duplicate refund request must be rejected")
    }
    if err := b.TransitionRefundTo(RefundApproved); err != nil {
        t.Fatalf("requested -> approved: %v", err)
    }
    if err := b.TransitionRefundTo(RefundProcessed); err != nil {
        t.Fatalf("approved -> processed: %v", err)
    }
}

func TestRefundRejectedIsTerminal(t *testing.T) {
    t.Parallel()
    b := Booking{Status: StatusRejected, RefundStatus: RefundRequested}
    if err := b.TransitionRefundTo(RefundRejected); err != nil {
        t.Fatalf("requested -> rejected: %v", err)
    }
    if err := b.TransitionRefundTo(RefundProcessed); err == nil {
        t.Fatal("a rejected refund must not become processed")
    }
}

func TestRefundRequestable(t *testing.T) {
    t.Parallel()

    tests := []struct {
        name   string
        status Status
        refund RefundStatus
        want   bool
    }{
        {"cancelled fresh", StatusCancelled, RefundNotRequested, true},
        {"rejected fresh", StatusRejected, RefundNotRequested, true},
        {"cancelled already requested", StatusCancelled, RefundRequested, false},
        {"active booking", StatusConfirmed, RefundNotRequested, false},
        {"pending booking", StatusPendingPayment, RefundNotRequested, false},
    }
    for _, tt := range tests {
        tt := tt
        t.Run(tt.name, func(t *testing.T) {
            t.Parallel()
            b := Booking{Status: tt.status, RefundStatus: tt.refund}
            if got := b.RefundRequestable(); got != tt.want {
                t.Fatalf("RefundRequestable() = %v, want %v", got, tt.want)
            }
        })
    }
}
