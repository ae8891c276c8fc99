// Package gateway defines the contract with the external payment
// gateway.  The gateway is inherently push-based: its client surface is
// opened imperatively and later invokes exactly one of a success or a
// dismissal callback.  Open converts that into a single-shot channel
// the orchestrator can await, which is the one place the flow crosses
// from pull-based to push-based control.
package gateway

import (
    "github.com/roamstay/bookingflow/internal/model"
)

// Checkout is everything the gateway client is constructed from.  Key
// is the gateway's public key, injected through configuration; Amount
// is in minor currency units and must come from the payment order, not
// from a quote.
type Checkout struct {
    Key      string
    Amount   int64
    Currency string
    OrderID  string
    Prefill  Prefill
    Theme    Theme
}

// Prefill pre-populates the gateway's payment form.
type Prefill struct {
    Name    string
    Email   string
    Contact string
}

// Theme controls the gateway widget's appearance.
type Theme struct {
    Color string
}

// Outcome is the single result of a gateway interaction.  Exactly one
// of the two fields is meaningful: a non-nil Confirmation on success,
// or Dismissed when the user closed the gateway surface.  Dismissal is
// not an error; the hold stays alive and payment may be retried.
type Outcome struct {
    Confirmation *model.GatewayConfirmation
    Dismissed    bool
}

// Client is the external gateway's client surface.  Open presents the
// checkout to the user and delivers exactly one Outcome on the returned
// channel.  Implementations must never send more than one value and
// must not close the channel before sending.
type Client interface {
    Open(co Checkout) <-chan Outcome
}
