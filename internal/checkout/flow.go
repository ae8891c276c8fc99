package checkout

import (
    "context"
    "errors"
    "fmt"
    "sync"

    "github.com/roamstay/bookingflow/internal/gateway"
    "github.com/roamstay/bookingflow/internal/model"
)

// State is the observable position of a reservation attempt.  The
// transient positions (quoting, holding, verifying, releasing) exist
// only inside a method call; what callers can observe between
// suspension points is one of these.
type State string

const (
    // StateSelecting – inputs may change freely; no quote is held.
    StateSelecting State = "selecting"
    // StateQuoted – a fresh quote for the current selection is in hand.
    StateQuoted State = "quoted"
    // StateHeld – a pending_payment booking holds the dates.  This is
    // also where a gateway dismissal lands: the hold is retained and
    // payment may be retried.
    StateHeld State = "held"
    // StateOrderCreated – a payment order is bound to the booking.
    StateOrderCreated State = "order_created"
    // StateAwaitingGateway – the gateway surface is open; the attempt
    // is suspended until its single callback fires.
    StateAwaitingGateway State = "awaiting_gateway"
    // StateConfirmed – terminal success; the booking is trusted as
    // payment_completed.
    StateConfirmed State = "confirmed"
    // StateVerificationFailed – terminal failure for this payment
    // attempt; the user is directed to support, never silently retried.
    StateVerificationFailed State = "verification_failed"
)

// Flow is one reservation attempt: a sequential state machine over the
// booking API and the payment gateway.  A Flow never runs two of its
// own steps concurrently, but a user may hold several independent Flows
// for unrelated properties.  The mutex exists because the UI may probe
// or mutate the flow (SetSelection) from another goroutine while Pay is
// suspended on the gateway.
type Flow struct {
    api        BookingAPI
    gw         gateway.Client
    gatewayKey string
    prefill    gateway.Prefill
    theme      gateway.Theme

    mu      sync.Mutex
    state   State
    sel     model.Selection
    hasSel  bool
    quote   *model.Quote
    booking *model.Booking
    order   *model.PaymentOrder
    // pendingConf is a signed gateway confirmation whose server-side
    // verification failed on transport.  The money may already be
    // taken, so a Pay retry must resubmit it, never open the gateway
    // again.
    pendingConf *model.GatewayConfirmation
}

// FlowOption customises a Flow.
type FlowOption func(*Flow)

// WithPrefill sets the contact details passed to the gateway form.
func WithPrefill(p gateway.Prefill) FlowOption {
    return func(f *Flow) { f.prefill = p }
}

// WithTheme sets the gateway widget theme.
func WithTheme(t gateway.Theme) FlowOption {
    return func(f *Flow) { f.theme = t }
}

// NewFlow returns a Flow in StateSelecting.  gatewayKey is the
// gateway's public key from configuration.
func NewFlow(api BookingAPI, gw gateway.Client, gatewayKey string, opts ...FlowOption) *Flow {
    f := &Flow{api: api, gw: gw, gatewayKey: gatewayKey, state: StateSelecting}
    for _, opt := range opts {
        opt(f)
    }
    return f
}

// State returns the current observable state.
func (f *Flow) State() State {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.state
}

// Quote returns a copy of the current quote, if any.
func (f *Flow) Quote() (model.Quote, bool) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.quote == nil {
        return model.Quote{}, false
    }
    return *f.quote, true
}

// Booking returns a copy of the current booking, if any.
func (f *Flow) Booking() (model.Booking, bool) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.booking == nil {
        return model.Booking{}, false
    }
    return *f.booking, true
}

// Order returns a copy of the current payment order, if any.
func (f *Flow) Order() (model.PaymentOrder, bool) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.order == nil {
        return model.PaymentOrder{}, false
    }
    return *f.order, true
}

// SetSelection installs new inputs and returns the flow to
// StateSelecting, discarding any cached quote, booking reference and
// order: a quote is only ever valid for the exact selection it was
// computed from.  While a gateway wait is pending the in-flight order
// may not be abandoned, so the change is rejected with
// ErrPaymentInFlight.
func (f *Flow) SetSelection(sel model.Selection) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.state == StateAwaitingGateway {
        return ErrPaymentInFlight
    }
    f.sel = sel
    f.hasSel = true
    f.quote = nil
    f.booking = nil
    f.order = nil
    f.pendingConf = nil
    f.state = StateSelecting
    return nil
}

// RequestQuote fetches a fresh quote for the current selection.  On an
// availability conflict the specific condition is surfaced; any failure
// discards the cached quote and returns the flow to StateSelecting, so
// a stale price can never survive a failed re-quote.  Retrying the same
// step from there is always legal.
func (f *Flow) RequestQuote(ctx context.Context) (model.Quote, error) {
    f.mu.Lock()
    if !f.hasSel {
        f.mu.Unlock()
        return model.Quote{}, ErrNoSelection
    }
    if f.state == StateAwaitingGateway {
        f.mu.Unlock()
        return model.Quote{}, ErrPaymentInFlight
    }
    sel := f.sel
    f.mu.Unlock()

    if err := sel.Validate(); err != nil {
        return model.Quote{}, fmt.Errorf("%w: %v", ErrNoSelection, err)
    }
    quote, err := f.api.CalculatePrice(ctx, sel)

    f.mu.Lock()
    defer f.mu.Unlock()
    if err != nil {
        f.quote = nil
        f.state = StateSelecting
        return model.Quote{}, err
    }
    f.quote = &quote
    f.state = StateQuoted
    return quote, nil
}

// ConfirmHold creates (or retrieves) the pending_payment booking for
// the quoted selection.  Creation is idempotent per (room, dates,
// guests): retrying with identical inputs reuses the existing pending
// booking rather than opening a duplicate hold.  A conflict returns the
// flow to StateSelecting with the quote discarded.
func (f *Flow) ConfirmHold(ctx context.Context) (model.Booking, error) {
    f.mu.Lock()
    if f.state != StateQuoted || f.quote == nil {
        f.mu.Unlock()
        return model.Booking{}, fmt.Errorf("%w: hold requires a current quote", ErrNoQuote)
    }
    sel := f.sel
    f.mu.Unlock()

    booking, err := f.api.CreateBooking(ctx, sel)

    f.mu.Lock()
    defer f.mu.Unlock()
    if err != nil {
        if isConflict(err) {
            f.quote = nil
            f.state = StateSelecting
        }
        return model.Booking{}, err
    }
    f.booking = &booking
    f.state = StateHeld
    return booking, nil
}

// CreateOrder creates the payment order for the held booking.  The
// gateway is never contacted for a non-chargeable amount; the guard
// fires before any network call.
func (f *Flow) CreateOrder(ctx context.Context) (model.PaymentOrder, error) {
    f.mu.Lock()
    if f.state != StateHeld || f.booking == nil {
        f.mu.Unlock()
        return model.PaymentOrder{}, fmt.Errorf("%w: order requires a held booking", ErrInvalidState)
    }
    if f.quote == nil || !f.quote.Chargeable() {
        f.mu.Unlock()
        return model.PaymentOrder{}, ErrNonChargeableAmount
    }
    booking := *f.booking
    f.mu.Unlock()

    // The order carries minor units; the final price was fixed on the
    // booking at hold creation, so a quote gone stale since then cannot
    // leak into the amount.
    amount := booking.FinalPrice * 100
    order, err := f.api.CreateOrder(ctx, booking.ID, amount, booking.Currency)

    f.mu.Lock()
    defer f.mu.Unlock()
    if err != nil {
        return model.PaymentOrder{}, err
    }
    f.order = &order
    f.state = StateOrderCreated
    return order, nil
}

// PayOutcome is the result of one gateway interaction.
type PayOutcome struct {
    // Dismissed is set when the user closed the gateway.  The booking
    // stays pending_payment and payment may be retried; no cancellation
    // is issued, the server-side hold timer owns expiry.
    Dismissed bool
    // Booking is the verified booking when the payment succeeded.
    Booking model.Booking
}

// Pay hands the current order to the gateway and suspends until its
// single callback fires, then verifies a successful confirmation with
// the server.  Dismissal is a valid outcome, not an error: the order is
// cleared so a retry creates a fresh one against the same booking.  A
// verification rejection is terminal for the attempt.  When the
// verification call itself fails in transit the confirmation is kept,
// and retrying Pay resubmits it rather than opening the gateway again:
// the user's money may already be taken, so they are never asked to pay
// twice.
func (f *Flow) Pay(ctx context.Context) (PayOutcome, error) {
    f.mu.Lock()
    if f.state != StateOrderCreated || f.order == nil || f.booking == nil {
        f.mu.Unlock()
        return PayOutcome{}, fmt.Errorf("%w: pay requires a created order", ErrInvalidState)
    }
    order := *f.order
    booking := *f.booking
    pending := f.pendingConf
    f.state = StateAwaitingGateway
    f.mu.Unlock()

    if pending != nil {
        return f.verify(ctx, booking, *pending)
    }

    outcomes := f.gw.Open(gateway.Checkout{
        Key:      f.gatewayKey,
        Amount:   order.Amount,
        Currency: order.Currency,
        OrderID:  order.OrderID,
        Prefill:  f.prefill,
        Theme:    f.theme,
    })

    var outcome gateway.Outcome
    select {
    case outcome = <-outcomes:
    case <-ctx.Done():
        // The caller abandoned the wait; the order is still intact so
        // the attempt can resume where it left off.
        f.mu.Lock()
        f.state = StateOrderCreated
        f.mu.Unlock()
        return PayOutcome{}, ctx.Err()
    }

    if outcome.Dismissed {
        f.mu.Lock()
        f.order = nil
        f.state = StateHeld
        f.mu.Unlock()
        return PayOutcome{Dismissed: true}, nil
    }
    if outcome.Confirmation == nil {
        f.mu.Lock()
        f.state = StateOrderCreated
        f.mu.Unlock()
        return PayOutcome{}, fmt.Errorf("%w: gateway produced neither confirmation nor dismissal", ErrInvalidState)
    }

    return f.verify(ctx, booking, *outcome.Confirmation)
}

// verify submits a signed confirmation for server-side verification and
// settles the flow on the result.  A rejection is terminal; a transport
// failure stashes the confirmation so the next Pay resubmits it.
func (f *Flow) verify(ctx context.Context, booking model.Booking, conf model.GatewayConfirmation) (PayOutcome, error) {
    verified, err := f.api.VerifyPayment(ctx, booking.ID, conf)

    f.mu.Lock()
    defer f.mu.Unlock()
    if err != nil {
        if isVerificationRejected(err) {
            f.pendingConf = nil
            f.state = StateVerificationFailed
        } else {
            // Transport failure: the outcome is unknown and the charge
            // may have landed, so keep the confirmation for resubmission.
            f.pendingConf = &conf
            f.state = StateOrderCreated
        }
        return PayOutcome{}, err
    }
    f.booking = &verified
    f.order = nil
    f.pendingConf = nil
    f.state = StateConfirmed
    return PayOutcome{Booking: verified}, nil
}

// Release abandons the held booking: an explicit cancellation with a
// reason.  Local quote/booking state is cleared so a fresh selection
// starts a new quote cycle.  The cancelled booking is returned so a
// refund can be requested against it.
func (f *Flow) Release(ctx context.Context, reason string) (model.Booking, error) {
    f.mu.Lock()
    if f.state == StateAwaitingGateway {
        f.mu.Unlock()
        return model.Booking{}, ErrPaymentInFlight
    }
    if f.booking == nil || (f.state != StateHeld && f.state != StateOrderCreated) {
        f.mu.Unlock()
        return model.Booking{}, fmt.Errorf("%w: release requires a held booking", ErrInvalidState)
    }
    bookingID := f.booking.ID
    f.mu.Unlock()

    cancelled, err := f.api.CancelBooking(ctx, bookingID, reason)

    f.mu.Lock()
    defer f.mu.Unlock()
    if err != nil {
        return model.Booking{}, err
    }
    f.quote = nil
    f.booking = nil
    f.order = nil
    f.pendingConf = nil
    f.state = StateSelecting
    return cancelled, nil
}

// RequestRefund submits a refund request for a cancelled or rejected
// booking.  The reason is mandatory and at most one active refund may
// exist; the server decides the outcome, the returned booking only
// reflects it.
func (f *Flow) RequestRefund(ctx context.Context, booking model.Booking, reason string) (model.Booking, error) {
    if reason == "" {
        return model.Booking{}, fmt.Errorf("%w: a reason is required", ErrRefundNotAllowed)
    }
    if !booking.RefundRequestable() {
        return model.Booking{}, ErrRefundNotAllowed
    }
    return f.api.RequestRefund(ctx, booking.ID, reason)
}

func isConflict(err error) bool {
    return errors.Is(err, ErrAvailabilityConflict)
}

func isVerificationRejected(err error) bool {
    return errors.Is(err, ErrVerificationRejected)
}
