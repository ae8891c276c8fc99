package checkout

import (
    "context"
    "fmt"
    "net/http"

    "github.com/roamstay/bookingflow/internal/model"
    "github.com/roamstay/bookingflow/internal/session"
)

// BookingAPI is the server surface the orchestrator drives.  The
// interface exists so flow tests can substitute fakes; APIClient is the
// real implementation over the session channel.
type BookingAPI interface {
    CalculatePrice(ctx context.Context, sel model.Selection) (model.Quote, error)
    CreateBooking(ctx context.Context, sel model.Selection) (model.Booking, error)
    CreateOrder(ctx context.Context, bookingID string, amount int64, currency string) (model.PaymentOrder, error)
    VerifyPayment(ctx context.Context, bookingID string, conf model.GatewayConfirmation) (model.Booking, error)
    CancelBooking(ctx context.Context, bookingID, reason string) (model.Booking, error)
    RequestRefund(ctx context.Context, bookingID, reason string) (model.Booking, error)
}

// APIClient implements BookingAPI over an authenticated session
// channel.  Beyond the round trip, each method owns the classification
// of its endpoint's failure modes into the package's error taxonomy.
type APIClient struct {
    ch *session.Channel
}

// NewAPIClient returns an APIClient over ch.
func NewAPIClient(ch *session.Channel) *APIClient {
    return &APIClient{ch: ch}
}

// CalculatePrice requests a fresh quote for sel.  A conflict-class
// rejection (the dates are already taken) maps to
// ErrAvailabilityConflict so the UI can send the user back to selection
// with a specific message.
func (a *APIClient) CalculatePrice(ctx context.Context, sel model.Selection) (model.Quote, error) {
    var quote model.Quote
    err := a.ch.Do(ctx, session.Request{
        Method: http.MethodPost,
        Path:   "/bookings/calculate-price",
        Body:   sel,
    }, &quote)
    if err != nil {
        return model.Quote{}, classifyConflict(err)
    }
    return quote, nil
}

// CreateBooking creates (or, on retry with identical inputs, retrieves)
// a booking in pending_payment for sel.  A 409 always surfaces as
// ErrAvailabilityConflict, never as a generic error.
func (a *APIClient) CreateBooking(ctx context.Context, sel model.Selection) (model.Booking, error) {
    var booking model.Booking
    err := a.ch.Do(ctx, session.Request{
        Method: http.MethodPost,
        Path:   "/bookings",
        Body:   sel,
    }, &booking)
    if err != nil {
        return model.Booking{}, classifyConflict(err)
    }
    return booking, nil
}

// CreateOrder creates a payment order bound to bookingID.  The amount
// is in minor currency units and must equal the booking's final price;
// the server rejects stale amounts.
func (a *APIClient) CreateOrder(ctx context.Context, bookingID string, amount int64, currency string) (model.PaymentOrder, error) {
    var order model.PaymentOrder
    err := a.ch.Do(ctx, session.Request{
        Method: http.MethodPost,
        Path:   "/payments/order",
        Body: map[string]any{
            "booking_id": bookingID,
            "amount":     amount,
            "currency":   currency,
        },
    }, &order)
    if err != nil {
        return model.PaymentOrder{}, err
    }
    return order, nil
}

// VerifyPayment submits the gateway's signed confirmation for
// server-side verification.  A 4xx rejection maps to
// ErrVerificationRejected; transport failures propagate unchanged so
// the caller can distinguish "the server said no" from "we never got an
// answer".
func (a *APIClient) VerifyPayment(ctx context.Context, bookingID string, conf model.GatewayConfirmation) (model.Booking, error) {
    var booking model.Booking
    err := a.ch.Do(ctx, session.Request{
        Method: http.MethodPost,
        Path:   "/payments/verify",
        Body: map[string]any{
            "booking_id":         bookingID,
            "gateway_order_id":   conf.OrderID,
            "gateway_payment_id": conf.PaymentID,
            "gateway_signature":  conf.Signature,
        },
    }, &booking)
    if err != nil {
        if status := session.StatusOf(err); status >= 400 && status < 500 {
            return model.Booking{}, fmt.Errorf("%w: %v", ErrVerificationRejected, err)
        }
        return model.Booking{}, err
    }
    return booking, nil
}

// CancelBooking cancels bookingID with a reason, releasing its hold.
func (a *APIClient) CancelBooking(ctx context.Context, bookingID, reason string) (model.Booking, error) {
    var booking model.Booking
    err := a.ch.Do(ctx, session.Request{
        Method: http.MethodPost,
        Path:   "/bookings/" + bookingID + "/cancel",
        Body:   map[string]string{"reason": reason},
    }, &booking)
    if err != nil {
        return model.Booking{}, err
    }
    return booking, nil
}

// RequestRefund submits a refund request for a cancelled or rejected
// booking.  The outcome is server-authoritative; the returned booking
// only reflects it.
func (a *APIClient) RequestRefund(ctx context.Context, bookingID, reason string) (model.Booking, error) {
    var booking model.Booking
    err := a.ch.Do(ctx, session.Request{
        Method: http.MethodPost,
        Path:   "/bookings/" + bookingID + "/refund-request",
        Body:   map[string]string{"reason": reason},
    }, &booking)
    if err != nil {
        return model.Booking{}, err
    }
    return booking, nil
}

// classifyConflict maps a 409 rejection to the canonical availability
// conflict; everything else passes through unchanged.
func classifyConflict(err error) error {
    if session.StatusOf(err) == http.StatusConflict {
        return fmt.Errorf("%w: %v", ErrAvailabilityConflict, err)
    }
    return err
}
