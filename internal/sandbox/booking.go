package sandbox

import (
    "errors"
    "log"
    "net/http"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/roamstay/bookingflow/internal/config"
    "github.com/roamstay/bookingflow/internal/gateway"
    "github.com/roamstay/bookingflow/internal/model"
)

// BookingHandler implements the reservation endpoints: price
// calculation, hold creation, payment orders, verification,
// cancellation and refund requests.  All routes sit behind jwtAuth.
type BookingHandler struct {
    cfg   config.Sandbox
    store *Store
}

// NewBookingHandler returns a BookingHandler over store.
func NewBookingHandler(cfg config.Sandbox, store *Store) *BookingHandler {
    return &BookingHandler{cfg: cfg, store: store}
}

// CalculatePrice handles POST /bookings/calculate-price.  Unavailable
// dates are a 409 so clients can surface the specific condition rather
// than a generic failure.
func (h *BookingHandler) CalculatePrice(c echo.Context) error {
    userID, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var sel model.Selection
    if err := c.Bind(&sel); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := sel.Validate(); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    quote, err := h.store.QuoteFor(userID, sel)
    if err != nil {
        switch {
        case errors.Is(err, ErrRoomNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": ErrRoomNotFound.Error()})
        case errors.Is(err, ErrDatesTaken):
            return c.JSON(http.StatusConflict, echo.Map{"error": ErrDatesTaken.Error()})
        default:
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
    }
    return c.JSON(http.StatusOK, quote)
}

// CreateBooking handles POST /bookings.  Creation is idempotent per
// (room, dates, guests) for the same user: a retry returns the existing
// pending booking.  Anyone else on the same dates is a 409.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    userID, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var sel model.Selection
    if err := c.Bind(&sel); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := sel.Validate(); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    booking, err := h.store.CreateBooking(userID, sel)
    if err != nil {
        switch {
        case errors.Is(err, ErrRoomNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": ErrRoomNotFound.Error()})
        case errors.Is(err, ErrDatesTaken):
            return c.JSON(http.StatusConflict, echo.Map{"error": ErrDatesTaken.Error()})
        default:
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        }
    }
    return c.JSON(http.StatusCreated, booking)
}

type orderReq struct {
    BookingID string `json:"booking_id"`
    Amount    int64  `json:"amount"`
    Currency  string `json:"currency"`
}

// CreateOrder handles POST /payments/order.  The amount must equal the
// booking's final price in minor units; a mismatch means the client
// acted on a stale quote and is rejected with 422.
func (h *BookingHandler) CreateOrder(c echo.Context) error {
    userID, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req orderReq
    if err := c.Bind(&req); err != nil || req.BookingID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id required"})
    }
    order, err := h.store.CreateOrder(userID, req.BookingID, req.Amount, req.Currency)
    if err != nil {
        switch {
        case errors.Is(err, ErrBookingNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": ErrBookingNotFound.Error()})
        case errors.Is(err, ErrAmountMismatch):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": ErrAmountMismatch.Error()})
        default:
            return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
        }
    }
    return c.JSON(http.StatusCreated, order)
}

type verifyReq struct {
    BookingID string `json:"booking_id"`
    OrderID   string `json:"gateway_order_id"`
    PaymentID string `json:"gateway_payment_id"`
    Signature string `json:"gateway_signature"`
}

// VerifyPayment handles POST /payments/verify.  The gateway signature
// is checked against the configured secret before the booking is
// trusted as paid; on success a booking.confirmed event is published
// best-effort.
func (h *BookingHandler) VerifyPayment(c echo.Context) error {
    userID, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req verifyReq
    if err := c.Bind(&req); err != nil || req.BookingID == "" || req.OrderID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id and gateway fields required"})
    }
    if !gateway.Verify(h.cfg.GatewaySecret, req.OrderID, req.PaymentID, req.Signature) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ErrBadSignature.Error()})
    }
    booking, err := h.store.SettlePayment(userID, req.BookingID, req.OrderID)
    if err != nil {
        switch {
        case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrOrderNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
        default:
            return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
        }
    }
    if err := PublishBookingConfirmed(c.Request().Context(), NewBookingConfirmedEvent(booking, req.PaymentID)); err != nil {
        log.Printf("sandbox: booking.confirmed publish skipped: %v", err)
    }
    return c.JSON(http.StatusOK, booking)
}

type reasonReq struct {
    Reason string `json:"reason"`
}

// CancelBooking handles POST /bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    userID, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID := c.Param("id")
    if _, err := uuid.Parse(bookingID); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req reasonReq
    if err := c.Bind(&req); err != nil || req.Reason == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required"})
    }
    booking, err := h.store.CancelBooking(userID, bookingID)
    if err != nil {
        switch {
        case errors.Is(err, ErrBookingNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": ErrBookingNotFound.Error()})
        default:
            return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
        }
    }
    return c.JSON(http.StatusOK, booking)
}

// RequestRefund handles POST /bookings/:id/refund-request.
func (h *BookingHandler) RequestRefund(c echo.Context) error {
    userID, ok := currentUser(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID := c.Param("id")
    var req reasonReq
    if err := c.Bind(&req); err != nil || req.Reason == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required"})
    }
    booking, err := h.store.RequestRefund(userID, bookingID)
    if err != nil {
        switch {
        case errors.Is(err, ErrBookingNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": ErrBookingNotFound.Error()})
        default:
            return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
        }
    }
    return c.JSON(http.StatusOK, booking)
}
