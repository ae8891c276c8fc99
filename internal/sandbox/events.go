package sandbox

import (
    "context"
    "encoding/json"
    "log"
    "os"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/roamstay/bookingflow/internal/model"
)

// confirmedQueue is the queue booking confirmations are published to.
const confirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published when a payment is verified and the
// booking becomes trusted as paid.  It carries enough for downstream
// consumers (notifications, analytics) to act without querying the
// sandbox.
type BookingConfirmedEvent struct {
    BookingID   string `json:"booking_id"`
    PropertyID  string `json:"property_id"`
    RoomID      string `json:"room_id"`
    CheckIn     string `json:"check_in"`
    CheckOut    string `json:"check_out"`
    Guests      int    `json:"guests"`
    FinalPrice  int64  `json:"final_price"`
    Currency    string `json:"currency"`
    PaymentID   string `json:"payment_id"`
    ConfirmedAt string `json:"confirmed_at"`
}

// NewBookingConfirmedEvent builds the event for a settled booking.
func NewBookingConfirmedEvent(b model.Booking, paymentID string) BookingConfirmedEvent {
    return BookingConfirmedEvent{
        BookingID:   b.ID,
        PropertyID:  b.Selection.PropertyID,
        RoomID:      b.Selection.RoomID,
        CheckIn:     b.Selection.CheckIn,
        CheckOut:    b.Selection.CheckOut,
        Guests:      b.Selection.Guests,
        FinalPrice:  b.FinalPrice,
        Currency:    b.Currency,
        PaymentID:   paymentID,
        ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
    }
}

// PublishBookingConfirmed publishes the event to RabbitMQ, best effort:
// errors are logged and returned but never interrupt the request that
// triggered them.  When no broker URL is configured the publish is a
// no-op, so tests and infrastructure-free runs stay silent.
func PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error {
    url := os.Getenv("RABBITMQ_URL")
    if url == "" {
        url = os.Getenv("AMQP_URL")
    }
    if url == "" {
        return nil
    }
    conn, err := amqp.Dial(url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable queue, declared idempotently.
    if _, err := ch.QueueDeclare(confirmedQueue, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }
    body, err := json.Marshal(event)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", confirmedQueue, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
