// Command bookdemo drives one complete reservation transaction against
// a running API (typically the sandbox): register, quote, hold, payment
// order, gateway confirmation and server-side verification.  The
// gateway is simulated headlessly with the configured secret, which is
// why this demo only works against a backend whose secret you hold.
package main

import (
    "context"
    "flag"
    "fmt"
    "log"
    "net/http"
    "os"
    "time"

    "github.com/google/uuid"

    "github.com/roamstay/bookingflow/internal/checkout"
    "github.com/roamstay/bookingflow/internal/config"
    "github.com/roamstay/bookingflow/internal/gateway"
    "github.com/roamstay/bookingflow/internal/model"
    "github.com/roamstay/bookingflow/internal/session"
)

// autoGateway stands in for the browser gateway widget: it immediately
// "pays" by signing the order with the configured secret.
type autoGateway struct {
    secret string
}

func (g autoGateway) Open(co gateway.Checkout) <-chan gateway.Outcome {
    out := make(chan gateway.Outcome, 1)
    paymentID := "pay_" + uuid.NewString()[:8]
    out <- gateway.Outcome{Confirmation: &model.GatewayConfirmation{
        OrderID:   co.OrderID,
        PaymentID: paymentID,
        Signature: gateway.Sign(g.secret, co.OrderID, paymentID),
    }}
    return out
}

func main() {
    property := flag.String("property", "prop_sea_breeze", "property id")
    room := flag.String("room", "room_deluxe", "room id")
    checkIn := flag.String("checkin", "2025-06-10", "check-in date (YYYY-MM-DD)")
    checkOut := flag.String("checkout", "2025-06-12", "check-out date (YYYY-MM-DD)")
    guests := flag.Int("guests", 2, "guest count")
    flag.Parse()

    cfg := config.LoadClient()
    secret := os.Getenv("GATEWAY_SECRET")
    if secret == "" {
        log.Fatal("GATEWAY_SECRET is required to simulate the gateway")
    }

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
    defer cancel()

    store := session.NewMemoryStore()
    ch := session.New(cfg.BaseURL, store, session.WithTimeout(cfg.RequestTimeout))

    // Throwaway account for the demo run.
    var sess struct {
        AccessToken  string `json:"access_token"`
        RefreshToken string `json:"refresh_token"`
    }
    err := ch.Do(ctx, session.Request{
        Method: http.MethodPost,
        Path:   "/auth/register",
        Body: map[string]string{
            "email":    fmt.Sprintf("demo-%s@example.com", uuid.NewString()[:8]),
            "password": uuid.NewString(),
        },
        NoAuth: true,
    }, &sess)
    if err != nil {
        log.Fatalf("register: %v", err)
    }
    ch.SetCredentials(model.CredentialPair{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken})

    flow := checkout.NewFlow(checkout.NewAPIClient(ch), autoGateway{secret: secret}, cfg.GatewayKey)
    if err := flow.SetSelection(model.Selection{
        PropertyID: *property,
        RoomID:     *room,
        CheckIn:    *checkIn,
        CheckOut:   *checkOut,
        Guests:     *guests,
    }); err != nil {
        log.Fatalf("selection: %v", err)
    }

    quote, err := flow.RequestQuote(ctx)
    if err != nil {
        log.Fatalf("quote: %v", err)
    }
    log.Printf("quote: room=%d taxes=%d final=%d %s", quote.RoomTotal, quote.Taxes, quote.FinalPrice, quote.Currency)

    booking, err := flow.ConfirmHold(ctx)
    if err != nil {
        log.Fatalf("hold: %v", err)
    }
    log.Printf("hold: booking=%s status=%s expires=%s", booking.ID, booking.Status, booking.HoldExpiresAt.Format(time.RFC3339))

    order, err := flow.CreateOrder(ctx)
    if err != nil {
        log.Fatalf("order: %v", err)
    }
    log.Printf("order: %s amount=%d %s", order.OrderID, order.Amount, order.Currency)

    result, err := flow.Pay(ctx)
    if err != nil {
        log.Fatalf("pay: %v", err)
    }
    if result.Dismissed {
        log.Printf("gateway dismissed; hold retained on booking %s", booking.ID)
        return
    }
    log.Printf("confirmed: booking=%s status=%s", result.Booking.ID, result.Booking.Status)
}
