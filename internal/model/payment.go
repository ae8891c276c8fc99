package model

// PaymentOrder is the gateway-side handle created when payment is
// initiated.  It is bound 1:1 to a booking; the amount is the booking's
// final price converted to the gateway's minor units (paise for INR) at
// order-creation time, so a stale quote can never back an order.
//
// Fields:
//  OrderID   – gateway order identifier.
//  BookingID – booking the order pays for.
//  Amount    – amount in minor currency units.
//  Currency  – ISO currency code.
type PaymentOrder struct {
    OrderID   string `json:"order_id"`
    BookingID string `json:"booking_id"`
    Amount    int64  `json:"amount"`
    Currency  string `json:"currency"`
}

// GatewayConfirmation carries the signed fields the gateway hands back
// on success.  The signature must be verified server-side before the
// booking is trusted as paid; the client only forwards it.
//
// Fields:
//  OrderID   – gateway order the payment settles.
//  PaymentID – gateway payment identifier.
//  Signature – HMAC over the order/payment pair.
type GatewayConfirmation struct {
    OrderID   string `json:"gateway_order_id"`
    PaymentID string `json:"gateway_payment_id"`
    Signature string `json:"gateway_signature"`
}
