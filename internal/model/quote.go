package model

// Quote is a server-computed price breakdown for one specific selection.
// A quote is immutable once returned and carries no hold: changing any
// part of the selection requires requesting a fresh one.  Amounts are in
// whole currency units; conversion to the gateway's minor units happens
// at payment-order creation.
//
// Fields:
//  RoomTotal     – room subtotal for the whole stay.
//  PackageTotal  – package add-on subtotal.
//  MealTotal     – meal add-on subtotal.
//  ActivityTotal – activity add-on subtotal.
//  Taxes         – total taxes applied.
//  FinalPrice    – grand total the payment order must match.
//  Currency      – ISO currency code (e.g. "INR").
type Quote struct {
    RoomTotal     int64  `json:"room_total"`
    PackageTotal  int64  `json:"package_total"`
    MealTotal     int64  `json:"meal_total"`
    ActivityTotal int64  `json:"activity_total"`
    Taxes         int64  `json:"taxes"`
    FinalPrice    int64  `json:"final_price"`
    Currency      string `json:"currency"`
}

// Chargeable reports whether this quote can back a payment order.  A
// zero or negative final price must never reach the gateway.
func (q Quote) Chargeable() bool {
    return q.FinalPrice > 0
}
