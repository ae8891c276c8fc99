package gateway

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
)

// Sign computes the gateway's confirmation signature: a hex-encoded
// HMAC-SHA256 over "orderID|paymentID" keyed with the gateway secret.
// The production gateway computes this on its side; this helper exists
// for the sandbox server and for test doubles that need to produce
// verifiable confirmations.
func Sign(secret, orderID, paymentID string) string {
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(orderID + "|" + paymentID))
    return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the valid signature for the given
// order/payment pair.  Comparison is constant-time.
func Verify(secret, orderID, paymentID, sig string) bool {
    expected := Sign(secret, orderID, paymentID)
    return hmac.Equal([]byte(expected), []byte(sig))
}
