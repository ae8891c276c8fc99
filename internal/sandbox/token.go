package sandbox

import (
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// accessToken is a signed HS256 JWT plus its expiry.  Access tokens are
// short-lived and travel in the Authorization header.
type accessToken struct {
    Token string
    Exp   time.Time
}

// mintAccess signs an access token for userID.  Claims follow the usual
// shape: sub, exp and iat.
func mintAccess(secret, userID string, ttlMin int) (accessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub": userID,
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return accessToken{}, err
    }
    return accessToken{Token: signed, Exp: exp}, nil
}

// newRefreshRaw returns a cryptographically random refresh token and
// its expiry.  Only the SHA-256 hash of the raw value is kept
// server-side, so a leaked store cannot be replayed.
func newRefreshRaw(ttlDays int) (string, time.Time, error) {
    buf := make([]byte, 48)
    if _, err := rand.Read(buf); err != nil {
        return "", time.Time{}, err
    }
    exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
    return hex.EncodeToString(buf), exp, nil
}

// hashRefresh returns the hex SHA-256 of a raw refresh token.
func hashRefresh(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
