// Package config loads application configuration from environment
// variables.  A .env file in the working directory is applied first
// when present, so local development needs no exported shell state.
package config

import (
    "log"
    "os"
    "strconv"
    "time"

    "github.com/joho/godotenv"
)

// Client holds everything the reservation client needs injected: where
// the API lives, the gateway's public key, and how long a single
// request may take.  Both URL and key are opaque to the core.
type Client struct {
    BaseURL        string        // API base URL, e.g. https://api.example.com/v1
    GatewayKey     string        // payment gateway public key
    RequestTimeout time.Duration // per-request timeout for quote/hold calls
}

// Sandbox holds the settings of the in-memory sandbox server.  It
// mirrors the shape of the real backend's configuration: token TTLs,
// bcrypt cost and the gateway key pair used to sign confirmations.
type Sandbox struct {
    Port           string        // HTTP port to listen on
    JWTSecret      string        // secret used to sign access tokens
    AccessTTLMin   int           // access token time-to-live in minutes
    RefreshTTLDays int           // refresh token time-to-live in days
    BcryptCost     int           // bcrypt cost for password hashing
    GatewayKey     string        // gateway public key echoed to clients
    GatewaySecret  string        // gateway secret used to sign/verify confirmations
    HoldTTL        time.Duration // how long a pending_payment hold lives
}

// LoadClient reads the client configuration.  Required variables cause
// a fatal log when missing.
func LoadClient() Client {
    _ = godotenv.Load()
    return Client{
        BaseURL:        must("API_BASE_URL"),
        GatewayKey:     must("GATEWAY_KEY"),
        RequestTimeout: envDur("REQUEST_TIMEOUT", 2*time.Minute),
    }
}

// LoadSandbox reads the sandbox configuration.  Everything except the
// port has a development default so `go run ./cmd/sandbox` works out of
// the box.
func LoadSandbox() Sandbox {
    _ = godotenv.Load()
    return Sandbox{
        Port:           getenv("SANDBOX_PORT", "8080"),
        JWTSecret:      getenv("JWT_SECRET", "sandbox-secret"),
        AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
        RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
        BcryptCost:     envInt("BCRYPT_COST", 10),
        GatewayKey:     getenv("GATEWAY_KEY", "rzp_test_sandbox"),
        GatewaySecret:  getenv("GATEWAY_SECRET", "sandbox-gateway-secret"),
        HoldTTL:        envDur("HOLD_TTL", 15*time.Minute),
    }
}

// must retrieves a required environment variable or exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// getenv returns the variable's value or a default when unset.
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// envInt parses an integer variable, falling back to def on absence or
// parse failure.
func envInt(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return def
}

// envDur parses a duration variable, falling back to def on absence or
// parse failure.
func envDur(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    if d, err := time.ParseDuration(v); err == nil {
        return d
    }
    return def
}
