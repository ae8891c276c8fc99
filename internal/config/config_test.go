package config

import (
    "testing"
    "time"
)

func TestLoadClientReadsEnvironment(t *testing.T) {
    t.Setenv("API_BASE_URL", "https://api.example.com/v1")
    t.Setenv("GATEWAY_KEY", "rzp_live_abc")
    t.Setenv("REQUEST_TIMEOUT", "45s")

    cfg := LoadClient()
    if cfg.BaseURL != "https://api.example.com/v1" {
        t.Fatalf("BaseURL = %q", cfg.BaseURL)
    }
    if cfg.GatewayKey != "rzp_live_abc" {
        t.Fatalf("GatewayKey = %q", cfg.GatewayKey)
    }
    if cfg.RequestTimeout != 45*time.Second {
        t.Fatalf("RequestTimeout = %s", cfg.RequestTimeout)
    }
}

func TestLoadSandboxDefaults(t *testing.T) {
    for _, key := range []string{
        "SANDBOX_PORT", "JWT_SECRET", "ACCESS_TOKEN_TTL_MIN",
        "REFRESH_TOKEN_TTL_DAYS", "BCRYPT_COST", "GATEWAY_KEY",
        "GATEWAY_SECRET", "HOLD_TTL",
    } {
        t.Setenv(key, "")
    }

    cfg := LoadSandbox()
    if cfg.Port != "8080" {
        t.Fatalf("Port = %q, want default 8080", cfg.Port)
    }
    if cfg.AccessTTLMin != 15 || cfg.RefreshTTLDays != 30 {
        t.Fatalf("TTL defaults = %d/%d, want 15/30", cfg.AccessTTLMin, cfg.RefreshTTLDays)
    }
    if cfg.HoldTTL != 15*time.Minute {
        t.Fatalf("HoldTTL = %s, want 15m", cfg.HoldTTL)
    }
}

func TestEnvParsersFallBackOnGarbage(t *testing.T) {
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "soon")
    t.Setenv("HOLD_TTL", "a while")

    if got := envInt("ACCESS_TOKEN_TTL_MIN", 15); got != 15 {
        t.Fatalf("envInt fallback = %d, want 15", got)
    }
    if got := envDur("HOLD_TTL", 15*time.Minute); got != 15*time.Minute {
        t.Fatalf("envDur fallback = %s, want 15m", got)
    }
}
