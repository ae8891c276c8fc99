package main

import (
    "log"

    "github.com/roamstay/bookingflow/internal/config"
    "github.com/roamstay/bookingflow/internal/sandbox"
)

func main() {
    cfg := config.LoadSandbox()
    srv := sandbox.New(cfg)
    rdb := sandbox.NewRedisClient() // nil disables rate limiting
    e := srv.Echo(rdb)

    addr := ":" + cfg.Port
    log.Printf("sandbox listening on %s (hold ttl=%s)", addr, cfg.HoldTTL)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
