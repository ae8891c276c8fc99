package sandbox

import (
    "context"
    "net/http"
    "os"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from REDIS_ADDR (host:port) and
// optionally REDIS_PASSWORD/REDIS_DB.  It returns nil when the address
// is unset or the server is unreachable; callers degrade by disabling
// rate limiting, never by failing startup.
func NewRedisClient() *redis.Client {
    addr := os.Getenv("REDIS_ADDR")
    if addr == "" {
        return nil
    }
    dbNum := 0
    if s := os.Getenv("REDIS_DB"); s != "" {
        if n, err := strconv.Atoi(s); err == nil {
            dbNum = n
        }
    }
    client := redis.NewClient(&redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       dbNum,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        return nil
    }
    return client
}

// rateLimit is a fixed-window per-IP limiter over Redis INCR/EXPIRE,
// applied to the auth endpoints to blunt credential stuffing against
// the sandbox.  With a nil client it is a pass-through.
func rateLimit(rdb *redis.Client, limit int, window time.Duration) echo.MiddlewareFunc {
    if rdb == nil || limit <= 0 {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := "rl:" + c.RealIP() + ":" + c.Path()
            ctx := c.Request().Context()
            count, err := rdb.Incr(ctx, key).Result()
            if err != nil {
                // Redis trouble never blocks traffic.
                return next(c)
            }
            if count == 1 {
                rdb.Expire(ctx, key, window)
            }
            if count > int64(limit) {
                c.Response().Header().Set("Retry-After", strconv.Itoa(int(window/time.Second)))
                return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
            }
            return next(c)
        }
    }
}
