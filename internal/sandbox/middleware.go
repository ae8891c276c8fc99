package sandbox

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// userIDKey is the echo context key carrying the authenticated user id.
const userIDKey = "user_id"

// jwtAuth validates a Bearer access token and injects the subject into
// the request context.  A structurally valid token whose owner has been
// deactivated is rejected with the deactivation marker so clients can
// distinguish that terminal case from an ordinary expiry.
func jwtAuth(secret string, store *Store) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            sub, _ := claims["sub"].(string)
            u, ok := store.UserByID(sub)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
            }
            if !u.Active {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": ErrDeactivated.Error()})
            }
            c.Set(userIDKey, u.ID)
            return next(c)
        }
    }
}

// currentUser extracts the authenticated user id placed by jwtAuth.
func currentUser(c echo.Context) (string, bool) {
    id, ok := c.Get(userIDKey).(string)
    return id, ok && id != ""
}
