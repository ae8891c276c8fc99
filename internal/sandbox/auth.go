package sandbox

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/roamstay/bookingflow/internal/config"
)

// AuthHandler implements the sandbox's session endpoints: register,
// login, refresh and logout.  Refresh tokens rotate on every exchange;
// only their hashes are stored.
type AuthHandler struct {
    cfg   config.Sandbox
    store *Store
}

// NewAuthHandler returns an AuthHandler over store.
func NewAuthHandler(cfg config.Sandbox, store *Store) *AuthHandler {
    return &AuthHandler{cfg: cfg, store: store}
}

type credentialsReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type sessionResp struct {
    UserID         string    `json:"user_id"`
    Email          string    `json:"email"`
    AccessToken    string    `json:"access_token"`
    AccessExpires  time.Time `json:"access_expires"`
    RefreshToken   string    `json:"refresh_token"`
    RefreshExpires time.Time `json:"refresh_expires"`
}

// Register creates an account and returns a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if strings.TrimSpace(req.Email) == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }
    u, err := h.store.CreateUser(req.Email, req.Password, h.cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": ErrEmailExists.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }
    return h.issueSession(c, http.StatusCreated, u)
}

// Login verifies credentials and returns a fresh session.  Deactivated
// accounts are rejected with the deactivation marker.
func (h *AuthHandler) Login(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    u, err := h.store.Authenticate(req.Email, req.Password)
    if err != nil {
        if errors.Is(err, ErrDeactivated) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": ErrDeactivated.Error()})
        }
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": ErrInvalidCredentials.Error()})
    }
    return h.issueSession(c, http.StatusOK, u)
}

// Refresh exchanges a refresh token for a new pair, revoking the old
// token.  A deactivated account never receives a refreshed token; the
// rejection carries the deactivation marker instead.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := hashRefresh(strings.TrimSpace(req.RefreshToken))
    u, err := h.store.ValidateRefresh(hash)
    if err != nil {
        if errors.Is(err, ErrDeactivated) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": ErrDeactivated.Error()})
        }
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": ErrInvalidRefresh.Error()})
    }
    h.store.RevokeRefresh(hash)
    return h.issueSession(c, http.StatusOK, u)
}

// Logout revokes the presented refresh token.  An unknown token still
// yields 204 so clients can always clear local state.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
        h.store.RevokeRefresh(hashRefresh(raw))
    }
    return c.NoContent(http.StatusNoContent)
}

// issueSession mints an access/refresh pair for u and writes the
// session response.
func (h *AuthHandler) issueSession(c echo.Context, status int, u *User) error {
    access, err := mintAccess(h.cfg.JWTSecret, u.ID, h.cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    raw, exp, err := newRefreshRaw(h.cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    h.store.StoreRefresh(hashRefresh(raw), u.ID, exp)
    return c.JSON(status, sessionResp{
        UserID:         u.ID,
        Email:          u.Email,
        AccessToken:    access.Token,
        AccessExpires:  access.Exp,
        RefreshToken:   raw, // raw value goes back to the client once
        RefreshExpires: exp,
    })
}
