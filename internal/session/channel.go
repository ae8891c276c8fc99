package session

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net"
    "net/http"
    "strings"
    "sync"
    "time"

    "github.com/roamstay/bookingflow/internal/model"
)

// Endpoints with special handling.  A 401 from either must never
// trigger a refresh, otherwise an invalid refresh token would recurse
// forever.
const (
    refreshPath = "/auth/refresh-token"
    logoutPath  = "/auth/logout"
)

// defaultTimeout bounds every request.  Quote and hold calls can be
// slow server-side, so the default is generous; the gateway wait is not
// subject to it (that wait is bounded by user interaction, not by us).
const defaultTimeout = 2 * time.Minute

// EndReason explains why the session was terminated.  The hook receives
// it so the caller can pick the right user-facing message before
// redirecting to login.
type EndReason int

const (
    // EndExpired – the refresh failed for a generic reason.
    EndExpired EndReason = iota
    // EndDeactivated – the server flagged the account as deactivated.
    EndDeactivated
    // EndLogout – the user logged out.
    EndLogout
)

// Request describes one outbound API call.  Body is JSON-marshaled when
// non-nil.  NoAuth skips bearer decoration for endpoints that establish
// a session rather than use one.
type Request struct {
    Method string
    Path   string
    Body   any
    NoAuth bool
}

// Channel is the authenticated HTTP channel.  All requests flow through
// Do, which attaches the access token, classifies rejections, and
// recovers from credential expiry with a single-flight refresh: however
// many requests observe the expired token, exactly one refresh call is
// made and the rest await its outcome.
type Channel struct {
    baseURL string
    client  *http.Client
    store   TokenStore
    onEnd   func(EndReason)

    mu         sync.Mutex   // guards refreshing and waiters
    refreshing bool         // a refresh is in flight
    waiters    []chan error // continuations parked until the refresh settles
}

// Option customises a Channel.
type Option func(*Channel)

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
    return func(c *Channel) { c.client = hc }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
    return func(c *Channel) { c.client.Timeout = d }
}

// WithSessionEndHook registers a callback fired once whenever the
// session terminates (logout, refresh failure, deactivation).  The UI
// layer uses it to route back to the login surface.
func WithSessionEndHook(fn func(EndReason)) Option {
    return func(c *Channel) { c.onEnd = fn }
}

// New returns a Channel talking to baseURL with credentials held in
// store.
func New(baseURL string, store TokenStore, opts ...Option) *Channel {
    c := &Channel{
        baseURL: strings.TrimRight(baseURL, "/"),
        client:  &http.Client{Timeout: defaultTimeout},
        store:   store,
    }
    for _, opt := range opts {
        opt(c)
    }
    return c
}

// SetCredentials installs the pair obtained from login or registration.
func (c *Channel) SetCredentials(pair model.CredentialPair) {
    c.store.Replace(pair)
}

// Do executes one request.  A 2xx response is decoded into out (when
// out is non-nil); failures are returned as classified errors per the
// package taxonomy.  On credential expiry the request is retried at
// most once with the refreshed token.
func (c *Channel) Do(ctx context.Context, req Request, out any) error {
    status, body, err := c.attempt(ctx, req)
    if err != nil {
        return err
    }
    if status == http.StatusUnauthorized && !req.NoAuth && !isAuthPath(req.Path) {
        if hasDeactivatedMarker(body) {
            // Terminal: a deactivated account must never be granted a
            // refreshed token.
            c.endSession(EndDeactivated)
            return ErrAccountDeactivated
        }
        if err := c.awaitRefresh(ctx); err != nil {
            return err
        }
        // Single retry with whatever token the refresh produced.  A
        // second 401 here is propagated as-is; it never triggers
        // another refresh.
        status, body, err = c.attempt(ctx, req)
        if err != nil {
            return err
        }
    }
    if status >= 400 {
        return &APIError{Status: status, Message: messageOf(body)}
    }
    if out != nil && len(body) > 0 {
        if err := json.Unmarshal(body, out); err != nil {
            return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
        }
    }
    return nil
}

// Logout tells the server to revoke the refresh token and always clears
// local credentials, regardless of whether the server call succeeded.
func (c *Channel) Logout(ctx context.Context) error {
    pair, ok := c.store.Pair()
    defer c.endSession(EndLogout)
    if !ok || pair.RefreshToken == "" {
        return nil
    }
    status, body, err := c.attempt(ctx, Request{
        Method: http.MethodPost,
        Path:   logoutPath,
        Body:   map[string]string{"refresh_token": pair.RefreshToken},
    })
    if err != nil {
        return err
    }
    if status >= 400 {
        return &APIError{Status: status, Message: messageOf(body)}
    }
    return nil
}

// awaitRefresh is the single-flight mechanism.  The first caller to
// observe the expired token flips the refreshing flag and performs the
// refresh; every later caller parks on a channel and is resumed with
// the shared outcome once the refresh settles.  No caller resumes
// before the outcome is known.
func (c *Channel) awaitRefresh(ctx context.Context) error {
    c.mu.Lock()
    if c.refreshing {
        wait := make(chan error, 1)
        c.waiters = append(c.waiters, wait)
        c.mu.Unlock()
        select {
        case err := <-wait:
            return err
        case <-ctx.Done():
            return ctx.Err()
        }
    }
    c.refreshing = true
    c.mu.Unlock()

    err := c.refresh(ctx)

    c.mu.Lock()
    c.refreshing = false
    waiting := c.waiters
    c.waiters = nil
    c.mu.Unlock()
    for _, w := range waiting {
        w <- err // buffered; never blocks even if the waiter gave up
    }
    return err
}

// refresh exchanges the refresh token for a new access token.  Any
// failure destroys the credentials: a session that cannot be refreshed
// is over, and the only question is which message the user sees.
func (c *Channel) refresh(ctx context.Context) error {
    pair, ok := c.store.Pair()
    if !ok || pair.RefreshToken == "" {
        c.endSession(EndExpired)
        return ErrSessionExpired
    }
    status, body, err := c.attempt(ctx, Request{
        Method: http.MethodPost,
        Path:   refreshPath,
        Body:   map[string]string{"refresh_token": pair.RefreshToken},
        NoAuth: true,
    })
    if err != nil {
        c.endSession(EndExpired)
        return fmt.Errorf("%w: %v", ErrSessionExpired, err)
    }
    if status >= 400 {
        if hasDeactivatedMarker(body) {
            c.endSession(EndDeactivated)
            return ErrAccountDeactivated
        }
        c.endSession(EndExpired)
        return ErrSessionExpired
    }
    var resp struct {
        AccessToken  string `json:"access_token"`
        RefreshToken string `json:"refresh_token"`
    }
    if err := json.Unmarshal(body, &resp); err != nil || resp.AccessToken == "" {
        c.endSession(EndExpired)
        return ErrSessionExpired
    }
    if resp.RefreshToken != "" {
        // Rotating refresh: the server revoked the old token.
        c.store.Replace(model.CredentialPair{
            AccessToken:  resp.AccessToken,
            RefreshToken: resp.RefreshToken,
        })
    } else {
        c.store.SetAccess(resp.AccessToken)
    }
    return nil
}

// attempt performs one HTTP round trip and returns the raw status and
// body.  Transport failures are classified here: deadline overruns map
// to ErrTimeout, everything else is returned unchanged.
func (c *Channel) attempt(ctx context.Context, req Request) (int, []byte, error) {
    var payload io.Reader
    if req.Body != nil {
        raw, err := json.Marshal(req.Body)
        if err != nil {
            return 0, nil, fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
        }
        payload = bytes.NewReader(raw)
    }
    httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, payload)
    if err != nil {
        return 0, nil, err
    }
    httpReq.Header.Set("Accept", "application/json")
    if req.Body != nil {
        httpReq.Header.Set("Content-Type", "application/json")
    }
    if !req.NoAuth {
        if pair, ok := c.store.Pair(); ok && pair.AccessToken != "" {
            httpReq.Header.Set("Authorization", "Bearer "+pair.AccessToken)
        }
    }
    resp, err := c.client.Do(httpReq)
    if err != nil {
        if isTimeout(err) {
            return 0, nil, fmt.Errorf("%w: %v", ErrTimeout, err)
        }
        return 0, nil, err
    }
    defer resp.Body.Close()
    body, err := io.ReadAll(resp.Body)
    if err != nil {
        return 0, nil, err
    }
    return resp.StatusCode, body, nil
}

// endSession clears credentials and fires the session-end hook.
func (c *Channel) endSession(reason EndReason) {
    c.store.Clear()
    if c.onEnd != nil {
        c.onEnd(reason)
    }
}

// isAuthPath reports whether path is one of the endpoints whose 401s
// must never trigger a refresh.
func isAuthPath(path string) bool {
    return path == refreshPath || path == logoutPath
}

// hasDeactivatedMarker reports whether a rejection body carries the
// account-deactivation marker.
func hasDeactivatedMarker(body []byte) bool {
    return strings.Contains(strings.ToLower(string(body)), deactivatedMarker)
}

// messageOf pulls the human-readable message out of an error body.
func messageOf(body []byte) string {
    var payload struct {
        Error   string `json:"error"`
        Message string `json:"message"`
    }
    if err := json.Unmarshal(body, &payload); err != nil {
        return ""
    }
    if payload.Error != "" {
        return payload.Error
    }
    return payload.Message
}

func isTimeout(err error) bool {
    if errors.Is(err, context.DeadlineExceeded) {
        return true
    }
    var ne net.Error
    return errors.As(err, &ne) && ne.Timeout()
}
