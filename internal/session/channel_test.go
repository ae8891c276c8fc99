package session

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/roamstay/bookingflow/internal/model"
)

// authServer is a scriptable fake backend.  Protected routes accept
// only the token currently held in validToken; the refresh endpoint
// behavior is swapped per test.
type authServer struct {
    mu           sync.Mutex
    validToken   string
    refreshCalls atomic.Int32
    refreshFn    func(w http.ResponseWriter, r *http.Request)
}

func (s *authServer) handler() http.Handler {
    mux := http.NewServeMux()
    mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
        s.refreshCalls.Add(1)
        s.refreshFn(w, r)
    })
    mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusNoContent)
    })
    mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
        s.mu.Lock()
        valid := s.validToken
        s.mu.Unlock()
        if r.Header.Get("Authorization") != "Bearer "+valid {
            w.WriteHeader(http.StatusUnauthorized)
            _, _ = w.Write([]byte(`{"error":"invalid token"}`))
            return
        }
        _, _ = w.Write([]byte(`{"ok":true}`))
    })
    return mux
}

func (s *authServer) grantRefresh(newToken string, delay time.Duration) {
    s.refreshFn = func(w http.ResponseWriter, r *http.Request) {
        time.Sleep(delay) // widen the window so concurrent callers pile up
        s.mu.Lock()
        s.validToken = newToken
        s.mu.Unlock()
        _ = json.NewEncoder(w).Encode(map[string]string{
            "access_token":  newToken,
            "refresh_token": "rotated-refresh",
        })
    }
}

func (s *authServer) denyRefresh(body string) {
    s.refreshFn = func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusUnauthorized)
        _, _ = w.Write([]byte(body))
    }
}

func newTestChannel(t *testing.T, srv *authServer, opts ...Option) (*Channel, *MemoryStore) {
    t.Helper()
    ts := httptest.NewServer(srv.handler())
    t.Cleanup(ts.Close)
    store := NewMemoryStore()
    store.Replace(model.CredentialPair{AccessToken: "stale", RefreshToken: "refresh-1"})
    return New(ts.URL, store, opts...), store
}

func TestSingleFlightRefresh(t *testing.T) {
    t.Parallel()

    srv := &authServer{validToken: "fresh"}
    srv.grantRefresh("fresh", 30*time.Millisecond)
    ch, store := newTestChannel(t, srv)

    const n = 8
    var wg sync.WaitGroup
    errs := make([]error, n)
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            var out struct {
                OK bool `json:"ok"`
            }
            errs[i] = ch.Do(context.Background(), Request{Method: http.MethodGet, Path: "/data"}, &out)
        }(i)
    }
    wg.Wait()

    for i, err := range errs {
        if err != nil {
            t.Fatalf("request %d failed: %v", i, err)
        }
    }
    if got := srv.refreshCalls.Load(); got != 1 {
        t.Fatalf("expected exactly 1 refresh call for %d concurrent requests, got %d", n, got)
    }
    pair, ok := store.Pair()
    if !ok || pair.AccessToken != "fresh" || pair.RefreshToken != "rotated-refresh" {
        t.Fatalf("refreshed pair not stored, got %+v", pair)
    }
}

func TestRefreshFailureFailsAllWaitersIdentically(t *testing.T) {
    t.Parallel()

    srv := &authServer{validToken: "never-issued"}
    srv.denyRefresh(`{"error":"invalid refresh"}`)
    var endReason EndReason
    var endCalls atomic.Int32
    ch, store := newTestChannel(t, srv, WithSessionEndHook(func(r EndReason) {
        endReason = r
        endCalls.Add(1)
    }))

    const n = 5
    var wg sync.WaitGroup
    errs := make([]error, n)
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            errs[i] = ch.Do(context.Background(), Request{Method: http.MethodGet, Path: "/data"}, nil)
        }(i)
    }
    wg.Wait()

    for i, err := range errs {
        if !errors.Is(err, ErrSessionExpired) {
            t.Fatalf("request %d: expected ErrSessionExpired, got %v", i, err)
        }
    }
    if got := srv.refreshCalls.Load(); got != 1 {
        t.Fatalf("expected 1 refresh call, got %d", got)
    }
    if _, ok := store.Pair(); ok {
        t.Fatal("credentials must be destroyed after refresh failure")
    }
    if endCalls.Load() != 1 || endReason != EndExpired {
        t.Fatalf("expected one EndExpired hook call, got %d calls reason=%v", endCalls.Load(), endReason)
    }
}

func TestDeactivationBypassesRefresh(t *testing.T) {
    t.Parallel()

    srv := &authServer{validToken: "other"} // every /data call gets 401
    srv.denyRefresh(`{"error":"should never be called"}`)
    // Override /data to carry the deactivation marker.
    mux := http.NewServeMux()
    mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusUnauthorized)
        _, _ = w.Write([]byte(`{"error":"account deactivated"}`))
    })
    mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
        srv.refreshCalls.Add(1)
        w.WriteHeader(http.StatusUnauthorized)
    })
    ts := httptest.NewServer(mux)
    t.Cleanup(ts.Close)

    var endReason EndReason
    store := NewMemoryStore()
    store.Replace(model.CredentialPair{AccessToken: "stale", RefreshToken: "refresh-1"})
    ch := New(ts.URL, store, WithSessionEndHook(func(r EndReason) { endReason = r }))

    err := ch.Do(context.Background(), Request{Method: http.MethodGet, Path: "/data"}, nil)
    if !errors.Is(err, ErrAccountDeactivated) {
        t.Fatalf("expected ErrAccountDeactivated, got %v", err)
    }
    if got := srv.refreshCalls.Load(); got != 0 {
        t.Fatalf("a deactivated account must never trigger a refresh, got %d calls", got)
    }
    if _, ok := store.Pair(); ok {
        t.Fatal("credentials must be destroyed on deactivation")
    }
    if endReason != EndDeactivated {
        t.Fatalf("expected EndDeactivated hook, got %v", endReason)
    }
}

func TestRefreshEndpointUnauthorizedNeverRecurses(t *testing.T) {
    t.Parallel()

    srv := &authServer{validToken: "fresh"}
    srv.denyRefresh(`{"error":"invalid refresh"}`)
    ch, _ := newTestChannel(t, srv)

    // Hitting the refresh path directly and being rejected must surface
    // the rejection as-is with no further refresh attempt.
    err := ch.Do(context.Background(), Request{
        Method: http.MethodPost,
        Path:   "/auth/refresh-token",
        Body:   map[string]string{"refresh_token": "bogus"},
    }, nil)
    var ae *APIError
    if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized {
        t.Fatalf("expected bare 401 APIError, got %v", err)
    }
    if got := srv.refreshCalls.Load(); got != 1 {
        t.Fatalf("expected the one direct call only, got %d", got)
    }
}

func TestUnrelatedErrorsPropagateUnchanged(t *testing.T) {
    t.Parallel()

    mux := http.NewServeMux()
    mux.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusInternalServerError)
        _, _ = w.Write([]byte(`{"error":"database on fire"}`))
    })
    ts := httptest.NewServer(mux)
    t.Cleanup(ts.Close)

    store := NewMemoryStore()
    store.Replace(model.CredentialPair{AccessToken: "good", RefreshToken: "r"})
    ch := New(ts.URL, store)

    err := ch.Do(context.Background(), Request{Method: http.MethodGet, Path: "/boom"}, nil)
    var ae *APIError
    if !errors.As(err, &ae) {
        t.Fatalf("expected APIError, got %v", err)
    }
    if ae.Status != http.StatusInternalServerError || ae.Message != "database on fire" {
        t.Fatalf("error mangled in transit: %+v", ae)
    }
    if _, ok := store.Pair(); !ok {
        t.Fatal("unrelated errors must not destroy credentials")
    }
}

func TestTimeoutClassifiedDistinctly(t *testing.T) {
    t.Parallel()

    mux := http.NewServeMux()
    mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
        time.Sleep(200 * time.Millisecond)
    })
    ts := httptest.NewServer(mux)
    t.Cleanup(ts.Close)

    store := NewMemoryStore()
    store.Replace(model.CredentialPair{AccessToken: "good", RefreshToken: "r"})
    ch := New(ts.URL, store, WithTimeout(30*time.Millisecond))

    err := ch.Do(context.Background(), Request{Method: http.MethodGet, Path: "/slow"}, nil)
    if !errors.Is(err, ErrTimeout) {
        t.Fatalf("expected ErrTimeout, got %v", err)
    }
}

func TestLogoutAlwaysClearsCredentials(t *testing.T) {
    t.Parallel()

    t.Run("server reachable", func(t *testing.T) {
        t.Parallel()
        srv := &authServer{validToken: "fresh"}
        srv.grantRefresh("fresh", 0)
        var endReason EndReason
        ch, store := newTestChannel(t, srv, WithSessionEndHook(func(r EndReason) { endReason = r }))
        if err := ch.Logout(context.Background()); err != nil {
            t.Fatalf("logout: %v", err)
        }
        if _, ok := store.Pair(); ok {
            t.Fatal("credentials survive logout")
        }
        if endReason != EndLogout {
            t.Fatalf("expected EndLogout hook, got %v", endReason)
        }
    })

    t.Run("server unreachable", func(t *testing.T) {
        t.Parallel()
        store := NewMemoryStore()
        store.Replace(model.CredentialPair{AccessToken: "a", RefreshToken: "r"})
        ch := New("http://127.0.0.1:1", store, WithTimeout(100*time.Millisecond))
        _ = ch.Logout(context.Background()) // best effort; error is allowed
        if _, ok := store.Pair(); ok {
            t.Fatal("credentials must be cleared even when the server is down")
        }
    })
}
