package sandbox

import (
    "errors"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"
    "golang.org/x/crypto/bcrypt"

    "github.com/roamstay/bookingflow/internal/model"
)

// Sentinel errors the handlers translate into HTTP responses.
var (
    ErrEmailExists        = errors.New("email already exists")
    ErrInvalidCredentials = errors.New("invalid credentials")
    ErrInvalidRefresh     = errors.New("invalid refresh")
    ErrDeactivated        = errors.New("account deactivated")
    ErrRoomNotFound       = errors.New("room not found")
    ErrDatesTaken         = errors.New("dates not available")
    ErrBookingNotFound    = errors.New("booking not found")
    ErrOrderNotFound      = errors.New("order not found")
    ErrAmountMismatch     = errors.New("amount does not match booking price")
    ErrBadSignature       = errors.New("signature verification failed")
    ErrIllegalState       = errors.New("operation not allowed in current state")
)

// taxRate is applied to the pre-tax subtotal of every quote.
const taxRate = 0.12

// User is a sandbox account.  Active mirrors the backend's account
// deactivation flag: inactive users are rejected with the deactivation
// marker and must never receive a refreshed token.
type User struct {
    ID           string
    Email        string
    PasswordHash []byte
    Active       bool
}

// Room is a bookable unit with a nightly rate in whole currency units.
type Room struct {
    ID          string
    PropertyID  string
    NightlyRate int64
    MaxGuests   int
}

// refreshRecord is the stored form of a refresh token: hash-keyed with
// expiry and revocation.
type refreshRecord struct {
    userID    string
    expiresAt time.Time
    revoked   bool
}

// Store is the sandbox's entire state: users, tokens, a seeded room
// catalog, bookings and payment orders.  One mutex guards it all; the
// sandbox trades granularity for obvious correctness.
type Store struct {
    mu sync.Mutex

    usersByEmail map[string]*User
    usersByID    map[string]*User
    refresh      map[string]*refreshRecord

    rooms      map[string]Room
    packages   map[string]int64 // per-night price by package id
    meals      map[string]int64 // per-stay price by meal id
    activities map[string]int64 // per-stay price by activity id

    bookings map[string]*model.Booking
    owners   map[string]string // booking id -> user id
    byKey    map[string]string // owner + selection key -> booking id
    orders   map[string]*model.PaymentOrder

    holdTTL time.Duration
}

// NewStore returns a Store seeded with a small catalog.  The
// complimentary room quotes to zero and exists so clients can exercise
// the non-chargeable guard against real responses.
func NewStore(holdTTL time.Duration) *Store {
    s := &Store{
        usersByEmail: map[string]*User{},
        usersByID:    map[string]*User{},
        refresh:      map[string]*refreshRecord{},
        rooms:        map[string]Room{},
        packages:     map[string]int64{},
        meals:        map[string]int64{},
        activities:   map[string]int64{},
        bookings:     map[string]*model.Booking{},
        owners:       map[string]string{},
        byKey:        map[string]string{},
        orders:       map[string]*model.PaymentOrder{},
        holdTTL:      holdTTL,
    }
    s.rooms["room_deluxe"] = Room{ID: "room_deluxe", PropertyID: "prop_sea_breeze", NightlyRate: 3500, MaxGuests: 3}
    s.rooms["room_standard"] = Room{ID: "room_standard", PropertyID: "prop_sea_breeze", NightlyRate: 2200, MaxGuests: 2}
    s.rooms["room_comp"] = Room{ID: "room_comp", PropertyID: "prop_sea_breeze", NightlyRate: 0, MaxGuests: 2}
    s.packages["pkg_breakfast"] = 400
    s.meals["meal_dinner"] = 600
    s.activities["act_spa"] = 1500
    return s
}

// ----- users and tokens -----

// CreateUser registers an account with a bcrypt-hashed password.
func (s *Store) CreateUser(email, password string, bcryptCost int) (*User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
    if err != nil {
        return nil, err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.usersByEmail[email]; ok {
        return nil, ErrEmailExists
    }
    u := &User{ID: uuid.NewString(), Email: email, PasswordHash: hash, Active: true}
    s.usersByEmail[email] = u
    s.usersByID[u.ID] = u
    return u, nil
}

// Authenticate verifies email/password.  Deactivated accounts fail with
// ErrDeactivated even when the password is correct.
func (s *Store) Authenticate(email, password string) (*User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    s.mu.Lock()
    u, ok := s.usersByEmail[email]
    s.mu.Unlock()
    if !ok {
        return nil, ErrInvalidCredentials
    }
    if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
        return nil, ErrInvalidCredentials
    }
    if !u.Active {
        return nil, ErrDeactivated
    }
    return u, nil
}

// UserByID looks up an account.
func (s *Store) UserByID(id string) (*User, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    u, ok := s.usersByID[id]
    return u, ok
}

// Deactivate flags the account as inactive.  Used by tests to exercise
// the deactivation path.
func (s *Store) Deactivate(email string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if u, ok := s.usersByEmail[strings.ToLower(email)]; ok {
        u.Active = false
    }
}

// StoreRefresh records a refresh token hash for userID.
func (s *Store) StoreRefresh(hash, userID string, expiresAt time.Time) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.refresh[hash] = &refreshRecord{userID: userID, expiresAt: expiresAt}
}

// ValidateRefresh resolves a refresh token hash to its user.  Expired,
// revoked or unknown tokens fail; deactivated owners fail with
// ErrDeactivated so the handler can attach the marker.
func (s *Store) ValidateRefresh(hash string) (*User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    rec, ok := s.refresh[hash]
    if !ok || rec.revoked || time.Now().UTC().After(rec.expiresAt) {
        return nil, ErrInvalidRefresh
    }
    u, ok := s.usersByID[rec.userID]
    if !ok {
        return nil, ErrInvalidRefresh
    }
    if !u.Active {
        return nil, ErrDeactivated
    }
    return u, nil
}

// RevokeRefresh marks a single refresh token as revoked.
func (s *Store) RevokeRefresh(hash string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if rec, ok := s.refresh[hash]; ok {
        rec.revoked = true
    }
}

// ----- quotes and bookings -----

// QuoteFor computes a price breakdown for sel from the seeded catalog.
// The caller's own pending hold on the identical selection is not a
// conflict, so re-quoting before an idempotent hold retry works.
func (s *Store) QuoteFor(userID string, sel model.Selection) (model.Quote, error) {
    nights, err := sel.Nights()
    if err != nil {
        return model.Quote{}, err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.quoteLocked(userID, sel, nights)
}

// quoteLocked prices sel and checks availability.  Callers must hold
// s.mu.
func (s *Store) quoteLocked(userID string, sel model.Selection, nights int) (model.Quote, error) {
    room, ok := s.rooms[sel.RoomID]
    if !ok || room.PropertyID != sel.PropertyID {
        return model.Quote{}, ErrRoomNotFound
    }
    if s.overlapLocked(sel, userID) {
        return model.Quote{}, ErrDatesTaken
    }
    q := model.Quote{
        RoomTotal: room.NightlyRate * int64(nights),
        Currency:  "INR",
    }
    if sel.PackageID != "" {
        q.PackageTotal = s.packages[sel.PackageID] * int64(nights)
    }
    for _, id := range sel.MealIDs {
        q.MealTotal += s.meals[id]
    }
    for _, id := range sel.ActivityIDs {
        q.ActivityTotal += s.activities[id]
    }
    subtotal := q.RoomTotal + q.PackageTotal + q.MealTotal + q.ActivityTotal
    q.Taxes = int64(float64(subtotal) * taxRate)
    q.FinalPrice = subtotal + q.Taxes
    return q, nil
}

// CreateBooking creates a pending_payment booking holding sel's dates,
// or returns the caller's existing pending booking for an identical
// (room, dates, guests) triple.  Overlap with anyone else's live
// booking is a conflict.
func (s *Store) CreateBooking(userID string, sel model.Selection) (model.Booking, error) {
    nights, err := sel.Nights()
    if err != nil {
        return model.Booking{}, err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    s.expireHoldsLocked()

    key := userID + "|" + sel.Key()
    if id, ok := s.byKey[key]; ok {
        if b := s.bookings[id]; b != nil && b.Status == model.StatusPendingPayment {
            return *b, nil
        }
    }
    quote, err := s.quoteLocked(userID, sel, nights)
    if err != nil {
        return model.Booking{}, err
    }
    now := time.Now().UTC()
    b := &model.Booking{
        ID:            uuid.NewString(),
        Status:        model.StatusPendingPayment,
        RefundStatus:  model.RefundNotRequested,
        Selection:     sel,
        FinalPrice:    quote.FinalPrice,
        Currency:      quote.Currency,
        HoldExpiresAt: now.Add(s.holdTTL),
        CreatedAt:     now,
    }
    s.bookings[b.ID] = b
    s.owners[b.ID] = userID
    s.byKey[key] = b.ID
    return *b, nil
}

// CreateOrder opens a payment order against a pending booking.  The
// amount is in minor units and must equal the booking's final price, so
// an order can never be created from a stale quote.
func (s *Store) CreateOrder(userID, bookingID string, amount int64, currency string) (model.PaymentOrder, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok || s.owners[bookingID] != userID {
        return model.PaymentOrder{}, ErrBookingNotFound
    }
    if b.Status != model.StatusPendingPayment {
        return model.PaymentOrder{}, ErrIllegalState
    }
    if amount != b.FinalPrice*100 || currency != b.Currency {
        return model.PaymentOrder{}, ErrAmountMismatch
    }
    order := &model.PaymentOrder{
        OrderID:   "order_" + uuid.NewString()[:8],
        BookingID: bookingID,
        Amount:    amount,
        Currency:  currency,
    }
    s.orders[order.OrderID] = order
    return *order, nil
}

// SettlePayment moves a booking to payment_completed after the caller
// has verified the gateway signature.  The order must belong to the
// booking.
func (s *Store) SettlePayment(userID, bookingID, orderID string) (model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok || s.owners[bookingID] != userID {
        return model.Booking{}, ErrBookingNotFound
    }
    order, ok := s.orders[orderID]
    if !ok || order.BookingID != bookingID {
        return model.Booking{}, ErrOrderNotFound
    }
    if err := b.TransitionTo(model.StatusPaymentCompleted); err != nil {
        return model.Booking{}, ErrIllegalState
    }
    return *b, nil
}

// CancelBooking moves a booking to cancelled, releasing its hold.
func (s *Store) CancelBooking(userID, bookingID string) (model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok || s.owners[bookingID] != userID {
        return model.Booking{}, ErrBookingNotFound
    }
    if err := b.TransitionTo(model.StatusCancelled); err != nil {
        return model.Booking{}, ErrIllegalState
    }
    return *b, nil
}

// RequestRefund moves the refund chain to requested.  Only cancelled or
// rejected bookings qualify, and only once.
func (s *Store) RequestRefund(userID, bookingID string) (model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok || s.owners[bookingID] != userID {
        return model.Booking{}, ErrBookingNotFound
    }
    if err := b.TransitionRefundTo(model.RefundRequested); err != nil {
        return model.Booking{}, ErrIllegalState
    }
    return *b, nil
}

// Booking returns a copy of a stored booking.
func (s *Store) Booking(id string) (model.Booking, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok {
        return model.Booking{}, false
    }
    return *b, true
}

// overlapLocked reports whether sel's date range collides with a live
// booking on the same room owned by someone other than exceptUser.
// Callers must hold s.mu.
func (s *Store) overlapLocked(sel model.Selection, exceptUser string) bool {
    for id, b := range s.bookings {
        if b.Selection.RoomID != sel.RoomID {
            continue
        }
        if b.Status == model.StatusCancelled || b.Status == model.StatusRejected {
            continue
        }
        if b.Status == model.StatusPendingPayment && time.Now().UTC().After(b.HoldExpiresAt) {
            continue // lapsed hold, swept on the next write
        }
        if exceptUser != "" && s.owners[id] == exceptUser && b.Selection.Key() == sel.Key() {
            continue // the caller's own idempotent hold
        }
        if sel.CheckIn < b.Selection.CheckOut && b.Selection.CheckIn < sel.CheckOut {
            return true
        }
    }
    return false
}

// expireHoldsLocked cancels pending_payment bookings whose hold window
// lapsed.  Callers must hold s.mu.
func (s *Store) expireHoldsLocked() {
    now := time.Now().UTC()
    for _, b := range s.bookings {
        if b.Status == model.StatusPendingPayment && now.After(b.HoldExpiresAt) {
            _ = b.TransitionTo(model.StatusCancelled)
        }
    }
}
