package model

import (
    "fmt"
    "strings"
    "time"
)

// dateLayout is the wire format for check-in and check-out dates.
const dateLayout = "2006-01-02"

// Selection captures everything the user has picked for a prospective
// stay.  Any change to a selection invalidates a previously fetched
// Quote, so the struct is treated as a value and replaced wholesale.
//
// Fields:
//  PropertyID  – property being booked.
//  RoomID      – room within the property.
//  CheckIn     – first night, formatted YYYY-MM-DD.
//  CheckOut    – check-out day (exclusive), formatted YYYY-MM-DD.
//  Guests      – number of guests staying.
//  PackageID   – optional package (meal plan bundle etc.).
//  MealIDs     – optional meal add-ons.
//  ActivityIDs – optional activity add-ons.
type Selection struct {
    PropertyID  string   `json:"property_id"`
    RoomID      string   `json:"room_id"`
    CheckIn     string   `json:"check_in"`
    CheckOut    string   `json:"check_out"`
    Guests      int      `json:"guests"`
    PackageID   string   `json:"package_id,omitempty"`
    MealIDs     []string `json:"meal_ids,omitempty"`
    ActivityIDs []string `json:"activity_ids,omitempty"`
}

// Key returns the identity under which hold creation is idempotent: the
// (room, dates, guests) triple.  Two selections with the same key must
// reuse one pending booking rather than creating a duplicate hold.
func (s Selection) Key() string {
    return strings.Join([]string{s.RoomID, s.CheckIn, s.CheckOut, fmt.Sprint(s.Guests)}, "|")
}

// Nights returns the number of nights between check-in and check-out.
// An error is returned when either date does not parse or when the range
// is not strictly positive.
func (s Selection) Nights() (int, error) {
    in, err := time.Parse(dateLayout, s.CheckIn)
    if err != nil {
        return 0, fmt.Errorf("invalid check_in %q: %w", s.CheckIn, err)
    }
    out, err := time.Parse(dateLayout, s.CheckOut)
    if err != nil {
        return 0, fmt.Errorf("invalid check_out %q: %w", s.CheckOut, err)
    }
    n := int(out.Sub(in).Hours() / 24)
    if n <= 0 {
        return 0, fmt.Errorf("check_out %s must be after check_in %s", s.CheckOut, s.CheckIn)
    }
    return n, nil
}

// Validate performs the structural checks that must pass before a
// selection is sent to the server.  Availability is the server's call;
// this only rejects inputs that can never produce a valid quote.
func (s Selection) Validate() error {
    if s.PropertyID == "" || s.RoomID == "" {
        return fmt.Errorf("property_id and room_id are required")
    }
    if s.Guests <= 0 {
        return fmt.Errorf("guests must be positive")
    }
    _, err := s.Nights()
    return err
}
