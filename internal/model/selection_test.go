package model

import "testing"

func TestSelectionNights(t *testing.T) {
    t.Parallel()

    tests := []struct {
        name    string
        in, out string
        want    int
        wantErr bool
    }{
        {"two nights", "2025-06-10", "2025-06-12", 2, false},
        {"one night", "2025-06-10", "2025-06-11", 1, false},
        {"zero nights", "2025-06-10", "2025-06-10", 0, true},
        {"reversed", "2025-06-12", "2025-06-10", 0, true},
        {"garbage", "yesterday", "2025-06-10", 0, true},
    }
    for _, tt := range tests {
        tt := tt
        t.Run(tt.name, func(t *testing.T) {
            t.Parallel()
            s := Selection{CheckIn: tt.in, CheckOut: tt.out}
            n, err := s.Nights()
            if tt.wantErr {
                if err == nil {
                    t.Fatal("expected error")
                }
                return
            }
            if err != nil {
                t.Fatalf("unexpected error: %v", err)
            }
            if n != tt.want {
                t.Fatalf("Nights() = %d, want %d", n, tt.want)
            }
        })
    }
}

func TestSelectionKeyIgnoresAddOns(t *testing.T) {
    t.Parallel()

    base := Selection{RoomID: "room_deluxe", CheckIn: "2025-06-10", CheckOut: "2025-06-12", Guests: 2}
    withPackage := base
    withPackage.PackageID = "pkg_breakfast"
    if base.Key() != withPackage.Key() {
        t.Fatal("hold identity must be the (room, dates, guests) triple only")
    }

    otherGuests := base
    otherGuests.Guests = 3
    if base.Key() == otherGuests.Key() {
        t.Fatal("different guest counts must produce different keys")
    }
}
