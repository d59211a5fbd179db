package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trip represents a ride offer posted by a resident driver
type Trip struct {
	gorm.Model

	TripID   string `json:"trip_id" gorm:"uniqueIndex"`
	DriverID string `json:"driver_id" gorm:"index;not null"`

	Type string `json:"type"` // "DAILY" (recurring) or "ONE_TIME"

	// Route details
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	PickupPoint string `json:"pickup_point"`

	// Timing
	DepartAt  time.Time  `json:"depart_at"`
	ExpiresAt *time.Time `json:"expires_at"` // One-time trips only

	// Seats. Invariant: 0 <= SeatsBooked <= SeatsAvailable, enforced by
	// the booking state machine inside a single transaction.
	SeatsAvailable int `json:"seats_available"`
	SeatsBooked    int `json:"seats_booked" gorm:"default:0"`

	Status string `json:"status" gorm:"default:ACTIVE"` // "ACTIVE" or "CANCELLED"
	Notes  string `json:"notes"`
}

// Trip type constants
const (
	TripTypeDaily   = "DAILY"
	TripTypeOneTime = "ONE_TIME"
)

// Trip lifecycle constants
const (
	TripStatusActive    = "ACTIVE"
	TripStatusCancelled = "CANCELLED"
)

// BeforeCreate hook to auto-generate TripID
func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.TripID == "" {
		t.TripID = "TRP" + strings.ToUpper(uuid.NewString()[:8])
	}
	if t.Status == "" {
		t.Status = TripStatusActive
	}
	return nil
}

// HasEnded reports whether a one-time trip is past its departure or
// explicit expiry. Daily trips recur and never end this way.
func (t *Trip) HasEnded(now time.Time) bool {
	if t.Type != TripTypeOneTime {
		return false
	}
	if now.After(t.DepartAt) {
		return true
	}
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// HasFreeSeat reports whether another request could still be confirmed
func (t *Trip) HasFreeSeat() bool {
	return t.SeatsBooked < t.SeatsAvailable
}
