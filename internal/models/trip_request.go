package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TripRequest is a rider's request for a seat on a trip
type TripRequest struct {
	gorm.Model

	RequestID string `json:"request_id" gorm:"uniqueIndex"`
	TripID    string `json:"trip_id" gorm:"index;not null"`
	RiderID   string `json:"rider_id" gorm:"index;not null"`
	Status    string `json:"status" gorm:"default:PENDING"` // "PENDING", "CONFIRMED", "REJECTED"
	Note      string `json:"note"`
}

// TripRequest status constants
const (
	RequestStatusPending   = "PENDING"
	RequestStatusConfirmed = "CONFIRMED"
	RequestStatusRejected  = "REJECTED"
)

// ValidRequestStatus reports whether s is a known request status
func ValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusPending, RequestStatusConfirmed, RequestStatusRejected:
		return true
	}
	return false
}

// BeforeCreate hook to auto-generate RequestID
func (r *TripRequest) BeforeCreate(tx *gorm.DB) error {
	if r.RequestID == "" {
		r.RequestID = "REQ" + strings.ToUpper(uuid.NewString()[:8])
	}
	if r.Status == "" {
		r.Status = RequestStatusPending
	}
	return nil
}
