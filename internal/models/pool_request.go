package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PoolRequest is a board post by a resident looking for a ride,
// the inverse of a Trip offer.
type PoolRequest struct {
	gorm.Model

	PoolID      string    `json:"pool_id" gorm:"uniqueIndex"`
	RequesterID string    `json:"requester_id" gorm:"index;not null"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	TravelAt    time.Time `json:"travel_at"`
	Seats       int       `json:"seats" gorm:"default:1"`
	Notes       string    `json:"notes"`
	Status      string    `json:"status" gorm:"default:OPEN"` // "OPEN" or "CLOSED"
}

// PoolRequest status constants
const (
	PoolStatusOpen   = "OPEN"
	PoolStatusClosed = "CLOSED"
)

// BeforeCreate hook to auto-generate PoolID
func (p *PoolRequest) BeforeCreate(tx *gorm.DB) error {
	if p.PoolID == "" {
		p.PoolID = "POOL" + strings.ToUpper(uuid.NewString()[:8])
	}
	if p.Status == "" {
		p.Status = PoolStatusOpen
	}
	if p.Seats == 0 {
		p.Seats = 1
	}
	return nil
}
