package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Charge is one entry on the society's shared-cost list, maintained by
// admins (e.g., monthly fuel contribution per route).
type Charge struct {
	gorm.Model

	ChargeID string  `json:"charge_id" gorm:"uniqueIndex"`
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
	Period   string  `json:"period"` // e.g., "monthly", "per-trip"
	Notes    string  `json:"notes"`
}

// BeforeCreate hook to auto-generate ChargeID
func (c *Charge) BeforeCreate(tx *gorm.DB) error {
	if c.ChargeID == "" {
		c.ChargeID = "CHG" + strings.ToUpper(uuid.NewString()[:8])
	}
	return nil
}
