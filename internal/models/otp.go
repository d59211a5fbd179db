package models

import (
	"time"

	"gorm.io/gorm"
)

// OtpToken is one issuance of a login code. The code itself is never
// stored - only its argon2id hash.
type OtpToken struct {
	gorm.Model
	Email      string    `gorm:"not null;index"`
	CodeHash   string    `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	ConsumedAt *time.Time
	Attempts   int `gorm:"default:0"`
}

// IsLive reports whether the token can still be verified at the given
// instant: not consumed and not expired.
func (o *OtpToken) IsLive(now time.Time) bool {
	return o.ConsumedAt == nil && now.Before(o.ExpiresAt)
}
