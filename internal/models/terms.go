package models

import (
	"time"

	"gorm.io/gorm"
)

// TermsDocument is one published version of the carpool terms of use.
// Clients always fetch the latest version by EffectiveFrom.
type TermsDocument struct {
	gorm.Model

	Version       int       `json:"version" gorm:"uniqueIndex"`
	Body          string    `json:"body"`
	PublishedBy   string    `json:"published_by"` // Admin UserID
	EffectiveFrom time.Time `json:"effective_from"`
}
