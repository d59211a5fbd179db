package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notice is an announcement shown to approved residents
type Notice struct {
	gorm.Model

	NoticeID string `json:"notice_id" gorm:"uniqueIndex"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	PostedBy string `json:"posted_by"` // Admin UserID
	Pinned   bool   `json:"pinned" gorm:"default:false"`
}

// BeforeCreate hook to auto-generate NoticeID
func (n *Notice) BeforeCreate(tx *gorm.DB) error {
	if n.NoticeID == "" {
		n.NoticeID = "NTC" + strings.ToUpper(uuid.NewString()[:8])
	}
	return nil
}
