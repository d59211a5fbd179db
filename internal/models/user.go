package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a resident account in the society
type User struct {
	gorm.Model

	UserID        string `json:"user_id" gorm:"uniqueIndex"`
	Name          string `json:"name"`
	Email         string `json:"email" gorm:"uniqueIndex"` // Login identity - unique
	Phone         string `json:"phone"`
	Block         string `json:"block"` // e.g., "A", "B"
	FlatNumber    string `json:"flat_number"`
	Role          string `json:"role" gorm:"default:USER"`      // "USER" or "ADMIN"
	Status        string `json:"status" gorm:"default:PENDING"` // "PENDING", "APPROVED", "REJECTED"
	GoogleSubject string `json:"-" gorm:"index"`                // Linked Google identity, if any
}

// Role constants
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User approval status constants
const (
	UserStatusPending  = "PENDING"
	UserStatusApproved = "APPROVED"
	UserStatusRejected = "REJECTED"
)

// BeforeCreate hook to auto-generate UserID and normalize the email
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == "" {
		u.UserID = "USR" + strings.ToUpper(uuid.NewString()[:8])
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Status == "" {
		u.Status = UserStatusPending
	}
	return nil
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsApproved reports whether the user may use resident features
func (u *User) IsApproved() bool {
	return u.Status == UserStatusApproved
}
