package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser     = "user"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// User is a local mirror of identity-provider accounts.
// Created on first login, refreshed on every subsequent login (and by the
// background sync worker). Never deleted by this service.
type User struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex;not null" json:"external_user_id"` // identity provider's UUID
	Username       string    `gorm:"index;not null" json:"username"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	HackatimeID    *string   `json:"hackatime_id,omitempty"` // external time-tracking account id
	Verified       bool      `gorm:"default:false" json:"verified"`
	Role           string    `gorm:"not null;default:'user'" json:"role"` // user | reviewer | admin
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// RemoteUser mirrors the JSON shape served by the identity provider's
// sync endpoint (read-only, consumed by the user sync worker).
type RemoteUser struct {
	ExternalID  string    `json:"external_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	HackatimeID *string   `json:"hackatime_id,omitempty"`
	Verified    bool      `json:"verified"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
