package models

import "time"

// Session maps an opaque identifier to an authenticated user.
// Sessions have no TTL; they live until explicitly revoked.
type Session struct {
	// SessionID is the base64 encoding of 95 random bytes (128 characters).
	SessionID string `gorm:"primaryKey;size:191" json:"sessionId"`
	UserID    string `gorm:"size:36;not null;index" json:"userId"`
	// User is the owning user (loaded via foreign key).
	User User `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	// UserAgent is the client user agent captured at login, if any.
	UserAgent string    `gorm:"size:255" json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the database table name for the Session model.
func (Session) TableName() string {
	return "sessions"
}
