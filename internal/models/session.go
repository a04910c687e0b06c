package models

import "time"

// Session is a server-side login session addressed by an opaque token
type Session struct {
	Token     string    `gorm:"type:varchar(64);primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Remember  bool      `gorm:"not null;default:false" json:"remember"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
