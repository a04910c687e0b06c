package models

import (
	"strings"
	"time"
)

// Role is the mutually exclusive account role
type Role string

const (
	RoleOwner     Role = "owner"
	RoleInspector Role = "inspector"
	RoleAdmin     Role = "admin"
)

// ParseRole normalizes a submitted role string ("Owner", " inspector ") to a Role
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleInspector, RoleAdmin:
		return true
	}
	return false
}

// User is an account. The profile attributes of the older satellite-profile
// schema (nid, phone, location, approval and ban flags) live on the same row.
type User struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string  `gorm:"type:varchar(100);not null;uniqueIndex" json:"email"`
	Name         string  `gorm:"type:varchar(100)" json:"name"`
	PasswordHash string  `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role    `gorm:"type:varchar(20);not null;index" json:"role"`
	NID          *string `gorm:"column:nid;type:varchar(50);uniqueIndex" json:"nid,omitempty"`
	Phone        string  `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Location     string  `gorm:"type:varchar(255)" json:"location,omitempty"`
	License      string  `gorm:"type:varchar(50)" json:"license,omitempty"`

	// Inspectors start unapproved; owners and admins are approved on creation.
	IsApproved bool `gorm:"not null;default:false" json:"is_approved"`
	IsBanned   bool `gorm:"not null;default:false" json:"is_banned"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// CanInspect reports whether the user may be assigned inspections
func (u *User) CanInspect() bool {
	return u.Role == RoleInspector && u.IsApproved && !u.IsBanned
}

// IsPendingInspector reports whether the user is an inspector awaiting approval
func (u *User) IsPendingInspector() bool {
	return u.Role == RoleInspector && !u.IsApproved
}

// DisplayName falls back to the email when no name was given
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
