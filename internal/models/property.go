package models

import "time"

// Property is a building registered by an owner
type Property struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Type      string    `gorm:"type:varchar(50);not null" json:"type"`
	Location  string    `gorm:"type:varchar(255);not null" json:"location"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_properties_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Property) TableName() string {
	return "properties"
}

// IsOwnedBy reports whether the property belongs to the given user
func (p *Property) IsOwnedBy(userID uint) bool {
	return p.OwnerID == userID
}
