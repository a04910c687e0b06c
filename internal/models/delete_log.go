package models

import "time"

// DeleteLog records a physically deleted record
type DeleteLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType string    `gorm:"type:varchar(30);not null;index" json:"entity_type"`
	EntityID   uint      `gorm:"not null;index" json:"entity_id"`
	Summary    string    `gorm:"type:text" json:"summary"`
	ActorID    uint      `gorm:"not null" json:"actor_id"`
	Reason     string    `gorm:"type:varchar(50);not null" json:"reason"`
	DeletedAt  time.Time `gorm:"not null;autoCreateTime;index" json:"deleted_at"`
}

// TableName specifies the table name
func (DeleteLog) TableName() string {
	return "delete_logs"
}

// Entity types
const (
	EntityUser     = "user"
	EntityProperty = "property"
)

// DeleteReason constants
const (
	DeleteReasonInspectorRejected = "inspector_rejected"
	DeleteReasonOwnerRemoved      = "owner_removed"
)
