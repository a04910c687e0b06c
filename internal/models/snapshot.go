package models

import "time"

// StatusSnapshot is a daily count of requests per status plus the balance
type StatusSnapshot struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SnapshotAt time.Time `gorm:"not null;uniqueIndex" json:"snapshot_at"`

	Pending   int64 `gorm:"not null;default:0" json:"pending"`
	Assigned  int64 `gorm:"not null;default:0" json:"assigned"`
	Approved  int64 `gorm:"not null;default:0" json:"approved"`
	Rejected  int64 `gorm:"not null;default:0" json:"rejected"`
	Completed int64 `gorm:"not null;default:0" json:"completed"`
	Paid      int64 `gorm:"not null;default:0" json:"paid"`
	Balance   int64 `gorm:"not null;default:0" json:"balance"`

	// Change detection against the previous day
	HasChanged bool   `gorm:"not null;default:false" json:"has_changed"`
	ChangeNote string `gorm:"type:text" json:"change_note,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (StatusSnapshot) TableName() string {
	return "status_snapshots"
}

// Count returns the stored count for a status
func (s *StatusSnapshot) Count(status RequestStatus) int64 {
	switch status {
	case StatusPending:
		return s.Pending
	case StatusAssigned:
		return s.Assigned
	case StatusApproved:
		return s.Approved
	case StatusRejected:
		return s.Rejected
	case StatusCompleted:
		return s.Completed
	case StatusPaid:
		return s.Paid
	}
	return 0
}

// SetCounts copies per-status counts into the snapshot
func (s *StatusSnapshot) SetCounts(counts map[RequestStatus]int64) {
	s.Pending = counts[StatusPending]
	s.Assigned = counts[StatusAssigned]
	s.Approved = counts[StatusApproved]
	s.Rejected = counts[StatusRejected]
	s.Completed = counts[StatusCompleted]
	s.Paid = counts[StatusPaid]
}
