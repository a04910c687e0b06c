package models

import "time"

// RequestType is the kind of inspection being requested
type RequestType string

const (
	RequestTypeNewConstruction RequestType = "New Construction"
	RequestTypeReinspection    RequestType = "Reinspection"
)

// Valid reports whether t is a known request type
func (t RequestType) Valid() bool {
	return t == RequestTypeNewConstruction || t == RequestTypeReinspection
}

// RequestStatus is the lifecycle state of an inspection request
type RequestStatus string

const (
	StatusPending   RequestStatus = "Pending"
	StatusAssigned  RequestStatus = "Assigned"
	StatusApproved  RequestStatus = "Approved"
	StatusRejected  RequestStatus = "Rejected"
	StatusCompleted RequestStatus = "Completed"
	StatusPaid      RequestStatus = "Paid"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []RequestStatus{
	StatusPending,
	StatusAssigned,
	StatusApproved,
	StatusRejected,
	StatusCompleted,
	StatusPaid,
}

// Decision is an inspector's verdict on a request
type Decision string

const (
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
)

// Status returns the request status a decision moves to
func (d Decision) Status() RequestStatus {
	if d == DecisionApproved {
		return StatusApproved
	}
	return StatusRejected
}

// Valid reports whether d is a known decision
func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// InspectionRequest is an owner's request for a building inspection
type InspectionRequest struct {
	ID               uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID          uint          `gorm:"not null;index" json:"owner_id"`
	PropertyID       *uint         `gorm:"index" json:"property_id,omitempty"`
	InspectorID      *uint         `gorm:"index" json:"inspector_id,omitempty"`
	Type             RequestType   `gorm:"column:req_type;type:varchar(30);not null;default:'New Construction'" json:"req_type"`
	BuildingLocation string        `gorm:"type:varchar(255)" json:"building_location"`
	Fee              int64         `gorm:"not null;default:0" json:"fee"` // minor units
	Status           RequestStatus `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	CreatedAt        time.Time     `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (InspectionRequest) TableName() string {
	return "inspection_requests"
}

// IsAssignedTo reports whether the request is assigned to the inspector
func (r *InspectionRequest) IsAssignedTo(inspectorID uint) bool {
	return r.InspectorID != nil && *r.InspectorID == inspectorID
}

// InspectionReport finalizes a request with the inspector's decision.
// There is at most one report per request.
type InspectionReport struct {
	ID                   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID            uint      `gorm:"not null;uniqueIndex" json:"inspection_request_id"`
	InspectorID          uint      `gorm:"not null;index" json:"inspector_id"`
	Decision             Decision  `gorm:"type:varchar(20);not null" json:"decision"`
	InspectionDate       time.Time `gorm:"not null" json:"inspection_date"`
	StructuralEvaluation string    `gorm:"type:text" json:"structural_evaluation,omitempty"`
	ComplianceChecklist  string    `gorm:"type:text" json:"compliance_checklist,omitempty"`
	Remarks              string    `gorm:"type:text" json:"remarks,omitempty"`
	CreatedAt            time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (InspectionReport) TableName() string {
	return "inspection_reports"
}

// StatusChange records one lifecycle transition of a request
type StatusChange struct {
	ID         uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID  uint          `gorm:"not null;index:idx_status_changes_request" json:"request_id"`
	FromStatus RequestStatus `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus   RequestStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	ActorID    uint          `gorm:"not null" json:"actor_id"`
	Note       string        `gorm:"type:text" json:"note,omitempty"`
	ChangedAt  time.Time     `gorm:"not null;index" json:"changed_at"`
}

// TableName specifies the table name
func (StatusChange) TableName() string {
	return "request_status_changes"
}
