// Package repository defines the persistence boundary for every entity.
// Services depend on these interfaces; internal/database provides the gorm
// implementation.
package repository

import (
	"context"
	"errors"
	"time"

	"inspection-portal/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned when a conditional write matched no row
	// because the record was not in the expected state
	ErrConflict = errors.New("record changed concurrently or is in an unexpected state")
)

// UserFilter narrows user listings. Nil pointers mean "any".
type UserFilter struct {
	Role     models.Role
	Approved *bool
	Banned   *bool
	Query    string
	Limit    int
}

// RequestFilter narrows inspection request listings
type RequestFilter struct {
	OwnerID     uint
	InspectorID uint
	Statuses    []models.RequestStatus
	Query       string
	Limit       int
}

// Users persists accounts
type Users interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	NIDExists(ctx context.Context, nid string) (bool, error)
	Update(ctx context.Context, u *models.User) error
	SetApproved(ctx context.Context, id uint, approved bool) error
	SetBanned(ctx context.Context, id uint, banned bool) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, f UserFilter) ([]models.User, error)
	CountByRole(ctx context.Context) (map[models.Role]int64, error)
}

// Sessions persists login sessions
type Sessions interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Properties persists the property registry
type Properties interface {
	Create(ctx context.Context, p *models.Property) error
	Get(ctx context.Context, id uint) (*models.Property, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Property, error)
	List(ctx context.Context, query string, limit int) ([]models.Property, error)
	Delete(ctx context.Context, id uint) error
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
}

// Requests persists inspection requests
type Requests interface {
	Create(ctx context.Context, r *models.InspectionRequest) error
	Get(ctx context.Context, id uint) (*models.InspectionRequest, error)
	List(ctx context.Context, f RequestFilter) ([]models.InspectionRequest, error)
	CountByStatus(ctx context.Context, f RequestFilter) (map[models.RequestStatus]int64, error)

	// Transition moves the request to status `to` only if its current status
	// is one of `from`, applying the extra column updates in the same write.
	// Returns ErrConflict when no row matched.
	Transition(ctx context.Context, id uint, from []models.RequestStatus, to models.RequestStatus, updates map[string]interface{}) error
}

// Reports persists inspection reports
type Reports interface {
	Create(ctx context.Context, r *models.InspectionReport) error
	GetByRequest(ctx context.Context, requestID uint) (*models.InspectionReport, error)
	ListByInspector(ctx context.Context, inspectorID uint) ([]models.InspectionReport, error)
}

// History persists request status changes
type History interface {
	Append(ctx context.Context, c *models.StatusChange) error
	ListByRequest(ctx context.Context, requestID uint, limit int) ([]models.StatusChange, error)
	Recent(ctx context.Context, limit int) ([]models.StatusChange, error)
}

// Messages persists user-to-user messages
type Messages interface {
	Create(ctx context.Context, m *models.Message) error
	Get(ctx context.Context, id uint) (*models.Message, error)
	Inbox(ctx context.Context, userID uint) ([]models.Message, error)
	Sent(ctx context.Context, userID uint) ([]models.Message, error)
	MarkRead(ctx context.Context, id uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
	List(ctx context.Context, query string, limit int) ([]models.Message, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

// Complaints persists complaints
type Complaints interface {
	Create(ctx context.Context, c *models.Complaint) error
	Get(ctx context.Context, id uint) (*models.Complaint, error)
	List(ctx context.Context, resolved *bool, limit int) ([]models.Complaint, error)
	Resolve(ctx context.Context, id uint, response string, at time.Time) error
}

// Payments persists payments
type Payments interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByRequest(ctx context.Context, requestID uint) (*models.Payment, error)
	ListByPayer(ctx context.Context, payerID uint) ([]models.Payment, error)
	SumByPayer(ctx context.Context, payerID uint) (int64, error)
	List(ctx context.Context, limit int) ([]models.Payment, error)
}

// Ledger persists balance credits and the derived balance aggregate
type Ledger interface {
	// Append returns ErrDuplicate when the request was already credited
	Append(ctx context.Context, e *models.LedgerEntry) error
	Sum(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
	GetBalance(ctx context.Context) (*models.AdminBalance, error)
	// EnsureBalance creates the aggregate row if missing and reports whether it did
	EnsureBalance(ctx context.Context) (*models.AdminBalance, bool, error)
	AddToBalance(ctx context.Context, amount int64) error
	SetBalance(ctx context.Context, balance int64) error
}

// DeleteLogs persists records of physical deletions
type DeleteLogs interface {
	Create(ctx context.Context, l *models.DeleteLog) error
	Recent(ctx context.Context, limit int) ([]models.DeleteLog, error)
	CountByReason(ctx context.Context) (map[string]int64, error)
}

// Store groups the repositories and scopes them to a transaction
type Store interface {
	Users() Users
	Sessions() Sessions
	Properties() Properties
	Requests() Requests
	Reports() Reports
	History() History
	Messages() Messages
	Complaints() Complaints
	Payments() Payments
	Ledger() Ledger
	DeleteLogs() DeleteLogs

	// Transaction runs fn with a Store bound to one database transaction.
	// The transaction commits if fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
