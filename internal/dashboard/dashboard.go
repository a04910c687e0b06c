// Package dashboard computes the per-role summary figures.
package dashboard

import (
	"context"
	"fmt"

	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/repository"
)

// Service reads dashboard figures from the store
type Service struct {
	store repository.Store
}

// NewService creates a new dashboard service
func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// OwnerStats is the owner's landing page
type OwnerStats struct {
	Properties     int64                          `json:"properties"`
	Requests       map[models.RequestStatus]int64 `json:"requests"`
	AwaitingPay    int64                          `json:"awaiting_payment"`
	PaymentsTotal  int64                          `json:"payments_total"`
	PaymentsAmount string                         `json:"payments_amount"`
	UnreadMessages int64                          `json:"unread_messages"`
}

// Owner returns the owner's figures
func (s *Service) Owner(ctx context.Context, actor policy.Actor) (*OwnerStats, error) {
	props, err := s.store.Properties().CountByOwner(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}
	byStatus, err := s.store.Requests().CountByStatus(ctx, repository.RequestFilter{OwnerID: actor.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	paid, err := s.store.Payments().SumByPayer(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}
	unread, err := s.store.Messages().CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	return &OwnerStats{
		Properties:     props,
		Requests:       byStatus,
		AwaitingPay:    byStatus[models.StatusApproved] + byStatus[models.StatusCompleted],
		PaymentsTotal:  paid,
		PaymentsAmount: models.FormatAmount(paid),
		UnreadMessages: unread,
	}, nil
}

// InspectorStats is the inspector's landing page
type InspectorStats struct {
	Assigned        int64 `json:"assigned"`
	PendingDecision int64 `json:"pending_decision"`
	Approved        int64 `json:"approved"`
	Rejected        int64 `json:"rejected"`
	Completed       int64 `json:"completed"`
	Paid            int64 `json:"paid"`
	Reports         int   `json:"reports"`
	UnreadMessages  int64 `json:"unread_messages"`
}

// Inspector returns the inspector's figures
func (s *Service) Inspector(ctx context.Context, actor policy.Actor) (*InspectorStats, error) {
	byStatus, err := s.store.Requests().CountByStatus(ctx, repository.RequestFilter{InspectorID: actor.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	reports, err := s.store.Reports().ListByInspector(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	unread, err := s.store.Messages().CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}
	return &InspectorStats{
		Assigned:        total,
		PendingDecision: byStatus[models.StatusAssigned],
		Approved:        byStatus[models.StatusApproved],
		Rejected:        byStatus[models.StatusRejected],
		Completed:       byStatus[models.StatusCompleted],
		Paid:            byStatus[models.StatusPaid],
		Reports:         len(reports),
		UnreadMessages:  unread,
	}, nil
}

// AdminStats is the admin's landing page
type AdminStats struct {
	Users             map[models.Role]int64          `json:"users"`
	PendingInspectors int                            `json:"pending_inspectors"`
	Requests          map[models.RequestStatus]int64 `json:"requests"`
	OpenComplaints    int                            `json:"open_complaints"`
	Balance           int64                          `json:"balance"`
	BalanceAmount     string                         `json:"balance_amount"`
}

// Admin returns the system-wide figures
func (s *Service) Admin(ctx context.Context) (*AdminStats, error) {
	users, err := s.store.Users().CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	approved := false
	pending, err := s.store.Users().List(ctx, repository.UserFilter{Role: models.RoleInspector, Approved: &approved})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending inspectors: %w", err)
	}
	byStatus, err := s.store.Requests().CountByStatus(ctx, repository.RequestFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	resolved := false
	open, err := s.store.Complaints().List(ctx, &resolved, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}

	var balance int64
	if b, err := s.store.Ledger().GetBalance(ctx); err == nil {
		balance = b.Balance
	}

	return &AdminStats{
		Users:             users,
		PendingInspectors: len(pending),
		Requests:          byStatus,
		OpenComplaints:    len(open),
		Balance:           balance,
		BalanceAmount:     models.FormatAmount(balance),
	}, nil
}
