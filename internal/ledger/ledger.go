// Package ledger keeps the collected-fees balance. Credits are appended to
// ledger_entries and the AdminBalance row is a derived aggregate updated in
// the same transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"inspection-portal/internal/apperr"
	"inspection-portal/internal/models"
	"inspection-portal/internal/repository"
)

// ErrAlreadyCredited is returned when a request was credited before
var ErrAlreadyCredited = fmt.Errorf("%w: request already credited", apperr.ErrConflict)

// Service reads and repairs the balance
type Service struct {
	store repository.Store
}

// NewService creates a new ledger service
func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// Credit appends a ledger entry and bumps the aggregate. store must be a
// transaction-scoped Store so both writes commit together.
func Credit(ctx context.Context, store repository.Store, requestID, paymentID uint, amount int64) error {
	if amount <= 0 {
		return apperr.Validation("amount must be positive")
	}
	err := store.Ledger().Append(ctx, &models.LedgerEntry{
		RequestID: requestID,
		PaymentID: paymentID,
		Amount:    amount,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrAlreadyCredited
	}
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	if err := store.Ledger().AddToBalance(ctx, amount); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// Balance returns the current aggregate in minor units
func (s *Service) Balance(ctx context.Context) (int64, error) {
	b, err := s.store.Ledger().GetBalance(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return b.Balance, nil
}

// EnsureBalanceRow creates the aggregate row if it is missing
func (s *Service) EnsureBalanceRow(ctx context.Context) (created bool, err error) {
	_, created, err = s.store.Ledger().EnsureBalance(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to ensure balance row: %w", err)
	}
	if created {
		log.Printf("[Ledger] balance row created id=%d", models.BalanceRowID)
	}
	return created, nil
}

// ReconcileResult reports what Reconcile found
type ReconcileResult struct {
	Entries  int64 `json:"entries"`
	Ledger   int64 `json:"ledger_total"`
	Previous int64 `json:"previous_balance"`
	Repaired bool  `json:"repaired"`
}

// Reconcile recomputes the balance from the ledger and repairs the aggregate
// when it drifted
func (s *Service) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	var result ReconcileResult
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		bal, _, err := tx.Ledger().EnsureBalance(ctx)
		if err != nil {
			return err
		}
		sum, err := tx.Ledger().Sum(ctx)
		if err != nil {
			return err
		}
		count, err := tx.Ledger().Count(ctx)
		if err != nil {
			return err
		}

		result = ReconcileResult{Entries: count, Ledger: sum, Previous: bal.Balance}
		if bal.Balance == sum {
			return nil
		}
		result.Repaired = true
		return tx.Ledger().SetBalance(ctx, sum)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile ledger: %w", err)
	}

	if result.Repaired {
		log.Printf("[Ledger] balance repaired previous=%s ledger=%s entries=%d",
			models.FormatAmount(result.Previous), models.FormatAmount(result.Ledger), result.Entries)
	} else {
		log.Printf("[Ledger] balance consistent total=%s entries=%d",
			models.FormatAmount(result.Ledger), result.Entries)
	}
	return &result, nil
}
