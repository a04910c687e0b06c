package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"inspection-portal/internal/repository"
)

// GormStore implements repository.Store on top of gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db. db may be a transaction handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() repository.Users           { return &userRepo{db: s.db} }
func (s *GormStore) Sessions() repository.Sessions     { return &sessionRepo{db: s.db} }
func (s *GormStore) Properties() repository.Properties { return &propertyRepo{db: s.db} }
func (s *GormStore) Requests() repository.Requests     { return &requestRepo{db: s.db} }
func (s *GormStore) Reports() repository.Reports       { return &reportRepo{db: s.db} }
func (s *GormStore) History() repository.History       { return &historyRepo{db: s.db} }
func (s *GormStore) Messages() repository.Messages     { return &messageRepo{db: s.db} }
func (s *GormStore) Complaints() repository.Complaints { return &complaintRepo{db: s.db} }
func (s *GormStore) Payments() repository.Payments     { return &paymentRepo{db: s.db} }
func (s *GormStore) Ledger() repository.Ledger         { return &ledgerRepo{db: s.db} }
func (s *GormStore) DeleteLogs() repository.DeleteLogs { return &deleteLogRepo{db: s.db} }

// Transaction runs fn inside a database transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translate maps gorm and driver errors onto the repository sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	}
	return err
}

// isUniqueViolation catches driver errors that were not translated by gorm
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}

func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

func applyLimit(db *gorm.DB, limit int) *gorm.DB {
	if limit > 0 {
		return db.Limit(limit)
	}
	return db
}
