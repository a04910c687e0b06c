// Package accounts holds the admin operations on user accounts: the inspector
// approval gate and banning.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log"

	"inspection-portal/internal/apperr"
	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/repository"
)

var (
	ErrUserNotFound = apperr.NotFound("user")
	ErrNotPending   = fmt.Errorf("%w: user is not an inspector awaiting approval", apperr.ErrConflict)
	ErrSelfBan      = apperr.Validation("admins cannot ban themselves")
)

// Indexer receives account changes for search
type Indexer interface {
	IndexUser(u *models.User) error
	DeleteUser(id uint) error
}

// Service manages account approval and bans
type Service struct {
	store   repository.Store
	indexer Indexer
}

// NewService creates a new accounts service
func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// SetIndexer attaches a search indexer
func (s *Service) SetIndexer(idx Indexer) {
	s.indexer = idx
}

// PendingInspectors lists inspectors awaiting approval, oldest first
func (s *Service) PendingInspectors(ctx context.Context) ([]models.User, error) {
	approved := false
	users, err := s.store.Users().List(ctx, repository.UserFilter{Role: models.RoleInspector, Approved: &approved})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending inspectors: %w", err)
	}
	return users, nil
}

// AvailableInspectors lists inspectors that can take assignments
func (s *Service) AvailableInspectors(ctx context.Context) ([]models.User, error) {
	approved, banned := true, false
	users, err := s.store.Users().List(ctx, repository.UserFilter{Role: models.RoleInspector, Approved: &approved, Banned: &banned})
	if err != nil {
		return nil, fmt.Errorf("failed to list inspectors: %w", err)
	}
	return users, nil
}

// Approve lets a pending inspector take assignments
func (s *Service) Approve(ctx context.Context, actor policy.Actor, userID uint) (*models.User, error) {
	var u *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if u, err = s.pending(ctx, tx, userID); err != nil {
			return err
		}
		u.IsApproved = true
		return tx.Users().SetApproved(ctx, u.ID, true)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Accounts] approved inspector user_id=%d by=%d", u.ID, actor.ID)
	s.index(u)
	return u, nil
}

// Reject deletes a pending inspector. This cannot be undone; a DeleteLog row
// keeps a summary of the removed account.
func (s *Service) Reject(ctx context.Context, actor policy.Actor, userID uint) error {
	var u *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if u, err = s.pending(ctx, tx, userID); err != nil {
			return err
		}
		if err := tx.Sessions().DeleteByUser(ctx, u.ID); err != nil {
			return err
		}
		if err := tx.Messages().DeleteByUser(ctx, u.ID); err != nil {
			return err
		}
		if err := tx.Users().Delete(ctx, u.ID); err != nil {
			return err
		}
		return tx.DeleteLogs().Create(ctx, &models.DeleteLog{
			EntityType: models.EntityUser,
			EntityID:   u.ID,
			Summary:    fmt.Sprintf("inspector %s (%s)", u.Email, u.DisplayName()),
			ActorID:    actor.ID,
			Reason:     models.DeleteReasonInspectorRejected,
		})
	})
	if err != nil {
		return err
	}

	log.Printf("[Accounts] rejected inspector user_id=%d email=%s by=%d", u.ID, u.Email, actor.ID)
	if s.indexer != nil {
		if err := s.indexer.DeleteUser(u.ID); err != nil {
			log.Printf("[Accounts] failed to unindex user_id=%d: %v", u.ID, err)
		}
	}
	return nil
}

func (s *Service) pending(ctx context.Context, tx repository.Store, userID uint) (*models.User, error) {
	u, err := loadUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsPendingInspector() {
		return nil, ErrNotPending
	}
	return u, nil
}

// Ban blocks a user. Live sessions are ended by the ban middleware on the
// user's next request.
func (s *Service) Ban(ctx context.Context, actor policy.Actor, userID uint) error {
	if actor.ID == userID {
		return ErrSelfBan
	}
	return s.setBanned(ctx, actor, userID, true)
}

// Unban lifts a ban
func (s *Service) Unban(ctx context.Context, actor policy.Actor, userID uint) error {
	return s.setBanned(ctx, actor, userID, false)
}

func (s *Service) setBanned(ctx context.Context, actor policy.Actor, userID uint, banned bool) error {
	var u *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if u, err = loadUser(ctx, tx, userID); err != nil {
			return err
		}
		u.IsBanned = banned
		return tx.Users().SetBanned(ctx, u.ID, banned)
	})
	if err != nil {
		return err
	}

	log.Printf("[Accounts] set banned=%v user_id=%d by=%d", banned, userID, actor.ID)
	s.index(u)
	return nil
}

func (s *Service) index(u *models.User) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexUser(u); err != nil {
		log.Printf("[Accounts] failed to index user_id=%d: %v", u.ID, err)
	}
}

func loadUser(ctx context.Context, store repository.Store, id uint) (*models.User, error) {
	u, err := store.Users().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return u, nil
}
