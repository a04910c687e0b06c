// Package properties is the owner's property registry.
package properties

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"inspection-portal/internal/apperr"
	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/repository"
)

var (
	ErrNotFound  = apperr.NotFound("property")
	ErrNotOwner  = apperr.Forbidden("property belongs to another owner")
	ErrOwnerOnly = apperr.Forbidden("only owners manage properties")
)

// Indexer receives property writes for search
type Indexer interface {
	IndexProperty(p *models.Property) error
	DeleteProperty(id uint) error
}

// Service manages properties
type Service struct {
	store   repository.Store
	indexer Indexer
}

// NewService creates a new property service
func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// SetIndexer attaches a search indexer
func (s *Service) SetIndexer(idx Indexer) {
	s.indexer = idx
}

// Input is the add-property form
type Input struct {
	Type     string `json:"type" form:"type"`
	Location string `json:"location" form:"location"`
}

// List returns the owner's properties
func (s *Service) List(ctx context.Context, actor policy.Actor) ([]models.Property, error) {
	if actor.Role != models.RoleOwner {
		return nil, ErrOwnerOnly
	}
	props, err := s.store.Properties().ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return props, nil
}

// Add registers a property for the owner
func (s *Service) Add(ctx context.Context, actor policy.Actor, in Input) (*models.Property, error) {
	if actor.Role != models.RoleOwner {
		return nil, ErrOwnerOnly
	}
	p := &models.Property{
		OwnerID:  actor.ID,
		Type:     strings.TrimSpace(in.Type),
		Location: strings.TrimSpace(in.Location),
	}
	if p.Type == "" || p.Location == "" {
		return nil, apperr.Validation("property type and location are required")
	}
	if err := s.store.Properties().Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	log.Printf("[Properties] added property_id=%d owner_id=%d", p.ID, p.OwnerID)
	if s.indexer != nil {
		if err := s.indexer.IndexProperty(p); err != nil {
			log.Printf("[Properties] failed to index property_id=%d: %v", p.ID, err)
		}
	}
	return p, nil
}

// Delete removes one of the owner's properties and logs the deletion
func (s *Service) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	if actor.Role != models.RoleOwner {
		return ErrOwnerOnly
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		p, err := tx.Properties().Get(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !p.IsOwnedBy(actor.ID) {
			return ErrNotOwner
		}
		if err := tx.Properties().Delete(ctx, p.ID); err != nil {
			return err
		}
		return tx.DeleteLogs().Create(ctx, &models.DeleteLog{
			EntityType: models.EntityProperty,
			EntityID:   p.ID,
			Summary:    fmt.Sprintf("%s at %s", p.Type, p.Location),
			ActorID:    actor.ID,
			Reason:     models.DeleteReasonOwnerRemoved,
		})
	})
	if err != nil {
		return err
	}

	log.Printf("[Properties] deleted property_id=%d owner_id=%d", id, actor.ID)
	if s.indexer != nil {
		if err := s.indexer.DeleteProperty(id); err != nil {
			log.Printf("[Properties] failed to unindex property_id=%d: %v", id, err)
		}
	}
	return nil
}
