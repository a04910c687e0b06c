// Package search backs the admin search page. Meilisearch is used when
// configured; otherwise queries go to the database.
package search

import (
	"context"
	"fmt"
	"log"

	"inspection-portal/internal/models"
	"inspection-portal/internal/repository"
)

// RequestDocument is the indexed form of an inspection request
type RequestDocument struct {
	ID               uint                 `json:"id"`
	OwnerID          uint                 `json:"owner_id"`
	InspectorID      uint                 `json:"inspector_id,omitempty"`
	Type             models.RequestType   `json:"req_type"`
	BuildingLocation string               `json:"building_location"`
	Status           models.RequestStatus `json:"status"`
	Fee              int64                `json:"fee"`
	CreatedAt        int64                `json:"created_at"`
}

// PropertyDocument is the indexed form of a property
type PropertyDocument struct {
	ID       uint   `json:"id"`
	OwnerID  uint   `json:"owner_id"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// UserDocument is the indexed form of a user. Password hashes never leave the database.
type UserDocument struct {
	ID         uint        `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
	NID        string      `json:"nid,omitempty"`
	IsApproved bool        `json:"is_approved"`
	IsBanned   bool        `json:"is_banned"`
}

// NewRequestDocument converts a request for indexing
func NewRequestDocument(r *models.InspectionRequest) RequestDocument {
	doc := RequestDocument{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		Type:             r.Type,
		BuildingLocation: r.BuildingLocation,
		Status:           r.Status,
		Fee:              r.Fee,
		CreatedAt:        r.CreatedAt.Unix(),
	}
	if r.InspectorID != nil {
		doc.InspectorID = *r.InspectorID
	}
	return doc
}

// NewPropertyDocument converts a property for indexing
func NewPropertyDocument(p *models.Property) PropertyDocument {
	return PropertyDocument{ID: p.ID, OwnerID: p.OwnerID, Type: p.Type, Location: p.Location}
}

// NewUserDocument converts a user for indexing
func NewUserDocument(u *models.User) UserDocument {
	doc := UserDocument{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		IsApproved: u.IsApproved,
		IsBanned:   u.IsBanned,
	}
	if u.NID != nil {
		doc.NID = *u.NID
	}
	return doc
}

// Results groups hits by entity
type Results struct {
	Query      string             `json:"query"`
	Backend    string             `json:"backend"`
	Requests   []RequestDocument  `json:"requests"`
	Properties []PropertyDocument `json:"properties"`
	Users      []UserDocument     `json:"users"`
}

// Searcher answers admin search queries
type Searcher interface {
	Search(ctx context.Context, params FilterParams) (*Results, error)
}

// DBSearcher searches with LIKE queries through the repositories
type DBSearcher struct {
	store repository.Store
}

// NewDBSearcher creates a database-backed searcher
func NewDBSearcher(store repository.Store) *DBSearcher {
	return &DBSearcher{store: store}
}

// Search implements Searcher
func (s *DBSearcher) Search(ctx context.Context, params FilterParams) (*Results, error) {
	params = params.withDefaults()
	res := &Results{Query: params.Query, Backend: "database"}

	reqs, err := s.store.Requests().List(ctx, repository.RequestFilter{
		Statuses: params.Statuses,
		Query:    params.Query,
		Limit:    int(params.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search requests: %w", err)
	}
	for i := range reqs {
		if params.Type != "" && reqs[i].Type != params.Type {
			continue
		}
		res.Requests = append(res.Requests, NewRequestDocument(&reqs[i]))
	}

	props, err := s.store.Properties().List(ctx, params.Query, int(params.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}
	for i := range props {
		res.Properties = append(res.Properties, NewPropertyDocument(&props[i]))
	}

	users, err := s.store.Users().List(ctx, repository.UserFilter{Role: params.Role, Query: params.Query, Limit: int(params.Limit)})
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	for i := range users {
		res.Users = append(res.Users, NewUserDocument(&users[i]))
	}
	return res, nil
}

// Index is the write side of the search backend used by Reindex
type Index interface {
	IndexRequests(reqs []models.InspectionRequest) error
	IndexProperties(props []models.Property) error
	ReplaceUsers(users []models.User) error
}

// Reindex pushes every request, property and user from the store into the
// index. The users index is replaced so deleted accounts drop out.
func Reindex(ctx context.Context, store repository.Store, client Index) error {
	reqs, err := store.Requests().List(ctx, repository.RequestFilter{})
	if err != nil {
		return fmt.Errorf("failed to load requests: %w", err)
	}
	props, err := store.Properties().List(ctx, "", 0)
	if err != nil {
		return fmt.Errorf("failed to load properties: %w", err)
	}
	users, err := store.Users().List(ctx, repository.UserFilter{})
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	if err := client.IndexRequests(reqs); err != nil {
		return err
	}
	if err := client.IndexProperties(props); err != nil {
		return err
	}
	if err := client.ReplaceUsers(users); err != nil {
		return err
	}

	log.Printf("[Search] reindexed requests=%d properties=%d users=%d", len(reqs), len(props), len(users))
	return nil
}
