package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/meilisearch/meilisearch-go"

	"inspection-portal/internal/models"
)

const (
	requestsIndex   = "inspection_requests"
	propertiesIndex = "properties"
	usersIndex      = "users"
)

type SearchClient struct {
	client *meilisearch.Client
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{client: client}
}

// indexSettings lists searchable and filterable attributes per index
var indexSettings = map[string]struct {
	searchable []string
	filterable []string
	sortable   []string
}{
	requestsIndex: {
		searchable: []string{"building_location", "req_type", "status"},
		filterable: []string{"status", "req_type", "owner_id", "inspector_id"},
		sortable:   []string{"created_at", "fee"},
	},
	propertiesIndex: {
		searchable: []string{"location", "type"},
		filterable: []string{"owner_id", "type"},
	},
	usersIndex: {
		searchable: []string{"email", "name", "nid"},
		filterable: []string{"role", "is_approved", "is_banned"},
	},
}

// InitIndex creates the indexes and applies their settings
func (s *SearchClient) InitIndex() error {
	for uid, settings := range indexSettings {
		// Ignore error if index already exists
		_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
			Uid:        uid,
			PrimaryKey: "id",
		})
		if err != nil && err.Error() != "index already exists" {
			return fmt.Errorf("failed to create index %s: %w", uid, err)
		}

		idx := s.client.Index(uid)
		searchable := settings.searchable
		if _, err := idx.UpdateSearchableAttributes(&searchable); err != nil {
			return err
		}
		filterable := settings.filterable
		if _, err := idx.UpdateFilterableAttributes(&filterable); err != nil {
			return err
		}
		if len(settings.sortable) > 0 {
			sortable := settings.sortable
			if _, err := idx.UpdateSortableAttributes(&sortable); err != nil {
				return err
			}
		}
	}
	return nil
}

// Healthy reports whether the server answers
func (s *SearchClient) Healthy() bool {
	return s.client.IsHealthy()
}

// IndexRequest indexes a single request
func (s *SearchClient) IndexRequest(r *models.InspectionRequest) error {
	_, err := s.client.Index(requestsIndex).AddDocuments([]RequestDocument{NewRequestDocument(r)})
	return err
}

// IndexRequests indexes multiple requests
func (s *SearchClient) IndexRequests(reqs []models.InspectionRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	docs := make([]RequestDocument, len(reqs))
	for i := range reqs {
		docs[i] = NewRequestDocument(&reqs[i])
	}
	_, err := s.client.Index(requestsIndex).AddDocuments(docs)
	return err
}

// IndexProperty indexes a single property
func (s *SearchClient) IndexProperty(p *models.Property) error {
	_, err := s.client.Index(propertiesIndex).AddDocuments([]PropertyDocument{NewPropertyDocument(p)})
	return err
}

// IndexProperties indexes multiple properties
func (s *SearchClient) IndexProperties(props []models.Property) error {
	if len(props) == 0 {
		return nil
	}
	docs := make([]PropertyDocument, len(props))
	for i := range props {
		docs[i] = NewPropertyDocument(&props[i])
	}
	_, err := s.client.Index(propertiesIndex).AddDocuments(docs)
	return err
}

// DeleteProperty removes a property from the index
func (s *SearchClient) DeleteProperty(id uint) error {
	_, err := s.client.Index(propertiesIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

// IndexUser indexes or replaces a single user
func (s *SearchClient) IndexUser(u *models.User) error {
	_, err := s.client.Index(usersIndex).AddDocuments([]UserDocument{NewUserDocument(u)})
	return err
}

// DeleteUser removes a user from the index
func (s *SearchClient) DeleteUser(id uint) error {
	_, err := s.client.Index(usersIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

// ReplaceUsers clears the users index and loads the given users. Tasks on
// one index run in order, so the clear lands before the new documents.
func (s *SearchClient) ReplaceUsers(users []models.User) error {
	if _, err := s.client.Index(usersIndex).DeleteAllDocuments(); err != nil {
		return fmt.Errorf("failed to clear users index: %w", err)
	}
	if len(users) == 0 {
		return nil
	}
	docs := make([]UserDocument, len(users))
	for i := range users {
		docs[i] = NewUserDocument(&users[i])
	}
	_, err := s.client.Index(usersIndex).AddDocuments(docs)
	return err
}

// Search implements Searcher
func (s *SearchClient) Search(_ context.Context, params FilterParams) (*Results, error) {
	params = params.withDefaults()
	res := &Results{Query: params.Query, Backend: "meilisearch"}

	if err := s.searchIndex(requestsIndex, params.Query, params.requestFilter(), params.Limit, &res.Requests); err != nil {
		return nil, err
	}
	if err := s.searchIndex(propertiesIndex, params.Query, "", params.Limit, &res.Properties); err != nil {
		return nil, err
	}
	if err := s.searchIndex(usersIndex, params.Query, params.userFilter(), params.Limit, &res.Users); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SearchClient) searchIndex(uid, query, filter string, limit int64, out interface{}) error {
	searchReq := &meilisearch.SearchRequest{Limit: limit}
	if filter != "" {
		searchReq.Filter = filter
	}

	searchRes, err := s.client.Index(uid).Search(query, searchReq)
	if err != nil {
		return fmt.Errorf("search %s: %w", uid, err)
	}

	// Convert hits to JSON then into the document slice
	hitJSON, err := json.Marshal(searchRes.Hits)
	if err != nil {
		return err
	}
	return json.Unmarshal(hitJSON, out)
}
