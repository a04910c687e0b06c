// Package importer copies accounts and properties from the externally
// managed legacy schema into the canonical tables.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"inspection-portal/internal/database"
	"inspection-portal/internal/models"
	"inspection-portal/internal/repository"
)

// Result counts what an import did
type Result struct {
	UsersCreated      int `json:"users_created"`
	UsersUpdated      int `json:"users_updated"`
	UsersSkipped      int `json:"users_skipped"`
	PasswordResets    int `json:"password_resets"`
	PropertiesCreated int `json:"properties_created"`
	PropertiesSkipped int `json:"properties_skipped"`
}

// Service runs legacy imports
type Service struct {
	store repository.Store
}

// NewService creates a new import service
func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

// IsBcryptHash reports whether a stored password can be kept as-is
func IsBcryptHash(h string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(h, prefix) {
			return true
		}
	}
	return false
}

// Run upserts legacy users by email, then their properties. Users whose
// password is not a bcrypt hash keep an empty hash and cannot log in until
// the password is reset. Re-running is safe.
func (s *Service) Run(ctx context.Context, src database.LegacySource) (*Result, error) {
	legacyUsers, err := src.LegacyUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy users: %w", err)
	}
	legacyProps, err := src.LegacyProperties()
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy properties: %w", err)
	}

	result := &Result{}
	owners := make(map[int64]uint, len(legacyUsers))

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		for _, lu := range legacyUsers {
			id, err := importUser(ctx, tx, lu, result)
			if err != nil {
				return fmt.Errorf("legacy user %d: %w", lu.ID, err)
			}
			if id != 0 {
				owners[lu.ID] = id
			}
		}
		for _, lp := range legacyProps {
			if err := importProperty(ctx, tx, lp, owners, result); err != nil {
				return fmt.Errorf("legacy property %d: %w", lp.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Import] users created=%d updated=%d skipped=%d password_resets=%d properties created=%d skipped=%d",
		result.UsersCreated, result.UsersUpdated, result.UsersSkipped, result.PasswordResets,
		result.PropertiesCreated, result.PropertiesSkipped)
	return result, nil
}

func importUser(ctx context.Context, tx repository.Store, lu database.LegacyUser, result *Result) (uint, error) {
	email := strings.ToLower(strings.TrimSpace(lu.Email))
	role, ok := models.ParseRole(lu.Type)
	if email == "" || !ok {
		log.Printf("[Import] skipping legacy user_id=%d: missing email or unknown type %q", lu.ID, lu.Type)
		result.UsersSkipped++
		return 0, nil
	}

	hash := ""
	if IsBcryptHash(lu.Password) {
		hash = lu.Password
	} else {
		result.PasswordResets++
	}

	u, err := tx.Users().GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u = &models.User{Email: email, Role: role, PasswordHash: hash}
	case err != nil:
		return 0, err
	default:
		if hash != "" {
			u.PasswordHash = hash
		}
	}

	u.Name = strings.TrimSpace(lu.Name)
	u.Phone = strings.TrimSpace(lu.Phone)
	u.License = strings.TrimSpace(lu.License)
	u.IsApproved = role != models.RoleInspector || lu.Approved
	u.IsBanned = !lu.Active

	if nid := strings.TrimSpace(lu.NID); nid != "" && (u.NID == nil || *u.NID != nid) {
		taken, err := tx.Users().NIDExists(ctx, nid)
		if err != nil {
			return 0, err
		}
		if taken {
			log.Printf("[Import] legacy user_id=%d: national ID already registered, dropping it", lu.ID)
		} else {
			u.NID = &nid
		}
	}

	if u.ID == 0 {
		if err := tx.Users().Create(ctx, u); err != nil {
			return 0, err
		}
		result.UsersCreated++
	} else {
		if err := tx.Users().Update(ctx, u); err != nil {
			return 0, err
		}
		result.UsersUpdated++
	}
	return u.ID, nil
}

func importProperty(ctx context.Context, tx repository.Store, lp database.LegacyProperty, owners map[int64]uint, result *Result) error {
	ownerID, ok := owners[lp.OwnerID]
	location := strings.TrimSpace(lp.Location)
	if !ok || location == "" {
		result.PropertiesSkipped++
		return nil
	}
	propType := strings.TrimSpace(lp.Type)
	if propType == "" {
		propType = "Unspecified"
	}

	existing, err := tx.Properties().ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if p.Type == propType && p.Location == location {
			result.PropertiesSkipped++
			return nil
		}
	}

	if err := tx.Properties().Create(ctx, &models.Property{OwnerID: ownerID, Type: propType, Location: location}); err != nil {
		return err
	}
	result.PropertiesCreated++
	return nil
}
