// Package auth handles account creation, password hashing and login sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"inspection-portal/internal/apperr"
	"inspection-portal/internal/config"
	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/repository"
)

const minPasswordLength = 8

var (
	ErrValidation         = apperr.ErrValidation
	ErrDuplicateEmail     = apperr.Validation("email is already registered")
	ErrDuplicateNID       = apperr.Validation("national ID is already registered")
	ErrInvalidCredentials = apperr.Validation("invalid email or password")
	ErrBanned             = apperr.Forbidden("account is banned")
	ErrInvalidSession     = errors.New("session is invalid or expired")
)

// SignupInput is the submitted registration form
type SignupInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
	Role     string `json:"role" form:"role"`
	NID      string `json:"nid" form:"nid"`
	Phone    string `json:"phone" form:"phone"`
	Location string `json:"location" form:"location"`
	License  string `json:"license" form:"license"`
}

// SessionService issues and resolves login sessions. Handlers only need the
// current actor; how the token is stored is up to the implementation.
type SessionService interface {
	Login(ctx context.Context, email, password string, remember bool) (*models.Session, error)
	Resolve(ctx context.Context, token string) (policy.Actor, error)
	Logout(ctx context.Context, token string) error
	DestroyUserSessions(ctx context.Context, userID uint) error
}

// Service implements account registration and SessionService on the store
type Service struct {
	store repository.Store
	cfg   config.SessionConfig
	now   func() time.Time
}

// NewService creates a new auth service
func NewService(store repository.Store, cfg config.SessionConfig) *Service {
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// HashPassword hashes a plain-text password with bcrypt
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Signup registers an owner or inspector. Inspectors start unapproved.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return nil, apperr.Validation("role must be owner or inspector")
	}
	if role == models.RoleAdmin {
		return nil, apperr.Validation("admin accounts cannot sign up")
	}
	return s.register(ctx, in, role)
}

// CreateAdmin registers an approved admin account
func (s *Service) CreateAdmin(ctx context.Context, email, name, password string) (*models.User, error) {
	return s.register(ctx, SignupInput{Email: email, Name: name, Password: password}, models.RoleAdmin)
}

func (s *Service) register(ctx context.Context, in SignupInput, role models.Role) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateSignup(email, in.Password); err != nil {
		return nil, err
	}

	exists, err := s.store.Users().EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	var nid *string
	if n := strings.TrimSpace(in.NID); n != "" {
		exists, err := s.store.Users().NIDExists(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("failed to check national ID: %w", err)
		}
		if exists {
			return nil, ErrDuplicateNID
		}
		nid = &n
	}

	hash, err := HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         role,
		NID:          nid,
		Phone:        strings.TrimSpace(in.Phone),
		Location:     strings.TrimSpace(in.Location),
		License:      strings.TrimSpace(in.License),
		IsApproved:   role != models.RoleInspector,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent signup
			if taken, _ := s.store.Users().EmailExists(ctx, email); taken {
				return nil, ErrDuplicateEmail
			}
			return nil, ErrDuplicateNID
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("[Auth] registered user_id=%d role=%s approved=%v", u.ID, u.Role, u.IsApproved)
	return u, nil
}

func validateSignup(email, password string) error {
	if email == "" {
		return apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Validation("email is malformed")
	}
	if len(password) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// Login checks credentials and opens a session
func (s *Service) Login(ctx context.Context, email, password string, remember bool) (*models.Session, error) {
	u, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if u.IsBanned {
		return nil, ErrBanned
	}

	ttl := s.cfg.GetTTL()
	if remember {
		ttl = s.cfg.GetRememberTTL()
	}
	sess := &models.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		Remember:  remember,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.store.Sessions().Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Printf("[Auth] login user_id=%d remember=%v", u.ID, remember)
	return sess, nil
}

// Resolve returns the actor owning a live session
func (s *Service) Resolve(ctx context.Context, token string) (policy.Actor, error) {
	if token == "" {
		return policy.Actor{}, ErrInvalidSession
	}
	sess, err := s.store.Sessions().Get(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return policy.Actor{}, ErrInvalidSession
	}
	if err != nil {
		return policy.Actor{}, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.Expired(s.now()) {
		_ = s.store.Sessions().Delete(ctx, token)
		return policy.Actor{}, ErrInvalidSession
	}

	u, err := s.store.Users().Get(ctx, sess.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		// User was removed after login
		_ = s.store.Sessions().DeleteByUser(ctx, sess.UserID)
		return policy.Actor{}, ErrInvalidSession
	}
	if err != nil {
		return policy.Actor{}, fmt.Errorf("failed to load user: %w", err)
	}
	return policy.ActorFromUser(u), nil
}

// Logout ends one session
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Sessions().Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DestroyUserSessions ends every session of a user
func (s *Service) DestroyUserSessions(ctx context.Context, userID uint) error {
	if err := s.store.Sessions().DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	log.Printf("[Auth] destroyed sessions user_id=%d", userID)
	return nil
}
