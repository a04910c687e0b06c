// Package messaging covers user-to-user messages and complaints to admins.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"inspection-portal/internal/apperr"
	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/repository"
)

var (
	ErrRecipientNotFound = apperr.NotFound("recipient")
	ErrMessageNotFound   = apperr.NotFound("message")
	ErrComplaintNotFound = apperr.NotFound("complaint")
	ErrSelfMessage       = apperr.Validation("cannot send a message to yourself")
	ErrNotRecipient      = apperr.Forbidden("message was sent to someone else")
	ErrAlreadyResolved   = fmt.Errorf("%w: complaint is already resolved", apperr.ErrConflict)
)

// Service sends messages and files complaints
type Service struct {
	store repository.Store
	now   func() time.Time
}

// NewService creates a new messaging service
func NewService(store repository.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// SendInput is the compose form. The recipient is addressed by id or email.
type SendInput struct {
	RecipientID    uint   `json:"recipient_id" form:"recipient_id"`
	RecipientEmail string `json:"recipient_email" form:"recipient_email"`
	Subject        string `json:"subject" form:"subject"`
	Body           string `json:"body" form:"body"`
}

// Send delivers a message to an existing user
func (s *Service) Send(ctx context.Context, actor policy.Actor, in SendInput) (*models.Message, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, apperr.Validation("message body is required")
	}

	recipient, err := s.recipient(ctx, in)
	if err != nil {
		return nil, err
	}
	if recipient.ID == actor.ID {
		return nil, ErrSelfMessage
	}

	m := &models.Message{
		SenderID:    actor.ID,
		RecipientID: recipient.ID,
		Subject:     strings.TrimSpace(in.Subject),
		Body:        body,
	}
	if err := s.store.Messages().Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	log.Printf("[Messaging] sent message_id=%d from=%d to=%d", m.ID, m.SenderID, m.RecipientID)
	return m, nil
}

func (s *Service) recipient(ctx context.Context, in SendInput) (*models.User, error) {
	var (
		u   *models.User
		err error
	)
	switch {
	case in.RecipientID != 0:
		u, err = s.store.Users().Get(ctx, in.RecipientID)
	case strings.TrimSpace(in.RecipientEmail) != "":
		u, err = s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.RecipientEmail)))
	default:
		return nil, apperr.Validation("recipient is required")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	return u, nil
}

// Inbox lists messages received by the actor, newest first
func (s *Service) Inbox(ctx context.Context, actor policy.Actor) ([]models.Message, error) {
	msgs, err := s.store.Messages().Inbox(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	return msgs, nil
}

// Sent lists messages sent by the actor, newest first
func (s *Service) Sent(ctx context.Context, actor policy.Actor) ([]models.Message, error) {
	msgs, err := s.store.Messages().Sent(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sent messages: %w", err)
	}
	return msgs, nil
}

// UnreadCount returns the number of unread messages for the actor
func (s *Service) UnreadCount(ctx context.Context, actor policy.Actor) (int64, error) {
	return s.store.Messages().CountUnread(ctx, actor.ID)
}

// MarkRead flags a received message as read
func (s *Service) MarkRead(ctx context.Context, actor policy.Actor, id uint) error {
	m, err := s.store.Messages().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrMessageNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}
	if m.RecipientID != actor.ID {
		return ErrNotRecipient
	}
	if m.IsRead {
		return nil
	}
	return s.store.Messages().MarkRead(ctx, id)
}

// ComplaintInput is the complaint form
type ComplaintInput struct {
	AgainstInspectorID *uint  `json:"against_inspector_id" form:"against_inspector_id"`
	Message            string `json:"message" form:"message"`
}

// FileComplaint records a complaint, optionally against an inspector
func (s *Service) FileComplaint(ctx context.Context, actor policy.Actor, in ComplaintInput) (*models.Complaint, error) {
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, apperr.Validation("complaint message is required")
	}
	if in.AgainstInspectorID != nil {
		u, err := s.store.Users().Get(ctx, *in.AgainstInspectorID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && u.Role != models.RoleInspector) {
			return nil, apperr.Validation("complaints can only name an inspector")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load inspector: %w", err)
		}
	}

	c := &models.Complaint{
		ReporterID:         actor.ID,
		AgainstInspectorID: in.AgainstInspectorID,
		Message:            text,
	}
	if err := s.store.Complaints().Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to file complaint: %w", err)
	}

	log.Printf("[Messaging] complaint filed complaint_id=%d reporter_id=%d", c.ID, c.ReporterID)
	return c, nil
}

// Complaints lists complaints; resolved narrows when non-nil
func (s *Service) Complaints(ctx context.Context, resolved *bool) ([]models.Complaint, error) {
	list, err := s.store.Complaints().List(ctx, resolved, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return list, nil
}

// Resolve closes a complaint with the admin's response
func (s *Service) Resolve(ctx context.Context, actor policy.Actor, id uint, response string) error {
	response = strings.TrimSpace(response)
	if response == "" {
		return apperr.Validation("a response is required")
	}
	err := s.store.Complaints().Resolve(ctx, id, response, s.now())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrComplaintNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrAlreadyResolved
	case err != nil:
		return fmt.Errorf("failed to resolve complaint: %w", err)
	}

	log.Printf("[Messaging] complaint resolved complaint_id=%d by=%d", id, actor.ID)
	return nil
}
