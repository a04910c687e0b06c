// Package workflow implements the inspection request lifecycle:
//
//	Pending -> Assigned -> Approved | Rejected
//	Approved -> Completed -> Paid
//	Approved -> Paid
//
// Every transition is a conditional write inside a transaction and appends a
// StatusChange row.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"inspection-portal/internal/apperr"
	"inspection-portal/internal/config"
	"inspection-portal/internal/ledger"
	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/repository"
)

var (
	ErrNotFound             = apperr.NotFound("inspection request")
	ErrForbidden            = apperr.Forbidden("not allowed to act on this request")
	ErrInvalidTransition    = fmt.Errorf("%w: request is not in a state that allows this", apperr.ErrConflict)
	ErrAlreadyDecided       = fmt.Errorf("%w: request already has a decision", apperr.ErrConflict)
	ErrAlreadyPaid          = fmt.Errorf("%w: request is already paid", apperr.ErrConflict)
	ErrInspectorUnavailable = apperr.Validation("inspector must be approved and not banned")
)

// transitions lists the statuses each status may move to
var transitions = map[models.RequestStatus][]models.RequestStatus{
	models.StatusPending:   {models.StatusAssigned},
	models.StatusAssigned:  {models.StatusApproved, models.StatusRejected},
	models.StatusApproved:  {models.StatusCompleted, models.StatusPaid},
	models.StatusCompleted: {models.StatusPaid},
}

// CanTransition reports whether from -> to is a legal lifecycle step
func CanTransition(from, to models.RequestStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// sourcesOf lists the statuses that may move to `to`
func sourcesOf(to models.RequestStatus) []models.RequestStatus {
	var from []models.RequestStatus
	for _, s := range models.AllStatuses {
		if CanTransition(s, to) {
			from = append(from, s)
		}
	}
	return from
}

// Indexer receives requests after each write. Failures are logged only.
type Indexer interface {
	IndexRequest(r *models.InspectionRequest) error
}

// Fees maps a request type to its flat fee in minor units
type Fees map[models.RequestType]int64

// FeesFromConfig parses the configured decimal fees
func FeesFromConfig(cfg config.FeeConfig) (Fees, error) {
	fees := Fees{}
	for t, raw := range map[models.RequestType]string{
		models.RequestTypeNewConstruction: cfg.NewConstruction,
		models.RequestTypeReinspection:    cfg.Reinspection,
	} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		amount, err := models.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("fee for %s: %w", t, err)
		}
		if amount < 0 {
			return nil, fmt.Errorf("fee for %s must not be negative", t)
		}
		fees[t] = amount
	}
	return fees, nil
}

// Service runs lifecycle operations against the store
type Service struct {
	store   repository.Store
	fees    Fees
	indexer Indexer
	now     func() time.Time
}

// NewService creates a new workflow service
func NewService(store repository.Store, fees Fees) *Service {
	if fees == nil {
		fees = Fees{}
	}
	return &Service{store: store, fees: fees, now: time.Now}
}

// SetIndexer attaches a search indexer
func (s *Service) SetIndexer(idx Indexer) {
	s.indexer = idx
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateInput is the owner's request form
type CreateInput struct {
	Type             string `json:"req_type" form:"req_type"`
	BuildingLocation string `json:"building_location" form:"building_location"`
	PropertyID       *uint  `json:"property_id" form:"property_id"`
}

// CreateRequest files a new Pending request for the owner
func (s *Service) CreateRequest(ctx context.Context, actor policy.Actor, in CreateInput) (*models.InspectionRequest, error) {
	if actor.Role != models.RoleOwner {
		return nil, apperr.Forbidden("only owners can request inspections")
	}

	reqType := models.RequestType(strings.TrimSpace(in.Type))
	if reqType == "" {
		reqType = models.RequestTypeNewConstruction
	}
	if !reqType.Valid() {
		return nil, apperr.Validation("unknown request type %q", in.Type)
	}

	location := strings.TrimSpace(in.BuildingLocation)
	if in.PropertyID != nil {
		p, err := s.store.Properties().Get(ctx, *in.PropertyID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("property")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load property: %w", err)
		}
		if !p.IsOwnedBy(actor.ID) {
			return nil, apperr.Forbidden("property belongs to another owner")
		}
		if location == "" {
			location = p.Location
		}
	}
	if location == "" {
		return nil, apperr.Validation("building location is required")
	}

	req := &models.InspectionRequest{
		OwnerID:          actor.ID,
		PropertyID:       in.PropertyID,
		Type:             reqType,
		BuildingLocation: location,
		Fee:              s.fees[reqType],
		Status:           models.StatusPending,
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Requests().Create(ctx, req); err != nil {
			return err
		}
		return s.record(ctx, tx, req.ID, "", models.StatusPending, actor.ID, "")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	log.Printf("[Workflow] created request_id=%d owner_id=%d type=%q fee=%s",
		req.ID, req.OwnerID, req.Type, models.FormatAmount(req.Fee))
	s.index(req)
	return req, nil
}

// Assign gives a Pending request to an approved, unbanned inspector
func (s *Service) Assign(ctx context.Context, actor policy.Actor, requestID, inspectorID uint) (*models.InspectionRequest, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("only admins can assign inspectors")
	}

	var req *models.InspectionRequest
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if req, err = loadRequest(ctx, tx, requestID); err != nil {
			return err
		}

		inspector, err := tx.Users().Get(ctx, inspectorID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInspectorUnavailable
		}
		if err != nil {
			return err
		}
		if !inspector.CanInspect() {
			return ErrInspectorUnavailable
		}

		if err := s.move(ctx, tx, req, models.StatusAssigned, actor.ID,
			map[string]interface{}{"inspector_id": inspector.ID}, ""); err != nil {
			return err
		}
		req.InspectorID = &inspector.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Workflow] assigned request_id=%d inspector_id=%d by=%d", req.ID, inspectorID, actor.ID)
	s.index(req)
	return req, nil
}

// DecisionInput is the inspector's report form
type DecisionInput struct {
	Decision             string    `json:"decision" form:"decision"`
	StructuralEvaluation string    `json:"structural_evaluation" form:"structural_evaluation"`
	ComplianceChecklist  string    `json:"compliance_checklist" form:"compliance_checklist"`
	Remarks              string    `json:"remarks" form:"remarks"`
	InspectionDate       time.Time `json:"inspection_date" form:"inspection_date" time_format:"2006-01-02"`
}

func (in DecisionInput) validate() (models.Decision, error) {
	d := models.Decision(strings.TrimSpace(in.Decision))
	if !d.Valid() {
		return "", apperr.Validation("decision must be Approved or Rejected")
	}
	if d == models.DecisionRejected && strings.TrimSpace(in.Remarks) == "" {
		return "", apperr.Validation("a rejection needs a reason in remarks")
	}
	if d == models.DecisionApproved && strings.TrimSpace(in.StructuralEvaluation) == "" {
		return "", apperr.Validation("structural evaluation is required")
	}
	return d, nil
}

// Decide files the single report for an Assigned request and moves it to
// Approved or Rejected
func (s *Service) Decide(ctx context.Context, actor policy.Actor, requestID uint, in DecisionInput) (*models.InspectionReport, error) {
	if actor.Role != models.RoleInspector {
		return nil, apperr.Forbidden("only inspectors can file reports")
	}
	decision, err := in.validate()
	if err != nil {
		return nil, err
	}

	inspectedOn := in.InspectionDate
	if inspectedOn.IsZero() {
		inspectedOn = s.now()
	}

	var report *models.InspectionReport
	var req *models.InspectionRequest
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if req, err = loadRequest(ctx, tx, requestID); err != nil {
			return err
		}
		if !req.IsAssignedTo(actor.ID) {
			return ErrForbidden
		}

		if _, err := tx.Reports().GetByRequest(ctx, req.ID); err == nil {
			return ErrAlreadyDecided
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		report = &models.InspectionReport{
			RequestID:            req.ID,
			InspectorID:          actor.ID,
			Decision:             decision,
			InspectionDate:       inspectedOn,
			StructuralEvaluation: strings.TrimSpace(in.StructuralEvaluation),
			ComplianceChecklist:  strings.TrimSpace(in.ComplianceChecklist),
			Remarks:              strings.TrimSpace(in.Remarks),
		}
		if err := tx.Reports().Create(ctx, report); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyDecided
			}
			return err
		}

		err = s.move(ctx, tx, req, decision.Status(), actor.ID, nil, report.Remarks)
		if errors.Is(err, ErrInvalidTransition) {
			return ErrAlreadyDecided
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Workflow] decided request_id=%d inspector_id=%d decision=%s", requestID, actor.ID, decision)
	s.index(req)
	return report, nil
}

// Complete closes an Approved request. Inspectors may only complete their own.
func (s *Service) Complete(ctx context.Context, actor policy.Actor, requestID uint) (*models.InspectionRequest, error) {
	if actor.Role != models.RoleInspector && actor.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("only inspectors and admins can complete requests")
	}

	var req *models.InspectionRequest
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if req, err = loadRequest(ctx, tx, requestID); err != nil {
			return err
		}
		if actor.Role == models.RoleInspector && !req.IsAssignedTo(actor.ID) {
			return ErrForbidden
		}
		return s.move(ctx, tx, req, models.StatusCompleted, actor.ID, nil, "")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Workflow] completed request_id=%d by=%d", req.ID, actor.ID)
	s.index(req)
	return req, nil
}

// Pay settles an Approved or Completed request. amount defaults to the fee.
// The payment, the ledger credit, the balance and the status change commit
// together; paying twice returns ErrAlreadyPaid and credits nothing.
func (s *Service) Pay(ctx context.Context, actor policy.Actor, requestID uint, amount *int64) (*models.Payment, error) {
	if actor.Role != models.RoleOwner {
		return nil, apperr.Forbidden("only owners can pay for requests")
	}

	var payment *models.Payment
	var req *models.InspectionRequest
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if req, err = loadRequest(ctx, tx, requestID); err != nil {
			return err
		}
		if req.OwnerID != actor.ID {
			return ErrForbidden
		}
		if req.Status == models.StatusPaid {
			return ErrAlreadyPaid
		}

		paid := req.Fee
		if amount != nil {
			paid = *amount
		}
		if paid <= 0 {
			return apperr.Validation("payment amount must be greater than zero")
		}

		// Status first: a concurrent payer loses here before writing anything
		err = s.move(ctx, tx, req, models.StatusPaid, actor.ID, nil, "paid "+models.FormatAmount(paid))
		if errors.Is(err, ErrInvalidTransition) {
			if cur, lerr := loadRequest(ctx, tx, req.ID); lerr == nil && cur.Status == models.StatusPaid {
				return ErrAlreadyPaid
			}
			return err
		}
		if err != nil {
			return err
		}

		payment = &models.Payment{PayerID: actor.ID, RequestID: &req.ID, Amount: paid}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}
		err = ledger.Credit(ctx, tx, req.ID, payment.ID, paid)
		if errors.Is(err, ledger.ErrAlreadyCredited) {
			return ErrAlreadyPaid
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Workflow] paid request_id=%d owner_id=%d amount=%s", req.ID, actor.ID, models.FormatAmount(payment.Amount))
	s.index(req)
	return payment, nil
}

// Detail is a request with everything attached to it
type Detail struct {
	Request *models.InspectionRequest `json:"request"`
	Report  *models.InspectionReport  `json:"report,omitempty"`
	Payment *models.Payment           `json:"payment,omitempty"`
	History []models.StatusChange     `json:"history"`
}

// Get returns a request visible to the actor
func (s *Service) Get(ctx context.Context, actor policy.Actor, requestID uint) (*Detail, error) {
	req, err := loadRequest(ctx, s.store, requestID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, req) {
		return nil, ErrForbidden
	}

	d := &Detail{Request: req}
	if d.Report, err = s.store.Reports().GetByRequest(ctx, req.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if d.Payment, err = s.store.Payments().GetByRequest(ctx, req.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if d.History, err = s.store.History().ListByRequest(ctx, req.ID, 0); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return d, nil
}

// History returns the status changes of a request visible to the actor
func (s *Service) History(ctx context.Context, actor policy.Actor, requestID uint) ([]models.StatusChange, error) {
	req, err := loadRequest(ctx, s.store, requestID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, req) {
		return nil, ErrForbidden
	}
	changes, err := s.store.History().ListByRequest(ctx, req.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return changes, nil
}

// List returns the requests visible to the actor, narrowed by statuses
func (s *Service) List(ctx context.Context, actor policy.Actor, statuses ...models.RequestStatus) ([]models.InspectionRequest, error) {
	f := repository.RequestFilter{Statuses: statuses}
	switch actor.Role {
	case models.RoleOwner:
		f.OwnerID = actor.ID
	case models.RoleInspector:
		f.InspectorID = actor.ID
	case models.RoleAdmin:
	default:
		return nil, ErrForbidden
	}
	reqs, err := s.store.Requests().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return reqs, nil
}

func canView(actor policy.Actor, req *models.InspectionRequest) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleOwner:
		return req.OwnerID == actor.ID
	case models.RoleInspector:
		return req.IsAssignedTo(actor.ID)
	}
	return false
}

func loadRequest(ctx context.Context, store repository.Store, id uint) (*models.InspectionRequest, error) {
	req, err := store.Requests().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request %d: %w", id, err)
	}
	return req, nil
}

// move performs one conditional transition of req and records it
func (s *Service) move(ctx context.Context, tx repository.Store, req *models.InspectionRequest, to models.RequestStatus, actorID uint, updates map[string]interface{}, note string) error {
	from := req.Status
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	err := tx.Requests().Transition(ctx, req.ID, sourcesOf(to), to, updates)
	if errors.Is(err, repository.ErrConflict) {
		return ErrInvalidTransition
	}
	if err != nil {
		return fmt.Errorf("failed to update request %d: %w", req.ID, err)
	}
	req.Status = to
	return s.record(ctx, tx, req.ID, from, to, actorID, note)
}

func (s *Service) record(ctx context.Context, tx repository.Store, requestID uint, from, to models.RequestStatus, actorID uint, note string) error {
	return tx.History().Append(ctx, &models.StatusChange{
		RequestID:  requestID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Note:       note,
		ChangedAt:  s.now(),
	})
}

func (s *Service) index(req *models.InspectionRequest) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexRequest(req); err != nil {
		log.Printf("[Workflow] failed to index request_id=%d: %v", req.ID, err)
	}
}
