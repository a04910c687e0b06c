package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-portal/internal/apperr"
	"inspection-portal/internal/config"
	"inspection-portal/internal/database"
	"inspection-portal/internal/ledger"
	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/testutil"
)

type fixture struct {
	store     *database.GormStore
	svc       *Service
	owner     policy.Actor
	inspector policy.Actor
	admin     policy.Actor
}

type recordingIndexer struct {
	ids []uint
}

func (r *recordingIndexer) IndexRequest(req *models.InspectionRequest) error {
	r.ids = append(r.ids, req.ID)
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStore(t)
	return &fixture{
		store:     store,
		svc:       NewService(store, Fees{models.RequestTypeNewConstruction: 15000, models.RequestTypeReinspection: 5000}),
		owner:     policy.ActorFromUser(testutil.CreateUser(t, store, "owner@example.com", models.RoleOwner)),
		inspector: policy.ActorFromUser(testutil.CreateUser(t, store, "insp@example.com", models.RoleInspector)),
		admin:     policy.ActorFromUser(testutil.CreateUser(t, store, "admin@example.com", models.RoleAdmin)),
	}
}

func (f *fixture) create(t *testing.T) *models.InspectionRequest {
	t.Helper()
	req, err := f.svc.CreateRequest(context.Background(), f.owner, CreateInput{BuildingLocation: "12 Lake Road"})
	require.NoError(t, err)
	return req
}

func (f *fixture) approved(t *testing.T) *models.InspectionRequest {
	t.Helper()
	ctx := context.Background()
	req := f.create(t)
	_, err := f.svc.Assign(ctx, f.admin, req.ID, f.inspector.ID)
	require.NoError(t, err)
	_, err = f.svc.Decide(ctx, f.inspector, req.ID, DecisionInput{Decision: "Approved", StructuralEvaluation: "sound"})
	require.NoError(t, err)
	return req
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.RequestStatus
		want     bool
	}{
		{models.StatusPending, models.StatusAssigned, true},
		{models.StatusAssigned, models.StatusApproved, true},
		{models.StatusAssigned, models.StatusRejected, true},
		{models.StatusApproved, models.StatusCompleted, true},
		{models.StatusApproved, models.StatusPaid, true},
		{models.StatusCompleted, models.StatusPaid, true},
		{models.StatusPending, models.StatusPaid, false},
		{models.StatusRejected, models.StatusPaid, false},
		{models.StatusPaid, models.StatusPaid, false},
		{models.StatusAssigned, models.StatusPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestFeesFromConfig(t *testing.T) {
	fees, err := FeesFromConfig(config.FeeConfig{NewConstruction: "150.00", Reinspection: "49.5"})
	require.NoError(t, err)
	assert.Equal(t, int64(15000), fees[models.RequestTypeNewConstruction])
	assert.Equal(t, int64(4950), fees[models.RequestTypeReinspection])

	_, err = FeesFromConfig(config.FeeConfig{NewConstruction: "abc"})
	assert.Error(t, err)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	idx := &recordingIndexer{}
	f.svc.SetIndexer(idx)
	ledgerSvc := ledger.NewService(f.store)

	req, err := f.svc.CreateRequest(ctx, f.owner, CreateInput{BuildingLocation: "12 Lake Road"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Nil(t, req.InspectorID)
	assert.Equal(t, models.RequestTypeNewConstruction, req.Type)
	assert.Equal(t, int64(15000), req.Fee)

	req, err = f.svc.Assign(ctx, f.admin, req.ID, f.inspector.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, req.Status)

	report, err := f.svc.Decide(ctx, f.inspector, req.ID, DecisionInput{
		Decision:             "Approved",
		StructuralEvaluation: "foundation sound",
		ComplianceChecklist:  "fire exits ok",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, report.Decision)
	assert.False(t, report.InspectionDate.IsZero())

	before, err := ledgerSvc.Balance(ctx)
	require.NoError(t, err)

	payment, err := f.svc.Pay(ctx, f.owner, req.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), payment.Amount)

	after, err := ledgerSvc.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+15000, after)

	detail, err := f.svc.Get(ctx, f.owner, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, detail.Request.Status)
	require.NotNil(t, detail.Report)
	require.NotNil(t, detail.Payment)
	require.NotNil(t, detail.Request.InspectorID)
	assert.Equal(t, f.inspector.ID, *detail.Request.InspectorID)

	var path []models.RequestStatus
	for _, c := range detail.History {
		path = append(path, c.ToStatus)
	}
	assert.Equal(t, []models.RequestStatus{
		models.StatusPending, models.StatusAssigned, models.StatusApproved, models.StatusPaid,
	}, path)
	assert.Equal(t, []uint{req.ID, req.ID, req.ID, req.ID}, idx.ids)
}

func TestPayTwiceCreditsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.approved(t)

	_, err := f.svc.Pay(ctx, f.owner, req.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Pay(ctx, f.owner, req.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	bal, err := ledger.NewService(f.store).Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), bal)

	payments, err := f.store.Payments().ListByPayer(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestPayGating(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	pending := f.create(t)
	_, err := f.svc.Pay(ctx, f.owner, pending.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	other := policy.ActorFromUser(testutil.CreateUser(t, f.store, "other@example.com", models.RoleOwner))
	req := f.approved(t)
	_, err = f.svc.Pay(ctx, other, req.ID, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	zero := int64(0)
	_, err = f.svc.Pay(ctx, f.owner, req.ID, &zero)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	custom := int64(20000)
	p, err := f.svc.Pay(ctx, f.owner, req.ID, &custom)
	require.NoError(t, err)
	assert.Equal(t, custom, p.Amount)
}

func TestPayAfterCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.approved(t)

	done, err := f.svc.Complete(ctx, f.inspector, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)

	_, err = f.svc.Pay(ctx, f.owner, req.ID, nil)
	require.NoError(t, err)
}

func TestAssignRequiresAvailableInspector(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.create(t)

	pending := testutil.CreateUser(t, f.store, "pending@example.com", models.RoleInspector, testutil.Unapproved)
	banned := testutil.CreateUser(t, f.store, "banned@example.com", models.RoleInspector, testutil.Banned)

	for _, id := range []uint{pending.ID, banned.ID, f.owner.ID, 9999} {
		_, err := f.svc.Assign(ctx, f.admin, req.ID, id)
		assert.ErrorIs(t, err, ErrInspectorUnavailable, "inspector %d", id)
	}

	_, err := f.svc.Assign(ctx, f.owner, req.ID, f.inspector.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.store.Requests().Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.InspectorID)
}

func TestAssignTwiceFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.create(t)
	second := testutil.CreateUser(t, f.store, "second@example.com", models.RoleInspector)

	_, err := f.svc.Assign(ctx, f.admin, req.ID, f.inspector.ID)
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, f.admin, req.ID, second.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := f.store.Requests().Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, f.inspector.ID, *got.InspectorID)

	_, err = f.svc.Assign(ctx, f.admin, 4242, f.inspector.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecideOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.approved(t)

	_, err := f.svc.Decide(ctx, f.inspector, req.ID, DecisionInput{Decision: "Rejected", Remarks: "changed my mind"})
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	report, err := f.store.Reports().GetByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, report.Decision)

	got, err := f.store.Requests().Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestDecideValidationAndOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.create(t)
	_, err := f.svc.Assign(ctx, f.admin, req.ID, f.inspector.ID)
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, f.inspector, req.ID, DecisionInput{Decision: "Maybe"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Decide(ctx, f.inspector, req.ID, DecisionInput{Decision: "Rejected"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	other := policy.ActorFromUser(testutil.CreateUser(t, f.store, "other@example.com", models.RoleInspector))
	_, err = f.svc.Decide(ctx, other, req.ID, DecisionInput{Decision: "Rejected", Remarks: "cracks"})
	assert.ErrorIs(t, err, ErrForbidden)

	report, err := f.svc.Decide(ctx, f.inspector, req.ID, DecisionInput{Decision: "Rejected", Remarks: "cracks in slab"})
	require.NoError(t, err)
	assert.Equal(t, models.DecisionRejected, report.Decision)

	_, err = f.svc.Pay(ctx, f.owner, req.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCreateRequestWithProperty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	prop := &models.Property{OwnerID: f.owner.ID, Type: "House", Location: "3 Hill St"}
	require.NoError(t, f.store.Properties().Create(ctx, prop))

	req, err := f.svc.CreateRequest(ctx, f.owner, CreateInput{Type: "Reinspection", PropertyID: &prop.ID})
	require.NoError(t, err)
	assert.Equal(t, "3 Hill St", req.BuildingLocation)
	assert.Equal(t, int64(5000), req.Fee)

	other := policy.ActorFromUser(testutil.CreateUser(t, f.store, "other@example.com", models.RoleOwner))
	_, err = f.svc.CreateRequest(ctx, other, CreateInput{PropertyID: &prop.ID})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.CreateRequest(ctx, f.owner, CreateInput{Type: "Demolition", BuildingLocation: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.CreateRequest(ctx, f.owner, CreateInput{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.CreateRequest(ctx, f.inspector, CreateInput{BuildingLocation: "x"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.create(t)

	stranger := policy.ActorFromUser(testutil.CreateUser(t, f.store, "stranger@example.com", models.RoleOwner))
	_, err := f.svc.Get(ctx, stranger, req.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.History(ctx, f.inspector, req.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	changes, err := f.svc.History(ctx, f.admin, req.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, models.StatusPending, changes[0].ToStatus)

	mine, err := f.svc.List(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assigned, err := f.svc.List(ctx, f.inspector)
	require.NoError(t, err)
	assert.Empty(t, assigned)
}
