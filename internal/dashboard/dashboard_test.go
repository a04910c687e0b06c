package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/testutil"
)

func TestDashboards(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := NewService(store)

	owner := testutil.CreateUser(t, store, "owner@example.com", models.RoleOwner)
	insp := testutil.CreateUser(t, store, "insp@example.com", models.RoleInspector)
	testutil.CreateUser(t, store, "new@example.com", models.RoleInspector, testutil.Unapproved)
	testutil.CreateUser(t, store, "admin@example.com", models.RoleAdmin)

	require.NoError(t, store.Properties().Create(ctx, &models.Property{OwnerID: owner.ID, Type: "House", Location: "x"}))
	for _, st := range []models.RequestStatus{models.StatusPending, models.StatusAssigned, models.StatusApproved, models.StatusPaid} {
		r := &models.InspectionRequest{OwnerID: owner.ID, Type: models.RequestTypeNewConstruction, Status: st}
		if st != models.StatusPending {
			r.InspectorID = &insp.ID
		}
		require.NoError(t, store.Requests().Create(ctx, r))
	}
	require.NoError(t, store.Payments().Create(ctx, &models.Payment{PayerID: owner.ID, Amount: 1234}))
	require.NoError(t, store.Messages().Create(ctx, &models.Message{SenderID: insp.ID, RecipientID: owner.ID, Body: "hello"}))
	require.NoError(t, store.Complaints().Create(ctx, &models.Complaint{ReporterID: owner.ID, Message: "slow"}))

	o, err := svc.Owner(ctx, policy.ActorFromUser(owner))
	require.NoError(t, err)
	assert.Equal(t, int64(1), o.Properties)
	assert.Equal(t, int64(1), o.Requests[models.StatusPending])
	assert.Equal(t, int64(1), o.AwaitingPay)
	assert.Equal(t, "12.34", o.PaymentsAmount)
	assert.Equal(t, int64(1), o.UnreadMessages)

	i, err := svc.Inspector(ctx, policy.ActorFromUser(insp))
	require.NoError(t, err)
	assert.Equal(t, int64(3), i.Assigned)
	assert.Equal(t, int64(1), i.PendingDecision)
	assert.Equal(t, int64(1), i.Approved)
	// Paid straight from Approved is not counted as completed
	assert.Equal(t, int64(0), i.Completed)
	assert.Equal(t, int64(1), i.Paid)

	a, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Users[models.RoleInspector])
	assert.Equal(t, 1, a.PendingInspectors)
	assert.Equal(t, 1, a.OpenComplaints)
	assert.Equal(t, "0.00", a.BalanceAmount)
}
