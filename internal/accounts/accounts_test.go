package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/repository"
	"inspection-portal/internal/testutil"
)

func TestApproveInspector(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := NewService(store)
	admin := policy.ActorFromUser(testutil.CreateUser(t, store, "admin@example.com", models.RoleAdmin))
	insp := testutil.CreateUser(t, store, "insp@example.com", models.RoleInspector, testutil.Unapproved)

	pending, err := svc.PendingInspectors(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	u, err := svc.Approve(ctx, admin, insp.ID)
	require.NoError(t, err)
	assert.True(t, u.IsApproved)

	pending, err = svc.PendingInspectors(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	available, err := svc.AvailableInspectors(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, insp.ID, available[0].ID)

	_, err = svc.Approve(ctx, admin, insp.ID)
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = svc.Approve(ctx, admin, 777)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRejectDeletesAndLogs(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := NewService(store)
	admin := policy.ActorFromUser(testutil.CreateUser(t, store, "admin@example.com", models.RoleAdmin))
	insp := testutil.CreateUser(t, store, "insp@example.com", models.RoleInspector, testutil.Unapproved)
	owner := testutil.CreateUser(t, store, "owner@example.com", models.RoleOwner)

	require.NoError(t, store.Sessions().Create(ctx, &models.Session{Token: "t1", UserID: insp.ID, ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Messages().Create(ctx, &models.Message{SenderID: insp.ID, RecipientID: admin.ID, Body: "hi"}))

	assert.ErrorIs(t, svc.Reject(ctx, admin, owner.ID), ErrNotPending)
	require.NoError(t, svc.Reject(ctx, admin, insp.ID))

	_, err := store.Users().Get(ctx, insp.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Sessions().Get(ctx, "t1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	logs, err := store.DeleteLogs().Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EntityUser, logs[0].EntityType)
	assert.Equal(t, models.DeleteReasonInspectorRejected, logs[0].Reason)
	assert.Contains(t, logs[0].Summary, "insp@example.com")
}

func TestBanAndUnban(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := NewService(store)
	admin := policy.ActorFromUser(testutil.CreateUser(t, store, "admin@example.com", models.RoleAdmin))
	owner := testutil.CreateUser(t, store, "owner@example.com", models.RoleOwner)
	require.NoError(t, store.Sessions().Create(ctx, &models.Session{Token: "t1", UserID: owner.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	assert.ErrorIs(t, svc.Ban(ctx, admin, admin.ID), ErrSelfBan)
	require.NoError(t, svc.Ban(ctx, admin, owner.ID))

	u, err := store.Users().Get(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, u.IsBanned)
	_, err = store.Sessions().Get(ctx, "t1")
	assert.NoError(t, err, "session is left for the ban middleware")

	require.NoError(t, svc.Unban(ctx, admin, owner.ID))
	u, err = store.Users().Get(ctx, owner.ID)
	require.NoError(t, err)
	assert.False(t, u.IsBanned)

	assert.ErrorIs(t, svc.Ban(ctx, admin, 999), ErrUserNotFound)
}

type fakeIndexer struct {
	indexed map[uint]models.User
	deleted []uint
}

func (f *fakeIndexer) IndexUser(u *models.User) error {
	f.indexed[u.ID] = *u
	return nil
}

func (f *fakeIndexer) DeleteUser(id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestAccountChangesReachIndexer(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := NewService(store)
	idx := &fakeIndexer{indexed: map[uint]models.User{}}
	svc.SetIndexer(idx)

	admin := policy.ActorFromUser(testutil.CreateUser(t, store, "admin@example.com", models.RoleAdmin))
	approved := testutil.CreateUser(t, store, "a@example.com", models.RoleInspector, testutil.Unapproved)
	rejected := testutil.CreateUser(t, store, "r@example.com", models.RoleInspector, testutil.Unapproved)
	owner := testutil.CreateUser(t, store, "o@example.com", models.RoleOwner)

	_, err := svc.Approve(ctx, admin, approved.ID)
	require.NoError(t, err)
	assert.True(t, idx.indexed[approved.ID].IsApproved)

	require.NoError(t, svc.Reject(ctx, admin, rejected.ID))
	assert.Equal(t, []uint{rejected.ID}, idx.deleted)

	require.NoError(t, svc.Ban(ctx, admin, owner.ID))
	assert.True(t, idx.indexed[owner.ID].IsBanned)
	require.NoError(t, svc.Unban(ctx, admin, owner.ID))
	assert.False(t, idx.indexed[owner.ID].IsBanned)

	// Failed operations do not touch the index
	assert.ErrorIs(t, svc.Reject(ctx, admin, owner.ID), ErrNotPending)
	assert.Len(t, idx.deleted, 1)
}
