package properties

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-portal/internal/apperr"
	"inspection-portal/internal/models"
	"inspection-portal/internal/policy"
	"inspection-portal/internal/testutil"
)

type fakeIndexer struct {
	indexed []uint
	deleted []uint
}

func (f *fakeIndexer) IndexProperty(p *models.Property) error {
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeIndexer) DeleteProperty(id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestAddListDelete(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := NewService(store)
	idx := &fakeIndexer{}
	svc.SetIndexer(idx)

	owner := policy.ActorFromUser(testutil.CreateUser(t, store, "owner@example.com", models.RoleOwner))
	other := policy.ActorFromUser(testutil.CreateUser(t, store, "other@example.com", models.RoleOwner))

	p, err := svc.Add(ctx, owner, Input{Type: " Apartment ", Location: "5 Bay Rd"})
	require.NoError(t, err)
	assert.Equal(t, "Apartment", p.Type)

	_, err = svc.Add(ctx, owner, Input{Type: "House"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, svc.Delete(ctx, other, p.ID), ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, owner, p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, p.ID), ErrNotFound)

	logs, err := store.DeleteLogs().Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.DeleteReasonOwnerRemoved, logs[0].Reason)
	assert.Equal(t, "Apartment at 5 Bay Rd", logs[0].Summary)

	assert.Equal(t, []uint{p.ID}, idx.indexed)
	assert.Equal(t, []uint{p.ID}, idx.deleted)
}

func TestOwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := NewService(store)
	inspector := policy.ActorFromUser(testutil.CreateUser(t, store, "insp@example.com", models.RoleInspector))

	_, err := svc.Add(ctx, inspector, Input{Type: "House", Location: "x"})
	assert.ErrorIs(t, err, ErrOwnerOnly)
	_, err = svc.List(ctx, inspector)
	assert.ErrorIs(t, err, ErrOwnerOnly)
}
