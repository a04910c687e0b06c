package messaging

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

func TestSendAndRead(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := NewService(store)
	owner := policy.ActorFromUser(testutil.CreateUser(t, store, "owner@example.com", models.RoleOwner))
	insp := policy.ActorFromUser(testutil.CreateUser(t, store, "insp@example.com", models.RoleInspector))

	m, err := svc.Send(ctx, owner, SendInput{RecipientEmail: "INSP@example.com", Subject: "Visit", Body: "Can you come on Monday?"})
	require.NoError(t, err)
	assert.Equal(t, insp.ID, m.RecipientID)

	_, err = svc.Send(ctx, owner, SendInput{RecipientID: owner.ID, Body: "note to self"})
	assert.ErrorIs(t, err, ErrSelfMessage)
	_, err = svc.Send(ctx, owner, SendInput{RecipientID: 999, Body: "hello"})
	assert.ErrorIs(t, err, ErrRecipientNotFound)
	_, err = svc.Send(ctx, owner, SendInput{RecipientID: insp.ID, Body: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	unread, err := svc.UnreadCount(ctx, insp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	assert.ErrorIs(t, svc.MarkRead(ctx, owner, m.ID), ErrNotRecipient)
	require.NoError(t, svc.MarkRead(ctx, insp, m.ID))
	require.NoError(t, svc.MarkRead(ctx, insp, m.ID))

	inbox, err := svc.Inbox(ctx, insp)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.True(t, inbox[0].IsRead)

	sent, err := svc.Sent(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, sent, 1)
}

func TestComplaints(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	svc := NewService(store)
	owner := policy.ActorFromUser(testutil.CreateUser(t, store, "owner@example.com", models.RoleOwner))
	admin := policy.ActorFromUser(testutil.CreateUser(t, store, "admin@example.com", models.RoleAdmin))
	insp := testutil.CreateUser(t, store, "insp@example.com", models.RoleInspector)

	_, err := svc.FileComplaint(ctx, owner, ComplaintInput{AgainstInspectorID: &owner.ID, Message: "rude"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	c, err := svc.FileComplaint(ctx, owner, ComplaintInput{AgainstInspectorID: &insp.ID, Message: "never showed up"})
	require.NoError(t, err)

	open := false
	list, err := svc.Complaints(ctx, &open)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.Resolve(ctx, admin, c.ID, ""), apperr.ErrValidation)
	require.NoError(t, svc.Resolve(ctx, admin, c.ID, "spoke with the inspector"))
	assert.ErrorIs(t, svc.Resolve(ctx, admin, c.ID, "again"), ErrAlreadyResolved)
	assert.ErrorIs(t, svc.Resolve(ctx, admin, 404, "missing"), ErrComplaintNotFound)

	list, err = svc.Complaints(ctx, &open)
	require.NoError(t, err)
	assert.Empty(t, list)
}
