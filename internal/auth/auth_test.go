package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"inspection-portal/internal/config"
	"inspection-portal/internal/models"
	"inspection-portal/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := config.DefaultConfig().Session
	cfg.BcryptCost = bcrypt.MinCost
	return NewService(testutil.NewStore(t), cfg)
}

func TestSignup(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	owner, err := svc.Signup(ctx, SignupInput{Email: "Owner@Example.com", Password: "password1", Role: "Owner", NID: "111"})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", owner.Email)
	assert.Equal(t, models.RoleOwner, owner.Role)
	assert.True(t, owner.IsApproved)

	inspector, err := svc.Signup(ctx, SignupInput{Email: "insp@example.com", Password: "password1", Role: "inspector"})
	require.NoError(t, err)
	assert.False(t, inspector.IsApproved)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Signup(ctx, SignupInput{Email: "a@example.com", Password: "password1", Role: "owner", NID: "N1"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   SignupInput
		want error
	}{
		{"duplicate email", SignupInput{Email: "A@example.com", Password: "password1", Role: "owner"}, ErrDuplicateEmail},
		{"duplicate nid", SignupInput{Email: "b@example.com", Password: "password1", Role: "owner", NID: "N1"}, ErrDuplicateNID},
		{"admin via signup", SignupInput{Email: "c@example.com", Password: "password1", Role: "admin"}, ErrValidation},
		{"unknown role", SignupInput{Email: "d@example.com", Password: "password1", Role: "landlord"}, ErrValidation},
		{"short password", SignupInput{Email: "e@example.com", Password: "short", Role: "owner"}, ErrValidation},
		{"missing email", SignupInput{Password: "password1", Role: "owner"}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestLoginResolveLogout(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	u, err := svc.Signup(ctx, SignupInput{Email: "owner@example.com", Password: "password1", Role: "owner"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "owner@example.com", "wrong-password", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "password1", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := svc.Login(ctx, "owner@example.com", "password1", false)
	require.NoError(t, err)
	assert.Len(t, sess.Token, 36)

	actor, err := svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, actor.ID)
	assert.Equal(t, models.RoleOwner, actor.Role)

	require.NoError(t, svc.Logout(ctx, sess.Token))
	_, err = svc.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, err := svc.Signup(ctx, SignupInput{Email: "owner@example.com", Password: "password1", Role: "owner"})
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	short, err := svc.Login(ctx, "owner@example.com", "password1", false)
	require.NoError(t, err)
	long, err := svc.Login(ctx, "owner@example.com", "password1", true)
	require.NoError(t, err)
	assert.Equal(t, now.Add(12*time.Hour), short.ExpiresAt)
	assert.Equal(t, now.Add(14*24*time.Hour), long.ExpiresAt)

	now = now.Add(13 * time.Hour)
	_, err = svc.Resolve(ctx, short.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = svc.Resolve(ctx, long.Token)
	assert.NoError(t, err)

	// Expired sessions are removed on lookup
	_, err = svc.store.Sessions().Get(ctx, short.Token)
	assert.Error(t, err)
}

func TestBannedLoginAndDestroySessions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	u, err := svc.Signup(ctx, SignupInput{Email: "owner@example.com", Password: "password1", Role: "owner"})
	require.NoError(t, err)

	sess, err := svc.Login(ctx, "owner@example.com", "password1", false)
	require.NoError(t, err)

	require.NoError(t, svc.DestroyUserSessions(ctx, u.ID))
	_, err = svc.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	require.NoError(t, svc.store.Users().SetBanned(ctx, u.ID, true))
	_, err = svc.Login(ctx, "owner@example.com", "password1", false)
	assert.ErrorIs(t, err, ErrBanned)
}

func TestCreateAdmin(t *testing.T) {
	svc := newTestService(t)
	admin, err := svc.CreateAdmin(context.Background(), "root@example.com", "Root", "password1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsApproved)
}
