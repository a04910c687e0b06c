package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-portal/internal/models"
	"inspection-portal/internal/testutil"
)

func seedSessions(t *testing.T, now time.Time) *Service {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewDB(t)
	store := db.Store()
	u := testutil.CreateUser(t, store, "owner@example.com", models.RoleOwner)

	for i, offset := range []time.Duration{-2 * time.Hour, -time.Minute, time.Hour} {
		require.NoError(t, store.Sessions().Create(ctx, &models.Session{
			Token:     string(rune('a' + i)),
			UserID:    u.ID,
			ExpiresAt: now.Add(offset),
		}))
	}
	require.NoError(t, store.DeleteLogs().Create(ctx, &models.DeleteLog{
		EntityType: models.EntityProperty, EntityID: 1, ActorID: u.ID, Reason: models.DeleteReasonOwnerRemoved,
	}))

	svc := NewService(db.DB())
	svc.SetClock(func() time.Time { return now })
	return svc
}

func TestPurgeSessions(t *testing.T) {
	now := time.Now()
	svc := seedSessions(t, now)

	dry, err := svc.PurgeSessions(CleanupConfig{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), dry.TargetCount)
	assert.True(t, dry.DryRun)

	_, err = svc.PurgeSessions(CleanupConfig{MaxDeletionCount: 1})
	assert.Error(t, err)

	res, err := svc.PurgeSessions(DefaultCleanupConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.DeletedCount)

	left, err := svc.CountExpiredSessions()
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestGetDeleteStats(t *testing.T) {
	svc := seedSessions(t, time.Now())

	stats, err := svc.GetDeleteStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["total_deleted"])
	assert.Equal(t, map[string]int64{models.DeleteReasonOwnerRemoved: 1}, stats["by_reason"])
	assert.Equal(t, int64(2), stats["expired_sessions"])

	logs, err := svc.GetRecentDeleteLogs(10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
