package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-portal/internal/config"
	"inspection-portal/internal/database"
	"inspection-portal/internal/models"
	"inspection-portal/internal/testutil"
)

type fakeLegacy struct {
	users  []database.LegacyUser
	props  []database.LegacyProperty
	closed bool
}

func (f *fakeLegacy) LegacyUsers() ([]database.LegacyUser, error)         { return f.users, nil }
func (f *fakeLegacy) LegacyProperties() ([]database.LegacyProperty, error) { return f.props, nil }
func (f *fakeLegacy) Close() error {
	f.closed = true
	return nil
}

func newTestCLI(t *testing.T) (*cli, *database.GormDB) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := config.DefaultConfig()
	cfg.Session.BcryptCost = 4

	c := newCLI()
	c.cfg = cfg
	c.openDB = func(*config.Config) (*database.GormDB, error) { return db, nil }
	return c, db
}

func run(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := c.rootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedBalanceIsIdempotent(t *testing.T) {
	c, _ := newTestCLI(t)

	out, err := run(t, c, "seed-balance")
	require.NoError(t, err)
	assert.Contains(t, out, "created")

	out, err = run(t, c, "seed-balance")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestCreateAdmin(t *testing.T) {
	c, db := newTestCLI(t)

	_, err := run(t, c, "create-admin", "--email", "root@example.com")
	require.Error(t, err)

	out, err := run(t, c, "create-admin", "--email", "root@example.com", "--password", "long-enough-pw")
	require.NoError(t, err)
	assert.Contains(t, out, "root@example.com")

	u, err := db.Store().Users().GetByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, u.IsApproved)
}

func TestReconcileRepairsDrift(t *testing.T) {
	c, db := newTestCLI(t)
	store := db.Store()
	ctx := context.Background()

	reqID := uint(7)
	require.NoError(t, store.Ledger().Append(ctx, &models.LedgerEntry{RequestID: reqID, Amount: 500}))
	require.NoError(t, store.Ledger().SetBalance(ctx, 100))

	out, err := run(t, c, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "repaired (was 100)")

	b, err := store.Ledger().GetBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500), b.Balance)

	out, err = run(t, c, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "matches")
}

func TestImportLegacy(t *testing.T) {
	c, db := newTestCLI(t)
	src := &fakeLegacy{
		users: []database.LegacyUser{{ID: 1, Type: "owner", Email: "a@example.com", Active: true}},
		props: []database.LegacyProperty{{ID: 1, Type: "House", Location: "1 Elm St", OwnerID: 1}},
	}
	c.openLegacy = func(config.PostgresConfig) (legacyReader, error) { return src, nil }

	out, err := run(t, c, "import-legacy")
	require.NoError(t, err)
	assert.Contains(t, out, "1 created")
	assert.Contains(t, out, "must reset")
	assert.True(t, src.closed)

	_, err = db.Store().Users().GetByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
}

func TestReindexRequiresMeilisearch(t *testing.T) {
	c, _ := newTestCLI(t)
	_, err := run(t, c, "reindex")
	assert.ErrorContains(t, err, "disabled")
}

func TestPurgeSessionsDryRun(t *testing.T) {
	c, _ := newTestCLI(t)
	out, err := run(t, c, "purge-sessions", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 0")
}
