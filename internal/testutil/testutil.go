// Package testutil provides in-memory database fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inspection-portal/internal/database"
	"inspection-portal/internal/models"
)

var dbCounter atomic.Int64

// NewDB opens a private in-memory SQLite database with the full schema
func NewDB(t testing.TB) *database.GormDB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	gdb := database.NewGormDBFromDB(db)
	require.NoError(t, gdb.InitSchema())
	t.Cleanup(func() { _ = gdb.Close() })
	return gdb
}

// NewStore returns a repository store over a fresh in-memory database
func NewStore(t testing.TB) *database.GormStore {
	t.Helper()
	return NewDB(t).Store()
}

// Password is the plain-text password of every user created by CreateUser
const Password = "secret-password"

var passwordHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

// CreateUser inserts a user with the given role. Inspectors are approved
// unless mutate says otherwise.
func CreateUser(t testing.TB, store *database.GormStore, email string, role models.Role, mutate ...func(*models.User)) *models.User {
	t.Helper()

	u := &models.User{
		Email:        email,
		Name:         email,
		PasswordHash: passwordHash,
		Role:         role,
		IsApproved:   true,
	}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

// Unapproved marks a user as awaiting approval
func Unapproved(u *models.User) { u.IsApproved = false }

// Banned marks a user as banned
func Banned(u *models.User) { u.IsBanned = true }
