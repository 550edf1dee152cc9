package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mapavioleta/mapavioleta/config"
	"github.com/mapavioleta/mapavioleta/database"
	"github.com/mapavioleta/mapavioleta/database/model"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	t.Helper()
	t.Setenv("MAPA_ADMIN_EMAIL", "admin@example.org")
	t.Setenv("MAPA_ADMIN_PASSWORD", "admin-secret")
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.InitDB(config.NewSQLiteConfig(dbPath)))
	t.Cleanup(teardown)
}

func teardown() {
	_ = database.CloseDB()
}

// freezeClock pins the presence clock to now for the rest of the test.
func freezeClock(t *testing.T, now time.Time) *time.Time {
	t.Helper()
	current := now.UTC()
	prev := timeNow
	timeNow = func() time.Time { return current }
	t.Cleanup(func() { timeNow = prev })
	return &current
}

func mustRegister(t *testing.T, handle, email string) *model.User {
	t.Helper()
	svc := UserService{}
	user, err := svc.Register(context.Background(), Registration{
		Handle:   handle,
		Email:    email,
		Password: "secret1",
	})
	require.NoError(t, err)
	return user
}

func mustAdmin(t *testing.T) *model.User {
	t.Helper()
	svc := UserService{}
	user, err := svc.Authenticate(context.Background(), "admin@example.org", "admin-secret")
	require.NoError(t, err)
	require.True(t, user.IsAdmin)
	return user
}
