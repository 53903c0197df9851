package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff-portal/internal/config"
	"staff-portal/internal/models"
)

func openTestStore(t *testing.T) *ProfileStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "nested", "portal.db")
	s, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite3", URL: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRole_MissingProfileIsStaff(t *testing.T) {
	s := openTestStore(t)
	role, err := s.Role(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, role)

	_, err = s.GetProfile(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetRole_UpsertKeepsEmail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	p, err := s.SetRole(ctx, "u1", "ops@example.com", models.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, p.Role)
	assert.True(t, fixed.Equal(p.UpdatedAt))

	p, err = s.SetRole(ctx, "u1", "", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", p.Email)
	assert.Equal(t, models.RoleAdmin, p.Role)

	role, err := s.Role(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestSetRole_RejectsUnknownRole(t *testing.T) {
	s := openTestStore(t)
	_, err := s.SetRole(context.Background(), "u1", "", models.Role("owner"))
	assert.Error(t, err)
}

func TestListProfiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.SetRole(ctx, "b", "b@example.com", models.RoleStaff)
	require.NoError(t, err)
	_, err = s.SetRole(ctx, "a", "a@example.com", models.RoleManager)
	require.NoError(t, err)

	list, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a@example.com", list[0].Email)
	assert.Equal(t, "b@example.com", list[1].Email)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle", URL: "x"})
	assert.Error(t, err)
}
