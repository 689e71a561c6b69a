package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/credenciales/internal/db/dbtest"
	"github.com/yourorg/credenciales/internal/models"
)

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(dbtest.Open(t))

	u := models.User{
		ID:           "u1",
		Email:        "Admin@Example.com",
		Nombre:       "Admin",
		PasswordHash: "hash",
		Rol:          models.RoleAdmin,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Insert(ctx, u))

	got, err := s.GetByEmail(ctx, "  ADMIN@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "admin@example.com", got.Email)
	assert.Equal(t, models.RoleAdmin, got.Rol)

	byID, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "hash", byID.PasswordHash)

	dup := u
	dup.ID = "u2"
	assert.ErrorIs(t, s.Insert(ctx, dup), ErrDuplicate)

	_, err = s.GetByEmail(ctx, "nadie@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
