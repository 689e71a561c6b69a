package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/db/dbtest"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/store"
)

const testSecret = "test-secret-test-secret-test-secret!"

func newService(t *testing.T) *Service {
	t.Helper()
	s := NewService(store.NewUserStore(dbtest.Open(t)), NewTokens(testSecret, time.Hour), zap.NewNop())
	s.cost = bcrypt.MinCost
	return s
}

func TestRegisterCreatesInvitado(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	resp, err := s.Register(ctx, models.RegisterRequest{Email: " Ana@Mail.com ", Password: "secreto123", Nombre: "Ana Gómez"})
	require.NoError(t, err)
	assert.Equal(t, "ana@mail.com", resp.User.Email)
	assert.Equal(t, models.RoleInvitado, resp.User.Rol)
	assert.NotEmpty(t, resp.Token)

	claims, err := s.Tokens().Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.Subject)
	assert.Equal(t, models.RoleInvitado, claims.Rol)
	assert.Equal(t, "ana@mail.com", claims.Email)

	_, err = s.Register(ctx, models.RegisterRequest{Email: "ana@mail.com", Password: "otroSecreto", Nombre: "Ana"})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestRegisterValidation(t *testing.T) {
	s := newService(t)
	_, err := s.Register(context.Background(), models.RegisterRequest{Email: "no-es-email", Password: "corta"})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	fields := apperr.FieldsOf(err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "nombre")
}

func TestLogin(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	_, err := s.CreateUser(ctx, models.RegisterRequest{Email: "admin@iglesia.org", Password: "admin-pass", Nombre: "Admin"}, models.RoleAdmin)
	require.NoError(t, err)

	resp, err := s.Login(ctx, models.LoginRequest{Email: "ADMIN@iglesia.org", Password: "admin-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Rol)

	_, err = s.Login(ctx, models.LoginRequest{Email: "admin@iglesia.org", Password: "wrong-pass"})
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	_, err = s.Login(ctx, models.LoginRequest{Email: "nadie@iglesia.org", Password: "admin-pass"})
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
	assert.Equal(t, "credenciales inválidas", apperr.MessageOf(err))

	_, err = s.Login(ctx, models.LoginRequest{})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	me, err := s.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin@iglesia.org", me.Email)

	_, err = s.Me(ctx, "missing")
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestTokenParseRejects(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	u := models.User{ID: "u-1", Email: "a@b.c", Rol: models.RoleEditor}

	token, _, err := tokens.Issue(u)
	require.NoError(t, err)

	other := NewTokens("another-secret-another-secret-another", time.Hour)
	_, err = other.Parse(token)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	expired := NewTokens(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Parse(token)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(unsigned)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, claims.Rol)
}
