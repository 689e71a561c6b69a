package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/audit"
	"github.com/yourorg/credenciales/internal/auth"
	"github.com/yourorg/credenciales/internal/models"
)

const secret = "middleware-secret-middleware-secret-xx"

func newApp(tokens *auth.Tokens) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			switch apperr.KindOf(err) {
			case apperr.Unauthorized:
				return c.SendStatus(fiber.StatusUnauthorized)
			case apperr.Forbidden:
				return c.SendStatus(fiber.StatusForbidden)
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	app.Get("/staff", RequireAuth(tokens), RequireRole(models.RoleAdmin, models.RoleEditor), func(c *fiber.Ctx) error {
		actor, ok := audit.ActorFrom(c.UserContext())
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.JSON(fiber.Map{"user": UserID(c), "email": UserEmail(c), "actor": actor.UserID, "rol": Role(c)})
	})
	return app
}

func token(t *testing.T, tokens *auth.Tokens, rol models.Role) string {
	t.Helper()
	tok, _, err := tokens.Issue(models.User{ID: "u-1", Email: "u@example.com", Rol: rol})
	require.NoError(t, err)
	return tok
}

func TestRequireAuthAndRole(t *testing.T) {
	tokens := auth.NewTokens(secret, time.Hour)
	app := newApp(tokens)

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"sin token", "", "", http.StatusUnauthorized},
		{"token inválido", "Bearer basura", "", http.StatusUnauthorized},
		{"esquema incorrecto", "Basic " + token(t, tokens, models.RoleAdmin), "", http.StatusUnauthorized},
		{"invitado", "Bearer " + token(t, tokens, models.RoleInvitado), "", http.StatusForbidden},
		{"editor", "Bearer " + token(t, tokens, models.RoleEditor), "", http.StatusOK},
		{"admin en minúsculas", "bearer " + token(t, tokens, models.RoleAdmin), "", http.StatusOK},
		{"token por query", "", "?token=" + token(t, tokens, models.RoleAdmin), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestBearer(t *testing.T) {
	assert.Equal(t, "abc", bearer("Bearer abc"))
	assert.Equal(t, "abc", bearer("BEARER  abc "))
	assert.Equal(t, "", bearer("Bearer "))
	assert.Equal(t, "", bearer("Token abc"))
}
