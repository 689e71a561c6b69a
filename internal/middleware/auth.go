package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/audit"
	"github.com/yourorg/credenciales/internal/auth"
	"github.com/yourorg/credenciales/internal/models"
)

// Claves de c.Locals con la identidad del usuario autenticado.
const (
	LocalUserID    = "user_id"
	LocalUserEmail = "user_email"
	LocalRole      = "user_role"
)

// RequireAuth exige un JWT válido en Authorization: Bearer. Para WebSocket,
// donde el navegador no envía cabeceras, acepta también ?token=. Deja el
// actor de auditoría en el contexto de la petición.
func RequireAuth(tokens *auth.Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearer(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			return apperr.New(apperr.Unauthorized, "falta el token de acceso")
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			return err
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalUserEmail, claims.Email)
		c.Locals(LocalRole, claims.Rol)
		c.SetUserContext(audit.WithActor(c.UserContext(), audit.Actor{
			UserID:    claims.Subject,
			UserEmail: claims.Email,
			IPAddress: c.IP(),
		}))
		return c.Next()
	}
}

// RequireRole deja pasar solo a los roles indicados. Va después de
// RequireAuth.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Role(c)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return apperr.New(apperr.Forbidden, "")
	}
}

func bearer(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func UserID(c *fiber.Ctx) string {
	v, _ := c.Locals(LocalUserID).(string)
	return v
}

func UserEmail(c *fiber.Ctx) string {
	v, _ := c.Locals(LocalUserEmail).(string)
	return v
}

func Role(c *fiber.Ctx) models.Role {
	v, _ := c.Locals(LocalRole).(models.Role)
	return v
}
