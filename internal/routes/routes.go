package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/credenciales/internal/auth"
	"github.com/yourorg/credenciales/internal/handlers"
	"github.com/yourorg/credenciales/internal/middleware"
	"github.com/yourorg/credenciales/internal/models"
)

// Deps agrupa los handlers ya construidos que se montan en la app.
type Deps struct {
	Tokens        *auth.Tokens
	Health        *handlers.HealthHandler
	Status        *handlers.StatusHandler
	Auth          *handlers.AuthHandler
	Ministerial   *handlers.CredentialHandler
	Capellania    *handlers.CredentialHandler
	Solicitudes   *handlers.SolicitudHandler
	Audit         *handlers.AuditHandler
	Uploads       *handlers.UploadHandler
	Notifications *handlers.NotificationHandler

	UploadDir string
	// APIRateLimit es el máximo de requests por minuto e IP; 0 lo desactiva.
	APIRateLimit int
	// PrintRateLimit es el máximo de PDFs por minuto y usuario.
	PrintRateLimit int
}

func Register(app *fiber.App, d Deps) {
	// ============================================================================
	// API PÚBLICA
	// ============================================================================
	api := app.Group("/api")

	// Health check (sin rate limiting)
	api.Get("/health", d.Health.Health)

	if d.APIRateLimit > 0 {
		api.Use(middleware.APIRateLimiter(d.APIRateLimit))
	}

	// ============================================================================
	// AUTENTICACIÓN (con rate limiting estricto)
	// ============================================================================
	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.AuthRateLimiter(), d.Auth.Register)
	authGroup.Post("/login", middleware.AuthRateLimiter(), d.Auth.Login)

	requireAuth := middleware.RequireAuth(d.Tokens)
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleEditor)

	authGroup.Get("/me", requireAuth, d.Auth.Me)

	// ============================================================================
	// CREDENCIALES (personal administrativo)
	// ============================================================================
	printLimit := d.PrintRateLimit
	if printLimit <= 0 {
		printLimit = 30
	}
	credentials(api.Group("/credenciales-ministeriales", requireAuth, staff), d.Ministerial, printLimit)
	credentials(api.Group("/credenciales-capellania", requireAuth, staff), d.Capellania, printLimit)

	// ============================================================================
	// SOLICITUDES
	// ============================================================================
	sol := api.Group("/solicitudes-credenciales", requireAuth)
	sol.Post("/", middleware.RequireRole(models.RoleInvitado), d.Solicitudes.Submit)
	sol.Get("/mis-solicitudes", d.Solicitudes.Mine)
	sol.Get("/", staff, d.Solicitudes.List)
	sol.Get("/:id", staff, d.Solicitudes.Get)
	sol.Get("/:id/borrador", staff, d.Solicitudes.Draft)
	sol.Patch("/:id/estado", staff, d.Solicitudes.SetEstado)
	sol.Post("/:id/convertir", staff, d.Solicitudes.Convert)

	// ============================================================================
	// AUDITORÍA Y ESTADO (solo ADMIN)
	// ============================================================================
	admin := middleware.RequireRole(models.RoleAdmin)
	api.Get("/audit-logs", requireAuth, admin, d.Audit.List)
	api.Get("/status", requireAuth, admin, d.Status.GetStatus)

	// ============================================================================
	// FOTOS
	// ============================================================================
	api.Post("/uploads", requireAuth, staff, d.Uploads.Upload)
	if d.UploadDir != "" {
		app.Static("/uploads", d.UploadDir, fiber.Static{MaxAge: 3600})
	}

	// ============================================================================
	// NOTIFICACIONES EN TIEMPO REAL
	// ============================================================================
	app.Use("/ws/notificaciones", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/notificaciones", requireAuth, websocket.New(d.Notifications.Stream))
}

func credentials(g fiber.Router, h *handlers.CredentialHandler, printLimit int) {
	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Get("/por-vencer", h.Expiring)
	g.Get("/documento/:documento", h.GetByDocumento)
	g.Get("/:id", h.Get)
	g.Patch("/:id", h.Update)
	g.Get("/:id/tarjeta", h.Card)
	g.Get("/:id/imprimir", h.PrintHTML)
	g.Get("/:id/imprimir.pdf", middleware.PrintRateLimiter(printLimit, time.Minute), h.PrintPDF)
}
