package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/credenciales/internal/cache"
)

// HealthResponse representa el estado de salud del sistema
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Clients   int               `json:"clients"`
	PDFCache  *cache.Stats      `json:"pdfCache,omitempty"`
	Version   string            `json:"version,omitempty"`
}

type clientCounter interface {
	Clients(ctx context.Context) int
}

type HealthHandler struct {
	db      *sql.DB
	hub     clientCounter
	pdf     *cache.Cache[[]byte]
	version string
}

func NewHealthHandler(db *sql.DB, hub clientCounter, pdf *cache.Cache[[]byte], version string) *HealthHandler {
	return &HealthHandler{db: db, hub: hub, pdf: pdf, version: version}
}

// Health proporciona un health check completo del sistema
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	services := make(map[string]string)
	overall := "healthy"

	// ============================================================================
	// CHECK: Base de Datos
	// ============================================================================
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			services["database"] = "unhealthy: " + err.Error()
			overall = "degraded"
		} else {
			services["database"] = "healthy"
		}
	} else {
		services["database"] = "not_initialized"
		overall = "degraded"
	}

	// ============================================================================
	// CHECK: Notificaciones
	// ============================================================================
	clients := 0
	if h.hub != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
		defer cancel()
		clients = h.hub.Clients(ctx)
		services["notifications"] = "healthy"
	} else {
		services["notifications"] = "disabled"
	}

	resp := HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Services:  services,
		Clients:   clients,
		Version:   h.version,
	}
	if h.pdf != nil {
		st := h.pdf.Stats()
		resp.PDFCache = &st
	}

	status := fiber.StatusOK
	if overall != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
