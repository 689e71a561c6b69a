package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/audit"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/store"
)

type AuditHandler struct {
	audit *audit.Service
}

func NewAuditHandler(s *audit.Service) *AuditHandler {
	return &AuditHandler{audit: s}
}

// List handles GET /api/audit-logs?entityType=&entityId=&userId=&action=
func (h *AuditHandler) List(c *fiber.Ctx) error {
	f := store.AuditFilter{
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		UserID:     c.Query("userId"),
		Action:     models.AuditAction(c.Query("action")),
		Limit:      c.QueryInt("limit", 0),
		Offset:     c.QueryInt("offset", 0),
	}
	if f.Action != "" && !f.Action.Valid() {
		return apperr.InvalidField("action", "acción desconocida")
	}
	items, err := h.audit.List(c.UserContext(), f)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "")
	}
	return c.JSON(items)
}
