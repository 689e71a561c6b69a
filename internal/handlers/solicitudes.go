package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/middleware"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/solicitud"
	"github.com/yourorg/credenciales/internal/store"
)

type SolicitudHandler struct {
	svc *solicitud.Service
}

func NewSolicitudHandler(svc *solicitud.Service) *SolicitudHandler {
	return &SolicitudHandler{svc: svc}
}

// Submit handles POST /api/solicitudes-credenciales (invitado).
func (h *SolicitudHandler) Submit(c *fiber.Ctx) error {
	var req solicitud.SubmitInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	sol, err := h.svc.Submit(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sol)
}

// Mine handles GET /api/solicitudes-credenciales/mis-solicitudes
func (h *SolicitudHandler) Mine(c *fiber.Ctx) error {
	items, err := h.svc.Mine(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// List handles GET /api/solicitudes-credenciales?estado=&tipo=&dni=
func (h *SolicitudHandler) List(c *fiber.Ctx) error {
	f := store.SolicitudFilter{
		Estado: models.EstadoSolicitud(c.Query("estado")),
		DNI:    c.Query("dni"),
	}
	if t := c.Query("tipo"); t != "" {
		kind, err := models.ParseKind(t)
		if err != nil {
			return apperr.InvalidField("tipo", "debe ser ministerial o capellania")
		}
		f.Tipo = kind
	}
	items, err := h.svc.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// Get handles GET /api/solicitudes-credenciales/:id
func (h *SolicitudHandler) Get(c *fiber.Ctx) error {
	sol, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sol)
}

// Draft handles GET /api/solicitudes-credenciales/:id/borrador and returns
// the prefilled credential form for the editor.
func (h *SolicitudHandler) Draft(c *fiber.Ctx) error {
	draft, err := h.svc.Draft(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(draft)
}

// SetEstado handles PATCH /api/solicitudes-credenciales/:id/estado
func (h *SolicitudHandler) SetEstado(c *fiber.Ctx) error {
	var req models.SolicitudEstadoRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	sol, err := h.svc.SetEstado(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(sol)
}

// Convert handles POST /api/solicitudes-credenciales/:id/convertir
func (h *SolicitudHandler) Convert(c *fiber.Ctx) error {
	var req models.SolicitudConvertRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	cred, err := h.svc.Convert(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(cred)
}
