package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/credential"
	"github.com/yourorg/credenciales/internal/models"
	"github.com/yourorg/credenciales/internal/render"
	"github.com/yourorg/credenciales/internal/store"
)

type pdfRenderer interface {
	PDF(ctx context.Context, c models.Credential) ([]byte, error)
	Layout() render.Layout
}

// CredentialHandler expone las credenciales de un kind. Se registra una vez
// por cada tabla (ministeriales y capellanía).
type CredentialHandler struct {
	kind  models.CredentialKind
	creds *credential.Service
	pdf   pdfRenderer
	log   *zap.Logger
}

func NewCredentialHandler(kind models.CredentialKind, creds *credential.Service, pdf pdfRenderer, log *zap.Logger) *CredentialHandler {
	return &CredentialHandler{kind: kind, creds: creds, pdf: pdf, log: log}
}

// Create handles POST /api/credenciales-*.
func (h *CredentialHandler) Create(c *fiber.Ctx) error {
	var req credential.CreateInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	created, err := h.creds.Create(c.UserContext(), h.kind, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// List handles GET /api/credenciales-*?q=&venceAntes=&limit=&offset=.
func (h *CredentialHandler) List(c *fiber.Ctx) error {
	f := store.CredentialFilter{
		Query:  c.Query("q"),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	if v := c.Query("venceAntes"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return apperr.InvalidField("venceAntes", err.Error())
		}
		f.VenceAntes = d
	}
	page, err := h.creds.List(c.UserContext(), h.kind, f)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Get handles GET /api/credenciales-*/:id.
func (h *CredentialHandler) Get(c *fiber.Ctx) error {
	cred, err := h.creds.Get(c.UserContext(), h.kind, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(cred)
}

// GetByDocumento handles GET /api/credenciales-*/documento/:documento.
func (h *CredentialHandler) GetByDocumento(c *fiber.Ctx) error {
	cred, err := h.creds.GetByDocumento(c.UserContext(), h.kind, c.Params("documento"))
	if err != nil {
		return err
	}
	return c.JSON(cred)
}

// Update handles PATCH /api/credenciales-*/:id?modo=frente|dorso.
func (h *CredentialHandler) Update(c *fiber.Ctx) error {
	mode, err := models.ParseEditMode(c.Query("modo"))
	if err != nil {
		return apperr.InvalidField("modo", "debe ser frente o dorso")
	}
	var req credential.UpdateInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	updated, err := h.creds.Update(c.UserContext(), h.kind, c.Params("id"), req, mode)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

// Expiring handles GET /api/credenciales-*/por-vencer?dias=30.
func (h *CredentialHandler) Expiring(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("dias", "30"))
	if err != nil {
		return apperr.InvalidField("dias", "debe ser un número entero")
	}
	items, err := h.creds.Expiring(c.UserContext(), h.kind, days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"dias": days, "items": items})
}

// Card handles GET /api/credenciales-*/:id/tarjeta?cara=frente|dorso and
// returns the HTML fragment of that face.
func (h *CredentialHandler) Card(c *fiber.Ctx) error {
	face, err := render.ParseFace(c.Query("cara"))
	if err != nil {
		return apperr.InvalidField("cara", "debe ser frente o dorso")
	}
	cred, err := h.creds.Get(c.UserContext(), h.kind, c.Params("id"))
	if err != nil {
		return err
	}
	card := render.NewCard(cred, h.pdf.Layout())
	card.Show(face)
	fragment, err := card.HTML()
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "")
	}
	c.Type("html", "utf-8")
	return c.SendString(string(fragment))
}

// PrintHTML handles GET /api/credenciales-*/:id/imprimir.
func (h *CredentialHandler) PrintHTML(c *fiber.Ctx) error {
	cred, err := h.creds.Get(c.UserContext(), h.kind, c.Params("id"))
	if err != nil {
		return err
	}
	doc, err := h.pdf.Layout().PrintDocument(cred)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "")
	}
	c.Type("html", "utf-8")
	return c.Send(doc)
}

// PrintPDF handles GET /api/credenciales-*/:id/imprimir.pdf. If the browser
// is unavailable the client gets a 503 it can retry.
func (h *CredentialHandler) PrintPDF(c *fiber.Ctx) error {
	cred, err := h.creds.Get(c.UserContext(), h.kind, c.Params("id"))
	if err != nil {
		return err
	}
	pdf, err := h.pdf.PDF(c.UserContext(), cred)
	if err != nil {
		h.log.Warn("no se pudo generar el PDF",
			zap.String("kind", string(h.kind)), zap.String("id", cred.ID), zap.Error(err))
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="credencial-`+cred.Documento+`.pdf"`)
	return c.Send(pdf)
}
