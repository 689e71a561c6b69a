package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/upload"
)

type UploadHandler struct {
	store *upload.Store
}

func NewUploadHandler(s *upload.Store) *UploadHandler {
	return &UploadHandler{store: s}
}

// Upload handles POST /api/uploads (multipart, campo "file") y devuelve la
// URL pública de la imagen guardada.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.New(apperr.Upload, "falta el archivo (campo file)")
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Wrap(apperr.Upload, err, "no se pudo leer el archivo")
	}
	defer f.Close()

	url, err := h.store.Save(c.UserContext(), fh.Filename, f)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
