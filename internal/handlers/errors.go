package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/models"
)

// StatusOf traduce el tipo de error de aplicación a código HTTP.
func StatusOf(k apperr.Kind) int {
	switch k {
	case apperr.Validation, apperr.Upload:
		return fiber.StatusUnprocessableEntity
	case apperr.Conflict:
		return fiber.StatusConflict
	case apperr.NotFound:
		return fiber.StatusNotFound
	case apperr.Unauthorized:
		return fiber.StatusUnauthorized
	case apperr.Forbidden:
		return fiber.StatusForbidden
	case apperr.Unavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler es el manejador de errores de la app: todo error termina en
// {"error": mensaje, "fields": {...}}. Los errores internos no exponen
// detalles al cliente.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
		}

		kind := apperr.KindOf(err)
		status := StatusOf(kind)
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("kind", kind.String()),
				zap.Error(err))
		}
		return c.Status(status).JSON(models.ErrorResponse{
			Error:  apperr.MessageOf(err),
			Fields: apperr.FieldsOf(err),
		})
	}
}

// badBody es la respuesta a un cuerpo JSON ilegible.
func badBody(err error) error {
	return apperr.Wrap(apperr.Validation, err, "el cuerpo de la solicitud no es JSON válido")
}
