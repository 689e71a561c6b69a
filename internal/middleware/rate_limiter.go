package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ============================================================================
// RATE LIMITING MIDDLEWARE
// ============================================================================
// Tres niveles: API general por IP, autenticación por IP+ruta (fuerza bruta)
// e impresión PDF por usuario (cada PDF levanta un navegador headless).

func limitReached(message string, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":       message,
			"retry_after": int(window.Seconds()),
		})
	}
}

// APIRateLimiter limita el tráfico general por IP.
func APIRateLimiter(max int) fiber.Handler {
	window := time.Minute
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached:      limitReached("demasiadas solicitudes, intente de nuevo en un minuto", window),
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// AuthRateLimiter protege login y registro: 10 intentos por minuto por IP y
// ruta.
func AuthRateLimiter() fiber.Handler {
	window := time.Minute
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Path()
		},
		LimitReached:      limitReached("demasiados intentos de autenticación, intente de nuevo en un minuto", window),
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// PrintRateLimiter limita la generación de PDF por usuario autenticado, con
// la IP como respaldo.
func PrintRateLimiter(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := UserID(c); id != "" {
				return "user:" + id
			}
			return "ip:" + c.IP()
		},
		LimitReached:      limitReached("demasiadas impresiones, intente de nuevo más tarde", window),
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
