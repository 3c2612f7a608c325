package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// NewLogger writes one access line per request. Client errors log at warn, server errors at error.
func NewLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		startedAt := time.Now()
		handlerErr := c.Next()

		// Render the error now so the logged status is the one the client sees
		if handlerErr != nil {
			if err := c.App().ErrorHandler(c, handlerErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()

		clientIP := c.IP()
		if forwarded := c.IPs(); len(forwarded) > 0 {
			clientIP = forwarded[0]
		}

		event := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = log.Error()
		case status >= fiber.StatusBadRequest:
			event = log.Warn()
		}

		event = event.
			Int("status", status).
			Str("method", c.Method()).
			Str("endpoint", c.Route().Path).
			Str("path", c.Path()).
			Str("client", clientIP).
			Dur("elapsed", time.Since(startedAt))

		if userID, ok := c.Locals(accountUserIDKey).(string); ok {
			event = event.Str("account", userID)
		}
		if handlerErr != nil {
			event = event.Err(handlerErr)
		}

		event.Msg("Scheduler API request")

		return nil
	}
}
