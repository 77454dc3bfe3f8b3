package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

const localError = "request_error"

// RequestLogger registra cada petición con zerolog: 5xx en error, 4xx en warn, resto en debug.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			if fe, ok := chainErr.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		level := zerolog.DebugLevel
		switch {
		case status >= fiber.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status >= fiber.StatusBadRequest:
			level = zerolog.WarnLevel
		}

		ev := log.WithLevel(level).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start))
		if rid, ok := c.Locals("requestid").(string); ok {
			ev = ev.Str("request_id", rid)
		}
		if uid := GetUserID(c); uid != "" {
			ev = ev.Str("user_id", uid)
		}
		if err, ok := c.Locals(localError).(error); ok {
			ev = ev.Err(err)
		} else if chainErr != nil {
			ev = ev.Err(chainErr)
		}
		ev.Msg("http request")
		return chainErr
	}
}
