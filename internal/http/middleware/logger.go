package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"accreditdocs/internal/logger"
)

// Logger logs one line per request and puts a request-scoped logger (tagged with request_id) into
// the request's user context, where services pick it up through logger.FromContext.
//
// Fields: request_id, method, path, status, latency (milliseconds).
func Logger(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid := RequestIDFromCtx(c)

		reqLog := base.With(zap.String("request_id", rid))
		c.SetUserContext(logger.WithContext(c.UserContext(), reqLog))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The global error handler runs after us and sets the real status.
			status = statusFromError(err)
		}
		latency := float64(time.Since(start).Microseconds()) / 1000

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Float64("latency", latency),
		}
		if actor, ok := ActorFromCtx(c); ok {
			fields = append(fields, zap.Int64("user_id", actor.ID))
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			reqLog.Error("http_request", fields...)
		default:
			reqLog.Info("http_request", fields...)
		}

		return err
	}
}

// LoggerWithWriter is Logger over a fresh JSON logger writing to w, mostly for tests.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logger.NewWithWriter(w, zapcore.InfoLevel, loc))
}

func statusFromError(err error) int {
	if fe, ok := err.(*fiber.Error); ok {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
