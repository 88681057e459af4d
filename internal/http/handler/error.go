package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"accreditdocs/internal/http/middleware"
	"accreditdocs/internal/logger"
	"accreditdocs/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorFields(c, status, code, message, nil)
}

func writeErrorFields(c *fiber.Ctx, status int, code, message string, fields map[string]string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Fields:  fields,
		},
	}
	return c.Status(status).JSON(res)
}

// Unauthorized is the response the auth middleware sends for a missing or bad token.
func Unauthorized(c *fiber.Ctx, message string) error {
	return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", message)
}

var serviceErrors = []struct {
	category error
	status   int
	code     string
}{
	{service.ErrInvalidArgument, fiber.StatusBadRequest, "INVALID_ARGUMENT"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{service.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{service.ErrInvalidState, fiber.StatusConflict, "INVALID_STATE"},
}

// writeServiceError maps a service error onto the envelope. Unknown errors are logged and reported
// as a generic 500.
func writeServiceError(c *fiber.Ctx, err error) error {
	for _, se := range serviceErrors {
		if errors.Is(err, se.category) {
			return writeError(c, se.status, se.code, publicMessage(err, se.category))
		}
	}
	logger.FromContext(c.UserContext()).Error("request_failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// publicMessage drops the "<category>: " prefix and any wrapping context in front of it.
func publicMessage(err error, category error) string {
	msg := err.Error()
	prefix := category.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return category.Error()
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			logger.FromContext(c.UserContext()).Error("unhandled_error", zap.Error(err))
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
