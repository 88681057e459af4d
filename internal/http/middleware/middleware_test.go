package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accreditdocs/internal/logger"
	"accreditdocs/internal/model"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFromCtx(c))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})

	t.Run("should replace oversized request id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))

		resp, _ := app.Test(req)

		rid := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, rid)
		assert.Less(t, len(rid), 200)
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	loc := time.UTC

	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, loc))

	app.Get("/test", func(c *fiber.Ctx) error {
		logger.FromContext(c.UserContext()).Info("inside_handler")
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var inner map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &inner))
	assert.Equal(t, "inside_handler", inner["msg"])
	assert.Equal(t, "rid-1", inner["request_id"])

	var logData map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &logData))
	assert.Equal(t, "http_request", logData["msg"])
	assert.Equal(t, "rid-1", logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
}

func TestLogger_ErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, time.UTC))

	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	_, err := app.Test(httptest.NewRequest("GET", "/teapot", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, float64(fiber.StatusTeapot), first["status"])
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, float64(fiber.StatusInternalServerError), second["status"])
	assert.Equal(t, "error", second["level"])
}

type stubParser struct {
	actor model.Actor
	err   error
	got   string
}

func (p *stubParser) Parse(token string) (model.Actor, error) {
	p.got = token
	return p.actor, p.err
}

func TestAuth(t *testing.T) {
	denied := func(c *fiber.Ctx, message string) error {
		return c.Status(fiber.StatusUnauthorized).SendString(message)
	}

	newApp := func(p TokenParser) *fiber.App {
		app := fiber.New()
		app.Use(Auth(p, denied))
		app.Get("/me", func(c *fiber.Ctx) error {
			actor, ok := ActorFromCtx(c)
			if !ok {
				return c.SendStatus(fiber.StatusInternalServerError)
			}
			return c.JSON(actor)
		})
		return app
	}

	body := func(t *testing.T, r io.Reader) string {
		b, err := io.ReadAll(r)
		require.NoError(t, err)
		return string(b)
	}

	t.Run("valid bearer token", func(t *testing.T) {
		p := &stubParser{actor: model.Actor{ID: 7, Role: model.RoleLocalAccreditor}}
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")

		resp, err := newApp(p).Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "abc.def.ghi", p.got)

		var actor model.Actor
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&actor))
		assert.Equal(t, p.actor, actor)
	})

	tests := []struct {
		name    string
		header  string
		err     error
		message string
	}{
		{"missing header", "", nil, "missing authorization header"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", nil, "invalid authorization header format"},
		{"empty token", "Bearer ", nil, "invalid authorization header format"},
		{"parser rejects", "Bearer nope", errors.New("bad signature"), "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubParser{err: tt.err}
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := newApp(p).Test(req)
			require.NoError(t, err)

			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.message, body(t, resp.Body))
		})
	}
}
