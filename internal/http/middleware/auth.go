package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"accreditdocs/internal/model"
)

const actorLocalKey = "actor"

// TokenParser turns a bearer token into the actor it names.
type TokenParser interface {
	Parse(token string) (model.Actor, error)
}

// Auth requires a valid "Authorization: Bearer <token>" header and stores the actor in locals.
// Failures are reported through onDenied so the HTTP layer keeps one error format.
func Auth(parser TokenParser, onDenied func(c *fiber.Ctx, message string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return onDenied(c, "missing authorization header")
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return onDenied(c, "invalid authorization header format")
		}

		actor, err := parser.Parse(strings.TrimSpace(token))
		if err != nil {
			return onDenied(c, "invalid or expired token")
		}

		c.Locals(actorLocalKey, actor)
		return c.Next()
	}
}

// ActorFromCtx returns the actor stored by Auth.
func ActorFromCtx(c *fiber.Ctx) (model.Actor, bool) {
	actor, ok := c.Locals(actorLocalKey).(model.Actor)
	return actor, ok
}

// SetActor stores actor the way Auth does. Handlers' tests use it to skip token handling.
func SetActor(actor model.Actor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(actorLocalKey, actor)
		return c.Next()
	}
}
