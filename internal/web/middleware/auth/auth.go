// Package auth provides the bearer session middleware.
package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	coreauth "github.com/orangelab-kr/backoffice-api/internal/auth"
	"github.com/orangelab-kr/backoffice-api/internal/web/reqctx"
)

const bearerPrefix = "Bearer "

// New creates a fiber middleware resolving the Authorization header.
// The token slot carries a raw session identifier, not a JWT; the
// middleware resolves it once and threads the hydrated login through
// the typed request context.
func New(service *coreauth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return reqctx.ErrRequiredLogin
		}

		sessionID := strings.TrimPrefix(header, bearerPrefix)

		session, err := service.ResolveSession(sessionID)
		if err != nil {
			return err
		}

		reqctx.SetLogin(c, &reqctx.Login{
			SessionID: sessionID,
			User:      session.User,
		})

		return c.Next()
	}
}
