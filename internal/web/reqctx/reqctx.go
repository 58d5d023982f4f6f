// Package reqctx carries typed per-request state. Middleware stores a
// resolved login here and handlers read it back through a typed helper,
// so no handler ever touches ambient untyped request state.
package reqctx

import (
	"github.com/gofiber/fiber/v2"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

// ErrRequiredLogin is returned when no login is attached to the request.
var ErrRequiredLogin = opcode.New(opcode.RequiredLogin, "login is required for this service")

// Login is the authenticated state of one request.
type Login struct {
	// SessionID is the raw bearer session identifier.
	SessionID string
	// User is the session owner, hydrated with its permission group and
	// the group's full permission list.
	User models.User
}

// loginKey is the fiber locals key holding the *Login.
type loginKey struct{}

// SetLogin attaches a resolved login to the request.
func SetLogin(c *fiber.Ctx, login *Login) {
	c.Locals(loginKey{}, login)
}

// GetLogin returns the login of the request or ErrRequiredLogin.
func GetLogin(c *fiber.Ctx) (*Login, error) {
	login, ok := c.Locals(loginKey{}).(*Login)
	if !ok || login == nil {
		return nil, ErrRequiredLogin
	}

	return login, nil
}
