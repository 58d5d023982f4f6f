// Package auth provides the self-service authentication handlers:
// login by email or phone, profile reads and updates, and logout.
package auth

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	coreauth "github.com/orangelab-kr/backoffice-api/internal/auth"
	"github.com/orangelab-kr/backoffice-api/internal/config"
	"github.com/orangelab-kr/backoffice-api/internal/db/controller/user"
	"github.com/orangelab-kr/backoffice-api/internal/web/handler"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
	"github.com/orangelab-kr/backoffice-api/internal/web/reqctx"
)

// Path is the base path for authentication.
const Path = "/auth"

// Service is the authentication handler service.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	auth      *coreauth.Service
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *coreauth.Service, requireAuth fiber.Handler) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.auth = authService
	s.validator = validator.New()

	app.Post(Path+"/email", s.LoginByEmail)
	app.Post(Path+"/phone", s.LoginByPhone)
	app.Get(Path, requireAuth, s.Profile)
	app.Post(Path, requireAuth, s.Update)
	app.Delete(Path, requireAuth, s.Logout)
}

type emailLoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=10"`
}

// LoginByEmail authenticates by email and opens a new session.
func (s *Service) LoginByEmail(c *fiber.Ctx) error {
	var in emailLoginInput
	if err := c.BodyParser(&in); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid request body")
	}

	// Malformed credentials get the same coarse answer as wrong ones.
	if err := s.validator.Struct(in); err != nil {
		return coreauth.ErrInvalidCredentials
	}

	authedUser, err := s.auth.AuthenticateByEmail(in.Email, in.Password)
	if err != nil {
		return err
	}

	sessionID, err := s.auth.CreateSession(authedUser, c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "sessionId": sessionID})
}

type phoneLoginInput struct {
	Phone    string `json:"phone"    validate:"required,e164"`
	Password string `json:"password" validate:"required,min=10"`
}

// LoginByPhone authenticates by phone number and opens a new session.
func (s *Service) LoginByPhone(c *fiber.Ctx) error {
	var in phoneLoginInput
	if err := c.BodyParser(&in); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return coreauth.ErrInvalidCredentials
	}

	authedUser, err := s.auth.AuthenticateByPhone(in.Phone, in.Password)
	if err != nil {
		return err
	}

	sessionID, err := s.auth.CreateSession(authedUser, c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "sessionId": sessionID})
}

// Profile returns the current user.
func (s *Service) Profile(c *fiber.Ctx) error {
	login, err := reqctx.GetLogin(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "user": login.User})
}

type updateInput struct {
	Username *string `json:"username" validate:"omitempty,min=2,max=16"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Phone    *string `json:"phone"    validate:"omitempty,e164"`
	Password *string `json:"password" validate:"omitempty,min=10"`
}

// Update modifies the current user's own profile. The permission group
// is deliberately not part of the input: users cannot change their own.
func (s *Service) Update(c *fiber.Ctx) error {
	login, err := reqctx.GetLogin(c)
	if err != nil {
		return err
	}

	var in updateInput
	if err := c.BodyParser(&in); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return opcode.New(opcode.ValidationFailed, err.Error())
	}

	updated, err := user.Update(s.db, &login.User, user.UpdateInput{
		Username: in.Username,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: in.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "user": updated})
}

// Logout revokes every session of the current user.
func (s *Service) Logout(c *fiber.Ctx) error {
	login, err := reqctx.GetLogin(c)
	if err != nil {
		return err
	}

	if err := s.auth.RevokeAll(&login.User); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success})
}
