// Package users provides the administrative user management handlers.
package users

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/config"
	"github.com/orangelab-kr/backoffice-api/internal/db/controller/user"
	"github.com/orangelab-kr/backoffice-api/internal/web/handler"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

// Path is the base path for user management.
const Path = "/users"

// Service is the user management handler service.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. Every route requires a login.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, requireAuth fiber.Handler) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()

	app.Get(Path, requireAuth, s.List)
	app.Post(Path, requireAuth, s.Create)
	app.Get(Path+"/:userId", requireAuth, s.Get)
	app.Post(Path+"/:userId", requireAuth, s.Update)
	app.Delete(Path+"/:userId", requireAuth, s.Delete)
}

// List returns a page of users with the total count.
func (s *Service) List(c *fiber.Ctx) error {
	var q handler.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid query parameters")
	}

	users, total, err := user.List(s.db, user.ListOptions{
		Take:     q.Take,
		Skip:     q.Skip,
		Search:   q.Search,
		OrderBy:  q.OrderByField,
		OrderDir: q.OrderBySort,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "users": users, "total": total})
}

// Get returns one user.
func (s *Service) Get(c *fiber.Ctx) error {
	found, err := user.Get(s.db, c.Params("userId"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "user": found})
}

type createInput struct {
	Username          string `json:"username"          validate:"required,min=2,max=16"`
	Email             string `json:"email"             validate:"required,email"`
	Phone             string `json:"phone"             validate:"required,e164"`
	Password          string `json:"password"          validate:"required,min=10"`
	PermissionGroupID string `json:"permissionGroupId" validate:"required,uuid"`
}

// Create registers a new user with a local credential.
func (s *Service) Create(c *fiber.Ctx) error {
	var in createInput
	if err := c.BodyParser(&in); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return opcode.New(opcode.ValidationFailed, err.Error())
	}

	created, err := user.Create(s.db, user.CreateInput{
		Username:          in.Username,
		Email:             in.Email,
		Phone:             in.Phone,
		Password:          in.Password,
		PermissionGroupID: in.PermissionGroupID,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "user": created})
}

type updateInput struct {
	Username          *string `json:"username"          validate:"omitempty,min=2,max=16"`
	Email             *string `json:"email"             validate:"omitempty,email"`
	Phone             *string `json:"phone"             validate:"omitempty,e164"`
	Password          *string `json:"password"          validate:"omitempty,min=10"`
	PermissionGroupID *string `json:"permissionGroupId" validate:"omitempty,uuid"`
}

// Update modifies a user, the permission group included.
func (s *Service) Update(c *fiber.Ctx) error {
	found, err := user.Get(s.db, c.Params("userId"))
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

	updated, err := user.Update(s.db, found, user.UpdateInput{
		Username:          in.Username,
		Email:             in.Email,
		Phone:             in.Phone,
		Password:          in.Password,
		PermissionGroupID: in.PermissionGroupID,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "user": updated})
}

// Delete removes a user with its sessions and credentials.
func (s *Service) Delete(c *fiber.Ctx) error {
	found, err := user.Get(s.db, c.Params("userId"))
	if err != nil {
		return err
	}

	if err := user.Delete(s.db, found); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success})
}
