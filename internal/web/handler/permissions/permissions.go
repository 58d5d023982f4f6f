// Package permissions provides the permission management handlers.
package permissions

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/config"
	"github.com/orangelab-kr/backoffice-api/internal/db/controller/permission"
	"github.com/orangelab-kr/backoffice-api/internal/web/handler"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

// Path is the base path for permission management.
const Path = "/permissions"

// Service is the permission management handler service.
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
	app.Get(Path+"/:permissionId", requireAuth, s.Get)
	app.Post(Path+"/:permissionId", requireAuth, s.Update)
	app.Delete(Path+"/:permissionId", requireAuth, s.Delete)
}

// List returns a page of permissions with the total count.
func (s *Service) List(c *fiber.Ctx) error {
	var q handler.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid query parameters")
	}

	permissions, total, err := permission.List(s.db, permission.ListOptions{
		Take:     q.Take,
		Skip:     q.Skip,
		Search:   q.Search,
		OrderBy:  q.OrderByField,
		OrderDir: q.OrderBySort,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "permissions": permissions, "total": total})
}

// Get returns one permission.
func (s *Service) Get(c *fiber.Ctx) error {
	found, err := permission.Get(s.db, c.Params("permissionId"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "permission": found})
}

type createInput struct {
	PermissionID string `json:"permissionId" validate:"required,min=2,max=64"`
	ServiceID    string `json:"serviceId"    validate:"required,min=2,max=32"`
	Name         string `json:"name"         validate:"required,min=2,max=32"`
	Description  string `json:"description"  validate:"max=64"`
	Index        *int   `json:"index"        validate:"omitempty,min=0,max=127"`
}

// Create registers a new permission. A permission without an index is
// administrative only and never appears in token bitmasks.
func (s *Service) Create(c *fiber.Ctx) error {
	var in createInput
	if err := c.BodyParser(&in); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return opcode.New(opcode.ValidationFailed, err.Error())
	}

	created, err := permission.Create(s.db, permission.CreateInput{
		PermissionID: in.PermissionID,
		ServiceID:    in.ServiceID,
		Name:         in.Name,
		Description:  in.Description,
		Index:        in.Index,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "permission": created})
}

type updateInput struct {
	Name        *string `json:"name"        validate:"omitempty,min=2,max=32"`
	Description *string `json:"description" validate:"omitempty,max=64"`
	Index       *int    `json:"index"       validate:"omitempty,min=0,max=127"`
	SetIndex    bool    `json:"setIndex"`
}

// Update modifies a permission. Setting setIndex with a null index clears
// the bit position.
func (s *Service) Update(c *fiber.Ctx) error {
	found, err := permission.Get(s.db, c.Params("permissionId"))
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

	updated, err := permission.Update(s.db, found, permission.UpdateInput{
		Name:        in.Name,
		Description: in.Description,
		Index:       in.Index,
		SetIndex:    in.SetIndex,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "permission": updated})
}

// Delete removes a permission and detaches it from every group.
func (s *Service) Delete(c *fiber.Ctx) error {
	found, err := permission.Get(s.db, c.Params("permissionId"))
	if err != nil {
		return err
	}

	if err := permission.Delete(s.db, found); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success})
}
