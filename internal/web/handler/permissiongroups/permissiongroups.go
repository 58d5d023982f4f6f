// Package permissiongroups provides the permission group management handlers.
package permissiongroups

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/config"
	"github.com/orangelab-kr/backoffice-api/internal/db/controller/permissiongroup"
	"github.com/orangelab-kr/backoffice-api/internal/web/handler"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

// Path is the base path for permission group management.
const Path = "/permissionGroups"

// Service is the permission group handler service.
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
	app.Get(Path+"/:permissionGroupId", requireAuth, s.Get)
	app.Post(Path+"/:permissionGroupId", requireAuth, s.Update)
	app.Delete(Path+"/:permissionGroupId", requireAuth, s.Delete)
}

// List returns a page of groups with the total count.
func (s *Service) List(c *fiber.Ctx) error {
	var q handler.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid query parameters")
	}

	groups, total, err := permissiongroup.List(s.db, permissiongroup.ListOptions{
		Take:     q.Take,
		Skip:     q.Skip,
		Search:   q.Search,
		OrderBy:  q.OrderByField,
		OrderDir: q.OrderBySort,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "permissionGroups": groups, "total": total})
}

// Get returns one group with its permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	found, err := permissiongroup.Get(s.db, c.Params("permissionGroupId"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "permissionGroup": found})
}

type createInput struct {
	Name          string   `json:"name"          validate:"required,min=2,max=32"`
	Description   string   `json:"description"   validate:"max=64"`
	PermissionIDs []string `json:"permissionIds" validate:"dive,min=2,max=64"`
}

// Create registers a new group connecting the given permissions.
func (s *Service) Create(c *fiber.Ctx) error {
	var in createInput
	if err := c.BodyParser(&in); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return opcode.New(opcode.ValidationFailed, err.Error())
	}

	created, err := permissiongroup.Create(s.db, permissiongroup.CreateInput{
		Name:          in.Name,
		Description:   in.Description,
		PermissionIDs: in.PermissionIDs,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "permissionGroup": created})
}

type updateInput struct {
	Name          *string  `json:"name"          validate:"omitempty,min=2,max=32"`
	Description   *string  `json:"description"   validate:"omitempty,max=64"`
	PermissionIDs []string `json:"permissionIds" validate:"omitempty,dive,min=2,max=64"`
}

// Update modifies a group; a permissionIds array replaces the whole set.
func (s *Service) Update(c *fiber.Ctx) error {
	found, err := permissiongroup.Get(s.db, c.Params("permissionGroupId"))
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

	updated, err := permissiongroup.Update(s.db, found, permissiongroup.UpdateInput{
		Name:          in.Name,
		Description:   in.Description,
		PermissionIDs: in.PermissionIDs,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "permissionGroup": updated})
}

// Delete removes a group once no user references it.
func (s *Service) Delete(c *fiber.Ctx) error {
	found, err := permissiongroup.Get(s.db, c.Params("permissionGroupId"))
	if err != nil {
		return err
	}

	if err := permissiongroup.Delete(s.db, found); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success})
}
