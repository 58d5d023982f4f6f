// Package services provides the tenant service management handlers and
// the access token generation endpoint.
package services

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	coreauth "github.com/orangelab-kr/backoffice-api/internal/auth"
	"github.com/orangelab-kr/backoffice-api/internal/config"
	"github.com/orangelab-kr/backoffice-api/internal/db/controller/service"
	"github.com/orangelab-kr/backoffice-api/internal/web/handler"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
	"github.com/orangelab-kr/backoffice-api/internal/web/reqctx"
)

// Path is the base path for service management.
const Path = "/services"

// Service is the service management handler service.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	issuer    *coreauth.TokenIssuer
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. Every route requires a login.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, issuer *coreauth.TokenIssuer, requireAuth fiber.Handler) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.issuer = issuer
	s.validator = validator.New()

	app.Get(Path, requireAuth, s.List)
	app.Post(Path, requireAuth, s.Create)
	app.Get(Path+"/:serviceId", requireAuth, s.Get)
	app.Get(Path+"/:serviceId/generate", requireAuth, s.Generate)
	app.Post(Path+"/:serviceId", requireAuth, s.Update)
	app.Delete(Path+"/:serviceId", requireAuth, s.Delete)
}

// List returns a page of services with the total count. Secret keys are
// never part of the payload.
func (s *Service) List(c *fiber.Ctx) error {
	var q handler.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid query parameters")
	}

	services, total, err := service.List(s.db, service.ListOptions{
		Take:     q.Take,
		Skip:     q.Skip,
		Search:   q.Search,
		OrderBy:  q.OrderByField,
		OrderDir: q.OrderBySort,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "services": services, "total": total})
}

// Get returns one service without its secret key.
func (s *Service) Get(c *fiber.Ctx) error {
	found, err := service.Get(s.db, c.Params("serviceId"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "service": found})
}

// Generate issues a signed access token for the current user against the
// service. This is the only handler touching the with-secret read path.
func (s *Service) Generate(c *fiber.Ctx) error {
	login, err := reqctx.GetLogin(c)
	if err != nil {
		return err
	}

	found, err := service.GetWithSecretKey(s.db, c.Params("serviceId"))
	if err != nil {
		return err
	}

	token, err := s.issuer.Issue(&login.User, found)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "accessToken": token})
}

type createInput struct {
	ServiceID string `json:"serviceId" validate:"required,min=2,max=32"`
	Endpoint  string `json:"endpoint"  validate:"required,url"`
	SecretKey string `json:"secretKey" validate:"required,min=16"`
}

// Create registers a new service.
func (s *Service) Create(c *fiber.Ctx) error {
	var in createInput
	if err := c.BodyParser(&in); err != nil {
		return opcode.New(opcode.ValidationFailed, "invalid request body")
	}

	if err := s.validator.Struct(in); err != nil {
		return opcode.New(opcode.ValidationFailed, err.Error())
	}

	created, err := service.Create(s.db, service.CreateInput{
		ServiceID: in.ServiceID,
		Endpoint:  in.Endpoint,
		SecretKey: in.SecretKey,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "service": created})
}

type updateInput struct {
	ServiceID *string `json:"serviceId" validate:"omitempty,min=2,max=32"`
	Endpoint  *string `json:"endpoint"  validate:"omitempty,url"`
	SecretKey *string `json:"secretKey" validate:"omitempty,min=16"`
}

// Update modifies a service, secret key rotation included.
func (s *Service) Update(c *fiber.Ctx) error {
	found, err := service.Get(s.db, c.Params("serviceId"))
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

	updated, err := service.Update(s.db, found, service.UpdateInput{
		ServiceID: in.ServiceID,
		Endpoint:  in.Endpoint,
		SecretKey: in.SecretKey,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success, "service": updated})
}

// Delete removes a service once it no longer owns permissions.
func (s *Service) Delete(c *fiber.Ctx) error {
	found, err := service.Get(s.db, c.Params("serviceId"))
	if err != nil {
		return err
	}

	if err := service.Delete(s.db, found); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"opcode": opcode.Success})
}
