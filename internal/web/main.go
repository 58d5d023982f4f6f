package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	coreauth "github.com/orangelab-kr/backoffice-api/internal/auth"
	"github.com/orangelab-kr/backoffice-api/internal/config"
	fiberlogger "github.com/orangelab-kr/backoffice-api/internal/logger/adapter/fiber"
	authhandler "github.com/orangelab-kr/backoffice-api/internal/web/handler/auth"
	"github.com/orangelab-kr/backoffice-api/internal/web/handler/permissiongroups"
	"github.com/orangelab-kr/backoffice-api/internal/web/handler/permissions"
	"github.com/orangelab-kr/backoffice-api/internal/web/handler/services"
	"github.com/orangelab-kr/backoffice-api/internal/web/handler/users"
	authmiddleware "github.com/orangelab-kr/backoffice-api/internal/web/middleware/auth"
	"github.com/orangelab-kr/backoffice-api/internal/web/opcode"
)

// Version is reported by the cluster info document.
const Version = "1.0.0"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *coreauth.Service
	tokenIssuer  *coreauth.TokenIssuer
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   opcode.ErrorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: "/checkalive",
	}))

	authService := coreauth.NewService(db)

	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authService: authService,
		tokenIssuer: coreauth.NewTokenIssuer(db, cfg.Token.Issuer),
	}

	service.alive.Store(true)

	requireAuth := authmiddleware.New(authService)

	app.Get("/", service.clusterInfo)
	app.Get("/checkalive", service.checkAlive)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authhandler.Handler.Init(app, cfg, db, authService, requireAuth)
	users.Handler.Init(app, cfg, db, requireAuth)
	services.Handler.Init(app, cfg, db, service.tokenIssuer, requireAuth)
	permissions.Handler.Init(app, cfg, db, requireAuth)
	permissiongroups.Handler.Init(app, cfg, db, requireAuth)

	return service
}

// clusterInfo reports the service identity of this node.
func (s *Service) clusterInfo(c *fiber.Ctx) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	mode := "prod"
	if s.cfg.DevMode {
		mode = "dev"
	}

	return c.JSON(fiber.Map{
		"opcode":  opcode.Success,
		"name":    s.cfg.Title,
		"version": Version,
		"mode":    mode,
		"cluster": fiber.Map{
			"hostname": hostname,
		},
	})
}

// checkAlive answers load balancer health probes. It flips to 503 during
// the graceful shutdown window.
func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}
