// Package daemon wires the database, migrations, seeding and the web
// service into one runnable unit.
package daemon

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/config"
	"github.com/orangelab-kr/backoffice-api/internal/db/dsn"
	"github.com/orangelab-kr/backoffice-api/internal/db/models"
	"github.com/orangelab-kr/backoffice-api/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unsupported database engine")
		return nil
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Method{},
		&models.Session{},
		&models.Service{},
		&models.Permission{},
		&models.PermissionGroup{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	seed(cfg, db)

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db),
	}
}
