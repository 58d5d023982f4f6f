// Package dsn provides Data Source Name construction and gorm dialector
// selection for the supported database engines.
package dsn

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/orangelab-kr/backoffice-api/internal/config"
)

// ErrUnsupportedEngine is returned when db.gormengine names an unknown engine.
var ErrUnsupportedEngine = errors.New("unsupported database engine")

// Create builds the Data Source Name from the configuration.
func Create(cfg *config.Config) string {
	switch cfg.DB.GormEngine {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d %s",
			cfg.DB.Host,
			cfg.DB.User,
			cfg.DB.Password,
			cfg.DB.Name,
			cfg.DB.Port,
			cfg.DB.Extras,
		)
	case "sqlite":
		// Name is the database file path, e.g. ./backoffice.db or :memory:
		return cfg.DB.Name
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			cfg.DB.User,
			cfg.DB.Password,
			cfg.DB.Host,
			cfg.DB.Port,
			cfg.DB.Name,
			cfg.DB.Extras,
		)
	}
}

// Dialector returns the gorm dialector matching the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case "mysql", "":
		return mysql.Open(Create(cfg)), nil
	case "postgres":
		return postgres.Open(Create(cfg)), nil
	case "sqlite":
		return sqlite.Open(Create(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, cfg.DB.GormEngine)
	}
}
