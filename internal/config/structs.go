package config

import (
	"github.com/orangelab-kr/backoffice-api/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Token     Token
	Webserver Webserver
}

// Token holds access token issuance settings.
type Token struct {
	// Issuer is the identity used as the iss claim of issued access tokens.
	Issuer string
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}
