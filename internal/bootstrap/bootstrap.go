package bootstrap

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/conductionnl/commonground-gateway/internal/client"
	"github.com/conductionnl/commonground-gateway/internal/commonground"
	"github.com/conductionnl/commonground-gateway/internal/config"
	"github.com/conductionnl/commonground-gateway/internal/core"
	"github.com/conductionnl/commonground-gateway/internal/identity"
	"github.com/conductionnl/commonground-gateway/internal/idin"
	"github.com/conductionnl/commonground-gateway/internal/kvk"
	"github.com/conductionnl/commonground-gateway/internal/metrics"
	"github.com/conductionnl/commonground-gateway/internal/resolver"
	"github.com/conductionnl/commonground-gateway/internal/services"
	"github.com/conductionnl/commonground-gateway/internal/store"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	MetricsRecorder core.MetricsRecorder
	AppConfigCache  core.Cache[[]string]

	// Domain clients
	CommonGround  *commonground.Client
	HealthChecker *commonground.HealthChecker
	Gateway       *idin.Gateway
	Registry      *kvk.Client

	// Services
	Resolver      *resolver.Resolver
	Provider      *identity.Provider
	LoginLog      *services.LoginLogService
	Authenticator *services.Authenticator

	// HTTP
	Router *gin.Engine
	Server *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		return err
	}

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, and cache
func (app *Application) initializeInfrastructure() error {
	var err error

	// Database
	app.DB, err = store.New(app.Config.DatabaseDriver, app.Config.DatabaseDSN)
	if err != nil {
		return err
	}
	log.Printf("[Bootstrap] Database ready (driver=%s)", app.Config.DatabaseDriver)

	// Metrics
	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)

	// Application-config cache
	app.AppConfigCache, err = initializeAppConfigCache(app.Config)
	if err != nil {
		return err
	}
	log.Printf("[Bootstrap] Application-config cache ready (type=%s)", app.Config.CacheType)

	return nil
}

// initializeBusinessLayer sets up domain clients and services
func (app *Application) initializeBusinessLayer() error {
	var err error

	app.CommonGround, err = commonground.New(app.Config, app.MetricsRecorder)
	if err != nil {
		return err
	}

	retryClient, err := client.CreateRetryClient(
		app.Config.CommonGroundAuthMode,
		app.Config.CommonGroundAuthSecret,
		app.Config.CommonGroundTimeout,
		app.Config.HealthMaxRetries,
		app.Config.HealthRetryDelay,
		app.Config.HealthMaxRetryDelay,
		app.Config.CommonGroundAuthHeader,
	)
	if err != nil {
		return err
	}
	app.HealthChecker = commonground.NewHealthChecker(app.Config.ComponentURLs, retryClient)

	app.Gateway = idin.NewGateway(app.Config)
	app.Registry = kvk.New(app.Config, app.MetricsRecorder)

	cityNames := identity.NewCityNameSource(
		app.CommonGround,
		app.AppConfigCache,
		app.Config.AppConfigCacheTTL,
	)
	app.Provider = identity.NewProvider(app.CommonGround, app.Registry, cityNames)
	app.Resolver = resolver.New(app.CommonGround, app.Config.ApplicationID)

	app.LoginLog = services.NewLoginLogService(
		app.DB,
		app.MetricsRecorder,
		app.Config.LoginLogEnabled,
		app.Config.LoginLogBufferSize,
	)

	app.Authenticator = services.NewAuthenticator(
		app.Gateway,
		app.Resolver,
		app.Provider,
		app.LoginLog,
		app.MetricsRecorder,
		app.Config,
	)

	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	router, err := setupRouter(app)
	if err != nil {
		return err
	}
	app.Router = router
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}
