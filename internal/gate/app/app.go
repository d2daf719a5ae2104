package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/toolgate/internal/gate/http"
	"github.com/aussiebroadwan/toolgate/internal/gate/oauth"
	"github.com/aussiebroadwan/toolgate/internal/gate/service"
	"github.com/aussiebroadwan/toolgate/internal/gate/session"
	"github.com/aussiebroadwan/toolgate/internal/gate/store"
	"github.com/aussiebroadwan/toolgate/internal/gate/store/drivers/postgres"
	"github.com/aussiebroadwan/toolgate/internal/gate/store/drivers/sqlite"
	"github.com/aussiebroadwan/toolgate/pkg/cryptox"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the credential store, identity service and session
// controller behind the HTTP API.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	decoder *oauth.IDTokenDecoder // nil when Google sign-in is off
	google  *oauth.GoogleProvider // nil unless the redirect flow is configured

	identityService *service.IdentityService
	controller      *session.Controller

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application with all dependencies initialized. The
// returned error wraps service.ErrStorageUnavailable when the credential
// store cannot be reached.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "toolgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	ctx := slogx.WithContext(context.Background(), app.logger)

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	app.initIdentityProvider(ctx)

	if err := app.initServices(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("toolgate starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down toolgate...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("toolgate stopped")
	return nil
}

// Handler exposes the routed API, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var db store.Store

	switch app.cfg.StoreDriver {
	case DriverPostgres:
		pg, err := postgres.Open(ctx, app.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("%w: %w", service.ErrStorageUnavailable, err)
		}
		db = pg
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		lite, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("%w: %w", service.ErrStorageUnavailable, err)
		}
		db = lite
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: failed to apply database migrations: %w", service.ErrStorageUnavailable, err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.StoreDriver)
	return nil
}

// initIdentityProvider sets up Google sign-in when a client id is configured.
// A key fetch failure is not fatal; the decoder retries on first use.
func (app *Application) initIdentityProvider(ctx context.Context) {
	if !app.cfg.Google.Enabled() {
		app.logger.Info("external sign-in disabled")
		return
	}

	app.decoder = oauth.NewIDTokenDecoder(app.cfg.Google, nil)

	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.decoder.Refresh(fetchCtx); err != nil {
		app.logger.Warn("initial identity provider key fetch failed", "error", err)
	}

	if app.cfg.Google.ClientSecret != "" && app.cfg.Google.RedirectURL != "" {
		app.google = oauth.NewGoogleProvider(app.cfg.Google)
		app.logger.Info("google redirect sign-in enabled")
	}
}

// initServices builds the identity service and restores the session
func (app *Application) initServices(ctx context.Context) error {
	app.identityService = &service.IdentityService{
		Store: app.db,
		Admin: app.cfg.Admin,
	}
	if app.decoder != nil {
		app.identityService.Decoder = app.decoder
	}

	app.controller = session.NewController(app.identityService)
	if err := app.controller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.Controller = app.controller
	router.IdentityService = app.identityService
	router.Google = app.google
	if app.decoder != nil {
		router.IdentityKeys = app.decoder.Keys()
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
