// Package app wires the PetBook server together and runs it.
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
	_ "time/tzdata" // shop timezones on minimal images

	"github.com/nats-io/nats.go"
	"github.com/sethvargo/go-envconfig"

	"github.com/aussiebroadwan/petbook/internal/petbook/events"
	httpapi "github.com/aussiebroadwan/petbook/internal/petbook/http"
	"github.com/aussiebroadwan/petbook/internal/petbook/service"
	"github.com/aussiebroadwan/petbook/internal/petbook/storage"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/internal/petbook/store/drivers/postgres"
	"github.com/aussiebroadwan/petbook/internal/petbook/store/drivers/sqlite"
	"github.com/aussiebroadwan/petbook/internal/petbook/telemetry"
	"github.com/aussiebroadwan/petbook/internal/petbook/web"
	"github.com/aussiebroadwan/petbook/pkg/cryptox"
	"github.com/aussiebroadwan/petbook/pkg/httpx"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application holds the server and everything it depends on.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	keyManager *jwtx.KeyManager
	bus        *events.Bus
	metrics    *telemetry.Metrics
	tracing    telemetry.ShutdownFunc

	limiter      *ratelimit.Limiter
	identity     *service.IdentityService
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New builds the application. Nothing is served until Run.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "petbook",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: telemetry.NewMetrics(),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	httpx.LoadRateLimits(ctx, envconfig.OsLookuper())

	tracing, err := telemetry.InitTracing(ctx, httpapi.ServiceName, BuildVersion, cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}
	app.tracing = tracing

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	km, err := InitKeys(ctx, cfg, app.db, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.keyManager = km

	publisher, err := app.initEvents()
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	photos, err := app.initStorage(ctx)
	if err != nil {
		app.bus.Close()
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initHTTP(publisher, photos); err != nil {
		app.bus.Close()
		_ = app.db.Close()
		return nil, err
	}
	return app, nil
}

// Handler is the root HTTP handler, for tests and embedding.
func (app *Application) Handler() http.Handler { return app.router }

// Run serves until SIGINT/SIGTERM or a server error.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("petbook starting", "port", app.cfg.Port, "version", BuildVersion, "db", app.cfg.DBDriver)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
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

// Shutdown drains the server, stops housekeeping and closes connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down petbook")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "err", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("close server", "err", err)
		}
	}

	app.housekeeping.Stop()
	app.bus.Close()

	if err := app.tracing(ctx); err != nil {
		app.logger.Error("flush traces", "err", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("close database", "err", err)
		return err
	}

	app.logger.Info("petbook stopped")
	return nil
}

func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DBDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply migrations: %w", err)
	}
	app.db = db
	app.logger.Info("database migrations applied", "driver", app.cfg.DBDriver)
	return nil
}

// initEvents connects to NATS when configured. Without it mail links are
// only logged.
func (app *Application) initEvents() (events.Publisher, error) {
	if app.cfg.NATSURL == "" {
		app.logger.Warn("PETBOOK_NATS_URL not set, mail links are only logged")
		return events.LogPublisher{Logger: app.logger}, nil
	}

	bus, err := events.Connect(app.cfg.NATSURL,
		nats.Name("petbook"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	app.bus = bus
	app.logger.Info("connected to nats", "url", app.cfg.NATSURL)
	return bus, nil
}

func (app *Application) initStorage(ctx context.Context) (storage.Presigner, error) {
	s3, err := storage.NewS3(ctx, app.cfg.S3)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		app.logger.Warn("PETBOOK_S3_BUCKET not set, pet photos are disabled")
		return storage.Disabled{}, nil
	case err != nil:
		return nil, err
	}
	app.logger.Info("pet photo storage enabled", "bucket", app.cfg.S3.Bucket)
	return s3, nil
}

func (app *Application) initHTTP(publisher events.Publisher, photos storage.Presigner) error {
	loc := app.cfg.Location()

	tokens := &service.TokenService{
		KeyManager: app.keyManager,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	app.limiter = ratelimit.New(ratelimit.Config{})
	app.identity = &service.IdentityService{
		Store:     app.db,
		Tokens:    tokens,
		Events:    publisher,
		Limiter:   app.limiter,
		Metrics:   app.metrics,
		PublicURL: app.cfg.PublicURL,
	}
	app.housekeeping = service.NewHousekeepingService(app.db, app.limiter, app.logger, app.cfg.HousekeepingInterval)
	app.housekeeping.Metrics = app.metrics

	router := httpapi.NewRouter(app.keyManager.KeySet, app.keyManager.Verifier, BuildVersion, app.db, app.logger)
	router.HSTS = app.cfg.HSTS
	router.Metrics = app.metrics
	router.LinkAttempts = app.limiter
	router.IdentityService = app.identity
	router.ProfileService = &service.ProfileService{Store: app.db}
	router.ShopService = &service.ShopService{Store: app.db}
	router.ClientService = &service.ClientService{Store: app.db}
	router.PetService = &service.PetService{Store: app.db, Photos: photos}
	router.CatalogService = &service.CatalogService{Store: app.db}
	router.AppointmentService = &service.AppointmentService{Store: app.db, Location: loc}
	router.DashboardService = &service.DashboardService{Store: app.db, Location: loc}

	pages, err := web.NewPages(router.IdentityService, router.ProfileService, router.ShopService, router.DashboardService, app.keyManager.Verifier)
	if err != nil {
		return err
	}
	pages.Secure = app.cfg.SecureCookies
	pages.Register(router.Mux)

	router.Use(web.NavigationMiddleware(web.NavigationConfig{
		Verifier: app.keyManager.Verifier,
		HSTS:     app.cfg.HSTS,
	}))
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
