package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"golang.org/x/sync/errgroup"

	"comedor-backend/internal/admin"
	"comedor-backend/internal/audit"
	"comedor-backend/internal/auth"
	"comedor-backend/internal/catalog"
	"comedor-backend/internal/checkin"
	"comedor-backend/internal/config"
	"comedor-backend/internal/dashboard"
	"comedor-backend/internal/database"
	"comedor-backend/internal/history"
	"comedor-backend/internal/logging"
	"comedor-backend/internal/metrics"
	"comedor-backend/internal/models"
	"comedor-backend/internal/session"
	"comedor-backend/internal/station"
	"comedor-backend/internal/store"
	"comedor-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	logging.SetDefault(logging.New(cfg.LogFormat, slog.LevelInfo))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Init(cfg); err != nil {
		logging.Error(ctx, "database init failed", logging.Err(err))
		os.Exit(1)
	}

	st := store.NewGorm(database.DB, cfg.StoreTimeout)
	recorder := metrics.NewRecorder()
	outbox := audit.NewOutbox(st, cfg.AuditRetryInterval, cfg.AuditMaxAttempts)
	recorder.TrackOutbox(outbox.Pending)
	cat := catalog.New(st, cfg.CatalogCacheTTL)

	registrar := checkin.NewRegistrar(st,
		checkin.WithAuditQueue(outbox),
		checkin.WithObserver(recorder),
		checkin.WithLocation(cfg.Location),
		checkin.WithStrictQuota(cfg.StrictQuota),
	)
	stations := checkin.NewStations(func() *checkin.Workflow {
		// The operator comes from each request's JWT, not from the station.
		return checkin.NewWorkflow(registrar, cat, session.Static{}, checkin.WorkflowConfig{
			DebounceWindow:      cfg.ScanDebounceWindow,
			ConflateStoreErrors: cfg.ConflateStoreErrors,
		})
	}, checkin.DefaultMaxStations, cfg.StationIdleTTL)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logging.Error(c.UserContext(), "unexpected error", logging.Err(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error inesperado del servidor",
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(recorder.Middleware())

	app.Get("/metrics", recorder.Handler())
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "audit_pending": outbox.Pending(), "stations": stations.Len()})
	})

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(database.DB))
	api.Post("/auth/login", auth.LoginHandler(cfg, database.DB))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(database.DB))

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/companies", admin.CreateCompanyHandler(cat))
	adminRoutes.Post("/companies/:id/operators", admin.CreateOperatorHandler(database.DB, cat))
	adminRoutes.Get("/companies/:id/operators", admin.ListOperatorsHandler(database.DB))
	adminRoutes.Post("/shifts", admin.CreateShiftHandler(cat))

	// Reference data
	protected.Get("/companies", catalog.ListCompaniesHandler(cat))
	protected.Get("/shifts", catalog.ListShiftsHandler(cat))
	protected.Get("/shifts/current", catalog.CurrentShiftHandler(cat, cfg.Location, time.Now))

	// Workers
	workers := worker.NewService(st, cat)
	protected.Post("/workers", worker.RegisterHandler(workers))
	protected.Get("/workers/:code", worker.GetHandler(workers))

	// Stations and bulk registration
	station.Register(protected, stations, registrar, cat, time.Now)

	// History, audit and dashboard
	hist := history.NewService(st, cfg.Location)
	protected.Get("/history", history.ListHandler(hist, time.Now))
	protected.Get("/history/recent", history.RecentHandler(hist, time.Now))
	protected.Get("/audit-entries", audit.ListAuditEntriesHandler(st, cfg.Location))
	protected.Get("/dashboard/meal-chart", dashboard.MealChartHandler(st, cat, cfg.Location, time.Now))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return outbox.Run(gctx)
	})
	g.Go(func() error {
		logging.Info(gctx, "listening", slog.String("port", cfg.HTTPPort))
		return app.Listen(":" + cfg.HTTPPort)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Error(context.Background(), "server stopped", logging.Err(err))
		os.Exit(1)
	}
	if n := outbox.Pending(); n > 0 {
		logging.Warn(context.Background(), "exiting with unwritten audit entries", slog.Int("pending", n))
	}
}
