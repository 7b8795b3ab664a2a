// Package main is the entry point for the CRISP console server.
// It serves the administrative console's view models: live report
// aggregation for dashboards and charts, report review/validation/
// assignment, account management, broadcast notifications, and the
// operator audit trail.
//
// Architecture:
//   - Canonical report state lives in the external document store
//     (Redis partitions, one per category, with pub/sub change feeds)
//   - Authentication and account CRUD are delegated to the external
//     REST backend; the console attaches the issued bearer token
//   - One shared subscription multiplexer feeds every analytics view,
//     so all charts observe the same snapshot sequence
//   - Operator actions are recorded in a Postgres audit trail
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/config"
	"github.com/crisp-platform/console-server/internal/database"
	"github.com/crisp-platform/console-server/internal/docstore"
	"github.com/crisp-platform/console-server/internal/handlers"
	"github.com/crisp-platform/console-server/internal/livefeed"
	"github.com/crisp-platform/console-server/internal/middleware"
	"github.com/crisp-platform/console-server/internal/models"
	"github.com/crisp-platform/console-server/internal/restapi"
	"github.com/crisp-platform/console-server/internal/services"
	"github.com/crisp-platform/console-server/internal/session"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting CRISP Console Server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"backend", cfg.BackendBaseURL,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Audit trail database
	db, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Document store (reports, notifications) and session storage
	rdb, err := docstore.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	store := docstore.NewStore(rdb, sugar)
	backend := restapi.NewClient(cfg.BackendBaseURL, sugar)
	weather := restapi.NewWeatherClient(cfg.WeatherAPIURL, cfg.WeatherAPIKey, sugar)
	sessions := session.NewStore(session.NewRedisKV(rdb), backend, sugar)

	// Re-attach a persisted session on restart
	if principal, err := sessions.Current(ctx); err != nil {
		sugar.Warnf("Failed to hydrate session: %v", err)
	} else if principal != nil {
		sugar.Infow("Session restored", "user_id", principal.ID, "role", principal.Role)
	}

	// One multiplexer per process: every analytics consumer shares it
	feed := livefeed.New(store, sugar)
	feed.Start(ctx)
	defer feed.Close()

	// Initialize services
	auditSvc := services.NewAuditService(db, sugar)
	reportSvc := services.NewReportService(store, auditSvc, sugar)
	analyticsSvc := services.NewAnalyticsService(feed, sugar)
	accountSvc := services.NewAccountService(backend, store, auditSvc, sugar)
	notificationSvc := services.NewNotificationService(store, auditSvc, sugar)

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessions, sugar)
	reportHandler := handlers.NewReportHandler(reportSvc, sugar)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsSvc, sugar)
	accountHandler := handlers.NewAccountHandler(accountSvc, sugar)
	notificationHandler := handlers.NewNotificationHandler(notificationSvc, sugar)
	auditHandler := handlers.NewAuditHandler(auditSvc, sugar)
	weatherHandler := handlers.NewWeatherHandler(weather, sugar)
	healthHandler := handlers.NewHealthHandler(db, rdb, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	requireAuth := middleware.RequireAuth(cfg.JWTSecret)
	superAdminOnly := middleware.RequireRole(models.RoleSuperAdmin, models.RoleDepartmentHead)
	consoleRoles := middleware.RequireRole(models.ConsoleRoles...)

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Session (login is the only unauthenticated operation)
		r.Route("/session", func(r chi.Router) {
			r.Post("/login", sessionHandler.Login)
			r.Post("/logout", sessionHandler.Logout)
			r.Get("/", sessionHandler.Current)
		})

		// Report review
		r.Route("/reports", func(r chi.Router) {
			r.Use(requireAuth, consoleRoles)
			r.Get("/", reportHandler.List)
			r.Get("/{category}/{id}", reportHandler.Get)
			r.Post("/{category}/{id}/validate", reportHandler.Validate)
			r.Put("/{category}/{id}/status", reportHandler.UpdateStatus)
			r.Put("/{category}/{id}/assign", reportHandler.Assign)
			r.Delete("/{category}/{id}", reportHandler.Delete)
		})

		// Analytics (dashboard + charts)
		r.Route("/analytics", func(r chi.Router) {
			r.Use(requireAuth, consoleRoles)
			r.Get("/summary", analyticsHandler.Summary)
			r.Get("/categories", analyticsHandler.Categories)
			r.Get("/trends", analyticsHandler.DateTrends)
			r.Get("/hours", analyticsHandler.HourTrends)
		})

		// Account management
		r.Route("/accounts", func(r chi.Router) {
			r.Use(requireAuth, consoleRoles)
			r.Get("/users", accountHandler.Users)
			r.Get("/workers", accountHandler.Workers)
			r.Get("/departments", accountHandler.Departments)
			r.Post("/workers", accountHandler.RegisterWorker)
			r.Post("/otp/verify", accountHandler.VerifyOTP)
			r.Post("/otp/resend", accountHandler.ResendOTP)

			// Superadmin-only operations
			r.Group(func(r chi.Router) {
				r.Use(superAdminOnly)
				r.Post("/department-admins", accountHandler.RegisterDepartmentAdmin)
				r.Get("/verifications", accountHandler.VerificationRequests)
				r.Put("/verifications/{userID}", accountHandler.ApproveVerification)
				r.Delete("/verifications/{userID}", accountHandler.DenyVerification)
				r.Delete("/{userID}", accountHandler.Delete)
			})
		})

		// Broadcast notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Use(requireAuth, consoleRoles)
			r.Get("/", notificationHandler.List)
			r.With(superAdminOnly).Post("/", notificationHandler.Broadcast)
		})

		// Audit trail
		r.Route("/audit", func(r chi.Router) {
			r.Use(requireAuth, superAdminOnly)
			r.Get("/recent", auditHandler.Recent)
			r.Get("/reports/{category}/{id}", auditHandler.ByReport)
		})

		// Weather overlay
		r.With(requireAuth, consoleRoles).Get("/weather", weatherHandler.Current)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
