package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/siren-bd/platform/internal/audit"
	"github.com/siren-bd/platform/internal/auth"
	"github.com/siren-bd/platform/internal/donation"
	"github.com/siren-bd/platform/internal/identity"
	requestapi "github.com/siren-bd/platform/internal/request/api"
	requestinfra "github.com/siren-bd/platform/internal/request/infrastructure"
	sharedauth "github.com/siren-bd/platform/internal/shared/auth"
	"github.com/siren-bd/platform/internal/shared/config"
	"github.com/siren-bd/platform/internal/shared/database"
	"github.com/siren-bd/platform/internal/shared/events"
	"github.com/siren-bd/platform/internal/shared/metrics"
	secmiddleware "github.com/siren-bd/platform/internal/shared/middleware"
	"github.com/siren-bd/platform/internal/stats"
	"github.com/siren-bd/platform/internal/task"
	"github.com/siren-bd/platform/internal/zone"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    events.EventBus
}

func main() {
	ctx := context.Background()

	// Best effort; the environment wins over .env
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database not available: %v\n", err)
		os.Exit(1)
	}
	app.DB = db
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	// Event streaming is optional; coordination still works with the
	// in-process bus, it just does not survive restarts.
	if bus, err := events.NewBus(ctx, cfg.EventStore); err != nil {
		fmt.Printf("Warning: EventStore not available: %v\n", err)
		fmt.Println("Falling back to in-process event bus")
		app.Bus = events.NewMemoryBus()
	} else {
		app.Bus = bus
		defer bus.Close()
		fmt.Println("EventStore event bus initialized")
	}

	// Repositories
	actorRepo := identity.NewPostgresRepository(db.Pool)
	requestRepo := requestinfra.NewPostgresRepository(db.Pool)
	taskRepo := task.NewPostgresRepository(db.Pool)
	auditRepo := audit.NewPostgresRepository(db.Pool)
	donationRepo := donation.NewPostgresRepository(db.Pool)

	// Services
	identityService := identity.NewService(actorRepo, app.Bus, cfg.Auth)
	taskService := task.NewService(taskRepo, requestRepo, actorRepo, app.Bus)
	statsService := stats.NewService(requestRepo, taskRepo, actorRepo, donationRepo)

	// The activity log chains every event published on the bus
	recorder := audit.NewRecorder(auditRepo)
	if err := recorder.Start(ctx, app.Bus); err != nil {
		fmt.Printf("Warning: audit recorder failed to start: %v\n", err)
	}

	// Zone predictions come from the external model service when one is
	// configured, otherwise from request clustering. Chosen here, once.
	var predictor zone.Predictor
	if cfg.Zones.Enabled && cfg.Zones.URL != "" {
		predictor = zone.NewClient(cfg.Zones)
		fmt.Printf("Zone predictions: model service at %s\n", cfg.Zones.URL)
	} else {
		predictor = zone.NewHeuristic(requestRepo)
		fmt.Println("Zone predictions: request clustering heuristic")
	}

	identityHandler := identity.NewHandler(identityService, cfg.Auth)
	requestHandler := requestapi.NewHandler(requestRepo, app.Bus)
	taskHandler := task.NewHandler(taskService)
	statsHandler := stats.NewHandler(statsService)
	zoneHandler := zone.NewHandler(predictor)
	donationHandler := donation.NewHandler(donationRepo, app.Bus)
	auditHandler := audit.NewHandler(auditRepo)

	rateLimiter := secmiddleware.NewIPRateLimiter(20, 40)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.CORS(secmiddleware.DefaultCORSConfig()))
	r.Use(secmiddleware.BodyLimit(1 << 20))
	r.Use(rateLimiter.Middleware)
	r.Use(metrics.Middleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", infoHandler)

	r.Route("/api/v1", func(r chi.Router) {
		// Registration and login need no session
		r.Mount("/auth", identityHandler.PublicRoutes())

		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(cfg.Auth))

			r.Mount("/", identityHandler.Routes())
			r.Mount("/requests", requestHandler.Routes())
			r.Mount("/tasks", taskHandler.Routes())
			r.Mount("/donations", donationHandler.Routes())
			r.With(auth.RequirePermission(auth.PermZoneRead)).Mount("/zones", zoneHandler.Routes())

			r.Group(func(r chi.Router) {
				r.Use(auth.RequirePermission(auth.PermStatsRead))
				r.Mount("/stats", statsHandler.Routes())
			})
			r.Group(func(r chi.Router) {
				r.Use(auth.RequirePermission(auth.PermAuditRead))
				r.Mount("/audit", auditHandler.Routes())
			})
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("SIREN Disaster Response Coordination")
	fmt.Println("============================================")
	fmt.Printf("Environment: %s\n", cfg.Server.Env)
	fmt.Printf("Server:      http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:         http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:      http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "SIREN Disaster Response Coordination",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if err := app.DB.Health(r.Context()); err != nil {
			checks["database"] = "not ready: " + err.Error()
		} else {
			checks["database"] = "ready"
		}

		if err := app.Bus.Health(); err != nil {
			checks["events"] = "not ready: " + err.Error()
		} else {
			checks["events"] = "ready"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
