package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/angermaster11/eduhub/internal/config"
	"github.com/angermaster11/eduhub/internal/domain/models"
	"github.com/angermaster11/eduhub/internal/events"
	"github.com/angermaster11/eduhub/internal/handler"
	"github.com/angermaster11/eduhub/internal/middleware"
	"github.com/angermaster11/eduhub/internal/service/catalog"
	"github.com/angermaster11/eduhub/internal/service/identity"
)

const sessionMaxAge = 30 * 24 * time.Hour

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store", cfg.Store,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event bus: Redis when configured so every instance sees catalog writes
	var bus events.Bus
	if cfg.RedisURL != "" {
		redisBus, err := events.NewRedisBus(cfg.RedisURL, logger)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		bus = redisBus
	} else {
		bus = events.NewLocalBus(logger)
	}
	defer func() { _ = bus.Close() }()

	b, err := newBackend(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up store: %v", err)
	}
	defer b.close()

	identitySvc := identity.NewService(b.provider, b.verifier, b.profiles, bus, logger)

	public := catalog.NewTreeModel(b.store, logger)
	workspaces := catalog.NewWorkspaces(b.store, public, bus, logger)
	stopWatch := workspaces.Watch(identitySvc.OnAuthStateChange)
	defer stopWatch()

	if err := public.EnsureLoaded(ctx); err != nil {
		logger.Warn("initial catalog load failed", "error", err)
	}

	scheduler, err := catalog.NewScheduler(workspaces, cfg.CatalogRefreshSchedule, cfg.WorkspaceIdleTTL, logger)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Handlers{
		Health:  handler.NewHealthHandler(workspaces),
		Catalog: handler.NewCatalogHandler(workspaces, logger),
		Auth:    handler.NewAuthHandler(identitySvc, logger),
		Admin:   handler.NewAdminHandler(workspaces, logger),
	}, handler.Guards{
		RequireAuth:  middleware.RequireAuth,
		RequireAdmin: middleware.RequireRole(identitySvc, models.RoleAdmin, logger),
	})

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Logger → Recovery → Session → Auth → Routes
	var h http.Handler = mux
	h = middleware.AuthMiddleware(b.verifier, logger)(h)
	h = middleware.SessionMiddleware(cfg.Environment == "prod", sessionMaxAge)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
