package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angermaster11/eduhub/internal/auth"
	"github.com/angermaster11/eduhub/internal/config"
	"github.com/angermaster11/eduhub/internal/domain/models"
	"github.com/angermaster11/eduhub/internal/domain/repositories"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
	"github.com/angermaster11/eduhub/internal/repository/memory"
	"github.com/angermaster11/eduhub/internal/repository/postgres"
	postgresCatalog "github.com/angermaster11/eduhub/internal/repository/postgres/catalog"
	"github.com/angermaster11/eduhub/internal/seed"
)

// backend is the storage and identity half of the server
type backend struct {
	store    catalogRepo.Store
	profiles repositories.ProfileRepository
	provider auth.Provider
	verifier auth.JWTVerifier
	close    func()
}

func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.Store {
	case "postgres":
		return newPostgresBackend(ctx, cfg, logger)
	case "memory":
		return newMemoryBackend(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown STORE %q (want postgres or memory)", cfg.Store)
	}
}

// newPostgresBackend talks to the hosted project: tables over pgx and
// identity over GoTrue.
func newPostgresBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	verifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		return nil, fmt.Errorf("create JWT verifier: %w", err)
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		_ = verifier.Close()
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	logger.Info("database connected", "table_prefix", cfg.TablePrefix)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	txManager := postgres.NewTransactionManager(pool, logger)

	return &backend{
		store:    postgresCatalog.NewStore(repoConfig, txManager),
		profiles: postgres.NewProfileRepository(repoConfig),
		provider: auth.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, logger),
		verifier: verifier,
		close: func() {
			pool.Close()
			_ = verifier.Close()
		},
	}, nil
}

// newMemoryBackend keeps everything in process, optionally with the demo
// catalog and a local admin account.
func newMemoryBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	provider, err := auth.NewLocalProvider(logger)
	if err != nil {
		return nil, err
	}
	store := memory.NewStore(logger)
	profiles := memory.NewProfileRepository()

	if cfg.SeedDemo {
		fixture, err := seed.DemoFixture()
		if err != nil {
			return nil, err
		}
		if err := seed.Apply(ctx, store, fixture, logger); err != nil {
			return nil, fmt.Errorf("seed demo catalog: %w", err)
		}
	}

	if cfg.DevAdminEmail != "" {
		user, err := provider.CreateUser(cfg.DevAdminEmail, cfg.DevAdminPassword)
		if err != nil {
			return nil, fmt.Errorf("create dev admin: %w", err)
		}
		err = profiles.Upsert(ctx, &models.Profile{
			UserID:      user.ID,
			Name:        "Admin",
			DisplayName: "Admin",
			Role:        models.RoleAdmin,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev admin profile: %w", err)
		}
		logger.Warn("dev admin account created", "email", cfg.DevAdminEmail)
	}

	verifier := auth.NewStaticJWTVerifier(provider.Keyfunc, logger)
	return &backend{
		store:    store,
		profiles: profiles,
		provider: provider,
		verifier: verifier,
		close:    func() { _ = verifier.Close() },
	}, nil
}
