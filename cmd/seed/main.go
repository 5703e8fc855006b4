package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/angermaster11/eduhub/internal/auth"
	"github.com/angermaster11/eduhub/internal/config"
	"github.com/angermaster11/eduhub/internal/domain/models"
	"github.com/angermaster11/eduhub/internal/repository/postgres"
	postgresCatalog "github.com/angermaster11/eduhub/internal/repository/postgres/catalog"
	"github.com/angermaster11/eduhub/internal/seed"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed the catalog")
	clearData := flag.Bool("clear-data", false, "Clear all catalog rows (keep schema and profiles)")
	fixturePath := flag.String("fixture", "", "YAML catalog to load instead of the embedded demo")
	adminEmail := flag.String("admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "Create or promote this auth user to admin")
	adminPassword := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "Password for a newly created admin")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	switch {
	case *clearData:
		log.Printf("Clearing catalog only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	case *schemaOnly:
		log.Printf("Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	default:
		log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	schema := seed.NewSchema(pool, tables, cfg.TablePrefix, logger)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := schema.Drop(ctx); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := schema.Ensure(ctx); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	log.Println("Clearing existing catalog...")
	if err := schema.ClearCatalog(ctx); err != nil {
		log.Fatalf("Failed to clear catalog: %v", err)
	}
	if *clearData {
		log.Println("Catalog cleared")
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	store := postgresCatalog.NewStore(repoConfig, postgres.NewTransactionManager(pool, logger))

	counts := fixture.Counts()
	log.Printf("Seeding %d courses, %d batches, %d chapters, %d contents",
		counts.Courses, counts.Batches, counts.Chapters, counts.Contents)
	if err := seed.Apply(ctx, store, fixture, logger); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	if *adminEmail != "" {
		if err := ensureAdmin(ctx, cfg, repoConfig, *adminEmail, *adminPassword); err != nil {
			log.Fatalf("Failed to create admin: %v", err)
		}
		log.Printf("Admin ready: %s", *adminEmail)
	}

	log.Println("Seeding complete!")
}

func loadFixture(path string) (*seed.Fixture, error) {
	if path == "" {
		return seed.DemoFixture()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seed.ParseFixture(data)
}

// ensureAdmin creates the auth user through the GoTrue admin API (reusing
// an existing account) and writes an admin profile for it.
func ensureAdmin(ctx context.Context, cfg *config.Config, repoConfig *postgres.RepositoryConfig, email, password string) error {
	if cfg.SupabaseServiceKey == "" {
		return errors.New("SUPABASE_SERVICE_KEY is required to create an admin")
	}
	admin := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)

	userID, err := admin.CreateUser(ctx, email, password, auth.SignUpMetadata{Name: "Admin", DisplayName: "Admin"})
	if err != nil {
		return err
	}

	profiles := postgres.NewProfileRepository(repoConfig)
	profile, err := profiles.GetByUserID(ctx, userID)
	if err != nil {
		profile = &models.Profile{UserID: userID, Name: "Admin", DisplayName: "Admin"}
	}
	profile.Role = models.RoleAdmin
	return profiles.Upsert(ctx, profile)
}
