package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	dbURL := os.Getenv("SUPABASE_DB_URL")
	if dbURL == "" {
		log.Fatal("SUPABASE_DB_URL environment variable is required")
	}

	// Read environment to determine table prefix
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev" // Default to dev
	}
	if env == "prod" {
		log.Fatal("Refusing to drop production tables")
	}

	prefix, ok := os.LookupEnv("TABLE_PREFIX")
	if !ok {
		prefix = env + "_"
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	// Children first; CASCADE covers anything left behind
	dropSQL := fmt.Sprintf(`
		DROP TABLE IF EXISTS %[1]schapter_contents CASCADE;
		DROP TABLE IF EXISTS %[1]schapters CASCADE;
		DROP TABLE IF EXISTS %[1]sbatches CASCADE;
		DROP TABLE IF EXISTS %[1]scourses CASCADE;
		DROP TABLE IF EXISTS %[1]sprofiles CASCADE;
	`, prefix)

	if _, err := db.Exec(dropSQL); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	fmt.Printf("All tables dropped successfully (prefix: %s)\n", prefix)
}
