package seed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/angermaster11/eduhub/internal/repository/postgres"
)

// Schema creates, clears and drops the catalog tables for one prefix
type Schema struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	prefix string
	logger *slog.Logger
}

// NewSchema creates a schema helper for the prefixed tables
func NewSchema(pool *pgxpool.Pool, tables *postgres.TableNames, prefix string, logger *slog.Logger) *Schema {
	return &Schema{
		pool:   pool,
		tables: tables,
		prefix: prefix,
		logger: logger,
	}
}

// Statements returns the DDL in execution order. Foreign keys cascade,
// although the store deletes children explicitly.
func (s *Schema) Statements() []string {
	t := s.tables
	return []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,

		`CREATE TABLE IF NOT EXISTS ` + t.Courses + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title TEXT NOT NULL CHECK (btrim(title) <> ''),
			description TEXT,
			tag TEXT,
			image TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Batches + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			course_id UUID NOT NULL REFERENCES ` + t.Courses + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL CHECK (btrim(title) <> ''),
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Chapters + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			batch_id UUID NOT NULL REFERENCES ` + t.Batches + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL CHECK (btrim(title) <> ''),
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Contents + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			chapter_id UUID NOT NULL REFERENCES ` + t.Chapters + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL CHECK (btrim(title) <> ''),
			type TEXT NOT NULL DEFAULT 'video' CHECK (type IN ('video', 'pdf', 'audio', 'document')),
			file_url TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Profiles + ` (
			user_id UUID PRIMARY KEY,
			name TEXT,
			gender TEXT,
			dob DATE,
			phone TEXT,
			role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
			display_name TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_` + s.prefix + `batches_course ON ` + t.Batches + `(course_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + s.prefix + `chapters_batch ON ` + t.Chapters + `(batch_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + s.prefix + `contents_chapter ON ` + t.Contents + `(chapter_id, created_at)`,
	}
}

// Ensure creates missing tables and indexes
func (s *Schema) Ensure(ctx context.Context) error {
	for _, stmt := range s.Statements() {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("run schema: %w", err)
		}
	}
	s.logger.Info("schema ready", "prefix", s.prefix)
	return nil
}

// Drop removes every table, children first
func (s *Schema) Drop(ctx context.Context) error {
	tables := s.tables.All()
	slices.Reverse(tables)

	for _, table := range tables {
		if _, err := s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
		s.logger.Info("dropped table", "table", table)
	}
	return nil
}

// ClearCatalog deletes every catalog row and keeps profiles
func (s *Schema) ClearCatalog(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "TRUNCATE "+s.tables.Contents+", "+s.tables.Chapters+", "+s.tables.Batches+", "+s.tables.Courses)
	if err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	return nil
}
