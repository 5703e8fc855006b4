package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/angermaster11/eduhub/internal/domain"
	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
	"github.com/angermaster11/eduhub/internal/domain/repositories"
	catalogRepo "github.com/angermaster11/eduhub/internal/domain/repositories/catalog"
	"github.com/angermaster11/eduhub/internal/repository/postgres"
)

// PostgresStore implements the catalog Store against the hosted database
type PostgresStore struct {
	pool      *pgxpool.Pool
	tables    *postgres.TableNames
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewStore creates a new catalog store
func NewStore(config *postgres.RepositoryConfig, txManager repositories.TransactionManager) catalogRepo.Store {
	return &PostgresStore{
		pool:      config.Pool,
		tables:    config.Tables,
		txManager: txManager,
		logger:    config.Logger,
	}
}

// FetchAllCourses loads the four levels in one transaction and nests them
func (s *PostgresStore) FetchAllCourses(ctx context.Context) ([]models.Course, error) {
	var tree []models.Course

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		courses, err := queryRows[models.Course](ctx, s.pool, s.courseSelect()+`
			ORDER BY created_at DESC, id`)
		if err != nil {
			return fmt.Errorf("courses: %w", err)
		}

		batches, err := queryRows[models.Batch](ctx, s.pool, s.batchSelect("")+`
			ORDER BY b.created_at, b.id`)
		if err != nil {
			return fmt.Errorf("batches: %w", err)
		}

		chapters, err := queryRows[models.Chapter](ctx, s.pool, s.chapterSelect("")+`
			ORDER BY ch.created_at, ch.id`)
		if err != nil {
			return fmt.Errorf("chapters: %w", err)
		}

		contents, err := queryRows[models.Content](ctx, s.pool, s.contentSelect("")+`
			ORDER BY cc.created_at, cc.id`)
		if err != nil {
			return fmt.Errorf("chapter contents: %w", err)
		}

		var orphans int
		tree, orphans = models.BuildTree(courses, batches, chapters, contents)
		if orphans > 0 {
			s.logger.Warn("dropped catalog rows without a parent", "count", orphans)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.StoreError{Op: "fetch courses", Cause: err}
	}

	return tree, nil
}

// FetchCourse loads one course and its descendants
func (s *PostgresStore) FetchCourse(ctx context.Context, id string) (*models.Course, error) {
	var course *models.Course

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		courses, err := queryRows[models.Course](ctx, s.pool, s.courseSelect()+`
			WHERE id::text = $1`, id)
		if err != nil {
			return fmt.Errorf("course: %w", err)
		}
		if len(courses) == 0 {
			return fmt.Errorf("course %s: %w", id, domain.ErrNotFound)
		}

		batches, err := queryRows[models.Batch](ctx, s.pool, s.batchSelect("")+`
			WHERE b.course_id::text = $1
			ORDER BY b.created_at, b.id`, id)
		if err != nil {
			return fmt.Errorf("batches: %w", err)
		}

		chapters, err := queryRows[models.Chapter](ctx, s.pool, s.chapterSelect(
			fmt.Sprintf("JOIN %s b ON b.id = ch.batch_id", s.tables.Batches))+`
			WHERE b.course_id::text = $1
			ORDER BY ch.created_at, ch.id`, id)
		if err != nil {
			return fmt.Errorf("chapters: %w", err)
		}

		contents, err := queryRows[models.Content](ctx, s.pool, s.contentSelect(
			fmt.Sprintf("JOIN %s ch ON ch.id = cc.chapter_id JOIN %s b ON b.id = ch.batch_id",
				s.tables.Chapters, s.tables.Batches))+`
			WHERE b.course_id::text = $1
			ORDER BY cc.created_at, cc.id`, id)
		if err != nil {
			return fmt.Errorf("chapter contents: %w", err)
		}

		tree, _ := models.BuildTree(courses, batches, chapters, contents)
		course = &tree[0]
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, &domain.StoreError{Op: "fetch course", Cause: err}
	}

	return course, nil
}

// InsertCourse appends one course row
func (s *PostgresStore) InsertCourse(ctx context.Context, fields catalogRepo.CourseFields) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (title, description, tag, image)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`, s.tables.Courses)

	return s.insert(ctx, models.KindCourse, "", query,
		fields.Title, fields.Description, fields.Tag, fields.Image)
}

// InsertBatch appends one batch row under a course
func (s *PostgresStore) InsertBatch(ctx context.Context, courseID string, fields catalogRepo.BatchFields) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (course_id, title, description)
		VALUES ($1, $2, $3)
	`, s.tables.Batches)

	return s.insert(ctx, models.KindBatch, courseID, query,
		courseID, fields.Title, fields.Description)
}

// InsertChapter appends one chapter row under a batch
func (s *PostgresStore) InsertChapter(ctx context.Context, batchID string, fields catalogRepo.ChapterFields) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (batch_id, title, description)
		VALUES ($1, $2, $3)
	`, s.tables.Chapters)

	return s.insert(ctx, models.KindChapter, batchID, query,
		batchID, fields.Title, fields.Description)
}

// InsertContent appends one content row under a chapter
func (s *PostgresStore) InsertContent(ctx context.Context, chapterID string, fields catalogRepo.ContentFields) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (chapter_id, title, type, file_url)
		VALUES ($1, $2, $3, $4)
	`, s.tables.Contents)

	return s.insert(ctx, models.KindContent, chapterID, query,
		chapterID, fields.Title, string(fields.Type), fields.FileURL)
}

func (s *PostgresStore) insert(ctx context.Context, kind models.Kind, parentID, query string, args ...interface{}) error {
	executor := postgres.GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, args...); err != nil {
		if postgres.IsPgForeignKeyError(err) || postgres.IsPgInvalidInputError(err) {
			return fmt.Errorf("%s %s: %w", kind.Parent().Singular(), parentID, domain.ErrNotFound)
		}
		return &domain.StoreError{Op: "insert " + kind.Singular(), Cause: err}
	}
	return nil
}

// UpdateCourse overwrites a course's writable columns
func (s *PostgresStore) UpdateCourse(ctx context.Context, id string, fields catalogRepo.CourseFields) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, description = $2, tag = $3, image = NULLIF($4, '')
		WHERE id::text = $5
	`, s.tables.Courses)

	return s.update(ctx, models.KindCourse, id, query,
		fields.Title, fields.Description, fields.Tag, fields.Image, id)
}

// UpdateBatch overwrites a batch's writable columns
func (s *PostgresStore) UpdateBatch(ctx context.Context, id string, fields catalogRepo.BatchFields) error {
	query := fmt.Sprintf(`
		UPDATE %s SET title = $1, description = $2 WHERE id::text = $3
	`, s.tables.Batches)

	return s.update(ctx, models.KindBatch, id, query, fields.Title, fields.Description, id)
}

// UpdateChapter overwrites a chapter's writable columns
func (s *PostgresStore) UpdateChapter(ctx context.Context, id string, fields catalogRepo.ChapterFields) error {
	query := fmt.Sprintf(`
		UPDATE %s SET title = $1, description = $2 WHERE id::text = $3
	`, s.tables.Chapters)

	return s.update(ctx, models.KindChapter, id, query, fields.Title, fields.Description, id)
}

// UpdateContent overwrites a content row's writable columns
func (s *PostgresStore) UpdateContent(ctx context.Context, id string, fields catalogRepo.ContentFields) error {
	query := fmt.Sprintf(`
		UPDATE %s SET title = $1, type = $2, file_url = $3 WHERE id::text = $4
	`, s.tables.Contents)

	return s.update(ctx, models.KindContent, id, query,
		fields.Title, string(fields.Type), fields.FileURL, id)
}

func (s *PostgresStore) update(ctx context.Context, kind models.Kind, id, query string, args ...interface{}) error {
	executor := postgres.GetExecutor(ctx, s.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		return &domain.StoreError{Op: "update " + kind.Singular(), Cause: err}
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind.Singular(), id, domain.ErrNotFound)
	}
	return nil
}

// Exists reports whether a row of the given kind is present
func (s *PostgresStore) Exists(ctx context.Context, kind models.Kind, id string) (bool, error) {
	table, err := s.tableFor(kind)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id::text = $1)`, table)

	var exists bool
	executor := postgres.GetExecutor(ctx, s.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, &domain.StoreError{Op: "check " + kind.Singular(), Cause: err}
	}
	return exists, nil
}

// Delete removes a row and its descendants deepest-first in one
// transaction. The schema also declares ON DELETE CASCADE; deleting
// explicitly keeps the contract independent of that setting.
func (s *PostgresStore) Delete(ctx context.Context, kind models.Kind, id string) error {
	statements, err := s.deleteStatements(kind)
	if err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		executor := postgres.GetExecutor(ctx, s.pool)

		// Descendants first; the last statement removes the row itself
		for i, stmt := range statements {
			result, err := executor.Exec(ctx, stmt, id)
			if err != nil {
				return err
			}
			if i == len(statements)-1 && result.RowsAffected() == 0 {
				return fmt.Errorf("%s %s: %w", kind.Singular(), id, domain.ErrNotFound)
			}
		}
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return err
		}
		return &domain.StoreError{Op: "delete " + kind.Singular(), Cause: err}
	}

	s.logger.Debug("catalog row deleted", "kind", kind, "id", id, "statements", len(statements))
	return nil
}

// deleteStatements returns the cascade for a kind, each taking the id as $1
func (s *PostgresStore) deleteStatements(kind models.Kind) ([]string, error) {
	t := s.tables

	contentsOfChapter := fmt.Sprintf(`DELETE FROM %s WHERE chapter_id::text = $1`, t.Contents)
	contentsOfBatch := fmt.Sprintf(`DELETE FROM %s WHERE chapter_id IN (
		SELECT id FROM %s WHERE batch_id::text = $1)`, t.Contents, t.Chapters)
	contentsOfCourse := fmt.Sprintf(`DELETE FROM %s WHERE chapter_id IN (
		SELECT ch.id FROM %s ch JOIN %s b ON b.id = ch.batch_id WHERE b.course_id::text = $1)`,
		t.Contents, t.Chapters, t.Batches)
	chaptersOfBatch := fmt.Sprintf(`DELETE FROM %s WHERE batch_id::text = $1`, t.Chapters)
	chaptersOfCourse := fmt.Sprintf(`DELETE FROM %s WHERE batch_id IN (
		SELECT id FROM %s WHERE course_id::text = $1)`, t.Chapters, t.Batches)
	batchesOfCourse := fmt.Sprintf(`DELETE FROM %s WHERE course_id::text = $1`, t.Batches)

	self := func(table string) string {
		return fmt.Sprintf(`DELETE FROM %s WHERE id::text = $1`, table)
	}

	switch kind {
	case models.KindCourse:
		return []string{contentsOfCourse, chaptersOfCourse, batchesOfCourse, self(t.Courses)}, nil
	case models.KindBatch:
		return []string{contentsOfBatch, chaptersOfBatch, self(t.Batches)}, nil
	case models.KindChapter:
		return []string{contentsOfChapter, self(t.Chapters)}, nil
	case models.KindContent:
		return []string{self(t.Contents)}, nil
	}
	return nil, fmt.Errorf("%w: unknown catalog kind %q", domain.ErrValidation, kind)
}

func (s *PostgresStore) tableFor(kind models.Kind) (string, error) {
	switch kind {
	case models.KindCourse:
		return s.tables.Courses, nil
	case models.KindBatch:
		return s.tables.Batches, nil
	case models.KindChapter:
		return s.tables.Chapters, nil
	case models.KindContent:
		return s.tables.Contents, nil
	}
	return "", fmt.Errorf("%w: unknown catalog kind %q", domain.ErrValidation, kind)
}

func (s *PostgresStore) courseSelect() string {
	return fmt.Sprintf(`
		SELECT id::text AS id, title,
			COALESCE(description, '') AS description,
			COALESCE(tag, '') AS tag,
			COALESCE(image, '') AS image,
			created_at
		FROM %s`, s.tables.Courses)
}

func (s *PostgresStore) batchSelect(join string) string {
	return fmt.Sprintf(`
		SELECT b.id::text AS id, b.course_id::text AS course_id, b.title,
			COALESCE(b.description, '') AS description, b.created_at
		FROM %s b %s`, s.tables.Batches, join)
}

func (s *PostgresStore) chapterSelect(join string) string {
	return fmt.Sprintf(`
		SELECT ch.id::text AS id, ch.batch_id::text AS batch_id, ch.title,
			COALESCE(ch.description, '') AS description, ch.created_at
		FROM %s ch %s`, s.tables.Chapters, join)
}

func (s *PostgresStore) contentSelect(join string) string {
	return fmt.Sprintf(`
		SELECT cc.id::text AS id, cc.chapter_id::text AS chapter_id, cc.title,
			cc.type, cc.file_url, cc.created_at
		FROM %s cc %s`, s.tables.Contents, join)
}

// queryRows runs a query on the context's executor and collects rows by
// column name into T
func queryRows[T any](ctx context.Context, pool *pgxpool.Pool, query string, args ...interface{}) ([]T, error) {
	executor := postgres.GetExecutor(ctx, pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
