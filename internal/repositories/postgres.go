package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipforge/backend/internal/db"
	"github.com/clipforge/backend/internal/models"
	"github.com/clipforge/backend/internal/projects"
)

const projectColumns = `
        id, owner_id, title, status, media_folder_ref,
        submitted_to_editor_at, last_revision_requested_at, revision_count,
        created_at, updated_at`

// PostgresProjectRepository provides PostgreSQL-backed persistence for
// projects and their status-change log.
type PostgresProjectRepository struct {
	pool db.Pool
}

// NewPostgresProjectRepository constructs a project repository backed by PostgreSQL.
func NewPostgresProjectRepository(pool db.Pool) *PostgresProjectRepository {
	return &PostgresProjectRepository{pool: pool}
}

// Create persists a new project record.
func (r *PostgresProjectRepository) Create(ctx context.Context, project models.Project) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO projects (id, owner_id, title, status, media_folder_ref,
                submitted_to_editor_at, last_revision_requested_at, revision_count,
                created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, project.ID, project.OwnerID, project.Title, project.Status, project.MediaFolderRef,
		nullableTime(project.SubmittedToEditorAt), nullableTime(project.LastRevisionRequestedAt),
		project.RevisionCount, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert project: %w", err)
	}

	return nil
}

// Get fetches a project by its identifier.
func (r *PostgresProjectRepository) Get(ctx context.Context, id string) (models.Project, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Project{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT`+projectColumns+` FROM projects WHERE id = $1`, id)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, fmt.Errorf("select project: %w", err)
	}

	return project, nil
}

// ListAwaitingDelivery returns every project the reconciliation sweep should
// inspect, oldest first.
func (r *PostgresProjectRepository) ListAwaitingDelivery(ctx context.Context) ([]models.Project, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT`+projectColumns+`
        FROM projects
        WHERE status = $1 OR status = $2
        ORDER BY created_at
    `, models.StatusEditInProgress, models.StatusRevisionInProgress)
	if err != nil {
		return nil, fmt.Errorf("query awaiting projects: %w", err)
	}
	defer rows.Close()

	var result []models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		result = append(result, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate awaiting projects: %w", err)
	}

	return result, nil
}

// Transition atomically moves a project to a new status and appends the
// corresponding status-change log row. Both writes happen in one transaction;
// there is never a status change without its audit row. The current status is
// locked for the duration so concurrent writers are serialized per project.
func (r *PostgresProjectRepository) Transition(ctx context.Context, id string, to models.ProjectStatus, stamp projects.TransitionStamp) (models.Project, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Project{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Project{}, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var from models.ProjectStatus
	if err := tx.QueryRow(ctx, `SELECT status FROM projects WHERE id = $1 FOR UPDATE`, id).Scan(&from); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, fmt.Errorf("lock project: %w", err)
	}

	if err := projects.ValidateTransition(from, to); err != nil {
		return models.Project{}, err
	}

	changedAt := time.Now().UTC()

	row := tx.QueryRow(ctx, `
        UPDATE projects
        SET status = $2,
            submitted_to_editor_at = COALESCE($3, submitted_to_editor_at),
            last_revision_requested_at = COALESCE($4, last_revision_requested_at),
            revision_count = revision_count + $5,
            updated_at = $6
        WHERE id = $1
        RETURNING`+projectColumns+`
    `, id, to, nullableTime(stamp.SubmittedToEditorAt), nullableTime(stamp.RevisionRequestedAt),
		boolToInt(stamp.IncrementRevision), changedAt)

	project, err := scanProject(row)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project status: %w", err)
	}

	if _, err := tx.Exec(ctx, `
        INSERT INTO status_changes (id, project_id, from_status, to_status, changed_at)
        VALUES ($1, $2, $3, $4, $5)
    `, uuid.NewString(), id, from, to, changedAt); err != nil {
		return models.Project{}, fmt.Errorf("append status change: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Project{}, fmt.Errorf("commit transition: %w", err)
	}

	return project, nil
}

// LatestRevisionCutoff returns the changed_at of the most recent transition
// into revision_in_progress, which is the cutoff for the current revision
// cycle. ErrNotFound means no such entry exists and the caller must fail
// closed.
func (r *PostgresProjectRepository) LatestRevisionCutoff(ctx context.Context, projectID string) (time.Time, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var changedAt time.Time
	err = conn.QueryRow(ctx, `
        SELECT changed_at
        FROM status_changes
        WHERE project_id = $1 AND to_status = $2
        ORDER BY changed_at DESC
        LIMIT 1
    `, projectID, models.StatusRevisionInProgress).Scan(&changedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("select revision cutoff: %w", err)
	}

	return changedAt.UTC(), nil
}

// StatusHistory returns a project's transition log, oldest first.
func (r *PostgresProjectRepository) StatusHistory(ctx context.Context, projectID string) ([]models.StatusChange, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, project_id, from_status, to_status, changed_at
        FROM status_changes
        WHERE project_id = $1
        ORDER BY changed_at
    `, projectID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var history []models.StatusChange
	for rows.Next() {
		var change models.StatusChange
		if err := rows.Scan(&change.ID, &change.ProjectID, &change.FromStatus, &change.ToStatus, &change.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		change.ChangedAt = change.ChangedAt.UTC()
		history = append(history, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}

	return history, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (models.Project, error) {
	var (
		project     models.Project
		submittedAt sql.NullTime
		revisionAt  sql.NullTime
	)

	if err := row.Scan(&project.ID, &project.OwnerID, &project.Title, &project.Status,
		&project.MediaFolderRef, &submittedAt, &revisionAt, &project.RevisionCount,
		&project.CreatedAt, &project.UpdatedAt); err != nil {
		return models.Project{}, err
	}

	if submittedAt.Valid {
		t := submittedAt.Time.UTC()
		project.SubmittedToEditorAt = &t
	}
	if revisionAt.Valid {
		t := revisionAt.Time.UTC()
		project.LastRevisionRequestedAt = &t
	}

	return project, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Valid: true, Time: t.UTC()}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ProjectRepository = (*PostgresProjectRepository)(nil)
var _ projects.Store = (*PostgresProjectRepository)(nil)
