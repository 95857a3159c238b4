package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/allezgo/internal/models"
)

// SyncRunRepository persists [models.SyncRun] history rows.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new [SyncRunRepository] with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Record inserts a finished run.
func (r *SyncRunRepository) Record(ctx context.Context, run models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (id, started_at, finished_at, num_days, error, result_count, created_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.NumDays, run.Error, run.ResultCount, run.CreatedCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *SyncRunRepository) Get(ctx context.Context, id string) (*models.SyncRun, error) {
	query := `
		SELECT id, started_at, finished_at, num_days, error, result_count, created_count
		FROM sync_runs
		WHERE id = ?
	`

	run, err := scanSyncRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sync run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first. A non-positive limit returns every row.
func (r *SyncRunRepository) List(ctx context.Context, limit int) ([]models.SyncRun, error) {
	query := `
		SELECT id, started_at, finished_at, num_days, error, result_count, created_count
		FROM sync_runs
		ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	runs := []models.SyncRun{}
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}

	return runs, nil
}

// Prune deletes runs started before cutoff and returns how many were removed.
func (r *SyncRunRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sync_runs WHERE started_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync runs: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSyncRun(row rowScanner) (*models.SyncRun, error) {
	var run models.SyncRun
	err := row.Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt, &run.NumDays, &run.Error, &run.ResultCount, &run.CreatedCount,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
