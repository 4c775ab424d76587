package pipeline

import (
	"context"
	"database/sql"
)

// Repository handles database operations for ingest tracking
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new ingest run repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a run and sets its ID.
func (r *Repository) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO ingest_runs (
			snapshot_date, status, total_files,
			processed_files, total_rows, started_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.db.QueryRowContext(
		ctx, query,
		run.Date, run.Status, run.TotalFiles,
		run.ProcessedFiles, run.TotalRows, run.StartedAt,
	).Scan(&run.ID)
}

// UpdateRun updates an existing run
func (r *Repository) UpdateRun(ctx context.Context, run *Run) error {
	query := `
		UPDATE ingest_runs
		SET status = $1, processed_files = $2, total_rows = $3,
		    completed_at = $4, error_message = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.ProcessedFiles, run.TotalRows,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)
	return err
}

// CreateFileJob creates a new file job record
func (r *Repository) CreateFileJob(ctx context.Context, job *FileJob) error {
	query := `
		INSERT INTO ingest_file_jobs (run_id, file_path, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query, job.RunID, job.FilePath, job.Status).Scan(&job.ID)
}

// UpdateFileJob updates a file job record
func (r *Repository) UpdateFileJob(ctx context.Context, job *FileJob) error {
	query := `
		UPDATE ingest_file_jobs
		SET status = $1, row_count = $2, error_message = $3,
		    processed_at = $4, retry_count = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(
		ctx, query,
		job.Status, job.Rows, job.ErrorMessage,
		job.ProcessedAt, job.RetryCount, job.ID,
	)
	return err
}
