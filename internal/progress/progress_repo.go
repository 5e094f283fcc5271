package progress

import (
	"context"
	"database/sql"
	"time"

	"go-wages/internal/wage"
)

//go:generate mockgen -source=progress_repo.go -destination=mock/progress_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Start(ctx context.Context, row UploadProgress) error
	Advance(ctx context.Context, p wage.Partition, jobID string, uploaded int, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, p wage.Partition, jobID string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, p wage.Partition, jobID string, reason string, at time.Time) (bool, error)
	FindByPartition(ctx context.Context, p wage.Partition) (UploadProgress, error)
	FindByLocation(ctx context.Context, location string) ([]UploadProgress, error)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) q() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Start claims the partition row for row.JobID, resetting counts and any
// previous error. A row owned by another job is taken over unconditionally.
func (r *repository) Start(ctx context.Context, row UploadProgress) error {
	query := `
INSERT INTO upload_progress (
	location, year, job_id, status, total_records, uploaded_records,
	error_message, started_at, completed_at, updated_at
) VALUES ($1, $2, $3, $4, $5, 0, NULL, $6, NULL, $6)
ON CONFLICT (location, year) DO UPDATE SET
	job_id = EXCLUDED.job_id,
	status = EXCLUDED.status,
	total_records = EXCLUDED.total_records,
	uploaded_records = 0,
	error_message = NULL,
	started_at = EXCLUDED.started_at,
	completed_at = NULL,
	updated_at = EXCLUDED.updated_at
`
	_, err := r.q().ExecContext(ctx, query,
		row.Location, row.Year, row.JobID, row.Status, row.TotalRecords, row.StartedAt,
	)
	return err
}

// Advance never lowers uploaded_records and never raises it past
// total_records. It reports false when jobID no longer owns the row.
func (r *repository) Advance(ctx context.Context, p wage.Partition, jobID string, uploaded int, at time.Time) (bool, error) {
	query := `
UPDATE upload_progress
SET
	uploaded_records = GREATEST(uploaded_records, LEAST($4, total_records)),
	updated_at = $5
WHERE location = $1 AND year = $2 AND job_id = $3 AND status = $6
`
	return r.execOwned(ctx, query, p.Location, p.Year, jobID, uploaded, at, StatusProcessing)
}

func (r *repository) MarkCompleted(ctx context.Context, p wage.Partition, jobID string, at time.Time) (bool, error) {
	query := `
UPDATE upload_progress
SET
	status = $4,
	uploaded_records = total_records,
	completed_at = $5,
	updated_at = $5
WHERE location = $1 AND year = $2 AND job_id = $3 AND status = $6
`
	return r.execOwned(ctx, query, p.Location, p.Year, jobID, StatusCompleted, at, StatusProcessing)
}

func (r *repository) MarkFailed(ctx context.Context, p wage.Partition, jobID string, reason string, at time.Time) (bool, error) {
	query := `
UPDATE upload_progress
SET
	status = $4,
	error_message = LEFT($5, 1000),
	updated_at = $6
WHERE location = $1 AND year = $2 AND job_id = $3 AND status = $7
`
	return r.execOwned(ctx, query, p.Location, p.Year, jobID, StatusFailed, reason, at, StatusProcessing)
}

func (r *repository) execOwned(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.q().ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const selectProgress = `
SELECT
	location,
	year,
	job_id,
	status,
	total_records,
	uploaded_records,
	COALESCE(error_message, ''),
	started_at,
	completed_at,
	updated_at
FROM upload_progress
`

func (r *repository) FindByPartition(ctx context.Context, p wage.Partition) (UploadProgress, error) {
	row := r.q().QueryRowContext(ctx, selectProgress+"WHERE location = $1 AND year = $2", p.Location, p.Year)
	return scanProgress(row)
}

func (r *repository) FindByLocation(ctx context.Context, location string) ([]UploadProgress, error) {
	rows, err := r.q().QueryContext(ctx, selectProgress+"WHERE location = $1 ORDER BY year DESC", location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UploadProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(s scanner) (UploadProgress, error) {
	var (
		p           UploadProgress
		completedAt sql.NullTime
	)
	if err := s.Scan(
		&p.Location,
		&p.Year,
		&p.JobID,
		&p.Status,
		&p.TotalRecords,
		&p.UploadedRecords,
		&p.ErrorMessage,
		&p.StartedAt,
		&completedAt,
		&p.UpdatedAt,
	); err != nil {
		return UploadProgress{}, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return p, nil
}
