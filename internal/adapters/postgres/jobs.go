package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"rollcall/internal/domain"
)

const jobColumns = `id, format, status, progress, result_path, error, attempts, queued_at, started_at, finished_at`

func scanJob(row pgx.Row) (domain.ExportJob, error) {
	var job domain.ExportJob
	err := row.Scan(&job.ID, &job.Format, &job.Status, &job.Progress, &job.ResultPath,
		&job.Error, &job.Attempts, &job.QueuedAt, &job.StartedAt, &job.FinishedAt)
	return job, err
}

func (db *DB) Enqueue(ctx context.Context, format domain.ExportFormat) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `INSERT INTO export_jobs (format) VALUES ($1) RETURNING id`, format).Scan(&id)
	return id, err
}

func (db *DB) Get(ctx context.Context, id int64) (domain.ExportJob, error) {
	job, err := scanJob(db.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM export_jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return job, domain.ErrNotFound
	}
	return job, err
}

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job domain.ExportJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var id int64
	err = tx.QueryRow(ctx, `
		SELECT id FROM export_jobs
		WHERE status = 'queued'
		ORDER BY queued_at, id
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}

	job, err = scanJob(tx.QueryRow(ctx, `
		UPDATE export_jobs SET status = 'running', started_at = now(), attempts = attempts + 1
		WHERE id = $1
		RETURNING `+jobColumns, id))
	if err != nil {
		return job, false, err
	}
	return job, true, nil
}

// StartJob marks one specific queued job running.
func (db *DB) StartJob(ctx context.Context, id int64) (job domain.ExportJob, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var status domain.JobStatus
	err = tx.QueryRow(ctx, `SELECT status FROM export_jobs WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, domain.ErrNotFound
	}
	if err != nil {
		return job, err
	}
	if status != domain.JobQueued {
		return job, fmt.Errorf("job %d is %s: %w", id, status, domain.ErrNotQueued)
	}

	return scanJob(tx.QueryRow(ctx, `
		UPDATE export_jobs SET status = 'running', started_at = now(), attempts = attempts + 1
		WHERE id = $1
		RETURNING `+jobColumns, id))
}

func (db *DB) UpdateProgress(ctx context.Context, id int64, progress float64) error {
	return db.exec(ctx, `UPDATE export_jobs SET progress = $2 WHERE id = $1`, id, domain.ClampProgress(progress))
}

func (db *DB) MarkCompleted(ctx context.Context, id int64, resultPath string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.exec(ctx, `
		UPDATE export_jobs SET status = 'completed', progress = 1, result_path = $2, finished_at = now()
		WHERE id = $1
	`, id, resultPath)
}

func (db *DB) MarkFailed(ctx context.Context, id int64, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.exec(ctx, `
		UPDATE export_jobs SET status = 'failed', error = $2, finished_at = now()
		WHERE id = $1
	`, id, reason)
}

func (db *DB) exec(ctx context.Context, sql string, id int64, args ...any) error {
	tag, err := db.Pool.Exec(ctx, sql, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
