package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/seedsweep/internal/database"
	apperrors "github.com/allisson/seedsweep/internal/errors"
	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
)

// PostgreSQLRunRepository implements per-seed Run persistence for PostgreSQL.
type PostgreSQLRunRepository struct {
	db *sql.DB
}

// Create inserts a new Run journal entry.
func (p *PostgreSQLRunRepository) Create(ctx context.Context, run *sweepDomain.Run) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO runs (id, sweep_id, seed, output_dir, status, exit_code, attempts,
			  output_tail, started_at, finished_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := querier.ExecContext(
		ctx,
		query,
		run.ID,
		run.SweepID,
		run.Seed,
		run.OutputDir,
		string(run.Status),
		run.ExitCode,
		run.Attempts,
		run.OutputTail,
		run.StartedAt,
		run.FinishedAt,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create run")
	}

	return nil
}

// Update persists the current state of a run.
func (p *PostgreSQLRunRepository) Update(ctx context.Context, run *sweepDomain.Run) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE runs SET status = $1, exit_code = $2, attempts = $3, output_tail = $4,
			  started_at = $5, finished_at = $6, updated_at = $7 WHERE id = $8`

	result, err := querier.ExecContext(
		ctx,
		query,
		string(run.Status),
		run.ExitCode,
		run.Attempts,
		run.OutputTail,
		run.StartedAt,
		run.FinishedAt,
		run.UpdatedAt,
		run.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update run")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check run update")
	}
	if affected == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "run not found")
	}

	return nil
}

// ListBySweep retrieves a sweep's runs ordered by seed ascending.
func (p *PostgreSQLRunRepository) ListBySweep(
	ctx context.Context,
	sweepID uuid.UUID,
	offset, limit int,
) ([]*sweepDomain.Run, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, sweep_id, seed, output_dir, status, exit_code, attempts,
			  output_tail, started_at, finished_at, created_at, updated_at
			  FROM runs WHERE sweep_id = $1 ORDER BY seed ASC LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, sweepID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list runs")
	}
	defer func() {
		_ = rows.Close()
	}()

	runs := make([]*sweepDomain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan run")
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate runs")
	}

	return runs, nil
}

func scanRun(row rowScanner) (*sweepDomain.Run, error) {
	var run sweepDomain.Run
	var status string
	var exitCode sql.NullInt64
	var startedAt, finishedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.SweepID,
		&run.Seed,
		&run.OutputDir,
		&status,
		&exitCode,
		&run.Attempts,
		&run.OutputTail,
		&startedAt,
		&finishedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Status = sweepDomain.RunStatus(status)
	if exitCode.Valid {
		code := int(exitCode.Int64)
		run.ExitCode = &code
	}
	if startedAt.Valid {
		t := startedAt.Time
		run.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// NewPostgreSQLRunRepository creates a new PostgreSQL Run repository.
func NewPostgreSQLRunRepository(db *sql.DB) *PostgreSQLRunRepository {
	return &PostgreSQLRunRepository{db: db}
}
