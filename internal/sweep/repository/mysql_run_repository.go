package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/seedsweep/internal/database"
	apperrors "github.com/allisson/seedsweep/internal/errors"
	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
)

// MySQLRunRepository implements per-seed Run persistence for MySQL.
type MySQLRunRepository struct {
	db *sql.DB
}

// Create inserts a new Run journal entry.
func (m *MySQLRunRepository) Create(ctx context.Context, run *sweepDomain.Run) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO runs (id, sweep_id, seed, output_dir, status, exit_code, attempts,
			  output_tail, started_at, finished_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		run.ID.String(),
		run.SweepID.String(),
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
func (m *MySQLRunRepository) Update(ctx context.Context, run *sweepDomain.Run) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE runs SET status = ?, exit_code = ?, attempts = ?, output_tail = ?,
			  started_at = ?, finished_at = ?, updated_at = ? WHERE id = ?`

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
		run.ID.String(),
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
func (m *MySQLRunRepository) ListBySweep(
	ctx context.Context,
	sweepID uuid.UUID,
	offset, limit int,
) ([]*sweepDomain.Run, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, sweep_id, seed, output_dir, status, exit_code, attempts,
			  output_tail, started_at, finished_at, created_at, updated_at
			  FROM runs WHERE sweep_id = ? ORDER BY seed ASC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, sweepID.String(), limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list runs")
	}
	defer func() {
		_ = rows.Close()
	}()

	runs := make([]*sweepDomain.Run, 0)
	for rows.Next() {
		run, err := scanMySQLRun(rows)
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

func scanMySQLRun(row rowScanner) (*sweepDomain.Run, error) {
	var run sweepDomain.Run
	var idStr, sweepIDStr string
	var status string
	var exitCode sql.NullInt64
	var startedAt, finishedAt sql.NullTime

	err := row.Scan(
		&idStr,
		&sweepIDStr,
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

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse run id")
	}
	run.ID = id

	sweepID, err := uuid.Parse(sweepIDStr)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse run sweep id")
	}
	run.SweepID = sweepID

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

// NewMySQLRunRepository creates a new MySQL Run repository.
func NewMySQLRunRepository(db *sql.DB) *MySQLRunRepository {
	return &MySQLRunRepository{db: db}
}
