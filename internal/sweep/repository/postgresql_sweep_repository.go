// Package repository implements the sweep journal persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/allisson/seedsweep/internal/database"
	apperrors "github.com/allisson/seedsweep/internal/errors"
	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
)

// PostgreSQLSweepRepository implements Sweep persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLSweepRepository struct {
	db *sql.DB
}

// Create inserts a new Sweep. Hyperparameters are stored as JSON since they are an
// opaque template from the journal's point of view.
func (p *PostgreSQLSweepRepository) Create(ctx context.Context, sweep *sweepDomain.Sweep) error {
	querier := database.GetTx(ctx, p.db)

	hpJSON, err := json.Marshal(sweep.Hyperparameters)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal sweep hyperparameters")
	}

	query := `INSERT INTO sweeps (id, name, seed_start, seed_end, output_root, hyperparameters,
			  failure_policy, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = querier.ExecContext(
		ctx,
		query,
		sweep.ID,
		sweep.Name,
		sweep.SeedStart,
		sweep.SeedEnd,
		sweep.OutputRoot,
		hpJSON,
		string(sweep.FailurePolicy),
		string(sweep.Status),
		sweep.CreatedAt,
		sweep.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create sweep")
	}

	return nil
}

// GetByID retrieves a sweep by its ID. Returns ErrNotFound if it does not exist.
func (p *PostgreSQLSweepRepository) GetByID(ctx context.Context, id uuid.UUID) (*sweepDomain.Sweep, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, seed_start, seed_end, output_root, hyperparameters,
			  failure_policy, status, created_at, updated_at
			  FROM sweeps WHERE id = $1`

	row := querier.QueryRowContext(ctx, query, id)
	sweep, err := scanSweep(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "sweep not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get sweep")
	}
	return sweep, nil
}

// List retrieves sweeps ordered by ID descending (newest first) with pagination.
func (p *PostgreSQLSweepRepository) List(ctx context.Context, offset, limit int) ([]*sweepDomain.Sweep, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, seed_start, seed_end, output_root, hyperparameters,
			  failure_policy, status, created_at, updated_at
			  FROM sweeps ORDER BY id DESC LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list sweeps")
	}
	defer func() {
		_ = rows.Close()
	}()

	sweeps := make([]*sweepDomain.Sweep, 0)
	for rows.Next() {
		sweep, err := scanSweep(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan sweep")
		}
		sweeps = append(sweeps, sweep)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate sweeps")
	}

	return sweeps, nil
}

// UpdateStatus persists a sweep status transition.
func (p *PostgreSQLSweepRepository) UpdateStatus(ctx context.Context, sweep *sweepDomain.Sweep) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sweeps SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, string(sweep.Status), sweep.UpdatedAt, sweep.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update sweep status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check sweep update")
	}
	if affected == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "sweep not found")
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSweep(row rowScanner) (*sweepDomain.Sweep, error) {
	var sweep sweepDomain.Sweep
	var hpJSON []byte
	var policy, status string

	err := row.Scan(
		&sweep.ID,
		&sweep.Name,
		&sweep.SeedStart,
		&sweep.SeedEnd,
		&sweep.OutputRoot,
		&hpJSON,
		&policy,
		&status,
		&sweep.CreatedAt,
		&sweep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(hpJSON, &sweep.Hyperparameters); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal sweep hyperparameters")
	}
	sweep.FailurePolicy = sweepDomain.FailurePolicy(policy)
	sweep.Status = sweepDomain.SweepStatus(status)
	return &sweep, nil
}

// NewPostgreSQLSweepRepository creates a new PostgreSQL Sweep repository.
func NewPostgreSQLSweepRepository(db *sql.DB) *PostgreSQLSweepRepository {
	return &PostgreSQLSweepRepository{db: db}
}
