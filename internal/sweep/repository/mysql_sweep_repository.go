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

// MySQLSweepRepository implements Sweep persistence for MySQL. UUIDs are stored as
// CHAR(36) strings since MySQL has no native UUID type.
type MySQLSweepRepository struct {
	db *sql.DB
}

// Create inserts a new Sweep.
func (m *MySQLSweepRepository) Create(ctx context.Context, sweep *sweepDomain.Sweep) error {
	querier := database.GetTx(ctx, m.db)

	hpJSON, err := json.Marshal(sweep.Hyperparameters)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal sweep hyperparameters")
	}

	query := `INSERT INTO sweeps (id, name, seed_start, seed_end, output_root, hyperparameters,
			  failure_policy, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		sweep.ID.String(),
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
func (m *MySQLSweepRepository) GetByID(ctx context.Context, id uuid.UUID) (*sweepDomain.Sweep, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, seed_start, seed_end, output_root, hyperparameters,
			  failure_policy, status, created_at, updated_at
			  FROM sweeps WHERE id = ?`

	row := querier.QueryRowContext(ctx, query, id.String())
	sweep, err := scanMySQLSweep(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "sweep not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get sweep")
	}
	return sweep, nil
}

// List retrieves sweeps ordered by ID descending (newest first) with pagination.
func (m *MySQLSweepRepository) List(ctx context.Context, offset, limit int) ([]*sweepDomain.Sweep, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, seed_start, seed_end, output_root, hyperparameters,
			  failure_policy, status, created_at, updated_at
			  FROM sweeps ORDER BY id DESC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list sweeps")
	}
	defer func() {
		_ = rows.Close()
	}()

	sweeps := make([]*sweepDomain.Sweep, 0)
	for rows.Next() {
		sweep, err := scanMySQLSweep(rows)
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
func (m *MySQLSweepRepository) UpdateStatus(ctx context.Context, sweep *sweepDomain.Sweep) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE sweeps SET status = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, string(sweep.Status), sweep.UpdatedAt, sweep.ID.String())
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

func scanMySQLSweep(row rowScanner) (*sweepDomain.Sweep, error) {
	var sweep sweepDomain.Sweep
	var idStr string
	var hpJSON []byte
	var policy, status string

	err := row.Scan(
		&idStr,
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

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse sweep id")
	}
	sweep.ID = id

	if err := json.Unmarshal(hpJSON, &sweep.Hyperparameters); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal sweep hyperparameters")
	}
	sweep.FailurePolicy = sweepDomain.FailurePolicy(policy)
	sweep.Status = sweepDomain.SweepStatus(status)
	return &sweep, nil
}

// NewMySQLSweepRepository creates a new MySQL Sweep repository.
func NewMySQLSweepRepository(db *sql.DB) *MySQLSweepRepository {
	return &MySQLSweepRepository{db: db}
}
