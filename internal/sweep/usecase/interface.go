package usecase

import (
	"context"

	"github.com/google/uuid"

	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
	"github.com/allisson/seedsweep/internal/trainer"
)

// SweepRepository defines sweep journal persistence operations.
type SweepRepository interface {
	Create(ctx context.Context, sweep *sweepDomain.Sweep) error
	GetByID(ctx context.Context, id uuid.UUID) (*sweepDomain.Sweep, error)
	List(ctx context.Context, offset, limit int) ([]*sweepDomain.Sweep, error)
	UpdateStatus(ctx context.Context, sweep *sweepDomain.Sweep) error
}

// RunRepository defines per-seed run journal persistence operations.
type RunRepository interface {
	Create(ctx context.Context, run *sweepDomain.Run) error
	Update(ctx context.Context, run *sweepDomain.Run) error
	ListBySweep(ctx context.Context, sweepID uuid.UUID, offset, limit int) ([]*sweepDomain.Run, error)
}

// ExecutionReport summarizes one ExecuteSweep call.
type ExecutionReport struct {
	SweepID   uuid.UUID                `json:"sweep_id"`
	Status    sweepDomain.SweepStatus  `json:"status"`
	Total     int                      `json:"total"`
	Executed  int                      `json:"executed"`
	Skipped   int                      `json:"skipped"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	Runs      []*sweepDomain.Run       `json:"runs,omitempty"`
}

// UseCase defines the sweep driver operations.
type UseCase interface {
	// CreateSweep validates and persists a sweep plus one pending run per seed.
	CreateSweep(ctx context.Context, sweep *sweepDomain.Sweep) error

	// ExecuteSweep runs a sweep's pending runs sequentially in increasing seed
	// order. Already-succeeded runs are skipped unless force is set.
	ExecuteSweep(ctx context.Context, sweepID uuid.UUID, force bool) (*ExecutionReport, error)

	// PlanSweep renders the trainer invocations a sweep would issue, without
	// executing anything or touching the journal.
	PlanSweep(sweep *sweepDomain.Sweep) []trainer.Invocation

	GetSweep(ctx context.Context, id uuid.UUID) (*sweepDomain.Sweep, error)
	ListSweeps(ctx context.Context, offset, limit int) ([]*sweepDomain.Sweep, error)
	ListRuns(ctx context.Context, sweepID uuid.UUID, offset, limit int) ([]*sweepDomain.Run, error)
}
