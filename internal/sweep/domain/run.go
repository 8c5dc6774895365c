package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a single per-seed run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the journal entry for one trainer invocation. A sweep owns exactly one run
// per seed; the run records the outcome so partial sweeps can be audited and resumed.
type Run struct {
	ID      uuid.UUID
	SweepID uuid.UUID
	Seed    int
	// OutputDir is the per-seed artifact directory passed as --output_dir.
	OutputDir string
	Status    RunStatus
	// ExitCode is nil until the trainer process has exited at least once.
	ExitCode *int
	// Attempts counts trainer launches for this seed, including retries.
	Attempts int
	// OutputTail holds the last portion of the trainer's combined output.
	OutputTail string
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewRun creates a pending run for the given sweep and seed.
func NewRun(sweep *Sweep, seed int) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:        uuid.Must(uuid.NewV7()),
		SweepID:   sweep.ID,
		Seed:      seed,
		OutputDir: sweep.OutputDir(seed),
		Status:    RunStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkRunning transitions the run to running and stamps the start time.
func (r *Run) MarkRunning() {
	now := time.Now().UTC()
	r.Status = RunStatusRunning
	r.StartedAt = &now
	r.UpdatedAt = now
}

// MarkSucceeded records a successful trainer exit.
func (r *Run) MarkSucceeded(exitCode int, attempts int, outputTail string) {
	now := time.Now().UTC()
	r.Status = RunStatusSucceeded
	r.ExitCode = &exitCode
	r.Attempts = attempts
	r.OutputTail = outputTail
	r.FinishedAt = &now
	r.UpdatedAt = now
}

// MarkFailed records a failed invocation. exitCode is nil when the process never
// exited (spawn failure, cancellation).
func (r *Run) MarkFailed(exitCode *int, attempts int, outputTail string) {
	now := time.Now().UTC()
	r.Status = RunStatusFailed
	r.ExitCode = exitCode
	r.Attempts = attempts
	r.OutputTail = outputTail
	r.FinishedAt = &now
	r.UpdatedAt = now
}

// IsFinished reports whether the run reached a final status.
func (r *Run) IsFinished() bool {
	return r.Status == RunStatusSucceeded || r.Status == RunStatusFailed
}
