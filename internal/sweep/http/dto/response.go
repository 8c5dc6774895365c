// Package dto provides data transfer objects for HTTP response handling.
package dto

import (
	"time"

	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
)

// SweepResponse represents a sweep in API responses.
type SweepResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SeedStart     int       `json:"seed_start"`
	SeedEnd       int       `json:"seed_end"`
	SeedCount     int       `json:"seed_count"`
	OutputRoot    string    `json:"output_root"`
	TaskName      string    `json:"task_name"`
	RegEnabled    bool      `json:"reg_enabled"`
	FailurePolicy string    `json:"failure_policy"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RunResponse represents a per-seed run in API responses.
type RunResponse struct {
	ID         string     `json:"id"`
	Seed       int        `json:"seed"`
	OutputDir  string     `json:"output_dir"`
	Status     string     `json:"status"`
	ExitCode   *int       `json:"exit_code"`
	Attempts   int        `json:"attempts"`
	OutputTail string     `json:"output_tail,omitempty"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// ListSweepsResponse represents a paginated list of sweeps.
type ListSweepsResponse struct {
	Data []SweepResponse `json:"data"`
}

// ListRunsResponse represents a paginated list of runs.
type ListRunsResponse struct {
	Data []RunResponse `json:"data"`
}

// MapSweepToResponse converts a domain sweep to its API representation.
func MapSweepToResponse(sweep *sweepDomain.Sweep) SweepResponse {
	return SweepResponse{
		ID:            sweep.ID.String(),
		Name:          sweep.Name,
		SeedStart:     sweep.SeedStart,
		SeedEnd:       sweep.SeedEnd,
		SeedCount:     sweep.SeedCount(),
		OutputRoot:    sweep.OutputRoot,
		TaskName:      sweep.Hyperparameters.TaskName,
		RegEnabled:    sweep.Hyperparameters.Reg.Enabled,
		FailurePolicy: string(sweep.FailurePolicy),
		Status:        string(sweep.Status),
		CreatedAt:     sweep.CreatedAt,
		UpdatedAt:     sweep.UpdatedAt,
	}
}

// MapSweepsToListResponse converts a slice of domain sweeps to a list response.
func MapSweepsToListResponse(sweeps []*sweepDomain.Sweep) ListSweepsResponse {
	data := make([]SweepResponse, 0, len(sweeps))
	for _, sweep := range sweeps {
		data = append(data, MapSweepToResponse(sweep))
	}
	return ListSweepsResponse{Data: data}
}

// MapRunToResponse converts a domain run to its API representation.
func MapRunToResponse(run *sweepDomain.Run) RunResponse {
	return RunResponse{
		ID:         run.ID.String(),
		Seed:       run.Seed,
		OutputDir:  run.OutputDir,
		Status:     string(run.Status),
		ExitCode:   run.ExitCode,
		Attempts:   run.Attempts,
		OutputTail: run.OutputTail,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

// MapRunsToListResponse converts a slice of domain runs to a list response.
func MapRunsToListResponse(runs []*sweepDomain.Run) ListRunsResponse {
	data := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		data = append(data, MapRunToResponse(run))
	}
	return ListRunsResponse{Data: data}
}
