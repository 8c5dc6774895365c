package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
	sweepUseCase "github.com/allisson/seedsweep/internal/sweep/usecase"
)

// RunSweepStatus prints the current state of a sweep and, optionally, its per-seed
// run journal.
//
// Requirements: Database must be migrated and accessible.
func RunSweepStatus(
	ctx context.Context,
	useCase sweepUseCase.UseCase,
	logger *slog.Logger,
	w io.Writer,
	idStr string,
	showRuns bool,
	format string,
) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid sweep id %q: must be a UUID", idStr)
	}

	sweep, err := useCase.GetSweep(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get sweep: %w", err)
	}

	var runs []*sweepDomain.Run
	if showRuns {
		runs, err = useCase.ListRuns(ctx, id, 0, sweep.SeedCount())
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
	}

	if format == "json" {
		payload := map[string]any{
			"id":             sweep.ID.String(),
			"name":           sweep.Name,
			"seed_start":     sweep.SeedStart,
			"seed_end":       sweep.SeedEnd,
			"failure_policy": string(sweep.FailurePolicy),
			"status":         string(sweep.Status),
		}
		if showRuns {
			payload["runs"] = runs
		}
		outputJSON(payload, w)
		return nil
	}

	_, _ = fmt.Fprintf(w, "Sweep %s\n", sweep.ID)
	_, _ = fmt.Fprintf(w, "  Name:    %s\n", sweep.Name)
	_, _ = fmt.Fprintf(w, "  Seeds:   [%d,%d)\n", sweep.SeedStart, sweep.SeedEnd)
	_, _ = fmt.Fprintf(w, "  Policy:  %s\n", sweep.FailurePolicy)
	_, _ = fmt.Fprintf(w, "  Status:  %s\n", sweep.Status)

	for _, run := range runs {
		line := fmt.Sprintf("  seed %d: %s", run.Seed, run.Status)
		if run.ExitCode != nil {
			line += fmt.Sprintf(" (exit %d, attempts %d)", *run.ExitCode, run.Attempts)
		}
		_, _ = fmt.Fprintln(w, line)
	}

	return nil
}
