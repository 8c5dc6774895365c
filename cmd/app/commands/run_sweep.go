package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
	sweepUseCase "github.com/allisson/seedsweep/internal/sweep/usecase"
)

// RunCreateSweep registers a sweep and its per-seed run journal without executing
// anything. Outputs the sweep ID so the sweep can be run later.
//
// Requirements: Database must be migrated and accessible.
func RunCreateSweep(
	ctx context.Context,
	useCase sweepUseCase.UseCase,
	logger *slog.Logger,
	w io.Writer,
	presetName string,
	policyStr string,
	paths sweepDomain.PresetPaths,
	format string,
) error {
	sweep, err := buildPresetSweep(presetName, policyStr, paths)
	if err != nil {
		return err
	}

	if err := useCase.CreateSweep(ctx, sweep); err != nil {
		return fmt.Errorf("failed to create sweep: %w", err)
	}

	logger.Info("sweep created",
		slog.String("sweep_id", sweep.ID.String()),
		slog.String("preset", presetName),
	)

	if format == "json" {
		outputJSON(map[string]any{
			"id":         sweep.ID.String(),
			"name":       sweep.Name,
			"seed_start": sweep.SeedStart,
			"seed_end":   sweep.SeedEnd,
			"status":     string(sweep.Status),
		}, w)
		return nil
	}

	_, _ = fmt.Fprintf(w, "Sweep created\n")
	_, _ = fmt.Fprintf(w, "  ID:     %s\n", sweep.ID)
	_, _ = fmt.Fprintf(w, "  Name:   %s\n", sweep.Name)
	_, _ = fmt.Fprintf(w, "  Seeds:  [%d,%d)\n", sweep.SeedStart, sweep.SeedEnd)
	return nil
}

// RunSweep registers a sweep from a preset and executes it immediately. This is the
// one-command equivalent of the original per-dataset driver scripts.
//
// Requirements: Database must be migrated and accessible, and the trainer script
// must be runnable from the configured working directory.
func RunSweep(
	ctx context.Context,
	useCase sweepUseCase.UseCase,
	logger *slog.Logger,
	w io.Writer,
	presetName string,
	policyStr string,
	paths sweepDomain.PresetPaths,
	format string,
) error {
	sweep, err := buildPresetSweep(presetName, policyStr, paths)
	if err != nil {
		return err
	}

	if err := useCase.CreateSweep(ctx, sweep); err != nil {
		return fmt.Errorf("failed to create sweep: %w", err)
	}

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, false)
	if err != nil {
		return fmt.Errorf("failed to execute sweep: %w", err)
	}

	writeReport(w, report, format)
	return nil
}

// writeReport prints an execution report in text or JSON format.
func writeReport(w io.Writer, report *sweepUseCase.ExecutionReport, format string) {
	if format == "json" {
		outputJSON(report, w)
		return
	}

	_, _ = fmt.Fprintf(w, "Sweep %s finished: %s\n", report.SweepID, report.Status)
	_, _ = fmt.Fprintf(w, "  Total:     %d\n", report.Total)
	_, _ = fmt.Fprintf(w, "  Executed:  %d\n", report.Executed)
	_, _ = fmt.Fprintf(w, "  Skipped:   %d\n", report.Skipped)
	_, _ = fmt.Fprintf(w, "  Succeeded: %d\n", report.Succeeded)
	_, _ = fmt.Fprintf(w, "  Failed:    %d\n", report.Failed)
	for _, run := range report.Runs {
		line := fmt.Sprintf("  seed %d: %s", run.Seed, run.Status)
		if run.ExitCode != nil {
			line += fmt.Sprintf(" (exit %d)", *run.ExitCode)
		}
		_, _ = fmt.Fprintln(w, line)
	}
}
