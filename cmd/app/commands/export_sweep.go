package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/seedsweep/internal/archive"
	sweepUseCase "github.com/allisson/seedsweep/internal/sweep/usecase"
)

// RunExportSweep writes a sweep's summary and captured trainer output to the
// archive bucket.
//
// Requirements: Database must be migrated and accessible, and the bucket must be
// writable with the configured credentials.
func RunExportSweep(
	ctx context.Context,
	useCase sweepUseCase.UseCase,
	archiver archive.Archiver,
	logger *slog.Logger,
	w io.Writer,
	idStr string,
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

	runs, err := useCase.ListRuns(ctx, id, 0, sweep.SeedCount())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	summaryKey, err := archiver.ExportSweep(ctx, sweep, runs)
	if err != nil {
		return fmt.Errorf("failed to export sweep: %w", err)
	}

	logger.Info("sweep exported",
		slog.String("sweep_id", sweep.ID.String()),
		slog.String("summary_key", summaryKey),
	)

	if format == "json" {
		outputJSON(map[string]any{
			"id":          sweep.ID.String(),
			"summary_key": summaryKey,
			"runs":        len(runs),
		}, w)
		return nil
	}

	_, _ = fmt.Fprintf(w, "Sweep %s exported\n", sweep.ID)
	_, _ = fmt.Fprintf(w, "  Summary: %s\n", summaryKey)
	_, _ = fmt.Fprintf(w, "  Runs:    %d\n", len(runs))
	return nil
}
