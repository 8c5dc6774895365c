package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	sweepUseCase "github.com/allisson/seedsweep/internal/sweep/usecase"
)

// RunResumeSweep re-executes an existing sweep. Runs that already succeeded are
// skipped unless force is set, so a sweep interrupted halfway picks up where it
// stopped.
//
// Requirements: Database must be migrated and accessible.
func RunResumeSweep(
	ctx context.Context,
	useCase sweepUseCase.UseCase,
	logger *slog.Logger,
	w io.Writer,
	idStr string,
	force bool,
	format string,
) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid sweep id %q: must be a UUID", idStr)
	}

	logger.Info("resuming sweep",
		slog.String("sweep_id", id.String()),
		slog.Bool("force", force),
	)

	report, err := useCase.ExecuteSweep(ctx, id, force)
	if err != nil {
		return fmt.Errorf("failed to execute sweep: %w", err)
	}

	writeReport(w, report, format)
	return nil
}
