// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/allisson/seedsweep/internal/app"
	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// outputJSON writes v to the writer as indented JSON.
func outputJSON(v any, w io.Writer) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}

// buildPresetSweep constructs and validates a sweep from a preset name and a
// failure policy string.
func buildPresetSweep(
	presetName string,
	policyStr string,
	paths sweepDomain.PresetPaths,
) (*sweepDomain.Sweep, error) {
	policy, err := sweepDomain.ParseFailurePolicy(policyStr)
	if err != nil {
		return nil, err
	}

	sweep, err := sweepDomain.NewPresetSweep(presetName, policy, paths)
	if err != nil {
		return nil, err
	}

	if err := sweep.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep definition: %w", err)
	}

	return sweep, nil
}
