package commands

import (
	"fmt"
	"io"
	"log/slog"

	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
	sweepUseCase "github.com/allisson/seedsweep/internal/sweep/usecase"
)

// RunPlanSweep renders the trainer command lines a preset sweep would issue, one
// per seed, without touching the journal or spawning anything. Useful to eyeball
// the exact flags before committing a GPU to twenty epochs.
func RunPlanSweep(
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

	invocations := useCase.PlanSweep(sweep)

	logger.Info("planned sweep",
		slog.String("preset", presetName),
		slog.Int("invocations", len(invocations)),
	)

	if format == "json" {
		type plannedInvocation struct {
			Program string   `json:"program"`
			Args    []string `json:"args"`
			WorkDir string   `json:"work_dir,omitempty"`
		}
		planned := make([]plannedInvocation, 0, len(invocations))
		for _, inv := range invocations {
			planned = append(planned, plannedInvocation{
				Program: inv.Program,
				Args:    inv.Args,
				WorkDir: inv.WorkDir,
			})
		}
		outputJSON(planned, w)
		return nil
	}

	for _, inv := range invocations {
		_, _ = fmt.Fprintln(w, inv.String())
	}
	return nil
}
