// Package usecase implements the sweep driver business logic: creating sweeps,
// executing them against the external trainer, and querying the run journal.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/retry"
	"golang.org/x/time/rate"

	"github.com/allisson/seedsweep/internal/database"
	apperrors "github.com/allisson/seedsweep/internal/errors"
	"github.com/allisson/seedsweep/internal/metrics"
	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
	"github.com/allisson/seedsweep/internal/trainer"
)

// errTrainerExit marks a non-zero trainer exit inside the retry loop. It never
// escapes executeRun.
var errTrainerExit = errors.New("trainer exited non-zero")

// Config holds sweep execution configuration.
type Config struct {
	// TrainerProgram is the interpreter to spawn (e.g., "python").
	TrainerProgram string
	// TrainerScript is the external training entrypoint passed as the first argument.
	TrainerScript string
	// TrainerWorkDir is the working directory for trainer invocations.
	TrainerWorkDir string
	// Cooldown is the minimum interval between consecutive trainer launches.
	Cooldown time.Duration
	// MaxAttempts is the number of launches per seed before recording a failure.
	MaxAttempts int
	// RetryDelay is the pause between attempts for the same seed.
	RetryDelay time.Duration
}

// SweepUseCase implements UseCase on top of the run journal and a trainer.Runner.
type SweepUseCase struct {
	config       Config
	txManager    database.TxManager
	sweepRepo    SweepRepository
	runRepo      RunRepository
	runner       trainer.Runner
	sweepMetrics metrics.SweepMetrics
	logger       *slog.Logger
}

// NewSweepUseCase creates a new SweepUseCase. sweepMetrics may be nil when metrics
// collection is disabled.
func NewSweepUseCase(
	config Config,
	txManager database.TxManager,
	sweepRepo SweepRepository,
	runRepo RunRepository,
	runner trainer.Runner,
	sweepMetrics metrics.SweepMetrics,
	logger *slog.Logger,
) *SweepUseCase {
	return &SweepUseCase{
		config:       config,
		txManager:    txManager,
		sweepRepo:    sweepRepo,
		runRepo:      runRepo,
		runner:       runner,
		sweepMetrics: sweepMetrics,
		logger:       logger,
	}
}

// CreateSweep validates the sweep and persists it together with one pending run per
// seed, atomically.
func (uc *SweepUseCase) CreateSweep(ctx context.Context, sweep *sweepDomain.Sweep) error {
	if err := sweep.Validate(); err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.sweepRepo.Create(ctx, sweep); err != nil {
			return err
		}
		for _, seed := range sweep.Seeds() {
			if err := uc.runRepo.Create(ctx, sweepDomain.NewRun(sweep, seed)); err != nil {
				return err
			}
		}
		return nil
	})
}

// PlanSweep renders the invocation per seed without executing anything.
func (uc *SweepUseCase) PlanSweep(sweep *sweepDomain.Sweep) []trainer.Invocation {
	invocations := make([]trainer.Invocation, 0, sweep.SeedCount())
	for _, seed := range sweep.Seeds() {
		invocations = append(invocations, uc.buildInvocation(sweep, seed, sweep.OutputDir(seed)))
	}
	return invocations
}

// ExecuteSweep runs the sweep sequentially in increasing seed order. One invocation
// finishes (successfully or not) before the next begins. Succeeded runs are skipped
// unless force is set, which makes re-running a partially executed sweep safe.
//
// The failure policy decides what a failed run does to the rest of the sweep:
// continue matches the original fire-and-forget drivers, abort stops at the first
// failure. Either way every outcome lands in the journal.
func (uc *SweepUseCase) ExecuteSweep(
	ctx context.Context,
	sweepID uuid.UUID,
	force bool,
) (*ExecutionReport, error) {
	sweep, err := uc.sweepRepo.GetByID(ctx, sweepID)
	if err != nil {
		return nil, err
	}
	if sweep.Status == sweepDomain.SweepStatusRunning {
		return nil, apperrors.Wrap(apperrors.ErrInvalidState, "sweep is already running")
	}
	if sweep.Status == sweepDomain.SweepStatusCompleted && !force {
		return nil, apperrors.Wrap(apperrors.ErrInvalidState, "sweep already completed")
	}

	runs, err := uc.runRepo.ListBySweep(ctx, sweepID, 0, sweep.SeedCount())
	if err != nil {
		return nil, err
	}
	if len(runs) != sweep.SeedCount() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidState,
			fmt.Sprintf("journal has %d runs, sweep expects %d", len(runs), sweep.SeedCount()))
	}

	sweep.Status = sweepDomain.SweepStatusRunning
	sweep.UpdatedAt = time.Now().UTC()
	if err := uc.sweepRepo.UpdateStatus(ctx, sweep); err != nil {
		return nil, err
	}

	uc.logger.Info("starting sweep",
		slog.String("sweep_id", sweep.ID.String()),
		slog.String("name", sweep.Name),
		slog.Int("seed_start", sweep.SeedStart),
		slog.Int("seed_end", sweep.SeedEnd),
		slog.String("failure_policy", string(sweep.FailurePolicy)),
	)

	var limiter *rate.Limiter
	if uc.config.Cooldown > 0 {
		limiter = rate.NewLimiter(rate.Every(uc.config.Cooldown), 1)
	}

	report := &ExecutionReport{SweepID: sweep.ID, Total: len(runs), Runs: runs}
	aborted := false

	for _, run := range runs {
		if run.Status == sweepDomain.RunStatusSucceeded && !force {
			report.Skipped++
			report.Succeeded++
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				aborted = true
				break
			}
		}

		run.MarkRunning()
		if err := uc.runRepo.Update(ctx, run); err != nil {
			return nil, err
		}

		result, attempts, runErr := uc.executeRun(ctx, sweep, run)
		report.Executed++

		switch {
		case runErr == nil && result.Success():
			run.MarkSucceeded(result.ExitCode, attempts, result.OutputTail)
			report.Succeeded++
		case runErr == nil:
			exitCode := result.ExitCode
			run.MarkFailed(&exitCode, attempts, result.OutputTail)
			report.Failed++
		default:
			// Spawn failure or cancellation: no exit code to record.
			run.MarkFailed(nil, attempts, result.OutputTail)
			report.Failed++
		}

		uc.recordRunMetrics(ctx, sweep, run, result.Duration)
		uc.logger.Info("run finished",
			slog.String("sweep_id", sweep.ID.String()),
			slog.Int("seed", run.Seed),
			slog.String("status", string(run.Status)),
			slog.Int("attempts", attempts),
		)

		if err := uc.runRepo.Update(ctx, run); err != nil {
			return nil, err
		}

		if runErr != nil && ctx.Err() != nil {
			aborted = true
			break
		}
		if run.Status == sweepDomain.RunStatusFailed &&
			sweep.FailurePolicy == sweepDomain.FailurePolicyAbort {
			aborted = true
			break
		}
	}

	switch {
	case aborted:
		sweep.Status = sweepDomain.SweepStatusAborted
	case report.Failed > 0:
		sweep.Status = sweepDomain.SweepStatusFailed
	default:
		sweep.Status = sweepDomain.SweepStatusCompleted
	}
	report.Status = sweep.Status

	sweep.UpdatedAt = time.Now().UTC()
	if err := uc.sweepRepo.UpdateStatus(ctx, sweep); err != nil {
		return nil, err
	}

	if uc.sweepMetrics != nil {
		uc.sweepMetrics.RecordSweep(ctx, sweep.Hyperparameters.TaskName, string(sweep.Status))
	}

	uc.logger.Info("sweep finished",
		slog.String("sweep_id", sweep.ID.String()),
		slog.String("status", string(sweep.Status)),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped),
	)

	return report, ctx.Err()
}

// GetSweep retrieves a sweep by ID.
func (uc *SweepUseCase) GetSweep(ctx context.Context, id uuid.UUID) (*sweepDomain.Sweep, error) {
	return uc.sweepRepo.GetByID(ctx, id)
}

// ListSweeps retrieves sweeps with pagination, newest first.
func (uc *SweepUseCase) ListSweeps(ctx context.Context, offset, limit int) ([]*sweepDomain.Sweep, error) {
	return uc.sweepRepo.List(ctx, offset, limit)
}

// ListRuns retrieves a sweep's runs ordered by seed.
func (uc *SweepUseCase) ListRuns(
	ctx context.Context,
	sweepID uuid.UUID,
	offset, limit int,
) ([]*sweepDomain.Run, error) {
	if _, err := uc.sweepRepo.GetByID(ctx, sweepID); err != nil {
		return nil, err
	}
	return uc.runRepo.ListBySweep(ctx, sweepID, offset, limit)
}

// buildInvocation renders one trainer command: program, script, then the flag template.
func (uc *SweepUseCase) buildInvocation(
	sweep *sweepDomain.Sweep,
	seed int,
	outputDir string,
) trainer.Invocation {
	args := append([]string{uc.config.TrainerScript}, sweep.Hyperparameters.Argv(outputDir, seed)...)
	return trainer.Invocation{
		Program: uc.config.TrainerProgram,
		Args:    args,
		WorkDir: uc.config.TrainerWorkDir,
	}
}

// executeRun launches the trainer for one seed, retrying transient failures up to
// MaxAttempts. Returns the last result, the attempt count, and an error only when
// the process could not be run at all (spawn failure or cancellation).
func (uc *SweepUseCase) executeRun(
	ctx context.Context,
	sweep *sweepDomain.Sweep,
	run *sweepDomain.Run,
) (trainer.Result, int, error) {
	inv := uc.buildInvocation(sweep, run.Seed, run.OutputDir)

	maxAttempts := uc.config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var result trainer.Result
	var lastErr error
	attempts := 0

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			attempts++
			res, runErr := uc.runner.Run(ctx, inv)
			result = res
			lastErr = runErr
			if runErr != nil {
				return runErr
			}
			if !res.Success() {
				return errTrainerExit
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			// Cancellation and timeouts must not be retried.
			return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		NotifyFunc: func(err error, attempt int) {
			uc.logger.Warn("trainer attempt failed",
				slog.Int("seed", run.Seed),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
		},
		Attempts: maxAttempts,
		Delay:    uc.config.RetryDelay,
		Clock:    clock.WallClock,
		Stop:     ctx.Done(),
	})

	if err == nil {
		return result, attempts, nil
	}
	if retry.IsAttemptsExceeded(err) || retry.IsRetryStopped(err) {
		err = retry.LastError(err)
	}
	if errors.Is(err, errTrainerExit) {
		// The trainer ran to an exit on the last attempt; the result carries it.
		return result, attempts, nil
	}
	if lastErr != nil {
		return result, attempts, lastErr
	}
	return result, attempts, err
}

// recordRunMetrics records per-run metrics when a metrics backend is configured.
func (uc *SweepUseCase) recordRunMetrics(
	ctx context.Context,
	sweep *sweepDomain.Sweep,
	run *sweepDomain.Run,
	duration time.Duration,
) {
	if uc.sweepMetrics == nil {
		return
	}
	task := sweep.Hyperparameters.TaskName
	uc.sweepMetrics.RecordRun(ctx, task, string(run.Status))
	uc.sweepMetrics.RecordRunDuration(ctx, task, duration, string(run.Status))
}
