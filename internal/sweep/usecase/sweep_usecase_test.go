package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/seedsweep/internal/errors"
	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
	"github.com/allisson/seedsweep/internal/trainer"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	// Execute the function to test the logic inside
	return fn(ctx)
}

// MockSweepRepository is a mock implementation of SweepRepository
type MockSweepRepository struct {
	mock.Mock
}

func (m *MockSweepRepository) Create(ctx context.Context, sweep *sweepDomain.Sweep) error {
	args := m.Called(ctx, sweep)
	return args.Error(0)
}

func (m *MockSweepRepository) GetByID(ctx context.Context, id uuid.UUID) (*sweepDomain.Sweep, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sweepDomain.Sweep), args.Error(1)
}

func (m *MockSweepRepository) List(ctx context.Context, offset, limit int) ([]*sweepDomain.Sweep, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sweepDomain.Sweep), args.Error(1)
}

func (m *MockSweepRepository) UpdateStatus(ctx context.Context, sweep *sweepDomain.Sweep) error {
	args := m.Called(ctx, sweep)
	return args.Error(0)
}

// MockRunRepository is a mock implementation of RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *sweepDomain.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) Update(ctx context.Context, run *sweepDomain.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) ListBySweep(
	ctx context.Context,
	sweepID uuid.UUID,
	offset, limit int,
) ([]*sweepDomain.Run, error) {
	args := m.Called(ctx, sweepID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sweepDomain.Run), args.Error(1)
}

// MockRunner is a mock implementation of trainer.Runner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, inv trainer.Invocation) (trainer.Result, error) {
	args := m.Called(ctx, inv)
	return args.Get(0).(trainer.Result), args.Error(1)
}

// MockSweepMetrics is a mock implementation of metrics.SweepMetrics
type MockSweepMetrics struct {
	mock.Mock
}

func (m *MockSweepMetrics) RecordRun(ctx context.Context, task, status string) {
	m.Called(ctx, task, status)
}

func (m *MockSweepMetrics) RecordRunDuration(
	ctx context.Context,
	task string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, task, duration, status)
}

func (m *MockSweepMetrics) RecordSweep(ctx context.Context, task, status string) {
	m.Called(ctx, task, status)
}

func testConfig() Config {
	return Config{
		TrainerProgram: "python",
		TrainerScript:  "run_model.py",
		MaxAttempts:    1,
		RetryDelay:     time.Millisecond,
	}
}

func testSweep(t *testing.T, seedStart, seedEnd int) *sweepDomain.Sweep {
	t.Helper()
	sweep, err := sweepDomain.NewPresetSweep(
		sweepDomain.PresetGabVanilla,
		sweepDomain.FailurePolicyContinue,
		sweepDomain.PresetPaths{
			DataRoot:         "data",
			OutputRoot:       "runs",
			LMDir:            "runs/lm",
			NeutralWordsFile: "data/identity.csv",
		},
	)
	require.NoError(t, err)
	sweep.SeedStart = seedStart
	sweep.SeedEnd = seedEnd
	return sweep
}

func testRuns(sweep *sweepDomain.Sweep) []*sweepDomain.Run {
	runs := make([]*sweepDomain.Run, 0, sweep.SeedCount())
	for _, seed := range sweep.Seeds() {
		runs = append(runs, sweepDomain.NewRun(sweep, seed))
	}
	return runs
}

func newTestUseCase(
	txManager *MockTxManager,
	sweepRepo *MockSweepRepository,
	runRepo *MockRunRepository,
	runner *MockRunner,
) *SweepUseCase {
	return NewSweepUseCase(testConfig(), txManager, sweepRepo, runRepo, runner, nil, testLogger())
}

func TestSweepUseCase_CreateSweep_Success(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	useCase := newTestUseCase(txManager, sweepRepo, runRepo, &MockRunner{})

	ctx := context.Background()
	sweep := testSweep(t, 0, 3)

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	sweepRepo.On("Create", ctx, sweep).Return(nil)
	runRepo.On("Create", ctx, mock.AnythingOfType("*domain.Run")).Return(nil).Times(3)

	err := useCase.CreateSweep(ctx, sweep)

	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	sweepRepo.AssertExpectations(t)
	runRepo.AssertExpectations(t)
}

func TestSweepUseCase_CreateSweep_InvalidSeedRange(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	useCase := newTestUseCase(txManager, sweepRepo, runRepo, &MockRunner{})

	sweep := testSweep(t, 5, 5)

	err := useCase.CreateSweep(context.Background(), sweep)

	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	sweepRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	runRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSweepUseCase_CreateSweep_RepositoryError(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	useCase := newTestUseCase(txManager, sweepRepo, runRepo, &MockRunner{})

	ctx := context.Background()
	sweep := testSweep(t, 0, 2)
	dbError := errors.New("database error")

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	sweepRepo.On("Create", ctx, sweep).Return(dbError)

	err := useCase.CreateSweep(ctx, sweep)

	assert.Equal(t, dbError, err)
	runRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSweepUseCase_PlanSweep(t *testing.T) {
	useCase := newTestUseCase(&MockTxManager{}, &MockSweepRepository{}, &MockRunRepository{}, &MockRunner{})
	sweep := testSweep(t, 4, 10)

	invocations := useCase.PlanSweep(sweep)

	require.Len(t, invocations, 6)
	for i, inv := range invocations {
		assert.Equal(t, "python", inv.Program)
		require.NotEmpty(t, inv.Args)
		assert.Equal(t, "run_model.py", inv.Args[0])
		assert.Contains(t, inv.Args, "--seed")
		assert.Contains(t, inv.Args, sweep.OutputDir(4+i))
	}
}

func TestSweepUseCase_ExecuteSweep_AllSucceed(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	runner := &MockRunner{}
	useCase := newTestUseCase(txManager, sweepRepo, runRepo, runner)

	ctx := context.Background()
	sweep := testSweep(t, 0, 2)
	runs := testRuns(sweep)

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)
	runRepo.On("ListBySweep", ctx, sweep.ID, 0, 2).Return(runs, nil)
	sweepRepo.On("UpdateStatus", ctx, sweep).Return(nil)
	runRepo.On("Update", ctx, mock.AnythingOfType("*domain.Run")).Return(nil)
	runner.On("Run", ctx, mock.AnythingOfType("trainer.Invocation")).
		Return(trainer.Result{ExitCode: 0, Exited: true}, nil).Times(2)

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, false)

	require.NoError(t, err)
	assert.Equal(t, sweepDomain.SweepStatusCompleted, report.Status)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Executed)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, sweepDomain.SweepStatusCompleted, sweep.Status)
	for _, run := range runs {
		assert.Equal(t, sweepDomain.RunStatusSucceeded, run.Status)
		require.NotNil(t, run.ExitCode)
		assert.Equal(t, 0, *run.ExitCode)
		assert.Equal(t, 1, run.Attempts)
	}
	runner.AssertExpectations(t)
	sweepRepo.AssertExpectations(t)
	runRepo.AssertExpectations(t)
}

func TestSweepUseCase_ExecuteSweep_SkipsSucceededRuns(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	runner := &MockRunner{}
	useCase := newTestUseCase(txManager, sweepRepo, runRepo, runner)

	ctx := context.Background()
	sweep := testSweep(t, 0, 2)
	sweep.Status = sweepDomain.SweepStatusFailed
	runs := testRuns(sweep)
	runs[0].MarkSucceeded(0, 1, "")

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)
	runRepo.On("ListBySweep", ctx, sweep.ID, 0, 2).Return(runs, nil)
	sweepRepo.On("UpdateStatus", ctx, sweep).Return(nil)
	runRepo.On("Update", ctx, runs[1]).Return(nil)
	runner.On("Run", ctx, mock.AnythingOfType("trainer.Invocation")).
		Return(trainer.Result{ExitCode: 0, Exited: true}, nil).Once()

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, false)

	require.NoError(t, err)
	assert.Equal(t, sweepDomain.SweepStatusCompleted, report.Status)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Executed)
	assert.Equal(t, 2, report.Succeeded)
	runner.AssertExpectations(t)
	runRepo.AssertExpectations(t)
}

func TestSweepUseCase_ExecuteSweep_ForceRerunsSucceededRuns(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	runner := &MockRunner{}
	useCase := newTestUseCase(txManager, sweepRepo, runRepo, runner)

	ctx := context.Background()
	sweep := testSweep(t, 0, 2)
	sweep.Status = sweepDomain.SweepStatusCompleted
	runs := testRuns(sweep)
	runs[0].MarkSucceeded(0, 1, "")
	runs[1].MarkSucceeded(0, 1, "")

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)
	runRepo.On("ListBySweep", ctx, sweep.ID, 0, 2).Return(runs, nil)
	sweepRepo.On("UpdateStatus", ctx, sweep).Return(nil)
	runRepo.On("Update", ctx, mock.AnythingOfType("*domain.Run")).Return(nil)
	runner.On("Run", ctx, mock.AnythingOfType("trainer.Invocation")).
		Return(trainer.Result{ExitCode: 0, Exited: true}, nil).Times(2)

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, true)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Executed)
	assert.Equal(t, 0, report.Skipped)
	runner.AssertExpectations(t)
}

func TestSweepUseCase_ExecuteSweep_ContinuePolicyRunsAllSeeds(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	runner := &MockRunner{}
	useCase := newTestUseCase(txManager, sweepRepo, runRepo, runner)

	ctx := context.Background()
	sweep := testSweep(t, 0, 2)
	runs := testRuns(sweep)

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)
	runRepo.On("ListBySweep", ctx, sweep.ID, 0, 2).Return(runs, nil)
	sweepRepo.On("UpdateStatus", ctx, sweep).Return(nil)
	runRepo.On("Update", ctx, mock.AnythingOfType("*domain.Run")).Return(nil)
	runner.On("Run", ctx, mock.AnythingOfType("trainer.Invocation")).
		Return(trainer.Result{ExitCode: 1, Exited: true}, nil).Once()
	runner.On("Run", ctx, mock.AnythingOfType("trainer.Invocation")).
		Return(trainer.Result{ExitCode: 0, Exited: true}, nil).Once()

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, false)

	require.NoError(t, err)
	assert.Equal(t, sweepDomain.SweepStatusFailed, report.Status)
	assert.Equal(t, 2, report.Executed)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, sweepDomain.RunStatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].ExitCode)
	assert.Equal(t, 1, *runs[0].ExitCode)
	assert.Equal(t, sweepDomain.RunStatusSucceeded, runs[1].Status)
	runner.AssertExpectations(t)
}

func TestSweepUseCase_ExecuteSweep_AbortPolicyStopsAtFirstFailure(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	runner := &MockRunner{}
	useCase := newTestUseCase(txManager, sweepRepo, runRepo, runner)

	ctx := context.Background()
	sweep := testSweep(t, 0, 3)
	sweep.FailurePolicy = sweepDomain.FailurePolicyAbort
	runs := testRuns(sweep)

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)
	runRepo.On("ListBySweep", ctx, sweep.ID, 0, 3).Return(runs, nil)
	sweepRepo.On("UpdateStatus", ctx, sweep).Return(nil)
	runRepo.On("Update", ctx, mock.AnythingOfType("*domain.Run")).Return(nil)
	runner.On("Run", ctx, mock.AnythingOfType("trainer.Invocation")).
		Return(trainer.Result{ExitCode: 2, Exited: true}, nil).Once()

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, false)

	require.NoError(t, err)
	assert.Equal(t, sweepDomain.SweepStatusAborted, report.Status)
	assert.Equal(t, 1, report.Executed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, sweepDomain.RunStatusPending, runs[1].Status)
	assert.Equal(t, sweepDomain.RunStatusPending, runs[2].Status)
	runner.AssertExpectations(t)
}

func TestSweepUseCase_ExecuteSweep_RetriesFailedAttempt(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	runner := &MockRunner{}

	config := testConfig()
	config.MaxAttempts = 2
	useCase := NewSweepUseCase(config, txManager, sweepRepo, runRepo, runner, nil, testLogger())

	ctx := context.Background()
	sweep := testSweep(t, 0, 1)
	runs := testRuns(sweep)

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)
	runRepo.On("ListBySweep", ctx, sweep.ID, 0, 1).Return(runs, nil)
	sweepRepo.On("UpdateStatus", ctx, sweep).Return(nil)
	runRepo.On("Update", ctx, mock.AnythingOfType("*domain.Run")).Return(nil)
	runner.On("Run", ctx, mock.AnythingOfType("trainer.Invocation")).
		Return(trainer.Result{ExitCode: 1, Exited: true}, nil).Once()
	runner.On("Run", ctx, mock.AnythingOfType("trainer.Invocation")).
		Return(trainer.Result{ExitCode: 0, Exited: true}, nil).Once()

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, false)

	require.NoError(t, err)
	assert.Equal(t, sweepDomain.SweepStatusCompleted, report.Status)
	assert.Equal(t, sweepDomain.RunStatusSucceeded, runs[0].Status)
	assert.Equal(t, 2, runs[0].Attempts)
	runner.AssertExpectations(t)
}

func TestSweepUseCase_ExecuteSweep_SpawnFailure(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	runner := &MockRunner{}
	useCase := newTestUseCase(txManager, sweepRepo, runRepo, runner)

	ctx := context.Background()
	sweep := testSweep(t, 0, 1)
	runs := testRuns(sweep)
	spawnError := errors.New("exec: \"python\": executable file not found in $PATH")

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)
	runRepo.On("ListBySweep", ctx, sweep.ID, 0, 1).Return(runs, nil)
	sweepRepo.On("UpdateStatus", ctx, sweep).Return(nil)
	runRepo.On("Update", ctx, mock.AnythingOfType("*domain.Run")).Return(nil)
	runner.On("Run", ctx, mock.AnythingOfType("trainer.Invocation")).
		Return(trainer.Result{}, spawnError).Once()

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, false)

	require.NoError(t, err)
	assert.Equal(t, sweepDomain.SweepStatusFailed, report.Status)
	assert.Equal(t, sweepDomain.RunStatusFailed, runs[0].Status)
	assert.Nil(t, runs[0].ExitCode)
	runner.AssertExpectations(t)
}

func TestSweepUseCase_ExecuteSweep_AlreadyRunning(t *testing.T) {
	sweepRepo := &MockSweepRepository{}
	useCase := newTestUseCase(&MockTxManager{}, sweepRepo, &MockRunRepository{}, &MockRunner{})

	ctx := context.Background()
	sweep := testSweep(t, 0, 2)
	sweep.Status = sweepDomain.SweepStatusRunning

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, false)

	assert.Nil(t, report)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestSweepUseCase_ExecuteSweep_CompletedWithoutForce(t *testing.T) {
	sweepRepo := &MockSweepRepository{}
	useCase := newTestUseCase(&MockTxManager{}, sweepRepo, &MockRunRepository{}, &MockRunner{})

	ctx := context.Background()
	sweep := testSweep(t, 0, 2)
	sweep.Status = sweepDomain.SweepStatusCompleted

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, false)

	assert.Nil(t, report)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestSweepUseCase_ExecuteSweep_SweepNotFound(t *testing.T) {
	sweepRepo := &MockSweepRepository{}
	useCase := newTestUseCase(&MockTxManager{}, sweepRepo, &MockRunRepository{}, &MockRunner{})

	ctx := context.Background()
	sweepID := uuid.Must(uuid.NewV7())

	sweepRepo.On("GetByID", ctx, sweepID).Return(nil, apperrors.ErrNotFound)

	report, err := useCase.ExecuteSweep(ctx, sweepID, false)

	assert.Nil(t, report)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestSweepUseCase_ExecuteSweep_JournalMismatch(t *testing.T) {
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	useCase := newTestUseCase(&MockTxManager{}, sweepRepo, runRepo, &MockRunner{})

	ctx := context.Background()
	sweep := testSweep(t, 0, 3)

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)
	runRepo.On("ListBySweep", ctx, sweep.ID, 0, 3).Return([]*sweepDomain.Run{}, nil)

	report, err := useCase.ExecuteSweep(ctx, sweep.ID, false)

	assert.Nil(t, report)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestSweepUseCase_ExecuteSweep_RecordsMetrics(t *testing.T) {
	txManager := &MockTxManager{}
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	runner := &MockRunner{}
	sweepMetrics := &MockSweepMetrics{}
	useCase := NewSweepUseCase(
		testConfig(), txManager, sweepRepo, runRepo, runner, sweepMetrics, testLogger())

	ctx := context.Background()
	sweep := testSweep(t, 0, 1)
	runs := testRuns(sweep)

	sweepRepo.On("GetByID", ctx, sweep.ID).Return(sweep, nil)
	runRepo.On("ListBySweep", ctx, sweep.ID, 0, 1).Return(runs, nil)
	sweepRepo.On("UpdateStatus", ctx, sweep).Return(nil)
	runRepo.On("Update", ctx, mock.AnythingOfType("*domain.Run")).Return(nil)
	runner.On("Run", ctx, mock.AnythingOfType("trainer.Invocation")).
		Return(trainer.Result{ExitCode: 0, Exited: true}, nil).Once()
	sweepMetrics.On("RecordRun", ctx, "gab", "succeeded").Once()
	sweepMetrics.On("RecordRunDuration", ctx, "gab", mock.AnythingOfType("time.Duration"), "succeeded").Once()
	sweepMetrics.On("RecordSweep", ctx, "gab", "completed").Once()

	_, err := useCase.ExecuteSweep(ctx, sweep.ID, false)

	require.NoError(t, err)
	sweepMetrics.AssertExpectations(t)
}

func TestSweepUseCase_ListRuns_SweepNotFound(t *testing.T) {
	sweepRepo := &MockSweepRepository{}
	runRepo := &MockRunRepository{}
	useCase := newTestUseCase(&MockTxManager{}, sweepRepo, runRepo, &MockRunner{})

	ctx := context.Background()
	sweepID := uuid.Must(uuid.NewV7())

	sweepRepo.On("GetByID", ctx, sweepID).Return(nil, apperrors.ErrNotFound)

	runs, err := useCase.ListRuns(ctx, sweepID, 0, 10)

	assert.Nil(t, runs)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	runRepo.AssertNotCalled(t, "ListBySweep", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
