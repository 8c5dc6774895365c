package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Lifecycle(t *testing.T) {
	sweep, err := NewPresetSweep(PresetGabVanilla, FailurePolicyContinue, testPaths())
	require.NoError(t, err)

	run := NewRun(sweep, 2)
	assert.Equal(t, sweep.ID, run.SweepID)
	assert.Equal(t, 2, run.Seed)
	assert.Equal(t, "runs/gab-vanilla_seed_2", run.OutputDir)
	assert.Equal(t, RunStatusPending, run.Status)
	assert.Nil(t, run.ExitCode)
	assert.False(t, run.IsFinished())

	run.MarkRunning()
	assert.Equal(t, RunStatusRunning, run.Status)
	require.NotNil(t, run.StartedAt)
	assert.False(t, run.IsFinished())

	run.MarkSucceeded(0, 1, "epoch 20 done")
	assert.Equal(t, RunStatusSucceeded, run.Status)
	require.NotNil(t, run.ExitCode)
	assert.Equal(t, 0, *run.ExitCode)
	assert.Equal(t, 1, run.Attempts)
	assert.Equal(t, "epoch 20 done", run.OutputTail)
	require.NotNil(t, run.FinishedAt)
	assert.True(t, run.IsFinished())
}

func TestRun_MarkFailed(t *testing.T) {
	sweep, err := NewPresetSweep(PresetGabVanilla, FailurePolicyContinue, testPaths())
	require.NoError(t, err)

	t.Run("with exit code", func(t *testing.T) {
		run := NewRun(sweep, 5)
		run.MarkRunning()

		exitCode := 1
		run.MarkFailed(&exitCode, 3, "CUDA out of memory")

		assert.Equal(t, RunStatusFailed, run.Status)
		require.NotNil(t, run.ExitCode)
		assert.Equal(t, 1, *run.ExitCode)
		assert.Equal(t, 3, run.Attempts)
		assert.True(t, run.IsFinished())
	})

	t.Run("without exit code on spawn failure", func(t *testing.T) {
		run := NewRun(sweep, 6)
		run.MarkRunning()
		run.MarkFailed(nil, 1, "")

		assert.Equal(t, RunStatusFailed, run.Status)
		assert.Nil(t, run.ExitCode)
	})
}
