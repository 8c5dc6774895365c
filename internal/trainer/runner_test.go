package trainer

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInvocation_String(t *testing.T) {
	inv := Invocation{
		Program: "python",
		Args:    []string{"run_model.py", "--do_train", "--data_dir", "data/my set"},
	}
	// Arguments with spaces must be quoted so the rendered command is runnable.
	assert.Equal(t, "python run_model.py --do_train --data_dir 'data/my set'", inv.String())
}

func TestExecRunner_Run(t *testing.T) {
	runner := NewExecRunner(0, 1024, testLogger())
	ctx := context.Background()

	t.Run("zero exit", func(t *testing.T) {
		result, err := runner.Run(ctx, Invocation{
			Program: "sh",
			Args:    []string{"-c", "echo training done"},
		})
		require.NoError(t, err)
		assert.True(t, result.Exited)
		assert.Equal(t, 0, result.ExitCode)
		assert.True(t, result.Success())
		assert.Contains(t, result.OutputTail, "training done")
	})

	t.Run("non-zero exit is a result, not an error", func(t *testing.T) {
		result, err := runner.Run(ctx, Invocation{
			Program: "sh",
			Args:    []string{"-c", "echo boom >&2; exit 3"},
		})
		require.NoError(t, err)
		assert.True(t, result.Exited)
		assert.Equal(t, 3, result.ExitCode)
		assert.False(t, result.Success())
		assert.Contains(t, result.OutputTail, "boom")
	})

	t.Run("spawn failure is an error", func(t *testing.T) {
		_, err := runner.Run(ctx, Invocation{Program: "definitely-not-a-real-binary"})
		assert.Error(t, err)
	})

	t.Run("timeout interrupts a hung trainer", func(t *testing.T) {
		timed := NewExecRunner(100*time.Millisecond, 1024, testLogger())
		start := time.Now()
		_, err := timed.Run(ctx, Invocation{
			Program: "sh",
			Args:    []string{"-c", "sleep 30"},
		})
		require.Error(t, err)
		assert.Less(t, time.Since(start), 10*time.Second)
	})

	t.Run("timeout is not held open by surviving workers", func(t *testing.T) {
		// The forked sleep inherits the output pipes and outlives the killed
		// shell; the runner must not wait for it.
		timed := NewExecRunner(100*time.Millisecond, 1024, testLogger())
		start := time.Now()
		_, err := timed.Run(ctx, Invocation{
			Program: "sh",
			Args:    []string{"-c", "sleep 30 & wait"},
		})
		require.Error(t, err)
		assert.Less(t, time.Since(start), 10*time.Second)
	})

	t.Run("cancellation interrupts a hung trainer", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()
		start := time.Now()
		_, err := runner.Run(cancelCtx, Invocation{
			Program: "sh",
			Args:    []string{"-c", "sleep 30"},
		})
		assert.Error(t, err)
		assert.Less(t, time.Since(start), 10*time.Second)
	})
}

func TestTailBuffer(t *testing.T) {
	t.Run("keeps everything under the limit", func(t *testing.T) {
		tail := newTailBuffer(16)
		_, err := tail.Write([]byte("short"))
		require.NoError(t, err)
		assert.Equal(t, "short", tail.String())
	})

	t.Run("keeps only the last max bytes", func(t *testing.T) {
		tail := newTailBuffer(8)
		for _, chunk := range []string{"epoch 1\n", "epoch 2\n", "epoch 3\n"} {
			_, err := tail.Write([]byte(chunk))
			require.NoError(t, err)
		}
		assert.Equal(t, "epoch 3\n", tail.String())
	})

	t.Run("single oversized write keeps its tail", func(t *testing.T) {
		tail := newTailBuffer(4)
		_, err := tail.Write([]byte(strings.Repeat("a", 100) + "done"))
		require.NoError(t, err)
		assert.Equal(t, "done", tail.String())
	})
}
