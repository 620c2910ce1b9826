package pipeline

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pandoc-spec/internal/errors"
	"github.com/conneroisu/pandoc-spec/internal/logging"
)

// The chain tests drive real processes through a POSIX shell.
func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func shStage(name, script string, pipeToNext bool) Stage {
	return Stage{
		Name:       name,
		Command:    "/bin/sh",
		Args:       []string{"-c", script},
		PipeToNext: pipeToNext,
	}
}

func TestRunChain(t *testing.T) {
	requireUnix(t)
	ctx := context.Background()
	logger := logging.NewTestLogger()

	t.Run("streams stdout through the chain", func(t *testing.T) {
		var out bytes.Buffer
		stages := []Stage{
			shStage("produce", "echo hello", true),
			shStage("consume", "cat", false),
		}

		err := RunChain(ctx, logger, t.TempDir(), stages, ChainIO{Stdout: &out})

		require.NoError(t, err)
		assert.Equal(t, "hello\n", out.String())
	})

	t.Run("first stage reads the run stdin", func(t *testing.T) {
		var out bytes.Buffer
		stages := []Stage{
			shStage("upper", "tr a-z A-Z", false),
		}

		err := RunChain(ctx, logger, t.TempDir(), stages, ChainIO{
			Stdin:  strings.NewReader("quiet"),
			Stdout: &out,
		})

		require.NoError(t, err)
		assert.Equal(t, "QUIET", out.String())
	})

	t.Run("terminal exit code becomes the run failure", func(t *testing.T) {
		stages := []Stage{
			shStage("produce", "echo payload", true),
			shStage("fail", "cat >/dev/null; exit 2", false),
		}

		err := RunChain(ctx, logger, t.TempDir(), stages, ChainIO{})
		require.Error(t, err)

		var perr *errors.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, errors.ErrCodeStageFailed, perr.Code)
		assert.Equal(t, 2, perr.ExitCode)
		assert.Equal(t, 2, errors.ExitStatus(err))
	})

	t.Run("first failure in time wins", func(t *testing.T) {
		stages := []Stage{
			shStage("slow", "sleep 0.3; echo late", true),
			shStage("fast-fail", "exit 3", true),
			shStage("consume", "cat >/dev/null", false),
		}

		err := RunChain(ctx, logger, t.TempDir(), stages, ChainIO{})
		require.Error(t, err)

		var perr *errors.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 3, perr.ExitCode)
	})

	t.Run("signal termination is reported by name", func(t *testing.T) {
		stages := []Stage{
			shStage("doomed", "kill -KILL $$", false),
		}

		err := RunChain(ctx, logger, t.TempDir(), stages, ChainIO{})
		require.Error(t, err)

		var perr *errors.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, errors.ErrCodeStageSignaled, perr.Code)
		assert.Equal(t, "SIGKILL", perr.Signal)
		assert.Contains(t, perr.Error(), "terminated by signal SIGKILL")
	})

	t.Run("spawn failure reaps already started stages", func(t *testing.T) {
		stages := []Stage{
			shStage("running", "sleep 10", true),
			{Name: "ghost", Command: "definitely-not-a-command-2719", PipeToNext: false},
		}

		err := RunChain(ctx, logger, t.TempDir(), stages, ChainIO{})
		require.Error(t, err)

		var perr *errors.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, errors.ErrCodeStageSpawn, perr.Code)
	})

	t.Run("stage environment is appended", func(t *testing.T) {
		var out bytes.Buffer
		stages := []Stage{
			{
				Name:    "env",
				Command: "/bin/sh",
				Args:    []string{"-c", `printf "%s" "$MERMAID_FILTER_FORMAT"`},
				Env:     map[string]string{"MERMAID_FILTER_FORMAT": "svg"},
			},
		}

		err := RunChain(ctx, logger, t.TempDir(), stages, ChainIO{Stdout: &out})

		require.NoError(t, err)
		assert.Equal(t, "svg", out.String())
	})

	t.Run("stages run in the given directory", func(t *testing.T) {
		dir := t.TempDir()
		var out bytes.Buffer
		stages := []Stage{
			shStage("where", "pwd", false),
		}

		err := RunChain(ctx, logger, dir, stages, ChainIO{Stdout: &out})

		require.NoError(t, err)
		want, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		assert.Equal(t, want, strings.TrimSpace(out.String()))
	})

	t.Run("shell wrapping joins command and args", func(t *testing.T) {
		var out bytes.Buffer
		stages := []Stage{
			{Name: "wrapped", Command: "echo", Args: []string{"wrapped"}, UseShell: true},
		}

		err := RunChain(ctx, logger, t.TempDir(), stages, ChainIO{Stdout: &out})

		require.NoError(t, err)
		assert.Equal(t, "wrapped\n", out.String())
	})

	t.Run("empty chain is a no-op", func(t *testing.T) {
		assert.NoError(t, RunChain(ctx, logger, t.TempDir(), nil, ChainIO{}))
	})
}
