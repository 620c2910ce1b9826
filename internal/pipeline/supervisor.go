package pipeline

import (
	"context"
	goerrors "errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/pandoc-spec/internal/errors"
	"github.com/conneroisu/pandoc-spec/internal/logging"
)

// ChainIO carries the stdio endpoints of a pipeline run. The first stage
// reads Stdin, the terminal stage writes Stdout, and every stage shares
// Stderr.
type ChainIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// RunChain starts every stage with its stdout connected to the next stage's
// stdin through an OS pipe, waits for all of them, and returns the first
// failure in temporal order, or nil when the whole chain succeeds.
//
// A failure never aborts the other stages: when a stage dies its pipes
// close, upstream writers fail on the broken pipe, and downstream readers
// see EOF, so the chain drains on its own. All stages are reaped before
// RunChain returns.
func RunChain(ctx context.Context, logger logging.Logger, dir string, stages []Stage, chainIO ChainIO) error {
	if len(stages) == 0 {
		return nil
	}

	cmds := make([]*exec.Cmd, len(stages))

	var prevRead *os.File
	for i, stage := range stages {
		cmd := stageCommand(ctx, stage)
		cmd.Dir = dir
		cmd.Stderr = chainIO.Stderr
		if len(stage.Env) > 0 {
			env := os.Environ()
			for k, v := range stage.Env {
				env = append(env, k+"="+v)
			}
			cmd.Env = env
		}

		if prevRead != nil {
			cmd.Stdin = prevRead
		} else {
			cmd.Stdin = chainIO.Stdin
		}

		var nextRead, write *os.File
		if stage.PipeToNext && i < len(stages)-1 {
			var err error
			nextRead, write, err = os.Pipe()
			if err != nil {
				closeFile(prevRead)
				reapStarted(cmds[:i])
				return errors.NewIOError(errors.ErrCodeStageSpawn,
					"could not create pipe", err)
			}
			cmd.Stdout = write
		} else {
			cmd.Stdout = chainIO.Stdout
		}

		logger.Debug(ctx, "Starting stage", "stage", stage.Name, "command", stage.DisplayCommand())
		if err := cmd.Start(); err != nil {
			closeFile(prevRead)
			closeFile(write)
			closeFile(nextRead)
			reapStarted(cmds[:i])
			return errors.NewSpawnError(stage.DisplayCommand(), err)
		}
		cmds[i] = cmd

		// The children own their pipe ends now. The parent's copies must
		// close, or downstream stages would never see EOF.
		closeFile(prevRead)
		closeFile(write)
		prevRead = nextRead
	}

	g := new(errgroup.Group)
	for i := range cmds {
		stage, cmd := stages[i], cmds[i]
		g.Go(func() error {
			return waitStage(ctx, logger, stage, cmd)
		})
	}

	return g.Wait()
}

// waitStage reaps one stage and classifies its outcome: clean exit, nonzero
// exit code, or signal termination.
func waitStage(ctx context.Context, logger logging.Logger, stage Stage, cmd *exec.Cmd) error {
	err := cmd.Wait()
	if err == nil {
		logger.Debug(ctx, "Stage finished", "stage", stage.Name)
		return nil
	}

	var exitErr *exec.ExitError
	if goerrors.As(err, &exitErr) {
		if name, ok := terminationSignal(exitErr.ProcessState); ok {
			logger.Debug(ctx, "Stage signaled", "stage", stage.Name, "signal", name)
			return errors.NewSignalError(stage.DisplayCommand(), name)
		}
		code := exitErr.ExitCode()
		logger.Debug(ctx, "Stage failed", "stage", stage.Name, "code", code)
		return errors.NewStageExitError(stage.DisplayCommand(), code)
	}

	return errors.NewIOError(errors.ErrCodeStageFailed,
		stage.DisplayCommand()+" could not be awaited", err)
}

// stageCommand builds the exec.Cmd for a stage, shell-wrapped when asked.
func stageCommand(ctx context.Context, stage Stage) *exec.Cmd {
	if !stage.UseShell {
		return exec.CommandContext(ctx, stage.Command, stage.Args...)
	}

	if runtime.GOOS == "windows" {
		args := append([]string{"/C", stage.Command}, stage.Args...)
		return exec.CommandContext(ctx, "cmd.exe", args...)
	}

	line := stage.Command
	if len(stage.Args) > 0 {
		line += " " + strings.Join(stage.Args, " ")
	}
	return exec.CommandContext(ctx, "/bin/sh", "-c", line)
}

// reapStarted kills and waits any stages already running when a later stage
// failed to start, so no children outlive the failed run.
func reapStarted(cmds []*exec.Cmd) {
	for _, cmd := range cmds {
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
	for _, cmd := range cmds {
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Wait()
		}
	}
}

func closeFile(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}
