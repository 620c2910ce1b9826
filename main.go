package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/conneroisu/pandoc-spec/cmd"
	"github.com/conneroisu/pandoc-spec/internal/errors"
)

func main() {
	// Error ignored: maxprocs.Set only fails on an invalid GOMAXPROCS
	// environment value, in which case the runtime default applies.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	// Interrupts end watch mode and cancel any in-flight stages.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errors.ExitStatus(err))
	}
}
