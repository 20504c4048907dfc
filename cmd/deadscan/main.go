package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// Exit codes.
const (
	exitClean      = 0
	exitIssues     = 1
	exitStructural = 2
)

// IssuesFoundError reports a completed scan with findings.
// It maps to exit status 1 and is not printed as an error.
type IssuesFoundError struct {
	Count int
}

func (e *IssuesFoundError) Error() string {
	return fmt.Sprintf("%d issues found", e.Count)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	// PersistentPostRunE is skipped when a command fails.
	if perr := finishProfile(os.Stderr); perr != nil && err == nil {
		err = perr
	}
	os.Exit(exitCode(err, os.Stderr))
}

// exitCode maps a command error to the process exit status, printing structural errors.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitClean
	}
	var issues *IssuesFoundError
	if errors.As(err, &issues) {
		return exitIssues
	}
	color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
	return exitStructural
}
