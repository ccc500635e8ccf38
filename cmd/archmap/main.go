package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archmap/internal/cli"
	aerrors "github.com/matzehuels/archmap/pkg/errors"
)

// Exit codes. Scripts around `archmap watch` and `archmap map` tell bad
// input apart from missing analyses by these.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitNotFound  = 3
	exitInterrupt = 130
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Args[1:])
	if err != nil && !errors.Is(err, context.Canceled) {
		report(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

func run(ctx context.Context, args []string) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.SetArgs(args)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupt
	}
	switch aerrors.GetCode(err) {
	case aerrors.ErrCodeInvalidInput, aerrors.ErrCodeInvalidPayload, aerrors.ErrCodeInvalidLayout,
		aerrors.ErrCodeInvalidFormat, aerrors.ErrCodeInvalidConfig, aerrors.ErrCodeInvalidID:
		return exitUsage
	case aerrors.ErrCodeNotFound, aerrors.ErrCodeAnalysisNotFound, aerrors.ErrCodeFileNotFound:
		return exitNotFound
	}
	return exitFailure
}

// report prints err. Usage errors get a pointer to the help text.
func report(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
	if exitCode(err) == exitUsage {
		fmt.Fprintln(w, "Run 'archmap --help' for usage.")
	}
}
