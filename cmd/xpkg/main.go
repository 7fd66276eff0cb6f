package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fossil-lib/xpkg/internal/cli"
	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/sirupsen/logrus"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// run executes one command line and maps its outcome to an exit code.
// Configuration mistakes exit with 2 and interrupted runs with 130.
func run(ctx context.Context, args []string, out io.Writer) int {
	rootCmd := cli.NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)

	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		logrus.Warn("Interrupted")
		return exitInterrupted
	case models.IsType(err, models.ErrInvalidConfig):
		logrus.Error(err)
		return exitUsage
	default:
		logrus.Error(err)
		return exitFailure
	}
}
