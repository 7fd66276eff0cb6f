package builder

import (
	"context"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// Runner executes an external tool and returns its combined output
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run executes name in dir
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	logrus.Debugf("Running %s %v in %s", name, args, dir)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}
