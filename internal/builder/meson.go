package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/toolchain"
	"github.com/sirupsen/logrus"
)

// Meson drives the two-step meson configure/compile contract
type Meson struct {
	runner       Runner
	binary       string
	root         string
	sourceFolder string
	buildFolder  string
}

// NewMeson creates a Meson builder for the given workspace. Folders are
// relative to root.
func NewMeson(runner Runner, root, sourceFolder, buildFolder string) *Meson {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Meson{
		runner:       runner,
		binary:       "meson",
		root:         root,
		sourceFolder: sourceFolder,
		buildFolder:  buildFolder,
	}
}

// BuildDir returns the absolute build folder
func (m *Meson) BuildDir() string {
	return filepath.Join(m.root, m.buildFolder)
}

// Configured reports whether the build folder already holds a meson setup
func (m *Meson) Configured() bool {
	info, err := os.Stat(filepath.Join(m.BuildDir(), "meson-private"))
	return err == nil && info.IsDir()
}

// Configure runs meson setup. An existing build folder is reconfigured
// rather than set up again, so repeated builds do not fail.
func (m *Meson) Configure(ctx context.Context, tc *toolchain.Result) error {
	src := filepath.Join(m.root, m.sourceFolder)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return models.NewError(models.ErrBuild, "configure", fmt.Errorf("source folder %s not found", src))
	}

	args := []string{"setup"}
	if m.Configured() {
		logrus.Infof("Reconfiguring existing build folder %s", m.buildFolder)
		args = append(args, "--reconfigure")
	}
	if tc.Cross {
		args = append(args, "--cross-file", tc.Path)
	} else {
		args = append(args, "--native-file", tc.Path)
	}
	args = append(args, m.buildFolder, m.sourceFolder)

	return m.run(ctx, "configure", args...)
}

// Build runs meson compile in the build folder
func (m *Meson) Build(ctx context.Context) error {
	return m.run(ctx, "build", "compile", "-C", m.buildFolder)
}

func (m *Meson) run(ctx context.Context, step string, args ...string) error {
	output, err := m.runner.Run(ctx, m.root, m.binary, args...)
	if err == nil {
		logrus.Debugf("meson %s output:\n%s", args[0], output)
		return nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		return models.NewError(models.ErrBuild, step, fmt.Errorf("%s not found in PATH: %w", m.binary, err))
	}
	return models.NewError(models.ErrBuild, step, fmt.Errorf("%s %s failed: %w (output: %s)",
		m.binary, strings.Join(args, " "), err, strings.TrimSpace(string(output))))
}
