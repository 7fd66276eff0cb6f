package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/stretchr/testify/require"
)

// mesonStub stands in for the meson binary. setup creates meson-private and
// compile drops a static archive named after the library.
type mesonStub struct {
	lib   string
	calls [][]string
	fail  string
}

func (m *mesonStub) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if args[0] == m.fail {
		return []byte("meson.build:1:0: ERROR: boom"), errors.New("exit status 1")
	}
	switch args[0] {
	case "setup":
		buildDir := args[len(args)-2]
		if err := os.MkdirAll(filepath.Join(dir, buildDir, "meson-private"), 0755); err != nil {
			return nil, err
		}
	case "compile":
		buildDir := args[len(args)-1]
		lib := filepath.Join(dir, buildDir, "lib"+m.lib+".a")
		if err := os.WriteFile(lib, []byte("!<arch>\nxtest.c.o/"), 0644); err != nil {
			return nil, err
		}
	}
	return []byte("ok"), nil
}

func (m *mesonStub) subcommands() []string {
	var out []string
	for _, c := range m.calls {
		out = append(out, c[1])
	}
	return out
}

func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		"code/meson.build":               "project('xtest', 'c')\n",
		"code/source/xtest.c":            "int xtest;\n",
		"code/include/fossil/xtest.h":    "#pragma once\n",
		"code/include/fossil/xtest/ut.h": "#pragma once\n",
	} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func linuxProfile(root string) models.Profile {
	return models.Profile{
		Settings: models.Settings{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"},
		Root:     root,
	}
}

var linuxMachine = models.Settings{OS: "Linux", Arch: "x86_64"}
