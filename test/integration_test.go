package test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const mesonBuild = `project('fscl-xtest-c', 'c', version: '1.1.2')
inc = include_directories('include')
library('fscl-xtest-c', 'source/xtest.c', include_directories: inc)
`

// TestIntegration runs the real meson toolchain against a tiny C project
func TestIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	if runtime.GOOS != "linux" {
		t.Skip("Integration tests run on Linux only")
	}
	for _, tool := range []string{"meson", "ninja", "gcc"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available, skipping integration tests", tool)
		}
	}

	// Get project root
	projectRoot, err := getProjectRoot()
	if err != nil {
		t.Fatalf("Failed to find project root: %v", err)
	}

	// Build xpkg binary
	binDir := t.TempDir()
	t.Log("Building xpkg binary...")
	if err := buildXpkg(projectRoot, binDir); err != nil {
		t.Fatalf("Failed to build xpkg: %v", err)
	}
	xpkg := filepath.Join(binDir, "xpkg")

	workspace := t.TempDir()
	writeProject(t, workspace)
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	t.Run("Create", func(t *testing.T) {
		out := run(t, xpkg, "create", "--root", workspace, "--cache", cachePath, "-s", "build_type=Debug", "--archive-format", "tgz")
		t.Log(out)

		for _, file := range []string{
			"builddir-generators/conan_meson_native.ini",
			"builddir/meson-private",
			"package/include/xtest.h",
			"package/include/xtest/assert.h",
			"package/lib/libfscl-xtest-c.a",
			"package/conanmanifest.txt",
			"package/conaninfo.txt",
			"conan_package.tgz",
		} {
			if _, err := os.Stat(filepath.Join(workspace, file)); os.IsNotExist(err) {
				t.Errorf("Expected file not found: %s", file)
			}
		}

		native, err := os.ReadFile(filepath.Join(workspace, "builddir-generators", "conan_meson_native.ini"))
		if err != nil {
			t.Fatalf("Failed to read native file: %v", err)
		}
		if !strings.Contains(string(native), "buildtype = 'debug'") {
			t.Errorf("Native file does not select the debug build type:\n%s", native)
		}
	})

	t.Run("RebuildReconfigures", func(t *testing.T) {
		before, err := os.ReadFile(filepath.Join(workspace, "package", "conaninfo.txt"))
		if err != nil {
			t.Fatalf("Failed to read conaninfo: %v", err)
		}

		run(t, xpkg, "build", "--root", workspace, "-s", "build_type=Debug")
		run(t, xpkg, "package", "--root", workspace, "-s", "build_type=Debug")

		after, err := os.ReadFile(filepath.Join(workspace, "package", "conaninfo.txt"))
		if err != nil {
			t.Fatalf("Failed to read conaninfo: %v", err)
		}
		if string(before) != string(after) {
			t.Errorf("Package identity changed across rebuilds:\n%s\n%s", before, after)
		}
	})

	t.Run("Info", func(t *testing.T) {
		out := run(t, xpkg, "info", "--root", workspace, "-o", "shared=True")
		if !strings.Contains(out, "libs:       fscl-xtest-c") {
			t.Errorf("Unexpected info output:\n%s", out)
		}
	})

	t.Run("List", func(t *testing.T) {
		out := run(t, xpkg, "list", "Xtest", "--latest", "--cache", cachePath)
		if !strings.Contains(out, "Xtest/1.1.2") || !strings.Contains(out, "build_type=Debug") {
			t.Errorf("Unexpected list output:\n%s", out)
		}
	})

	t.Run("Shared", func(t *testing.T) {
		shared := t.TempDir()
		writeProject(t, shared)
		out := run(t, xpkg, "create", "--root", shared, "--cache", cachePath, "-o", "shared=True")
		t.Log(out)

		for _, file := range []string{
			"package/lib/libfscl-xtest-c.a",
			"package/lib/libfscl-xtest-c.so",
		} {
			if _, err := os.Stat(filepath.Join(shared, file)); os.IsNotExist(err) {
				t.Errorf("Expected file not found: %s", file)
			}
		}

		info, err := os.ReadFile(filepath.Join(shared, "package", "conaninfo.txt"))
		if err != nil {
			t.Fatalf("Failed to read conaninfo: %v", err)
		}
		if !strings.Contains(string(info), "shared=True") {
			t.Errorf("Package is not marked shared:\n%s", info)
		}
	})

	t.Log("✓ Meson integration test passed")
}

func writeProject(t *testing.T, root string) {
	t.Helper()
	files := map[string]string{
		"code/meson.build":                   mesonBuild,
		"code/source/xtest.c":                "#include \"fossil/xtest.h\"\nint fossil_xtest_version(void) { return 112; }\n",
		"code/include/fossil/xtest.h":        "#pragma once\nint fossil_xtest_version(void);\n",
		"code/include/fossil/xtest/assert.h": "#pragma once\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func run(t *testing.T, bin string, args ...string) string {
	t.Helper()
	cmd := exec.Command(bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("xpkg %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

// Helper functions

func getProjectRoot() (string, error) {
	// Try to find go.mod
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find project root (go.mod)")
}

func buildXpkg(projectRoot, outDir string) error {
	cmd := exec.Command("go", "build", "-o", filepath.Join(outDir, "xpkg"), "./cmd/xpkg")
	cmd.Dir = projectRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
