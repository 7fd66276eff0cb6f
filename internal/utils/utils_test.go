package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateChecksums(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xtest.h")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	sum, err := CalculateChecksums(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum.Size)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum.MD5)
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum.Digest())

	_, err = CalculateChecksums(filepath.Join(t.TempDir(), "missing.h"))
	assert.Error(t, err)
}

func TestCopyFileKeepsMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "libfscl-xtest-c.a")
	dst := filepath.Join(dir, "package", "lib", "libfscl-xtest-c.a")
	require.NoError(t, os.WriteFile(src, []byte("!<arch>\n"), 0600))

	require.NoError(t, CopyFile(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNeedsCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.h")
	dst := filepath.Join(dir, "b.h")
	require.NoError(t, os.WriteFile(src, []byte("int a;"), 0644))

	needs, err := NeedsCopy(src, dst)
	require.NoError(t, err)
	assert.True(t, needs, "missing destination")

	require.NoError(t, CopyFile(src, dst))
	needs, err = NeedsCopy(src, dst)
	require.NoError(t, err)
	assert.False(t, needs, "identical destination")

	require.NoError(t, os.WriteFile(dst, []byte("int b;"), 0644))
	needs, err = NeedsCopy(src, dst)
	require.NoError(t, err)
	assert.True(t, needs, "same size, different content")

	needs, err = NeedsCopy(src, src)
	require.NoError(t, err)
	assert.False(t, needs)

	_, err = NeedsCopy(filepath.Join(dir, "missing.h"), dst)
	assert.Error(t, err)
}

func TestPackageID(t *testing.T) {
	p := models.Profile{
		Settings: models.Settings{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"},
	}

	id := PackageID(p)
	assert.Len(t, id, 40)
	assert.Equal(t, id, PackageID(p))

	p.Options.Shared = true
	assert.NotEqual(t, id, PackageID(p))
	assert.Len(t, ShortID(id), 12)
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestPackageIDIgnoresUndeclaredSettings(t *testing.T) {
	release := models.Profile{
		Settings: models.Settings{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"},
		Declared: []string{"os", "arch"},
	}
	debug := release
	debug.Settings.BuildType = "Debug"
	assert.Equal(t, PackageID(release), PackageID(debug))

	debug.Declared = nil
	assert.NotEqual(t, PackageID(release), PackageID(debug))
}
