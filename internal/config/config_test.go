package config

import (
	"testing"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSettings(t *testing.T) {
	cases := []struct {
		goos, goarch string
		want         models.Settings
	}{
		{"linux", "amd64", models.Settings{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"}},
		{"darwin", "arm64", models.Settings{OS: "Macos", Compiler: "apple-clang", BuildType: "Release", Arch: "armv8"}},
		{"windows", "386", models.Settings{OS: "Windows", Compiler: "msvc", BuildType: "Release", Arch: "x86"}},
		{"freebsd", "riscv64", models.Settings{OS: "FreeBSD", Compiler: "clang", BuildType: "Release", Arch: "riscv64"}},
	}

	for _, tc := range cases {
		got := detectSettings(tc.goos, tc.goarch)
		assert.Equal(t, tc.want, got, "%s/%s", tc.goos, tc.goarch)
		_, err := got.Normalize()
		assert.NoError(t, err)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("XPKG_OS", "Windows")
	t.Setenv("XPKG_BUILD_TYPE", "Debug")
	t.Setenv("XPKG_COMPILER_VERSION", "193")
	t.Setenv("XPKG_SHARED", "true")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "Windows", env.OS)
	assert.Equal(t, "Debug", env.BuildType)
	assert.Equal(t, "193", env.CompilerVersion)
	assert.Equal(t, "true", env.Shared)
}

func TestResolvePrecedence(t *testing.T) {
	env := Env{OS: "Linux", Compiler: "gcc", BuildType: "Debug", Arch: "armv8", Shared: "true"}
	ov := Overrides{
		Settings: []string{"build_type=Release", "arch=x86_64"},
		Options:  []string{"shared=False"},
	}

	p, err := Resolve(recipe.Default(), env, ov, ".")
	require.NoError(t, err)
	assert.Equal(t, models.Settings{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"}, p.Settings)
	assert.False(t, p.Options.Shared)
	assert.True(t, len(p.Root) > 1)
	assert.Equal(t, []string{"os", "compiler", "build_type", "arch"}, p.Declared)
}

func TestResolveScopesIdentityToDeclaredSettings(t *testing.T) {
	d := recipe.Default()
	d.Settings = []string{"os", "arch"}
	env := Env{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"}

	release, err := Resolve(d, env, Overrides{}, ".")
	require.NoError(t, err)
	debug, err := Resolve(d, env, Overrides{Settings: []string{"build_type=Debug"}}, ".")
	require.NoError(t, err)

	assert.Equal(t, "Debug", debug.Settings.BuildType)
	assert.Equal(t, release.Canonical(), debug.Canonical())
	assert.NotContains(t, release.Canonical(), "build_type")
}

func TestResolveInvalid(t *testing.T) {
	env := Env{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"}

	_, err := Resolve(recipe.Default(), env, Overrides{Settings: []string{"compiler=msvc"}}, ".")
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrInvalidConfig))

	_, err = Resolve(recipe.Default(), env, Overrides{Options: []string{"fPIC=True"}}, ".")
	assert.True(t, models.IsType(err, models.ErrInvalidConfig))

	_, err = Resolve(recipe.Default(), env, Overrides{Settings: []string{"os"}}, ".")
	assert.True(t, models.IsType(err, models.ErrInvalidConfig))

	d := recipe.Default()
	d.Options.Shared = []bool{false}
	_, err = Resolve(d, env, Overrides{Options: []string{"shared=True"}}, ".")
	assert.True(t, models.IsType(err, models.ErrInvalidConfig))
}
