package toolchain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linuxHost = models.Settings{OS: "Linux", Compiler: "gcc", BuildType: "Release", Arch: "x86_64"}

func TestRenderNative(t *testing.T) {
	tc := NewMesonToolchain(linuxHost)

	content, cross, err := tc.Render(models.Profile{Settings: linuxHost})
	require.NoError(t, err)
	assert.False(t, cross)

	want := `[constants]
preprocessor_definitions = []

[project options]

[built-in options]
buildtype = 'release'
default_library = 'static'
b_ndebug = 'if-release'

[binaries]
c = 'gcc'
cpp = 'g++'
`
	assert.Equal(t, want, string(content))
}

func TestRenderCrossAndShared(t *testing.T) {
	tc := NewMesonToolchain(linuxHost)
	p := models.Profile{
		Settings: models.Settings{OS: "Windows", Compiler: "msvc", BuildType: "Debug", Arch: "armv8"},
		Options:  models.Options{Shared: true},
	}

	content, cross, err := tc.Render(p)
	require.NoError(t, err)
	assert.True(t, cross)

	text := string(content)
	assert.Contains(t, text, "buildtype = 'debug'\n")
	assert.Contains(t, text, "default_library = 'both'\n")
	assert.Contains(t, text, "b_vscrt = 'mdd'\n")
	assert.Contains(t, text, "c = 'cl'\n")
	assert.Contains(t, text, "[host_machine]\nsystem = 'windows'\ncpu_family = 'aarch64'\ncpu = 'armv8'\nendian = 'little'\n")
}

func TestRenderEverySupportedCombination(t *testing.T) {
	tc := NewMesonToolchain(linuxHost)

	for _, osName := range models.SupportedOS {
		for _, compiler := range models.SupportedCompilers {
			for _, bt := range models.SupportedBuildTypes {
				for _, arch := range models.SupportedArches {
					for _, shared := range []bool{false, true} {
						p := models.Profile{
							Settings: models.Settings{OS: osName, Compiler: compiler, BuildType: bt, Arch: arch},
							Options:  models.Options{Shared: shared},
						}
						_, normErr := p.Settings.Normalize()

						content, _, err := tc.Render(p)
						if normErr != nil {
							assert.Error(t, err, "%+v", p)
							continue
						}
						require.NoError(t, err, "%+v", p)
						assert.NotEmpty(t, content)
						assert.True(t, strings.HasPrefix(string(content), "[constants]"))
					}
				}
			}
		}
	}
}

func TestGenerateWritesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	tc := NewMesonToolchain(linuxHost)

	res, err := tc.Generate(models.Profile{Settings: linuxHost}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, NativeFileName), res.Path)

	cross := linuxHost
	cross.Arch = "riscv64"
	res, err = tc.Generate(models.Profile{Settings: cross}, dir)
	require.NoError(t, err)
	assert.True(t, res.Cross)

	_, err = os.Stat(filepath.Join(dir, NativeFileName))
	assert.True(t, os.IsNotExist(err), "stale native file should be removed")

	found, err := Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, res.Path, found.Path)
	assert.True(t, found.Cross)
}

func TestGenerateUnsupported(t *testing.T) {
	dir := t.TempDir()
	tc := NewMesonToolchain(linuxHost)

	bad := linuxHost
	bad.Compiler = "apple-clang"
	_, err := tc.Generate(models.Profile{Settings: bad}, dir)
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrToolchain))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)

	_, err = Locate(dir)
	assert.Error(t, err)
}
