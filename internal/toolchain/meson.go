package toolchain

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/utils"
	"github.com/sirupsen/logrus"
)

// File names Meson is pointed at by the build step
const (
	NativeFileName = "conan_meson_native.ini"
	CrossFileName  = "conan_meson_cross.ini"
)

var buildTypes = map[string]string{
	"Debug":          "debug",
	"Release":        "release",
	"RelWithDebInfo": "debugoptimized",
	"MinSizeRel":     "minsize",
}

var systems = map[string]string{
	"Linux":   "linux",
	"Macos":   "darwin",
	"Windows": "windows",
	"FreeBSD": "freebsd",
}

type cpu struct {
	family string
	name   string
	endian string
}

var cpus = map[string]cpu{
	"x86_64":  {"x86_64", "x86_64", "little"},
	"x86":     {"x86", "x86", "little"},
	"armv7":   {"arm", "armv7", "little"},
	"armv8":   {"aarch64", "armv8", "little"},
	"ppc64le": {"ppc64", "ppc64le", "little"},
	"riscv64": {"riscv64", "riscv64", "little"},
	"s390x":   {"s390x", "s390x", "big"},
}

var compilers = map[string][2]string{
	"gcc":         {"gcc", "g++"},
	"clang":       {"clang", "clang++"},
	"apple-clang": {"clang", "clang++"},
	"msvc":        {"cl", "cl"},
}

var fileTemplate = template.Must(template.New("meson").Parse(`[constants]
preprocessor_definitions = []

[project options]

[built-in options]
buildtype = '{{.BuildType}}'
default_library = '{{.DefaultLibrary}}'
b_ndebug = 'if-release'
{{- if .VSCRT}}
b_vscrt = '{{.VSCRT}}'
{{- end}}

[binaries]
c = '{{.CC}}'
cpp = '{{.CXX}}'
{{- if .Cross}}

[host_machine]
system = '{{.System}}'
cpu_family = '{{.CPUFamily}}'
cpu = '{{.CPU}}'
endian = '{{.Endian}}'
{{- end}}
`))

type fileData struct {
	BuildType      string
	DefaultLibrary string
	VSCRT          string
	CC             string
	CXX            string
	Cross          bool
	System         string
	CPUFamily      string
	CPU            string
	Endian         string
}

// Result describes the file a Generate call wrote
type Result struct {
	Path  string
	Cross bool
}

// MesonToolchain renders Meson machine files for a profile
type MesonToolchain struct {
	build models.Settings
}

// NewMesonToolchain creates a toolchain generator. build describes the
// machine the compiler runs on; a profile for any other os/arch yields a
// cross file.
func NewMesonToolchain(build models.Settings) *MesonToolchain {
	return &MesonToolchain{build: build}
}

// Render returns the machine file content for p without touching the disk
func (m *MesonToolchain) Render(p models.Profile) ([]byte, bool, error) {
	s, err := p.Settings.Normalize()
	if err != nil {
		return nil, false, err
	}

	c, ok := cpus[s.Arch]
	if !ok {
		return nil, false, fmt.Errorf("no meson cpu family for arch %s", s.Arch)
	}
	bins, ok := compilers[s.Compiler]
	if !ok {
		return nil, false, fmt.Errorf("no meson binaries for compiler %s", s.Compiler)
	}

	data := fileData{
		BuildType:      buildTypes[s.BuildType],
		DefaultLibrary: "static",
		CC:             bins[0],
		CXX:            bins[1],
		Cross:          s.OS != m.build.OS || s.Arch != m.build.Arch,
		System:         systems[s.OS],
		CPUFamily:      c.family,
		CPU:            c.name,
		Endian:         c.endian,
	}
	// Shared builds keep the static archive alongside the shared library
	if p.Options.Shared {
		data.DefaultLibrary = "both"
	}
	if s.Compiler == "msvc" {
		data.VSCRT = "md"
		if s.BuildType == "Debug" {
			data.VSCRT = "mdd"
		}
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), data.Cross, nil
}

// Generate writes the machine file into dir. A stale file of the other kind
// is removed so the build step never picks up the wrong one.
func (m *MesonToolchain) Generate(p models.Profile, dir string) (*Result, error) {
	content, cross, err := m.Render(p)
	if err != nil {
		return nil, models.NewError(models.ErrToolchain, "generate", err)
	}

	name, stale := NativeFileName, CrossFileName
	if cross {
		name, stale = CrossFileName, NativeFileName
	}

	path := filepath.Join(dir, name)
	if err := utils.WriteFile(path, content, 0644); err != nil {
		return nil, models.NewError(models.ErrFileOp, "generate", fmt.Errorf("failed to write %s: %w", name, err))
	}
	if err := os.Remove(filepath.Join(dir, stale)); err != nil && !os.IsNotExist(err) {
		return nil, models.NewError(models.ErrFileOp, "generate", err)
	}

	logrus.Infof("Generated %s", path)
	return &Result{Path: path, Cross: cross}, nil
}

// Locate finds the machine file a previous Generate left in dir
func Locate(dir string) (*Result, error) {
	for _, r := range []Result{
		{Path: filepath.Join(dir, CrossFileName), Cross: true},
		{Path: filepath.Join(dir, NativeFileName)},
	} {
		if _, err := os.Stat(r.Path); err == nil {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("no meson toolchain file in %s, run generate first", dir)
}
