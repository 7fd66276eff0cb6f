package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Accepted setting values, in their canonical spelling
var (
	SupportedOS         = []string{"Linux", "Macos", "Windows", "FreeBSD"}
	SupportedCompilers  = []string{"gcc", "clang", "apple-clang", "msvc"}
	SupportedBuildTypes = []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"}
	SupportedArches     = []string{"x86_64", "x86", "armv7", "armv8", "ppc64le", "riscv64", "s390x"}
)

// Settings is the host configuration a binary package is built for.
// It is a value type; nothing mutates it after Normalize.
type Settings struct {
	OS              string
	Compiler        string
	CompilerVersion string
	BuildType       string
	Arch            string
}

// Options is the closed option set of a recipe
type Options struct {
	Shared bool `yaml:"shared" toml:"shared"`
}

// Profile bundles everything a hook needs to run
type Profile struct {
	Settings Settings
	Options  Options
	Root     string
	// Declared names the settings the recipe declares. Only those take part
	// in package identity; empty means all of them.
	Declared []string
}

// Normalize validates s and returns a copy with canonical spelling
func (s Settings) Normalize() (Settings, error) {
	var err error
	out := s

	if out.OS, err = canonical("os", SupportedOS, s.OS); err != nil {
		return Settings{}, err
	}
	if out.Compiler, err = canonical("compiler", SupportedCompilers, s.Compiler); err != nil {
		return Settings{}, err
	}
	if out.BuildType, err = canonical("build_type", SupportedBuildTypes, s.BuildType); err != nil {
		return Settings{}, err
	}
	if out.Arch, err = canonical("arch", SupportedArches, s.Arch); err != nil {
		return Settings{}, err
	}

	if out.Compiler == "msvc" && out.OS != "Windows" {
		return Settings{}, fmt.Errorf("compiler msvc is not available for os %s", out.OS)
	}
	if out.Compiler == "apple-clang" && out.OS != "Macos" {
		return Settings{}, fmt.Errorf("compiler apple-clang is not available for os %s", out.OS)
	}

	return out, nil
}

// Set assigns a single setting by its recipe name (os, compiler, ...)
func (s *Settings) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "os":
		s.OS = value
	case "compiler":
		s.Compiler = value
	case "compiler.version":
		s.CompilerVersion = value
	case "build_type":
		s.BuildType = value
	case "arch":
		s.Arch = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Set assigns a single option by name
func (o *Options) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "shared":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value %q for option shared", value)
		}
		o.Shared = b
	default:
		return fmt.Errorf("unknown option %q", key)
	}
	return nil
}

// Canonical renders the profile in the [settings]/[options] text used for
// package identity. Lines are sorted so equal profiles render identically.
func (p Profile) Canonical() string {
	var settings []string
	if p.declares("arch") {
		settings = append(settings, "arch="+p.Settings.Arch)
	}
	if p.declares("build_type") {
		settings = append(settings, "build_type="+p.Settings.BuildType)
	}
	if p.declares("compiler") {
		settings = append(settings, "compiler="+p.Settings.Compiler)
		if p.Settings.CompilerVersion != "" {
			settings = append(settings, "compiler.version="+p.Settings.CompilerVersion)
		}
	}
	if p.declares("os") {
		settings = append(settings, "os="+p.Settings.OS)
	}
	sort.Strings(settings)

	var b strings.Builder
	b.WriteString("[settings]\n")
	for _, line := range settings {
		fmt.Fprintf(&b, "    %s\n", line)
	}
	b.WriteString("[options]\n")
	fmt.Fprintf(&b, "    shared=%s\n", pyBool(p.Options.Shared))
	return b.String()
}

func (p Profile) declares(name string) bool {
	if len(p.Declared) == 0 {
		return true
	}
	for _, d := range p.Declared {
		if d == name {
			return true
		}
	}
	return false
}

// ParseAssignment splits "key=value"
func ParseAssignment(kv string) (string, string, error) {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if !ok || key == "" || value == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", kv)
	}
	return key, value, nil
}

func canonical(name string, allowed []string, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("setting %s is not defined", name)
	}
	for _, v := range allowed {
		if strings.EqualFold(v, value) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid setting %s=%s, possible values are %s", name, value, strings.Join(allowed, ", "))
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
