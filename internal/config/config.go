package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/recipe"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// EnvPrefix is the prefix of every environment variable xpkg reads
const EnvPrefix = "XPKG"

// Env holds the profile defaults taken from the environment
type Env struct {
	OS              string `envconfig:"OS"`
	Compiler        string `envconfig:"COMPILER"`
	CompilerVersion string `envconfig:"COMPILER_VERSION"`
	BuildType       string `envconfig:"BUILD_TYPE"`
	Arch            string `envconfig:"ARCH"`
	Shared          string `envconfig:"SHARED"`
	Cache           string `envconfig:"CACHE"`
}

// Overrides are the -s/-o assignments given on the command line
type Overrides struct {
	Settings []string
	Options  []string
}

// LoadEnv reads XPKG_* variables
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return env, nil
}

// DetectSettings guesses settings for the machine xpkg runs on
func DetectSettings() models.Settings {
	return detectSettings(runtime.GOOS, runtime.GOARCH)
}

func detectSettings(goos, goarch string) models.Settings {
	s := models.Settings{BuildType: "Release"}

	switch goos {
	case "darwin":
		s.OS, s.Compiler = "Macos", "apple-clang"
	case "windows":
		s.OS, s.Compiler = "Windows", "msvc"
	case "freebsd":
		s.OS, s.Compiler = "FreeBSD", "clang"
	default:
		s.OS, s.Compiler = "Linux", "gcc"
	}

	switch goarch {
	case "amd64":
		s.Arch = "x86_64"
	case "386":
		s.Arch = "x86"
	case "arm":
		s.Arch = "armv7"
	case "arm64":
		s.Arch = "armv8"
	default:
		s.Arch = goarch
	}

	return s
}

// Resolve builds the immutable profile for one invocation. Precedence is
// detected defaults, then environment, then command-line overrides.
func Resolve(d models.Descriptor, env Env, ov Overrides, root string) (models.Profile, error) {
	settings := DetectSettings()
	if env.OS != "" {
		settings.OS = env.OS
	}
	if env.Compiler != "" {
		settings.Compiler = env.Compiler
	}
	if env.CompilerVersion != "" {
		settings.CompilerVersion = env.CompilerVersion
	}
	if env.BuildType != "" {
		settings.BuildType = env.BuildType
	}
	if env.Arch != "" {
		settings.Arch = env.Arch
	}

	options := d.Defaults
	if env.Shared != "" {
		if err := options.Set("shared", env.Shared); err != nil {
			return models.Profile{}, invalid(err)
		}
	}

	for _, kv := range ov.Settings {
		key, value, err := models.ParseAssignment(kv)
		if err != nil {
			return models.Profile{}, invalid(err)
		}
		if err := settings.Set(key, value); err != nil {
			return models.Profile{}, invalid(err)
		}
	}
	for _, kv := range ov.Options {
		key, value, err := models.ParseAssignment(kv)
		if err != nil {
			return models.Profile{}, invalid(err)
		}
		if err := options.Set(key, value); err != nil {
			return models.Profile{}, invalid(err)
		}
	}

	normalized, err := settings.Normalize()
	if err != nil {
		return models.Profile{}, invalid(err)
	}
	if err := recipe.CheckOptions(d, options); err != nil {
		return models.Profile{}, invalid(err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return models.Profile{}, invalid(fmt.Errorf("failed to resolve root: %w", err))
	}

	// The Meson machine file needs every setting, so undeclared ones still
	// resolve; they only stay out of package identity.
	profile := models.Profile{
		Settings: normalized,
		Options:  options,
		Root:     absRoot,
		Declared: append([]string(nil), d.Settings...),
	}
	logrus.Debugf("Resolved profile: %+v", profile)
	return profile, nil
}

// DefaultCachePath returns ~/.xpkg/cache.db
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".xpkg", "cache.db")
	}
	return filepath.Join(home, ".xpkg", "cache.db")
}

func invalid(err error) error {
	return models.NewError(models.ErrInvalidConfig, "", err)
}
