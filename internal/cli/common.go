package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fossil-lib/xpkg/internal/builder"
	"github.com/fossil-lib/xpkg/internal/cache"
	"github.com/fossil-lib/xpkg/internal/config"
	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/pipeline"
	"github.com/fossil-lib/xpkg/internal/recipe"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// commandRunner executes meson. Nil runs the real binary.
var commandRunner builder.Runner

// globalOptions are the flags every command shares
type globalOptions struct {
	root             string
	recipePath       string
	settings         []string
	options          []string
	packageFolder    string
	generatorsFolder string
	cachePath        string
}

func (g *globalOptions) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&g.root, "root", ".", "Workspace root holding the source folder")
	f.StringVar(&g.recipePath, "recipe", "", "Recipe descriptor (.yaml, .yml or .toml); built-in XTest recipe if empty")
	f.StringArrayVarP(&g.settings, "setting", "s", nil, "Setting override, e.g. -s os=Linux -s build_type=Debug")
	f.StringArrayVarP(&g.options, "option", "o", nil, "Option override, e.g. -o shared=True")
	f.StringVar(&g.packageFolder, "package-folder", "", "Package folder (default <root>/package)")
	f.StringVar(&g.generatorsFolder, "generators-folder", "", "Generators folder (default <root>/<build folder>-generators)")
	f.StringVar(&g.cachePath, "cache", "", "Cache database (default $XPKG_CACHE or ~/.xpkg/cache.db)")
}

// session is everything a command needs for one invocation
type session struct {
	env        config.Env
	descriptor models.Descriptor
	profile    models.Profile
	recipe     *pipeline.MesonRecipe
	pipeline   *pipeline.Pipeline
}

func (g *globalOptions) load() (*session, error) {
	d, err := recipe.Load(g.recipePath)
	if err != nil {
		return nil, asConfigError(err)
	}

	env, err := config.LoadEnv()
	if err != nil {
		return nil, asConfigError(err)
	}

	p, err := config.Resolve(d, env, config.Overrides{Settings: g.settings, Options: g.options}, g.root)
	if err != nil {
		return nil, err
	}

	r := pipeline.NewMesonRecipe(d, pipeline.RecipeOptions{
		Runner:           commandRunner,
		BuildMachine:     config.DetectSettings(),
		GeneratorsFolder: g.generatorsFolder,
		PackageFolder:    g.packageFolder,
	})

	logrus.WithFields(logrus.Fields{
		"os":         p.Settings.OS,
		"compiler":   p.Settings.Compiler,
		"build_type": p.Settings.BuildType,
		"arch":       p.Settings.Arch,
		"shared":     p.Options.Shared,
	}).Debugf("Loaded %s", r)

	return &session{
		env:        env,
		descriptor: d,
		profile:    p,
		recipe:     r,
		pipeline:   pipeline.New(r, d.Reference(), p),
	}, nil
}

// openCache opens the cache named by --cache, XPKG_CACHE or the default path
func (g *globalOptions) openCache() (*cache.Store, error) {
	path := g.cachePath
	if path == "" {
		env, err := config.LoadEnv()
		if err != nil {
			return nil, asConfigError(err)
		}
		path = env.Cache
	}
	if path == "" {
		path = config.DefaultCachePath()
	}

	logrus.Debugf("Using cache %s", path)
	store, err := cache.Open(path)
	if err != nil {
		return nil, models.NewError(models.ErrCache, "", err)
	}
	return store, nil
}

func asConfigError(err error) error {
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		return err
	}
	return models.NewError(models.ErrInvalidConfig, "", err)
}

// settingsLine renders settings as space separated key=value pairs
func settingsLine(s models.Settings) string {
	parts := []string{
		"os=" + s.OS,
		"compiler=" + s.Compiler,
	}
	if s.CompilerVersion != "" {
		parts = append(parts, "compiler.version="+s.CompilerVersion)
	}
	parts = append(parts, "build_type="+s.BuildType, "arch="+s.Arch)
	return strings.Join(parts, " ")
}

func optionsLine(o models.Options) string {
	if o.Shared {
		return "shared=True"
	}
	return "shared=False"
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("usage: %s", usage))
		}
		return nil
	}
}
