package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fossil-lib/xpkg/internal/builder"
	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/packager"
	"github.com/fossil-lib/xpkg/internal/scanner"
	"github.com/fossil-lib/xpkg/internal/toolchain"
	"github.com/sirupsen/logrus"
)

// Hooks is the contract a recipe fulfils for the host
type Hooks interface {
	// Generate writes the build system toolchain file for the profile
	Generate(ctx context.Context, p models.Profile) error

	// Build configures and compiles the sources
	Build(ctx context.Context, p models.Profile) error

	// Package stages headers and libraries into the package folder
	Package(ctx context.Context, p models.Profile) (*packager.Result, error)

	// PackageInfo describes what consumers link against
	PackageInfo(p models.Profile) models.CppInfo
}

// MesonRecipe builds a descriptor's library with meson
type MesonRecipe struct {
	descriptor       models.Descriptor
	toolchain        *toolchain.MesonToolchain
	runner           builder.Runner
	packager         *packager.Packager
	scanner          scanner.Scanner
	generatorsFolder string
	packageFolder    string
}

var _ Hooks = (*MesonRecipe)(nil)

// RecipeOptions tunes where a MesonRecipe reads and writes
type RecipeOptions struct {
	// Runner executes meson. Nil means the real binary.
	Runner builder.Runner
	// BuildMachine describes the machine running the compiler
	BuildMachine models.Settings
	// GeneratorsFolder defaults to "<build folder>-generators"
	GeneratorsFolder string
	// PackageFolder defaults to "package"
	PackageFolder string
}

// NewMesonRecipe creates the recipe for d. Relative folders resolve against
// the profile root.
func NewMesonRecipe(d models.Descriptor, opts RecipeOptions) *MesonRecipe {
	gen := opts.GeneratorsFolder
	if gen == "" {
		gen = d.Layout.BuildFolder + "-generators"
	}
	pkg := opts.PackageFolder
	if pkg == "" {
		pkg = "package"
	}
	return &MesonRecipe{
		descriptor:       d,
		toolchain:        toolchain.NewMesonToolchain(opts.BuildMachine),
		runner:           opts.Runner,
		packager:         packager.New(),
		scanner:          scanner.NewFileSystemScanner(),
		generatorsFolder: gen,
		packageFolder:    pkg,
	}
}

// Descriptor returns the recipe's descriptor
func (r *MesonRecipe) Descriptor() models.Descriptor {
	return r.descriptor
}

// String identifies the recipe in logs
func (r *MesonRecipe) String() string {
	return fmt.Sprintf("%s (meson)", r.descriptor.Reference())
}

// GeneratorsDir returns the absolute generators folder for p
func (r *MesonRecipe) GeneratorsDir(p models.Profile) string {
	return resolve(p.Root, r.generatorsFolder)
}

// PackageDir returns the absolute package folder for p
func (r *MesonRecipe) PackageDir(p models.Profile) string {
	return resolve(p.Root, r.packageFolder)
}

// Generate implements Hooks
func (r *MesonRecipe) Generate(ctx context.Context, p models.Profile) error {
	_, err := r.toolchain.Generate(p, r.GeneratorsDir(p))
	return err
}

// Build implements Hooks
func (r *MesonRecipe) Build(ctx context.Context, p models.Profile) error {
	tc, err := toolchain.Locate(r.GeneratorsDir(p))
	if err != nil {
		return models.NewError(models.ErrBuild, "build", err)
	}

	m := builder.NewMeson(r.runner, p.Root, r.descriptor.Layout.SourceFolder, r.descriptor.Layout.BuildFolder)
	if err := m.Configure(ctx, tc); err != nil {
		return err
	}
	if err := m.Build(ctx); err != nil {
		return err
	}

	artifacts, err := r.scanner.Scan(ctx, m.BuildDir())
	if err != nil {
		return models.NewError(models.ErrBuild, "build", err)
	}
	libs := scanner.Filter(artifacts, scanner.TypeStaticLib)
	if len(libs) == 0 {
		logrus.Warnf("Build finished but no static library was found in %s", m.BuildDir())
		return nil
	}
	for _, lib := range libs {
		logrus.Infof("Built %s (%s)", filepath.Base(lib.Path), humanize.Bytes(uint64(lib.Size)))
	}
	return nil
}

// Package implements Hooks
func (r *MesonRecipe) Package(ctx context.Context, p models.Profile) (*packager.Result, error) {
	return r.packager.Package(ctx, p, r.descriptor.Layout, r.PackageDir(p))
}

// PackageInfo implements Hooks. The library name is the same whether the
// build was shared or static.
func (r *MesonRecipe) PackageInfo(p models.Profile) models.CppInfo {
	return models.CppInfo{Libs: append([]string(nil), r.descriptor.Libs...)}
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
