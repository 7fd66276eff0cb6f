package pipeline

import (
	"context"
	"fmt"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/packager"
	"github.com/fossil-lib/xpkg/internal/utils"
	"github.com/sirupsen/logrus"
)

// Step is one hook of the recipe contract
type Step int

const (
	StepGenerate Step = iota
	StepBuild
	StepPackage
	StepPackageInfo
)

// String returns the hook name
func (s Step) String() string {
	switch s {
	case StepGenerate:
		return "generate"
	case StepBuild:
		return "build"
	case StepPackage:
		return "package"
	case StepPackageInfo:
		return "package_info"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Result collects what the steps of a run produced
type Result struct {
	PackageID string
	// Package is set when the package step ran
	Package *packager.Result
	// CppInfo is set when the package_info step ran
	CppInfo *models.CppInfo
	// Completed lists the steps that finished, in order
	Completed []Step
}

// Pipeline drives a recipe's hooks for one profile
type Pipeline struct {
	hooks   Hooks
	profile models.Profile
	name    string
}

// New creates a pipeline. The profile is copied and not changed afterwards.
func New(hooks Hooks, name string, p models.Profile) *Pipeline {
	return &Pipeline{hooks: hooks, profile: p, name: name}
}

// Profile returns the profile the pipeline runs with
func (pl *Pipeline) Profile() models.Profile {
	return pl.profile
}

// Run invokes the hooks from..to in order. The first failure stops the run
// and later hooks are not called.
func (pl *Pipeline) Run(ctx context.Context, from, to Step) (*Result, error) {
	if from > to || from < StepGenerate || to > StepPackageInfo {
		return nil, models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("invalid step range %s..%s", from, to))
	}

	res := &Result{PackageID: utils.PackageID(pl.profile)}
	for step := from; step <= to; step++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("run cancelled before %s: %w", step, err)
		}

		log := logrus.WithFields(logrus.Fields{
			"step":       step.String(),
			"package":    pl.name,
			"package_id": utils.ShortID(res.PackageID),
		})
		log.Info("Starting step")

		if err := pl.runStep(ctx, step, res); err != nil {
			log.WithError(err).Error("Step failed")
			return res, err
		}

		res.Completed = append(res.Completed, step)
		log.Info("Step completed")
	}
	return res, nil
}

func (pl *Pipeline) runStep(ctx context.Context, step Step, res *Result) error {
	switch step {
	case StepGenerate:
		return pl.hooks.Generate(ctx, pl.profile)
	case StepBuild:
		return pl.hooks.Build(ctx, pl.profile)
	case StepPackage:
		pr, err := pl.hooks.Package(ctx, pl.profile)
		if err != nil {
			return err
		}
		res.Package = pr
		return nil
	case StepPackageInfo:
		info := pl.hooks.PackageInfo(pl.profile)
		res.CppInfo = &info
		return nil
	default:
		return fmt.Errorf("unknown step %s", step)
	}
}
