package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fossil-lib/xpkg/internal/pipeline"
	"github.com/fossil-lib/xpkg/internal/toolchain"
	"github.com/fossil-lib/xpkg/internal/watch"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command
func NewWatchCmd(g *globalOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild and repackage whenever the sources change",
		Long: `Runs build and package once, then again each time files under the
source folder change. Failed rebuilds are logged and watching continues.
Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := toolchain.Locate(s.recipe.GeneratorsDir(s.profile)); err != nil {
				logrus.Info("No toolchain file yet, running generate")
				if _, err := s.pipeline.Run(ctx, pipeline.StepGenerate, pipeline.StepGenerate); err != nil {
					return err
				}
			}

			w, err := newSourceWatcher(s, debounce)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a rebuild starts")

	return cmd
}

func newSourceWatcher(s *session, debounce time.Duration) (*watch.Watcher, error) {
	root := s.profile.Root
	layout := s.descriptor.Layout

	rebuild := func(ctx context.Context) error {
		_, err := s.pipeline.Run(ctx, pipeline.StepBuild, pipeline.StepPackage)
		return err
	}

	return watch.New(
		filepath.Join(root, layout.SourceFolder),
		debounce,
		rebuild,
		filepath.Join(root, layout.BuildFolder),
		s.recipe.GeneratorsDir(s.profile),
		s.recipe.PackageDir(s.profile),
	)
}
