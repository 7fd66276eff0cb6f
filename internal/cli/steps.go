package cli

import (
	"fmt"
	"strings"

	"github.com/fossil-lib/xpkg/internal/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Write the Meson machine file for the host profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load()
			if err != nil {
				return err
			}
			if _, err := s.pipeline.Run(cmd.Context(), pipeline.StepGenerate, pipeline.StepGenerate); err != nil {
				return err
			}
			logrus.Infof("Toolchain written to %s", s.recipe.GeneratorsDir(s.profile))
			return nil
		},
	}
}

// NewBuildCmd creates the build command
func NewBuildCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Configure and compile the sources with Meson",
		Long: `Runs meson setup against the generated machine file, or meson setup
--reconfigure when the build folder is already configured, then
meson compile. Run generate first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load()
			if err != nil {
				return err
			}
			_, err = s.pipeline.Run(cmd.Context(), pipeline.StepBuild, pipeline.StepBuild)
			return err
		},
	}
}

// NewPackageCmd creates the package command
func NewPackageCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "package",
		Short: "Stage headers and static libraries into the package folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load()
			if err != nil {
				return err
			}
			res, err := s.pipeline.Run(cmd.Context(), pipeline.StepPackage, pipeline.StepPackage)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s:%s %s\n", s.descriptor.Reference(), res.PackageID, res.Package.Folder)
			return nil
		},
	}
}

// NewInfoCmd creates the info command
func NewInfoCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the libraries consumers link against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load()
			if err != nil {
				return err
			}
			res, err := s.pipeline.Run(cmd.Context(), pipeline.StepPackageInfo, pipeline.StepPackageInfo)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "reference:  %s\n", s.descriptor.Reference())
			fmt.Fprintf(out, "package_id: %s\n", res.PackageID)
			fmt.Fprintf(out, "settings:   %s\n", settingsLine(s.profile.Settings))
			fmt.Fprintf(out, "options:    %s\n", optionsLine(s.profile.Options))
			fmt.Fprintf(out, "libs:       %s\n", strings.Join(res.CppInfo.Libs, " "))
			return nil
		},
	}
}
