package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "xpkg",
		Short: "Build and package the Fossil XTest C library with Meson",
		Long: `xpkg drives a package recipe through its four steps:

  generate      write the Meson machine file for the host profile
  build         meson setup (or --reconfigure) and meson compile
  package       stage headers into include/ and static libraries into lib/
  package_info  report the library consumers link against

The host profile comes from the running platform, XPKG_* environment
variables and -s/-o flags, in that order of precedence.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	g.bind(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(
		NewCreateCmd(g),
		NewGenerateCmd(g),
		NewBuildCmd(g),
		NewPackageCmd(g),
		NewInfoCmd(g),
		NewInspectCmd(g),
		NewListCmd(g),
		NewRemoveCmd(g),
		NewUploadCmd(g),
		NewWatchCmd(g),
	)

	return rootCmd
}
