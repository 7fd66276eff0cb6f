package cli

import (
	"fmt"
	"strings"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/recipe"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd(g *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the recipe descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := recipe.Load(g.recipePath)
			if err != nil {
				return asConfigError(err)
			}

			switch strings.ToLower(format) {
			case "yaml", "yml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(d); err != nil {
					return fmt.Errorf("failed to encode descriptor: %w", err)
				}
				return enc.Close()
			case "toml":
				enc := toml.NewEncoder(cmd.OutOrStdout())
				if err := enc.Encode(d); err != nil {
					return fmt.Errorf("failed to encode descriptor: %w", err)
				}
				return nil
			default:
				return models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("unsupported format %q", format))
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml or toml)")

	return cmd
}
