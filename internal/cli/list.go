package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fossil-lib/xpkg/internal/cache"
	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd(g *globalOptions) *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "list [name]",
		Short: "List packages in the local cache, newest version first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			if latest && name == "" {
				return models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("--latest needs a package name"))
			}

			store, err := g.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			var records []cache.Record
			if latest {
				r, err := store.Latest(name)
				if err != nil {
					return models.NewError(models.ErrCache, "", err)
				}
				records = []cache.Record{r}
			} else {
				records, err = store.List(name)
				if err != nil {
					return models.NewError(models.ErrCache, "", err)
				}
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No packages in cache")
				return nil
			}
			return printRecords(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "Show only the highest version of the named package")

	return cmd
}

// NewRemoveCmd creates the remove command
func NewRemoveCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name/version> <package_id>",
		Short: "Drop a package from the local cache index",
		Long: `Removes the cache entry only. The package folder and archive are left
on disk.`,
		Args: exactArgs(2, "xpkg remove <name/version> <package_id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := g.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Remove(args[0], args[1])
			if err != nil {
				return models.NewError(models.ErrCache, "", err)
			}
			if !removed {
				return models.NewError(models.ErrCache, "", fmt.Errorf("%s:%s is not in the cache", args[0], args[1]))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s:%s\n", args[0], args[1])
			return nil
		},
	}
}

func printRecords(out io.Writer, records []cache.Record) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tPACKAGE ID\tSETTINGS\tOPTIONS\tARCHIVE\tCREATED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Ref(), r.PackageID, r.Settings, r.Options,
			archiveSize(r.Archive), humanize.Time(r.CreatedAt))
	}
	return w.Flush()
}

func archiveSize(path string) string {
	if path == "" {
		return "-"
	}
	info, err := os.Stat(path)
	if err != nil {
		return "missing"
	}
	return humanize.Bytes(uint64(info.Size()))
}
