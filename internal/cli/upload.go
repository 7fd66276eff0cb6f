package cli

import (
	"context"
	"fmt"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/packager"
	"github.com/fossil-lib/xpkg/internal/upload"
	"github.com/fossil-lib/xpkg/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// pushOptions are the registry transport flags
type pushOptions struct {
	plainHTTP bool
	insecure  bool
}

func (o *pushOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.plainHTTP, "plain-http", false, "Use HTTP instead of HTTPS for the registry")
	cmd.Flags().BoolVar(&o.insecure, "insecure", false, "Skip TLS certificate verification")
}

// NewUploadCmd creates the upload command
func NewUploadCmd(g *globalOptions) *cobra.Command {
	var opts pushOptions

	cmd := &cobra.Command{
		Use:   "upload oci://registry/repository[:tag]",
		Short: "Push the package folder to an OCI registry",
		Long: `Pushes the package folder as a single gzip layer. Without a tag the
package is tagged <version>-<package id prefix>. Docker credentials are
used for authentication when present.`,
		Args: exactArgs(1, "xpkg upload oci://registry/repository[:tag]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.load()
			if err != nil {
				return err
			}

			folder := s.recipe.PackageDir(s.profile)
			packaged, err := packager.ReadPackageID(folder)
			if err != nil {
				return models.NewError(models.ErrUpload, "", fmt.Errorf("no package in %s, run package first: %w", folder, err))
			}
			packageID := utils.PackageID(s.profile)
			if packaged != packageID {
				return models.NewError(models.ErrUpload, "", fmt.Errorf("package in %s was packaged for %s, current profile is %s",
					folder, utils.ShortID(packaged), utils.ShortID(packageID)))
			}

			res, err := pushPackage(cmd.Context(), s, packageID, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s@%s\n", res.Reference, res.Digest)
			return nil
		},
	}
	opts.bind(cmd)

	return cmd
}

func pushPackage(ctx context.Context, s *session, packageID, target string, opts pushOptions) (*upload.Result, error) {
	t, err := upload.ParseTarget(target)
	if err != nil {
		return nil, models.NewError(models.ErrInvalidConfig, "", err)
	}
	if t.Tag == "" {
		t = t.WithTag(upload.DefaultTag(s.descriptor.Version, packageID))
	}

	d := s.descriptor
	res, err := upload.Push(ctx, upload.Options{
		SourceDir:   s.recipe.PackageDir(s.profile),
		Target:      t,
		Annotations: upload.Annotations(d.Name, d.Version, d.License, d.URL, packageID),
		PlainHTTP:   opts.plainHTTP,
		InsecureTLS: opts.insecure,
	})
	if err != nil {
		return nil, models.NewError(models.ErrUpload, "", err)
	}

	logrus.WithField("digest", res.Digest).Infof("Pushed %s", res.Reference)
	return res, nil
}
