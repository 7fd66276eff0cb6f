package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fossil-lib/xpkg/internal/archive"
	"github.com/fossil-lib/xpkg/internal/cache"
	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/pipeline"
	"github.com/fossil-lib/xpkg/internal/signer"
	"github.com/fossil-lib/xpkg/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// createOptions are the flags of the create command
type createOptions struct {
	archiveFormat string
	gpgKeyPath    string
	gpgPassphrase string
	rsaKeyPath    string
	rsaPassphrase string
	publicKeyPath string
	uploadTarget  string
	push          pushOptions
}

// NewCreateCmd creates the create command
func NewCreateCmd(g *globalOptions) *cobra.Command {
	var opts createOptions

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Run generate, build, package and package_info, then register the package",
		Long: `Runs the four recipe steps in order, stopping at the first failure.
On success the package is registered in the local cache. It can also be
archived, signed and pushed to an OCI registry in the same run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.gpgKeyPath != "" && opts.rsaKeyPath != "" {
				return models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("--gpg-key and --rsa-key are mutually exclusive"))
			}

			s, err := g.load()
			if err != nil {
				return err
			}

			logrus.Infof("Creating %s", s.descriptor.Reference())
			return runCreate(cmd.Context(), g, s, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.archiveFormat, "archive-format", "", "Archive the package folder (tgz, tzst or txz)")

	// Signing flags
	cmd.Flags().StringVarP(&opts.gpgKeyPath, "gpg-key", "k", "", "Path to GPG private key")
	cmd.Flags().StringVarP(&opts.gpgPassphrase, "gpg-passphrase", "p", "", "GPG key passphrase")
	cmd.Flags().StringVar(&opts.rsaKeyPath, "rsa-key", "", "Path to RSA private key")
	cmd.Flags().StringVar(&opts.rsaPassphrase, "rsa-passphrase", "", "RSA key passphrase")
	cmd.Flags().StringVar(&opts.publicKeyPath, "public-key", "", "Write the signing public key to this path")

	// Upload flags
	cmd.Flags().StringVar(&opts.uploadTarget, "upload", "", "Push the package to oci://registry/repository[:tag]")
	opts.push.bind(cmd)

	return cmd
}

func runCreate(ctx context.Context, g *globalOptions, s *session, opts *createOptions) error {
	res, err := s.pipeline.Run(ctx, pipeline.StepGenerate, pipeline.StepPackageInfo)
	if err != nil {
		return err
	}

	record := cache.Record{
		Name:      s.descriptor.Name,
		Version:   s.descriptor.Version,
		PackageID: res.PackageID,
		Settings:  settingsLine(s.profile.Settings),
		Options:   optionsLine(s.profile.Options),
		Path:      res.Package.Folder,
	}

	format := opts.archiveFormat
	if format == "" && (opts.gpgKeyPath != "" || opts.rsaKeyPath != "") {
		format = string(archive.FormatGzip)
	}
	if format != "" {
		archivePath, sum, err := createArchive(ctx, res.Package.Folder, format)
		if err != nil {
			return err
		}
		record.Archive = archivePath
		record.Digest = sum.Digest()

		if err := signArchive(opts, archivePath); err != nil {
			return err
		}
	}

	store, err := g.openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	registered, err := store.Register(record)
	if err != nil {
		return models.NewError(models.ErrCache, "", err)
	}
	logrus.WithField("run_id", registered.RunID).Infof("Registered %s:%s", registered.Ref(), utils.ShortID(registered.PackageID))

	if opts.uploadTarget != "" {
		if _, err := pushPackage(ctx, s, res.PackageID, opts.uploadTarget, opts.push); err != nil {
			return err
		}
	}

	logrus.Info("Package created successfully!")
	return nil
}

func createArchive(ctx context.Context, folder, format string) (string, *utils.Checksum, error) {
	f, err := archive.ParseFormat(format)
	if err != nil {
		return "", nil, models.NewError(models.ErrInvalidConfig, "", err)
	}

	out := filepath.Join(filepath.Dir(folder), f.FileName())
	logrus.Infof("Archiving %s to %s", folder, out)
	sum, err := archive.Create(ctx, folder, out, f)
	if err != nil {
		return "", nil, models.NewError(models.ErrFileOp, "archive", err)
	}
	return out, sum, nil
}

func signArchive(opts *createOptions, path string) error {
	var (
		s   signer.Signer
		err error
	)
	switch {
	case opts.gpgKeyPath != "":
		gpg, err := signer.NewGPGSigner(opts.gpgKeyPath, opts.gpgPassphrase)
		if err != nil {
			return models.NewError(models.ErrSigning, "", fmt.Errorf("failed to initialize GPG signer: %w", err))
		}
		logrus.WithField("fingerprint", gpg.Fingerprint()).Info("GPG signer initialized")
		s = gpg
	case opts.rsaKeyPath != "":
		s, err = signer.NewRSASigner(opts.rsaKeyPath, opts.rsaPassphrase)
		if err != nil {
			return models.NewError(models.ErrSigning, "", fmt.Errorf("failed to initialize RSA signer: %w", err))
		}
		logrus.Info("RSA signer initialized")
	default:
		return nil
	}

	sigPath, err := signer.SignFile(s, path)
	if err != nil {
		return models.NewError(models.ErrSigning, "", err)
	}

	// Check the RSA signature before anyone downloads it
	if rsaSigner, ok := s.(*signer.RSASigner); ok {
		if err := verifyFile(rsaSigner, path, sigPath); err != nil {
			return models.NewError(models.ErrSigning, "", err)
		}
	}

	if opts.publicKeyPath != "" {
		pub, err := s.GetPublicKey()
		if err != nil {
			return models.NewError(models.ErrSigning, "", fmt.Errorf("failed to export public key: %w", err))
		}
		if err := utils.WriteFile(opts.publicKeyPath, pub, 0644); err != nil {
			return models.NewError(models.ErrFileOp, "", err)
		}
		logrus.Infof("Public key written to %s", opts.publicKeyPath)
	}
	return nil
}

func verifyFile(s *signer.RSASigner, path, sigPath string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return err
	}
	if err := s.Verify(data, sig); err != nil {
		return fmt.Errorf("signature check failed for %s: %w", sigPath, err)
	}
	return nil
}
