package upload

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"path/filepath"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/sirupsen/logrus"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// ArtifactType identifies xpkg packages in a registry
const ArtifactType = "application/vnd.fossil.xpkg.package"

// Options configures a push
type Options struct {
	// SourceDir is the package folder to push
	SourceDir string
	Target    *Target
	// Annotations are added to the manifest
	Annotations map[string]string
	PlainHTTP   bool
	InsecureTLS bool
}

// Result is what a push produced
type Result struct {
	Digest    string
	Reference string
}

// Push packs SourceDir as a single gzip layer and copies it to the target
// repository
func Push(ctx context.Context, opts Options) (*Result, error) {
	if opts.Target == nil || opts.Target.Tag == "" {
		return nil, fmt.Errorf("tag is required to push a package")
	}

	absDir, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for package folder: %w", err)
	}

	fs, err := file.New(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}
	defer func() { _ = fs.Close() }()

	// Make tars deterministic
	fs.TarReproducible = true

	layerDesc, err := fs.Add(ctx, ".", ociv1.MediaTypeImageLayerGzip, absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to add package folder to store: %w", err)
	}

	packOpts := oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layerDesc},
		ManifestAnnotations: opts.Annotations,
	}
	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, packOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to pack manifest: %w", err)
	}

	tag := opts.Target.Tag
	if err := fs.Tag(ctx, manifestDesc, tag); err != nil {
		return nil, fmt.Errorf("failed to tag manifest in local store: %w", err)
	}

	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", opts.Target.Registry, opts.Target.Repository))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote repository: %w", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = authClient(opts.PlainHTTP, opts.InsecureTLS)

	logrus.Infof("Pushing %s to %s", absDir, opts.Target)
	desc, err := oras.Copy(ctx, fs, tag, repo, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to push package to registry: %w", err)
	}

	return &Result{
		Digest:    desc.Digest.String(),
		Reference: opts.Target.String(),
	}, nil
}

// Annotations builds the standard manifest annotations for a package
func Annotations(name, version, license, source, packageID string) map[string]string {
	a := map[string]string{
		ociv1.AnnotationTitle:        name,
		ociv1.AnnotationVersion:      version,
		"org.fossil.xpkg.package_id": packageID,
	}
	if license != "" {
		a[ociv1.AnnotationLicenses] = license
	}
	if source != "" {
		a[ociv1.AnnotationSource] = source
	}
	return a
}

func authClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		logrus.Debugf("Docker credentials unavailable: %v", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
