package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileSystemScanner implements Scanner interface for filesystem scanning
type FileSystemScanner struct {
	skipDirs map[string]bool
}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner() *FileSystemScanner {
	return &FileSystemScanner{
		skipDirs: map[string]bool{"meson-private": true, "meson-logs": true, "meson-info": true},
	}
}

// Scan recursively scans a directory for build artifacts
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) ([]Artifact, error) {
	var artifacts []Artifact

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Skip directories, pruning meson bookkeeping
		if info.IsDir() {
			if path != dir && s.skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		// Try to detect artifact type
		artifactType, err := s.DetectType(path)
		if err != nil {
			logrus.Warnf("Failed to detect type for %s: %v", path, err)
			return nil
		}

		// Skip unknown types
		if artifactType == TypeUnknown {
			return nil
		}

		logrus.Debugf("Found %s artifact: %s", artifactType, path)

		artifacts = append(artifacts, Artifact{
			Path: path,
			Type: artifactType,
			Size: info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	logrus.Debugf("Found %d artifacts in %s", len(artifacts), dir)
	return artifacts, nil
}

// DetectType determines the artifact type of a file
func (s *FileSystemScanner) DetectType(path string) (ArtifactType, error) {
	return DetectArtifactType(path)
}

// Filter returns the artifacts of type t
func Filter(artifacts []Artifact, t ArtifactType) []Artifact {
	var out []Artifact
	for _, a := range artifacts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}
