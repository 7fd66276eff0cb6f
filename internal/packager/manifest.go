package packager

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fossil-lib/xpkg/internal/utils"
	"golang.org/x/sync/errgroup"
)

const (
	ManifestFileName = "conanmanifest.txt"
	InfoFileName     = "conaninfo.txt"
)

// maxHashers bounds concurrent file hashing
const maxHashers = 8

// ManifestEntry is one staged file and its MD5
type ManifestEntry struct {
	Path string
	MD5  string
}

// Manifest lists the content of a package folder
type Manifest struct {
	Time    time.Time
	Entries []ManifestEntry
}

// BuildManifest hashes the given files (relative to dir, sorted) into a
// manifest. Output order follows files regardless of hashing order.
func BuildManifest(ctx context.Context, dir string, files []string, now time.Time) (*Manifest, error) {
	entries := make([]ManifestEntry, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxHashers)
	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum, err := utils.CalculateChecksums(filepath.Join(dir, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("failed to hash %s: %w", rel, err)
			}
			entries[i] = ManifestEntry{Path: rel, MD5: sum.MD5}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Manifest{Time: now, Entries: entries}, nil
}

// Bytes renders the manifest: the Unix timestamp, then one "path: md5" line
// per file
func (m *Manifest) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString(strconv.FormatInt(m.Time.Unix(), 10))
	buf.WriteString("\n")
	for _, e := range m.Entries {
		fmt.Fprintf(&buf, "%s: %s\n", e.Path, e.MD5)
	}
	return buf.Bytes()
}
