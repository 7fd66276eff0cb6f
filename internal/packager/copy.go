package packager

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fossil-lib/xpkg/internal/utils"
	"github.com/sirupsen/logrus"
)

// Copy copies every file under src whose path relative to src matches
// pattern into dst, keeping the relative layout. A pattern without a slash
// matches at any depth, so "*.h" behaves like "**/*.h". It returns the
// destination paths, sorted.
func Copy(pattern, src, dst string) ([]string, error) {
	matches, err := Match(pattern, src)
	if err != nil {
		return nil, err
	}
	return CopyMatches(matches, src, dst)
}

// Match returns the slash separated paths under src, relative to it, that
// match pattern. Nothing is written.
func Match(pattern, src string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	if !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("source folder %s: %w", src, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a folder", src)
	}

	matches, err := doublestar.Glob(os.DirFS(src), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to match %s in %s: %w", pattern, src, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// CopyMatches copies the given paths relative to src into dst and returns
// the destination paths in the same order
func CopyMatches(matches []string, src, dst string) ([]string, error) {
	copied := make([]string, 0, len(matches))
	for _, rel := range matches {
		from := filepath.Join(src, filepath.FromSlash(rel))
		to := filepath.Join(dst, filepath.FromSlash(rel))

		needs, err := utils.NeedsCopy(from, to)
		if err != nil {
			return nil, err
		}
		if needs {
			if err := utils.CopyFile(from, to); err != nil {
				return nil, fmt.Errorf("failed to copy %s: %w", rel, err)
			}
			logrus.Debugf("Copied %s -> %s", from, to)
		}
		copied = append(copied, to)
	}

	return copied, nil
}

// ListFiles returns every regular file under dir relative to it, slash
// separated and sorted
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
