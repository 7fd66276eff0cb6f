package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fossil-lib/xpkg/internal/utils"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
)

// Format is a tarball compression
type Format string

const (
	FormatGzip Format = "tgz"
	FormatZstd Format = "tzst"
	FormatXz   Format = "txz"
)

// DefaultName is the archive name used when none is given
const DefaultName = "conan_package.tgz"

// ParseFormat accepts a format name or a file extension
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "tgz", "tar.gz", "gz", "gzip":
		return FormatGzip, nil
	case "tzst", "tar.zst", "zst", "zstd":
		return FormatZstd, nil
	case "txz", "tar.xz", "xz":
		return FormatXz, nil
	default:
		return "", fmt.Errorf("unsupported archive format %q", s)
	}
}

// FormatOf infers the format from an archive file name
func FormatOf(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range []string{".tar.gz", ".tar.zst", ".tar.xz", ".tgz", ".tzst", ".txz"} {
		if strings.HasSuffix(name, ext) {
			return ParseFormat(ext)
		}
	}
	return "", fmt.Errorf("cannot infer archive format of %s", path)
}

// FileName returns the archive name for f
func (f Format) FileName() string {
	switch f {
	case FormatZstd:
		return "conan_package.tar.zst"
	case FormatXz:
		return "conan_package.tar.xz"
	default:
		return DefaultName
	}
}

// Create writes dir as a compressed tarball at out. Entries are sorted and
// carry no timestamps or ownership, so the same folder always produces the
// same bytes.
func Create(ctx context.Context, dir, out string, format Format) (*utils.Checksum, error) {
	files, err := listFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	if err := utils.EnsureDir(filepath.Dir(out)); err != nil {
		return nil, err
	}
	f, err := os.Create(out)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cw, err := compressor(f, format)
	if err != nil {
		return nil, err
	}

	tw := tar.NewWriter(cw)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := addFile(tw, dir, rel); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", rel, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := cw.Close(); err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	sum, err := utils.CalculateChecksums(out)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Created %s (%d files)", out, len(files))
	return sum, nil
}

// List returns the entry names stored in an archive
func List(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	r, closeFn, err := decompressor(f, format)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var names []string
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, header.Name)
	}
	return names, nil
}

func compressor(w io.Writer, format Format) (io.WriteCloser, error) {
	switch format {
	case FormatGzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case FormatZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression), zstd.WithEncoderConcurrency(1))
	case FormatXz:
		return xz.NewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported archive format %q", format)
	}
}

func decompressor(r io.Reader, format Format) (io.Reader, func(), error) {
	switch format {
	case FormatGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gr, func() { gr.Close() }, nil
	case FormatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case FormatXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xr, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported archive format %q", format)
	}
}

// addFile adds a file to a tar archive
func addFile(tw *tar.Writer, dir, rel string) error {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    rel,
		Mode:    int64(info.Mode().Perm()),
		Size:    info.Size(),
		ModTime: time.Unix(0, 0),
		Format:  tar.FormatPAX,
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
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
	return files, err
}
