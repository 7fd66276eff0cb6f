package packager

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/fossil-lib/xpkg/internal/scanner"
	"github.com/fossil-lib/xpkg/internal/utils"
	"github.com/sirupsen/logrus"
)

// Folders inside a package
const (
	IncludeDir = "include"
	LibDir     = "lib"
	BinDir     = "bin"
)

// Result summarizes a package step
type Result struct {
	Folder     string
	PackageID  string
	Headers    []string
	Libs       []string
	SharedLibs []string
	Manifest   *Manifest
}

// Packager stages build output into a package folder
type Packager struct {
	scanner scanner.Scanner
	now     func() time.Time
}

// New creates a packager
func New() *Packager {
	return &Packager{
		scanner: scanner.NewFileSystemScanner(),
		now:     time.Now,
	}
}

// staging is one group of matched build outputs and where they go
type staging struct {
	src     string
	dst     string
	matches []string
}

// sharedPatterns lists shared library outputs per package folder
var sharedPatterns = []struct {
	pattern string
	dir     string
}{
	{"*.so", LibDir},
	{"*.so.*", LibDir},
	{"*.dylib", LibDir},
	{"*.dll", BinDir},
}

// Package copies headers and static archives for p into folder and writes
// the manifest and info files. Shared profiles also stage the shared
// libraries. Every output is matched and checked before anything in folder
// changes. Files left over from an earlier run that are no longer produced
// are removed.
func (pk *Packager) Package(ctx context.Context, p models.Profile, layout models.Layout, folder string) (*Result, error) {
	headerSrc := filepath.Join(p.Root, layout.HeaderFolder)
	buildDir := filepath.Join(p.Root, layout.BuildFolder)

	// A failed run must not leave a package that still looks complete.
	for _, name := range []string{InfoFileName, ManifestFileName} {
		if err := os.Remove(filepath.Join(folder, name)); err != nil && !os.IsNotExist(err) {
			return nil, models.NewError(models.ErrFileOp, "package", err)
		}
	}

	logrus.Infof("Packaging headers from %s", headerSrc)
	headers, err := Match("*.h", headerSrc)
	if err != nil {
		return nil, packageErr(fmt.Errorf("failed to match headers: %w", err))
	}
	if len(headers) == 0 {
		return nil, packageErr(fmt.Errorf("no headers found in %s", headerSrc))
	}

	logrus.Infof("Packaging static libraries from %s", buildDir)
	libs, err := Match("*.a", buildDir)
	if err != nil {
		return nil, packageErr(fmt.Errorf("failed to match libraries: %w", err))
	}
	if len(libs) == 0 {
		return nil, packageErr(fmt.Errorf("no static libraries found in %s", buildDir))
	}
	if err := pk.checkType(buildDir, libs, scanner.TypeStaticLib); err != nil {
		return nil, err
	}

	stages := []staging{
		{src: headerSrc, dst: filepath.Join(folder, IncludeDir), matches: headers},
		{src: buildDir, dst: filepath.Join(folder, LibDir), matches: libs},
	}
	if p.Options.Shared {
		shared, err := pk.matchShared(buildDir, folder)
		if err != nil {
			return nil, err
		}
		stages = append(stages, shared...)
	}

	copied := make([][]string, len(stages))
	keep := make(map[string]bool)
	for i, st := range stages {
		dsts, err := CopyMatches(st.matches, st.src, st.dst)
		if err != nil {
			return nil, packageErr(fmt.Errorf("failed to copy from %s: %w", st.src, err))
		}
		copied[i] = dsts
		for _, f := range dsts {
			keep[f] = true
		}
	}
	for _, dir := range []string{IncludeDir, LibDir, BinDir} {
		if err := prune(filepath.Join(folder, dir), keep); err != nil {
			return nil, models.NewError(models.ErrFileOp, "package", err)
		}
	}

	packageID := utils.PackageID(p)
	info := p.Canonical() + "[package_id]\n    " + packageID + "\n"
	if err := utils.WriteFile(filepath.Join(folder, InfoFileName), []byte(info), 0644); err != nil {
		return nil, models.NewError(models.ErrFileOp, "package", err)
	}

	files, err := stagedFiles(folder)
	if err != nil {
		return nil, models.NewError(models.ErrFileOp, "package", err)
	}
	manifest, err := BuildManifest(ctx, folder, files, pk.now())
	if err != nil {
		return nil, models.NewError(models.ErrFileOp, "package", err)
	}
	if err := utils.WriteFile(filepath.Join(folder, ManifestFileName), manifest.Bytes(), 0644); err != nil {
		return nil, models.NewError(models.ErrFileOp, "package", err)
	}

	res := &Result{
		Folder:    folder,
		PackageID: packageID,
		Headers:   copied[0],
		Libs:      copied[1],
		Manifest:  manifest,
	}
	for _, dsts := range copied[2:] {
		res.SharedLibs = append(res.SharedLibs, dsts...)
	}

	logrus.WithFields(logrus.Fields{
		"package_id": utils.ShortID(packageID),
		"headers":    len(res.Headers),
		"libs":       len(res.Libs),
		"shared":     len(res.SharedLibs),
	}).Infof("Package folder ready: %s", folder)

	return res, nil
}

// matchShared finds the shared libraries a shared build produced
func (pk *Packager) matchShared(buildDir, folder string) ([]staging, error) {
	logrus.Infof("Packaging shared libraries from %s", buildDir)
	var stages []staging
	for _, sp := range sharedPatterns {
		matches, err := Match(sp.pattern, buildDir)
		if err != nil {
			return nil, packageErr(fmt.Errorf("failed to match shared libraries: %w", err))
		}
		if len(matches) == 0 {
			continue
		}
		if err := pk.checkType(buildDir, matches, scanner.TypeELF, scanner.TypeMachO, scanner.TypePE); err != nil {
			return nil, err
		}
		stages = append(stages, staging{src: buildDir, dst: filepath.Join(folder, sp.dir), matches: matches})
	}
	if len(stages) == 0 {
		return nil, packageErr(fmt.Errorf("no shared libraries found in %s", buildDir))
	}
	return stages, nil
}

// checkType verifies every match under dir is one of the allowed types
func (pk *Packager) checkType(dir string, matches []string, allowed ...scanner.ArtifactType) error {
	for _, rel := range matches {
		t, err := pk.scanner.DetectType(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return packageErr(err)
		}
		ok := false
		for _, a := range allowed {
			if t == a {
				ok = true
				break
			}
		}
		if !ok {
			return packageErr(fmt.Errorf("%s is not a %s artifact (detected %s)", path.Base(rel), allowed[0], t))
		}
	}
	return nil
}

// ReadPackageID returns the package id recorded in folder's info file
func ReadPackageID(folder string) (string, error) {
	f, err := os.Open(filepath.Join(folder, InfoFileName))
	if err != nil {
		return "", err
	}
	defer f.Close()

	inSection := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "[") {
			inSection = line == "[package_id]"
			continue
		}
		if inSection && line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no package id in %s", filepath.Join(folder, InfoFileName))
}

// stagedFiles lists the package content the manifest covers
func stagedFiles(folder string) ([]string, error) {
	all, err := ListFiles(folder)
	if err != nil {
		return nil, err
	}
	files := all[:0]
	for _, f := range all {
		if f == ManifestFileName {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// prune removes files under dir that are not in keep
func prune(dir string, keep map[string]bool) error {
	files, err := ListFiles(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, rel := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if keep[path] {
			continue
		}
		logrus.Debugf("Removing stale %s", path)
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}

func packageErr(err error) error {
	return models.NewError(models.ErrPackage, "package", err)
}
