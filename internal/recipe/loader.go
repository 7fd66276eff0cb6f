package recipe

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fossil-lib/xpkg/internal/models"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var knownSettings = map[string]bool{
	"os":         true,
	"compiler":   true,
	"build_type": true,
	"arch":       true,
}

// Load reads a descriptor file. The format is chosen by extension:
// .yaml/.yml or .toml. An empty path returns the built-in descriptor.
func Load(path string) (models.Descriptor, error) {
	if path == "" {
		logrus.Debug("No recipe file given, using built-in descriptor")
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Descriptor{}, fmt.Errorf("failed to read recipe: %w", err)
	}

	var d models.Descriptor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		d, err = parseYAML(data)
	case ".toml":
		d, err = parseTOML(data)
	default:
		return models.Descriptor{}, fmt.Errorf("unsupported recipe format %q", filepath.Ext(path))
	}
	if err != nil {
		return models.Descriptor{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	applyDefaults(&d)
	if err := Validate(d); err != nil {
		return models.Descriptor{}, err
	}

	logrus.Debugf("Loaded recipe %s from %s", d.Reference(), path)
	return d, nil
}

func parseYAML(data []byte) (models.Descriptor, error) {
	var d models.Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return models.Descriptor{}, err
	}
	return d, nil
}

func parseTOML(data []byte) (models.Descriptor, error) {
	var d models.Descriptor
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return models.Descriptor{}, err
	}
	return d, nil
}

func applyDefaults(d *models.Descriptor) {
	def := DefaultLayout()
	if d.Layout.SourceFolder == "" {
		d.Layout.SourceFolder = def.SourceFolder
	}
	if d.Layout.BuildFolder == "" {
		d.Layout.BuildFolder = def.BuildFolder
	}
	if d.Layout.HeaderFolder == "" {
		d.Layout.HeaderFolder = def.HeaderFolder
	}
	if len(d.Settings) == 0 {
		d.Settings = []string{"os", "compiler", "build_type", "arch"}
	}
	if len(d.Options.Shared) == 0 {
		d.Options.Shared = []bool{true, false}
	}
}

// Validate checks that a descriptor can drive the pipeline
func Validate(d models.Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("recipe has no name")
	}
	if d.Version == "" {
		return fmt.Errorf("recipe %s has no version", d.Name)
	}
	if strings.ContainsAny(d.Name+d.Version, "/@ ") {
		return fmt.Errorf("invalid reference %q", d.Reference())
	}
	for _, s := range d.Settings {
		if !knownSettings[s] {
			return fmt.Errorf("recipe %s declares unknown setting %q", d.Name, s)
		}
	}
	if len(d.Libs) != 1 || d.Libs[0] == "" {
		return fmt.Errorf("recipe %s must declare exactly one library, got %d", d.Name, len(d.Libs))
	}
	if !containsBool(d.Options.Shared, d.Defaults.Shared) {
		return fmt.Errorf("default shared=%t is not among the allowed values", d.Defaults.Shared)
	}
	return nil
}

// CheckOptions verifies o against the values d allows
func CheckOptions(d models.Descriptor, o models.Options) error {
	if !containsBool(d.Options.Shared, o.Shared) {
		return fmt.Errorf("shared=%t is not allowed by recipe %s", o.Shared, d.Reference())
	}
	return nil
}

func containsBool(values []bool, v bool) bool {
	for _, b := range values {
		if b == v {
			return true
		}
	}
	return false
}
