package upload

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"
)

// URIScheme prefixes registry targets on the command line
const URIScheme = "oci://"

// Target is a parsed registry destination
type Target struct {
	Registry   string
	Repository string
	Tag        string
}

// ParseTarget parses oci://registry/repository[:tag]. An empty tag means
// the caller applies a default.
func ParseTarget(target string) (*Target, error) {
	if !strings.HasPrefix(target, URIScheme) {
		return nil, fmt.Errorf("target %q must start with %s", target, URIScheme)
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, fmt.Errorf("invalid OCI reference: %w", err)
	}
	if _, ok := ref.(reference.Digested); ok {
		return nil, fmt.Errorf("digest references cannot be pushed to: %s", target)
	}

	t := &Target{
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
	}
	if tagged, ok := ref.(reference.Tagged); ok {
		t.Tag = tagged.Tag()
	}
	return t, nil
}

// WithTag returns a copy of t using tag
func (t *Target) WithTag(tag string) *Target {
	c := *t
	c.Tag = tag
	return &c
}

// String renders registry/repository[:tag]
func (t *Target) String() string {
	if t.Tag == "" {
		return fmt.Sprintf("%s/%s", t.Registry, t.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", t.Registry, t.Repository, t.Tag)
}

// DefaultTag derives a tag from a version and package id. Tags allow
// [A-Za-z0-9_.-] only, so other characters become '_'.
func DefaultTag(version, packageID string) string {
	id := packageID
	if len(id) > 12 {
		id = id[:12]
	}
	tag := version + "-" + id
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, tag)
}
