package utils

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/fossil-lib/xpkg/internal/models"
)

// PackageID returns the identifier of one binary configuration of a recipe.
// It is the SHA-1 of the profile's canonical settings and options text.
func PackageID(p models.Profile) string {
	sum := sha1.Sum([]byte(p.Canonical()))
	return hex.EncodeToString(sum[:])
}

// ShortID truncates a package id for tags and log lines
func ShortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
