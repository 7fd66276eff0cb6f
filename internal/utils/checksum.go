package utils

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/opencontainers/go-digest"
)

// Checksum contains the digests of a file
type Checksum struct {
	MD5    string
	SHA256 string
	Size   int64
}

// Digest returns the OCI-style "sha256:<hex>" form of the file digest
func (c *Checksum) Digest() string {
	return digest.NewDigestFromEncoded(digest.SHA256, c.SHA256).String()
}

// CalculateChecksums hashes a file once for its manifest MD5 and its digest
func CalculateChecksums(path string) (*Checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	md5Hash := md5.New()
	sha256Hash := sha256.New()

	// Stream file through both hashes at once
	n, err := io.Copy(io.MultiWriter(md5Hash, sha256Hash), f)
	if err != nil {
		return nil, err
	}

	return &Checksum{
		MD5:    hex.EncodeToString(md5Hash.Sum(nil)),
		SHA256: hex.EncodeToString(sha256Hash.Sum(nil)),
		Size:   n,
	}, nil
}
