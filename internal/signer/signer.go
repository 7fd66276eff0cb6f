package signer

import (
	"fmt"
	"os"

	"github.com/fossil-lib/xpkg/internal/utils"
	"github.com/sirupsen/logrus"
)

// Signer interface for signing package archives
type Signer interface {
	// SignDetached creates a detached signature over data
	SignDetached(data []byte) ([]byte, error)

	// GetPublicKey returns the public key
	GetPublicKey() ([]byte, error)

	// Extension is the suffix appended to the signed file's name
	Extension() string
}

// SignFile signs path and writes the signature next to it
func SignFile(s Signer, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	sig, err := s.SignDetached(data)
	if err != nil {
		return "", err
	}

	sigPath := path + s.Extension()
	if err := utils.WriteFile(sigPath, sig, 0644); err != nil {
		return "", fmt.Errorf("failed to write signature: %w", err)
	}

	logrus.Infof("Signed %s", sigPath)
	return sigPath, nil
}
