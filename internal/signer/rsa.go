package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// RSASigner signs archives with RSA PKCS#1 v1.5 over SHA-256
type RSASigner struct {
	key *rsa.PrivateKey
}

// NewRSASigner loads a PEM encoded RSA private key. PKCS#1 and PKCS#8 are
// accepted, as are legacy passphrase-protected PEM blocks.
func NewRSASigner(keyPath, passphrase string) (*RSASigner, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("key path is empty")
	}

	raw, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	der, err := pemKeyBytes(raw, passphrase)
	if err != nil {
		return nil, err
	}

	key, err := parseRSAKey(der)
	if err != nil {
		return nil, err
	}
	return &RSASigner{key: key}, nil
}

func pemKeyBytes(raw []byte, passphrase string) ([]byte, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	//nolint:staticcheck
	if !x509.IsEncryptedPEMBlock(block) {
		return block.Bytes, nil
	}
	if passphrase == "" {
		return nil, fmt.Errorf("key is encrypted but no passphrase provided")
	}
	//nolint:staticcheck
	der, err := x509.DecryptPEMBlock(block, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key: %w", err)
	}
	return der, nil
}

func parseRSAKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("key is not an RSA private key")
	}
	return key, nil
}

// SignDetached implements Signer
func (s *RSASigner) SignDetached(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return sig, nil
}

// GetPublicKey returns the PKIX public key as PEM
func (s *RSASigner) GetPublicKey() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// Extension implements Signer
func (s *RSASigner) Extension() string {
	return ".sig"
}

// Verify checks a signature produced by SignDetached
func (s *RSASigner) Verify(data, signature []byte) error {
	digest := sha256.Sum256(data)
	return rsa.VerifyPKCS1v15(&s.key.PublicKey, crypto.SHA256, digest[:], signature)
}
