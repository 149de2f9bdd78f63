package keyring

import (
	"crypto"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/ssh"
)

// Key is a parsed public key.
type Key struct {
	// Fingerprint is the SSH SHA256 fingerprint, e.g. "SHA256:lZ0h...".
	// Signers put it in the kid header.
	Fingerprint string

	// Public is an *rsa.PublicKey, *ecdsa.PublicKey or ed25519.PublicKey.
	Public crypto.PublicKey

	// Version is the position of the key in the secret's active versions:
	// 0 is the first non-empty of current, previous, next.
	Version int
}

// Fingerprint returns the SSH SHA256 fingerprint of a public key.
func Fingerprint(pub crypto.PublicKey) (string, error) {
	key, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("keyring: fingerprint: %w", err)
	}
	return ssh.FingerprintSHA256(key), nil
}

// Supported reports whether alg is an asymmetric signing algorithm keys can
// be parsed for.
func Supported(alg string) bool {
	if jwt.GetSigningMethod(alg) == nil {
		return false
	}
	return strings.HasPrefix(alg, "RS") || strings.HasPrefix(alg, "PS") ||
		strings.HasPrefix(alg, "ES") || alg == "EdDSA"
}

// ParsePublicKey parses a PEM encoded public key for the key family of alg.
func ParsePublicKey(alg string, pemData []byte) (crypto.PublicKey, error) {
	switch {
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		return jwt.ParseRSAPublicKeyFromPEM(pemData)
	case strings.HasPrefix(alg, "ES"):
		return jwt.ParseECPublicKeyFromPEM(pemData)
	case alg == "EdDSA":
		return jwt.ParseEdPublicKeyFromPEM(pemData)
	}
	return nil, fmt.Errorf("keyring: unsupported algorithm %q", alg)
}

// ParsePrivateKey parses a PEM encoded private key for the key family of alg.
func ParsePrivateKey(alg string, pemData []byte) (crypto.Signer, error) {
	switch {
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		return jwt.ParseRSAPrivateKeyFromPEM(pemData)
	case strings.HasPrefix(alg, "ES"):
		return jwt.ParseECPrivateKeyFromPEM(pemData)
	case alg == "EdDSA":
		key, err := jwt.ParseEdPrivateKeyFromPEM(pemData)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("keyring: unsupported private key type %T", key)
		}
		return signer, nil
	}
	return nil, fmt.Errorf("keyring: unsupported algorithm %q", alg)
}
