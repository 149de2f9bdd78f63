package authtoken

import (
	"crypto"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
)

// Signer mints authentication tokens. Edge services mint tokens in
// production; Signer exists for tooling and tests.
type Signer struct {
	method jwt.SigningMethod
	key    crypto.Signer
	kid    string
}

// NewSigner creates a Signer for alg from a PEM encoded private key.
func NewSigner(alg string, privatePEM []byte) (*Signer, error) {
	if !keyring.Supported(alg) {
		return nil, fmt.Errorf("authtoken: unsupported signing algorithm %q", alg)
	}
	key, err := keyring.ParsePrivateKey(alg, privatePEM)
	if err != nil {
		return nil, fmt.Errorf("authtoken: parse private key: %w", err)
	}
	kid, err := keyring.Fingerprint(key.Public())
	if err != nil {
		return nil, err
	}
	return &Signer{
		method: jwt.GetSigningMethod(alg),
		key:    key,
		kid:    kid,
	}, nil
}

// KeyID returns the fingerprint written to the kid header.
func (s *Signer) KeyID() string {
	return s.kid
}

// PublicKey returns the public half of the signing key.
func (s *Signer) PublicKey() crypto.PublicKey {
	return s.key.Public()
}

// Sign returns the compact serialization of a token carrying claims.
func (s *Signer) Sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(s.method, claims)
	tok.Header[HeaderKeyID] = s.kid
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("authtoken: sign: %w", err)
	}
	return signed, nil
}
