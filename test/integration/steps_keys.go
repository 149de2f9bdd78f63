package integration

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/edgecontext-in-go/internal/fixtures"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/authtoken"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/secrets"
)

// namedSigner is a freshly generated key pair referred to by name in
// feature files.
type namedSigner struct {
	*authtoken.Signer
	publicPEM string
}

// offlineValidator lets the steps build headers without keys.
type offlineValidator struct{}

func (offlineValidator) Validate(string) authtoken.AuthenticationToken {
	return authtoken.Invalid{}
}

func (s *StepsContext) signer(name string) (*namedSigner, error) {
	if signer, ok := s.signers[name]; ok {
		return signer, nil
	}
	privatePEM, publicPEM, err := fixtures.RSAKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key %q: %w", name, err)
	}
	signer, err := authtoken.NewSigner(keyring.DefaultAlgorithm, []byte(privatePEM))
	if err != nil {
		return nil, err
	}
	s.signers[name] = &namedSigner{Signer: signer, publicPEM: publicPEM}
	return s.signers[name], nil
}

// Key steps

func (s *StepsContext) aSigningKeyStoredAs(name, slot string) error {
	signer, err := s.signer(name)
	if err != nil {
		return err
	}
	return s.tc.Store.Put(keyring.DefaultSecretPath, secrets.Slot(slot), signer.publicPEM)
}

func (s *StepsContext) theKeysAreRotated() error {
	return s.tc.Store.Rotate(keyring.DefaultSecretPath)
}

func (s *StepsContext) theKeyIsCleared(slot string) error {
	return s.tc.Store.Put(keyring.DefaultSecretPath, secrets.Slot(slot), "")
}

// Header steps

func (s *StepsContext) encodeHeader(args edgecontext.NewArgs) error {
	ec, err := edgecontext.NewFactory(offlineValidator{}).New(args)
	if err != nil {
		return err
	}
	s.header = base64.StdEncoding.EncodeToString(ec.Header())
	return nil
}

func (s *StepsContext) mintToken(subject, signerName string, ttl time.Duration) (string, error) {
	signer, err := s.signer(signerName)
	if err != nil {
		return "", err
	}
	now := time.Now()
	return signer.Sign(authtoken.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
}

func (s *StepsContext) anEdgeContextForLoID(loid string) error {
	return s.encodeHeader(edgecontext.NewArgs{
		LoID:          loid,
		LoIDCreatedMs: fixtures.LoIDCreatedMs,
		SessionID:     fixtures.SessionID,
	})
}

func (s *StepsContext) anEdgeContextWithToken(loid, subject, signerName string) error {
	token, err := s.mintToken(subject, signerName, time.Hour)
	if err != nil {
		return err
	}
	return s.encodeHeader(edgecontext.NewArgs{
		LoID:          loid,
		LoIDCreatedMs: fixtures.LoIDCreatedMs,
		SessionID:     fixtures.SessionID,
		AuthToken:     token,
	})
}

func (s *StepsContext) anEdgeContextWithExpiredToken(loid, subject, signerName string) error {
	token, err := s.mintToken(subject, signerName, -time.Hour)
	if err != nil {
		return err
	}
	return s.encodeHeader(edgecontext.NewArgs{
		LoID:          loid,
		LoIDCreatedMs: fixtures.LoIDCreatedMs,
		SessionID:     fixtures.SessionID,
		AuthToken:     token,
	})
}

func (s *StepsContext) anEdgeContextHeader(header string) error {
	s.header = header
	return nil
}
