package authtoken

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
)

// HeaderKeyID is the JWT header naming the key a token was signed with,
// as defined in RFC 7517 section 4.5.
const HeaderKeyID = "kid"

var (
	// ErrEmptyToken is returned by Verify for an empty token.
	ErrEmptyToken = errors.New("authtoken: empty token")

	// ErrMalformed is returned by Verify when the token cannot be decoded.
	ErrMalformed = errors.New("authtoken: malformed token")

	// ErrWrongAlgorithm is returned by Verify when the token is not signed
	// with the configured algorithm.
	ErrWrongAlgorithm = errors.New("authtoken: unexpected signing algorithm")

	// ErrNoKeys is returned by Verify when no public keys are loaded.
	ErrNoKeys = errors.New("authtoken: no public keys loaded")

	// ErrSignature is returned by Verify when no key verifies the signature.
	ErrSignature = errors.New("authtoken: signature not verified by any key")
)

// KeySource provides the keys tokens are verified against.
type KeySource interface {
	CurrentKeys() []keyring.Key
	Algorithm() string
}

// Validator checks token signatures against a KeySource. It is safe for
// concurrent use.
type Validator struct {
	keys   KeySource
	logger *slog.Logger
	now    func() time.Time
	leeway time.Duration
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithTimeFunc sets the clock used for expiry checks.
func WithTimeFunc(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		v.now = now
	}
}

// WithLeeway allows for clock skew when checking expiry.
func WithLeeway(leeway time.Duration) ValidatorOption {
	return func(v *Validator) {
		v.leeway = leeway
	}
}

// WithLogger sets the logger rejected tokens are reported to.
func WithLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		v.logger = logger
	}
}

// NewValidator creates a Validator.
func NewValidator(keys KeySource, opts ...ValidatorOption) *Validator {
	v := &Validator{
		keys:   keys,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns a Validated token, or Invalid if the token cannot be
// verified for any reason.
func (v *Validator) Validate(raw string) AuthenticationToken {
	tok, err := v.Verify(raw)
	if err != nil {
		if !errors.Is(err, ErrEmptyToken) {
			v.logger.Debug("authentication token rejected", "error", err)
		}
		return Invalid{}
	}
	return tok
}

// Verify checks raw against each current key in turn, starting with the key
// named by the token's kid header if there is one. A token whose signature
// verifies but whose claims do not (for example because it has expired) is
// rejected without trying the remaining keys.
func (v *Validator) Verify(raw string) (*Validated, error) {
	if raw == "" {
		return nil, ErrEmptyToken
	}

	alg := v.keys.Algorithm()
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{alg}),
		jwt.WithTimeFunc(v.now),
		jwt.WithLeeway(v.leeway),
	)

	unverified, _, err := parser.ParseUnverified(raw, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if got := unverified.Method.Alg(); got != alg {
		return nil, fmt.Errorf("%w: %s", ErrWrongAlgorithm, got)
	}

	keys := v.keys.CurrentKeys()
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	kid, _ := unverified.Header[HeaderKeyID].(string)

	var lastErr error
	for _, key := range orderKeys(keys, kid) {
		var claims Claims
		_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return key.Public, nil
		})
		if err == nil {
			return NewValidated(claims), nil
		}
		if errors.Is(err, jwt.ErrTokenInvalidClaims) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %w", ErrSignature, lastErr)
}

// orderKeys moves the key whose fingerprint is kid to the front, keeping the
// order of the others.
func orderKeys(keys []keyring.Key, kid string) []keyring.Key {
	if kid == "" {
		return keys
	}
	for i, k := range keys {
		if k.Fingerprint != kid {
			continue
		}
		if i == 0 {
			return keys
		}
		ordered := make([]keyring.Key, 0, len(keys))
		ordered = append(ordered, k)
		ordered = append(ordered, keys[:i]...)
		return append(ordered, keys[i+1:]...)
	}
	return keys
}
