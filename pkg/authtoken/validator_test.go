package authtoken

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/edgecontext-in-go/internal/fixtures"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/secrets"
)

type staticKeys struct {
	alg   string
	keys  []keyring.Key
	calls int
}

func (s *staticKeys) CurrentKeys() []keyring.Key {
	s.calls++
	return s.keys
}

func (s *staticKeys) Algorithm() string { return s.alg }

func parseKey(t *testing.T, alg, publicPEM string) keyring.Key {
	t.Helper()
	pub, err := keyring.ParsePublicKey(alg, []byte(publicPEM))
	require.NoError(t, err)
	fingerprint, err := keyring.Fingerprint(pub)
	require.NoError(t, err)
	return keyring.Key{Fingerprint: fingerprint, Public: pub}
}

func fixtureKeys(t *testing.T) *staticKeys {
	return &staticKeys{alg: "RS256", keys: []keyring.Key{parseKey(t, "RS256", fixtures.PublicKey)}}
}

func otherKey(t *testing.T) (keyring.Key, *Signer, string) {
	t.Helper()
	private, public, err := fixtures.RSAKeyPair()
	require.NoError(t, err)
	signer, err := NewSigner("RS256", []byte(private))
	require.NoError(t, err)
	return parseKey(t, "RS256", public), signer, public
}

func TestValidator_Verify(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		subject string
		roles   Set
		err     error
	}{
		{
			name:    "valid",
			token:   fixtures.TokenValid,
			subject: "t2_example",
			roles:   NewSet(),
		},
		{
			name:    "anonymous with null subject",
			token:   fixtures.TokenAnonymous,
			subject: "",
			roles:   NewSet("anonymous"),
		},
		{
			name:  "expired",
			token: fixtures.TokenExpired,
			err:   jwt.ErrTokenExpired,
		},
		{
			name:  "empty",
			token: "",
			err:   ErrEmptyToken,
		},
		{
			name:  "not a jwt",
			token: "abc",
			err:   ErrMalformed,
		},
		{
			name:  "tampered signature",
			token: fixtures.TokenValid[:len(fixtures.TokenValid)-4] + "AAAA",
			err:   ErrSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(fixtureKeys(t))
			tok, err := v.Verify(tt.token)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, tok)
				assert.False(t, v.Validate(tt.token).Valid())
				return
			}
			require.NoError(t, err)
			subject, _ := tok.Subject()
			assert.Equal(t, tt.subject, subject)
			roles, _ := tok.UserRoles()
			assert.Equal(t, tt.roles, roles)
			assert.True(t, v.Validate(tt.token).Valid())
		})
	}
}

func TestValidator_EmptyTokenDoesNotTouchKeys(t *testing.T) {
	keys := fixtureKeys(t)
	v := NewValidator(keys)

	assert.Equal(t, Invalid{}, v.Validate(""))
	assert.Equal(t, 0, keys.calls)
}

func TestValidator_NoKeys(t *testing.T) {
	v := NewValidator(&staticKeys{alg: "RS256"})
	_, err := v.Verify(fixtures.TokenValid)
	assert.ErrorIs(t, err, ErrNoKeys)
}

func TestValidator_KeyNotInRing(t *testing.T) {
	other, _, _ := otherKey(t)
	v := NewValidator(&staticKeys{alg: "RS256", keys: []keyring.Key{other}})

	_, err := v.Verify(fixtures.TokenValid)
	assert.ErrorIs(t, err, ErrSignature)
	assert.Equal(t, Invalid{}, v.Validate(fixtures.TokenValid))
}

func TestValidator_TriesEveryKey(t *testing.T) {
	other, _, _ := otherKey(t)
	keys := &staticKeys{alg: "RS256", keys: []keyring.Key{other, parseKey(t, "RS256", fixtures.PublicKey)}}

	tok, err := NewValidator(keys).Verify(fixtures.TokenValid)
	require.NoError(t, err)
	subject, _ := tok.Subject()
	assert.Equal(t, "t2_example", subject)
}

func TestValidator_ExpiredStopsAtFirstVerifyingKey(t *testing.T) {
	// The expired token verifies against the first key; the error must be
	// the expiry, not a signature failure from trying the second key.
	other, _, _ := otherKey(t)
	keys := &staticKeys{alg: "RS256", keys: []keyring.Key{parseKey(t, "RS256", fixtures.PublicKey), other}}

	_, err := NewValidator(keys).Verify(fixtures.TokenExpired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	assert.False(t, errors.Is(err, ErrSignature))
}

func TestValidator_TimeFuncAndLeeway(t *testing.T) {
	after := time.Date(2050, 1, 1, 0, 0, 30, 0, time.UTC)

	_, err := NewValidator(fixtureKeys(t), WithTimeFunc(func() time.Time { return after })).Verify(fixtures.TokenValid)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = NewValidator(fixtureKeys(t),
		WithTimeFunc(func() time.Time { return after }),
		WithLeeway(time.Minute),
	).Verify(fixtures.TokenValid)
	assert.NoError(t, err)

	before := time.Date(2009, 12, 31, 0, 0, 0, 0, time.UTC)
	_, err = NewValidator(fixtureKeys(t), WithTimeFunc(func() time.Time { return before })).Verify(fixtures.TokenExpired)
	assert.NoError(t, err)
}

func TestValidator_WrongAlgorithm(t *testing.T) {
	hmac := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "t2_example"}})
	raw, err := hmac.SignedString([]byte(fixtures.PublicKey))
	require.NoError(t, err)

	keys := fixtureKeys(t)
	_, err = NewValidator(keys).Verify(raw)
	assert.ErrorIs(t, err, ErrWrongAlgorithm)
	assert.Equal(t, 0, keys.calls)
}

func TestValidator_WithKeyRing(t *testing.T) {
	store := secrets.NewMemoryStore()
	store.Set(keyring.DefaultSecretPath, secrets.VersionedSecret{Current: fixtures.PublicKey})
	ring, err := keyring.New(store)
	require.NoError(t, err)

	v := NewValidator(ring)
	assert.True(t, v.Validate(fixtures.TokenValid).Valid())

	_, signer, public := otherKey(t)
	store.Set(keyring.DefaultSecretPath, secrets.VersionedSecret{Current: public})

	assert.False(t, v.Validate(fixtures.TokenValid).Valid())

	raw, err := signer.Sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "t2_rotated"}})
	require.NoError(t, err)
	tok := v.Validate(raw)
	require.True(t, tok.Valid())
	subject, _ := tok.Subject()
	assert.Equal(t, "t2_rotated", subject)
}

func TestOrderKeys(t *testing.T) {
	a := keyring.Key{Fingerprint: "a"}
	b := keyring.Key{Fingerprint: "b"}
	c := keyring.Key{Fingerprint: "c"}
	keys := []keyring.Key{a, b, c}

	tests := []struct {
		name     string
		kid      string
		expected []keyring.Key
	}{
		{name: "no kid", kid: "", expected: []keyring.Key{a, b, c}},
		{name: "unknown kid", kid: "z", expected: []keyring.Key{a, b, c}},
		{name: "first", kid: "a", expected: []keyring.Key{a, b, c}},
		{name: "middle", kid: "b", expected: []keyring.Key{b, a, c}},
		{name: "last", kid: "c", expected: []keyring.Key{c, a, b}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, orderKeys(keys, tt.kid))
		})
	}
	assert.Equal(t, []keyring.Key{a, b, c}, keys)
}
