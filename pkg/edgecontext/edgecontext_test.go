package edgecontext

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/edgecontext-in-go/internal/fixtures"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/authtoken"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext/header"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/secrets"
)

type countingValidator struct {
	next  TokenValidator
	calls atomic.Int32
}

func (v *countingValidator) Validate(raw string) authtoken.AuthenticationToken {
	v.calls.Add(1)
	return v.next.Validate(raw)
}

func newValidator(t *testing.T) *countingValidator {
	t.Helper()
	store := secrets.NewMemoryStore()
	store.Set(keyring.DefaultSecretPath, secrets.VersionedSecret{Current: fixtures.PublicKey})
	ring, err := keyring.New(store)
	require.NoError(t, err)
	return &countingValidator{next: authtoken.NewValidator(ring)}
}

func newFactory(t *testing.T) *Factory {
	return NewFactory(newValidator(t))
}

func TestFactory_New(t *testing.T) {
	ec, err := newFactory(t).New(NewArgs{
		AuthToken:         fixtures.TokenValid,
		LoID:              fixtures.LoIDID,
		LoIDCreatedMs:     fixtures.LoIDCreatedMs,
		SessionID:         fixtures.SessionID,
		DeviceID:          fixtures.DeviceID,
		OriginServiceName: fixtures.OriginName,
		CountryCode:       fixtures.CountryCode,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(fixtures.EnvelopeValidAuth), ec.Header())
	assert.Equal(t, fixtures.LoIDID, ec.Request().Loid.ID)

	id, err := ec.User().ID()
	require.NoError(t, err)
	assert.Equal(t, "t2_example", id)
}

func TestFactory_NewValidation(t *testing.T) {
	tests := []struct {
		name string
		args NewArgs
		err  error
	}{
		{
			name: "loid without prefix",
			args: NewArgs{LoID: "abc123", LoIDCreatedMs: fixtures.LoIDCreatedMs, SessionID: fixtures.SessionID},
			err:  ErrInvalidLoID,
		},
		{
			name: "lower case country code",
			args: NewArgs{AuthToken: fixtures.TokenValid, LoID: fixtures.LoIDID, CountryCode: "aa"},
			err:  ErrInvalidCountryCode,
		},
		{
			name: "three letter country code",
			args: NewArgs{CountryCode: "USA"},
			err:  ErrInvalidCountryCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator(t)
			ec, err := NewFactory(v).New(tt.args)
			assert.ErrorIs(t, err, tt.err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, ec)
			assert.Zero(t, v.calls.Load())
		})
	}
}

func TestFactory_NewEmpty(t *testing.T) {
	ec, err := newFactory(t).New(NewArgs{})
	require.NoError(t, err)
	assert.Equal(t, []byte(fixtures.EnvelopeEmpty), ec.Header())
}

func TestFactory_NewOnlyRequestID(t *testing.T) {
	ec, err := newFactory(t).New(NewArgs{RequestID: fixtures.RequestID})
	require.NoError(t, err)
	assert.Equal(t, []byte(fixtures.EnvelopeReadableRequestID), ec.Header())
}

func TestEdgeContext_LoggedOutUser(t *testing.T) {
	ec := newFactory(t).FromUpstream([]byte(fixtures.EnvelopeNoAuth))

	_, err := ec.User().ID()
	assert.ErrorIs(t, err, ErrNoAuthentication)
	_, err = ec.User().Roles()
	assert.ErrorIs(t, err, ErrNoAuthentication)
	assert.False(t, ec.User().IsLoggedIn())
	assert.Equal(t, fixtures.LoIDID, ec.User().LoID())
	assert.Equal(t, fixtures.LoIDCreatedMs, ec.User().CookieCreatedMs())

	_, err = ec.OAuthClient().ID()
	assert.ErrorIs(t, err, ErrNoAuthentication)
	_, err = ec.OAuthClient().IsType("third_party")
	assert.ErrorIs(t, err, ErrNoAuthentication)

	assert.Equal(t, fixtures.SessionID, ec.Session().ID)
	assert.Equal(t, fixtures.DeviceID, ec.Device().ID)
	assert.Equal(t, map[string]any{
		"user_id":                  fixtures.LoIDID,
		"logged_in":                false,
		"cookie_created_timestamp": fixtures.LoIDCreatedMs,
		"session_id":               fixtures.SessionID,
		"oauth_client_id":          nil,
		"device_id":                fixtures.DeviceID,
	}, ec.EventFields())
}

func TestEdgeContext_LoggedInUser(t *testing.T) {
	ec := newFactory(t).FromUpstream([]byte(fixtures.EnvelopeValidAuth))

	id, err := ec.User().ID()
	require.NoError(t, err)
	assert.Equal(t, "t2_example", id)
	assert.True(t, ec.User().IsLoggedIn())
	assert.Equal(t, "t2_example", ec.User().LoID())
	assert.Equal(t, fixtures.LoIDCreatedMs, ec.User().CookieCreatedMs())

	roles, err := ec.User().Roles()
	require.NoError(t, err)
	assert.Empty(t, roles)
	hasRole, err := ec.User().HasRole("test")
	require.NoError(t, err)
	assert.False(t, hasRole)

	clientID, err := ec.OAuthClient().ID()
	require.NoError(t, err)
	assert.Empty(t, clientID)
	isType, err := ec.OAuthClient().IsType("third_party")
	require.NoError(t, err)
	assert.False(t, isType)

	_, err = ec.Service().Name()
	assert.ErrorIs(t, err, ErrNoAuthentication)

	assert.Equal(t, fixtures.SessionID, ec.Session().ID)
	assert.Equal(t, fixtures.DeviceID, ec.Device().ID)
	assert.Equal(t, fixtures.OriginName, ec.OriginService().Name)
	assert.Equal(t, fixtures.CountryCode, ec.Geolocation().CountryCode)
	assert.Equal(t, map[string]any{
		"user_id":                  "t2_example",
		"logged_in":                true,
		"cookie_created_timestamp": fixtures.LoIDCreatedMs,
		"session_id":               fixtures.SessionID,
		"oauth_client_id":          nil,
		"device_id":                fixtures.DeviceID,
	}, ec.EventFields())
}

func TestEdgeContext_ExpiredToken(t *testing.T) {
	ec := newFactory(t).FromUpstream([]byte(fixtures.EnvelopeExpiredAuth))

	assert.False(t, ec.AuthenticationToken().Valid())
	_, err := ec.User().ID()
	assert.ErrorIs(t, err, ErrNoAuthentication)
	_, err = ec.User().Roles()
	assert.ErrorIs(t, err, ErrNoAuthentication)
	_, err = ec.OAuthClient().ID()
	assert.ErrorIs(t, err, ErrNoAuthentication)
	_, err = ec.OAuthClient().IsType("third_party")
	assert.ErrorIs(t, err, ErrNoAuthentication)

	assert.False(t, ec.User().IsLoggedIn())
	assert.Equal(t, fixtures.LoIDID, ec.User().LoID())
	assert.Equal(t, fixtures.LoIDCreatedMs, ec.User().CookieCreatedMs())
	assert.Equal(t, fixtures.SessionID, ec.Session().ID)
	assert.Equal(t, map[string]any{
		"user_id":                  fixtures.LoIDID,
		"logged_in":                false,
		"cookie_created_timestamp": fixtures.LoIDCreatedMs,
		"session_id":               fixtures.SessionID,
		"oauth_client_id":          nil,
	}, ec.EventFields())
}

func TestEdgeContext_AnonymousToken(t *testing.T) {
	ec := newFactory(t).FromUpstream([]byte(fixtures.EnvelopeAnonymousAuth))

	assert.True(t, ec.AuthenticationToken().Valid())
	_, err := ec.User().ID()
	assert.ErrorIs(t, err, ErrNoAuthentication)
	assert.False(t, ec.User().IsLoggedIn())
	assert.Equal(t, fixtures.LoIDID, ec.User().LoID())
	assert.Equal(t, fixtures.LoIDCreatedMs, ec.User().CookieCreatedMs())
	assert.Equal(t, fixtures.SessionID, ec.Session().ID)

	hasRole, err := ec.User().HasRole("anonymous")
	require.NoError(t, err)
	assert.True(t, hasRole)
	hasRole, err = ec.User().HasRole("ANONYMOUS")
	require.NoError(t, err)
	assert.True(t, hasRole)
}

func TestEdgeContext_RequestID(t *testing.T) {
	ec := newFactory(t).FromUpstream([]byte(fixtures.EnvelopeReadableRequestID))

	assert.Equal(t, fixtures.RequestID, ec.RequestID().ReadableID)
	assert.Equal(t, fixtures.RequestID, ec.RequestID().ID())
	assert.Equal(t, map[string]any{
		"cookie_created_timestamp": nil,
		"user_id":                  nil,
		"logged_in":                false,
		"session_id":               nil,
		"oauth_client_id":          nil,
		"edge_request_id":          fixtures.RequestID,
	}, ec.EventFields())
}

func TestEdgeContext_CorruptHeader(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "nil", raw: nil},
		{name: "truncated", raw: []byte(fixtures.EnvelopeValidAuth[:40])},
		{name: "garbage", raw: []byte{0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := newFactory(t).FromUpstream(tt.raw)
			assert.Equal(t, header.Request{}, ec.Request())
			assert.False(t, ec.AuthenticationToken().Valid())
			assert.Empty(t, ec.User().LoID())
			assert.Equal(t, map[string]any{
				"cookie_created_timestamp": nil,
				"user_id":                  nil,
				"logged_in":                false,
				"session_id":               nil,
				"oauth_client_id":          nil,
			}, ec.EventFields())
		})
	}
}

func TestEdgeContext_ValidatesOnce(t *testing.T) {
	v := newValidator(t)
	ec := NewFactory(v).FromUpstream([]byte(fixtures.EnvelopeValidAuth))
	assert.Zero(t, v.calls.Load())

	for range 3 {
		_, _ = ec.User().ID()
		_, _ = ec.OAuthClient().ID()
		_, _ = ec.Service().Name()
		_ = ec.EventFields()
		_ = ec.AuthenticationToken()
	}
	assert.Equal(t, int32(1), v.calls.Load())
}

func TestEdgeContext_ConcurrentAccess(t *testing.T) {
	v := newValidator(t)
	ec := NewFactory(v).FromUpstream([]byte(fixtures.EnvelopeValidAuth))

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = ec.User().LoID()
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, "t2_example", id)
	}
	assert.Equal(t, int32(1), v.calls.Load())
}

func TestEdgeContext_HeaderIsACopy(t *testing.T) {
	raw := []byte(fixtures.EnvelopeNoAuth)
	ec := newFactory(t).FromUpstream(raw)
	raw[0] = 0xff

	got := ec.Header()
	got[1] = 0xff
	assert.Equal(t, []byte(fixtures.EnvelopeNoAuth), ec.Header())
	assert.Equal(t, fixtures.SessionID, ec.Session().ID)
}
