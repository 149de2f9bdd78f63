package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/edgecontext-in-go/internal/fixtures"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/authtoken"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/secrets"
)

func newFactory(t *testing.T) *edgecontext.Factory {
	t.Helper()
	store := secrets.NewMemoryStore()
	store.Set(keyring.DefaultSecretPath, secrets.VersionedSecret{Current: fixtures.PublicKey})
	ring, err := keyring.New(store)
	require.NoError(t, err)
	return edgecontext.NewFactory(authtoken.NewValidator(ring))
}

func encode(envelope string) string {
	return base64.StdEncoding.EncodeToString([]byte(envelope))
}

// captureHandler records the edge context seen by the wrapped handler.
func captureHandler(got **edgecontext.EdgeContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ec, ok := edgecontext.Get(r.Context())
		if ok {
			*got = ec
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewEdgeContextMiddleware(t *testing.T) {
	m := NewEdgeContextMiddleware(nil, "")
	assert.Equal(t, DefaultHeader, m.Header)

	m = NewEdgeContextMiddleware(nil, "X-Edge")
	assert.Equal(t, "X-Edge", m.Header)
}

func TestMiddleware_AttachesEdgeContext(t *testing.T) {
	m := NewEdgeContextMiddleware(newFactory(t), "")
	var got *edgecontext.EdgeContext

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(DefaultHeader, encode(fixtures.EnvelopeValidAuth))
	w := httptest.NewRecorder()
	m.Middleware(captureHandler(&got)).ServeHTTP(w, req)

	require.NotNil(t, got)
	id, err := got.User().ID()
	require.NoError(t, err)
	assert.Equal(t, "t2_example", id)
	assert.Equal(t, []byte(fixtures.EnvelopeValidAuth), got.Header())
}

func TestMiddleware_DegradesToEmptyContext(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "missing header", value: ""},
		{name: "not base64", value: "%%%"},
		{name: "not an envelope", value: base64.StdEncoding.EncodeToString([]byte{0xff, 0xff})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewEdgeContextMiddleware(newFactory(t), "")
			var got *edgecontext.EdgeContext

			req := httptest.NewRequest("GET", "/", nil)
			if tt.value != "" {
				req.Header.Set(DefaultHeader, tt.value)
			}
			w := httptest.NewRecorder()
			m.Middleware(captureHandler(&got)).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			require.NotNil(t, got)
			assert.False(t, got.User().IsLoggedIn())
			assert.Empty(t, got.User().LoID())
		})
	}
}

func TestInject(t *testing.T) {
	factory := newFactory(t)
	m := NewEdgeContextMiddleware(factory, "")

	h := http.Header{}
	assert.False(t, m.Inject(context.Background(), h))
	assert.Empty(t, h.Get(DefaultHeader))

	ec := factory.FromUpstream([]byte(fixtures.EnvelopeNoAuth))
	ctx := edgecontext.Set(context.Background(), ec)
	assert.True(t, m.Inject(ctx, h))
	assert.Equal(t, encode(fixtures.EnvelopeNoAuth), h.Get(DefaultHeader))

	// What is injected extracts to the same context.
	got, ok := edgecontext.Get(m.Extract(context.Background(), h))
	require.True(t, ok)
	assert.Equal(t, fixtures.LoIDID, got.User().LoID())
	assert.Equal(t, fixtures.SessionID, got.Session().ID)
}

func TestRequireUser(t *testing.T) {
	factory := newFactory(t)
	m := NewEdgeContextMiddleware(factory, "")
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		envelope string
		expected int
	}{
		{name: "logged in", envelope: fixtures.EnvelopeValidAuth, expected: http.StatusNoContent},
		{name: "logged out", envelope: fixtures.EnvelopeNoAuth, expected: http.StatusUnauthorized},
		{name: "expired", envelope: fixtures.EnvelopeExpiredAuth, expected: http.StatusUnauthorized},
		{name: "anonymous", envelope: fixtures.EnvelopeAnonymousAuth, expected: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set(DefaultHeader, encode(tt.envelope))
			w := httptest.NewRecorder()
			m.Middleware(RequireUser(ok)).ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRequireUser_WithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	RequireUser(http.NotFoundHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Edge context missing", w.Body.String())
}

func TestRequireService(t *testing.T) {
	signer, err := authtoken.NewSigner("RS256", []byte(fixtures.PrivateKey))
	require.NoError(t, err)
	token, err := signer.Sign(authtoken.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "service/ads"}})
	require.NoError(t, err)

	factory := newFactory(t)
	ec, err := factory.New(edgecontext.NewArgs{AuthToken: token})
	require.NoError(t, err)

	m := NewEdgeContextMiddleware(factory, "")
	var name string
	handler := m.Middleware(RequireService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ := edgecontext.Get(r.Context())
		name, _ = got.Service().Name()
	})))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(DefaultHeader, base64.StdEncoding.EncodeToString(ec.Header()))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ads", name)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(DefaultHeader, encode(fixtures.EnvelopeValidAuth))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireView_OtherErrors(t *testing.T) {
	ec := newFactory(t).FromUpstream([]byte(fixtures.EnvelopeValidAuth))
	handler := requireView(http.NotFoundHandler(), func(*edgecontext.EdgeContext) error {
		return assert.AnError
	})

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(edgecontext.Set(req.Context(), ec))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), assert.AnError.Error())
}
