package benchmark

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/doodlesbykumbi/edgecontext-in-go/internal/fixtures"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/authtoken"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext/header"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/secrets"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server/endpoints"
)

func newValidator(b *testing.B) (*authtoken.Validator, *keyring.Ring) {
	b.Helper()
	store := secrets.NewMemoryStore()
	store.Set(keyring.DefaultSecretPath, secrets.VersionedSecret{Current: fixtures.PublicKey})
	ring, err := keyring.New(store)
	if err != nil {
		b.Fatal(err)
	}
	return authtoken.NewValidator(ring), ring
}

func BenchmarkHeader(b *testing.B) {
	raw := []byte(fixtures.EnvelopeValidAuth)

	b.Run("Decode", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			_, _ = header.Decode(raw)
		}
	})

	b.Run("Encode", func(b *testing.B) {
		req, err := header.Decode(raw)
		if err != nil {
			b.Fatal(err)
		}

		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			_, _ = header.Encode(req)
		}
	})
}

func BenchmarkValidate(b *testing.B) {
	v, _ := newValidator(b)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = v.Validate(fixtures.TokenValid)
	}
}

func BenchmarkEdgeContext(b *testing.B) {
	v, _ := newValidator(b)
	factory := edgecontext.NewFactory(v)
	raw := []byte(fixtures.EnvelopeValidAuth)

	b.Run("FromUpstream: EventFields", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			_ = factory.FromUpstream(raw).EventFields()
		}
	})

	b.Run("FromUpstream: EventFields parallel", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				_ = factory.FromUpstream(raw).EventFields()
			}
		})
	})
}

func BenchmarkWhoamiHandler(b *testing.B) {
	v, ring := newValidator(b)
	s := server.NewServer(edgecontext.NewFactory(v), ring, "", "127.0.0.1", "0")
	endpoints.RegisterAll(s)
	encoded := base64.StdEncoding.EncodeToString([]byte(fixtures.EnvelopeValidAuth))

	b.Run("GET /whoami", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			r := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			r.Header.Set("X-Edge-Request", encoded)
			w := httptest.NewRecorder()
			s.Router.ServeHTTP(w, r)
		}
	})
}
