package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext"
)

// DefaultHeader is the HTTP header carrying the edge context.
const DefaultHeader = "X-Edge-Request"

// EdgeContextMiddleware attaches the edge context of inbound requests and
// propagates it to outbound ones. The header value is the standard base64
// encoding of the serialized edge context.
type EdgeContextMiddleware struct {
	Factory *edgecontext.Factory
	Header  string
	Logger  *slog.Logger
}

// NewEdgeContextMiddleware creates a new edge context middleware. An empty
// header selects DefaultHeader.
func NewEdgeContextMiddleware(factory *edgecontext.Factory, header string) *EdgeContextMiddleware {
	if header == "" {
		header = DefaultHeader
	}
	return &EdgeContextMiddleware{
		Factory: factory,
		Header:  header,
		Logger:  slog.Default(),
	}
}

// Middleware returns an HTTP middleware that attaches the edge context.
// Requests without a usable header get an empty edge context.
func (m *EdgeContextMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := m.Extract(r.Context(), r.Header)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Extract builds an edge context from h and stores it in ctx.
func (m *EdgeContextMiddleware) Extract(ctx context.Context, h http.Header) context.Context {
	var raw []byte
	if value := h.Get(m.Header); value != "" {
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			m.Logger.Debug("malformed edge context header", "header", m.Header, "error", err)
		} else {
			raw = decoded
		}
	}
	return edgecontext.Set(ctx, m.Factory.FromUpstream(raw))
}

// Inject writes the edge context stored in ctx to h. It reports whether
// there was one to write.
func (m *EdgeContextMiddleware) Inject(ctx context.Context, h http.Header) bool {
	raw := edgecontext.RawHeader(ctx)
	if len(raw) == 0 {
		return false
	}
	h.Set(m.Header, base64.StdEncoding.EncodeToString(raw))
	return true
}

// RequireUser is middleware that rejects requests without an authenticated
// account.
func RequireUser(next http.Handler) http.Handler {
	return requireView(next, func(ec *edgecontext.EdgeContext) error {
		_, err := ec.User().ID()
		return err
	})
}

// RequireService is middleware that rejects requests not made on behalf of
// an authenticated service.
func RequireService(next http.Handler) http.Handler {
	return requireView(next, func(ec *edgecontext.EdgeContext) error {
		_, err := ec.Service().Name()
		return err
	})
}

func requireView(next http.Handler, check func(*edgecontext.EdgeContext) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ec, ok := edgecontext.Get(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Edge context missing"))
			return
		}
		if err := check(ec); err != nil {
			if errors.Is(err, edgecontext.ErrNoAuthentication) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte("Authentication required"))
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}
