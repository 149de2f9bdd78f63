package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server/middleware"
)

// KeyRing is the view of the token key ring exposed by the server.
type KeyRing interface {
	Algorithm() string
	SecretPath() string
	Fingerprints() []string
}

type Server struct {
	Factory     *edgecontext.Factory
	Keys        KeyRing
	Router      *mux.Router
	EdgeContext *middleware.EdgeContextMiddleware
	srv         *http.Server
}

func NewServer(
	factory *edgecontext.Factory,
	keys KeyRing,
	headerName string,
	host string,
	port string,
) *Server {
	ec := middleware.NewEdgeContextMiddleware(factory, headerName)

	router := mux.NewRouter().UseEncodedPath()
	router.Use(ec.Middleware)
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    net.JoinHostPort(host, port),
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Factory:     factory,
		Keys:        keys,
		Router:      router,
		EdgeContext: ec,
		srv:         srv,
	}
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.srv.Addr
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Serve accepts connections on l.
func (s *Server) Serve(l net.Listener) error {
	return s.srv.Serve(l)
}

// Shutdown stops the server, waiting for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
