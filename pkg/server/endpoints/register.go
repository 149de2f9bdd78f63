package endpoints

import (
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)
	RegisterWhoamiEndpoint(srv)
	RegisterPublicKeysEndpoints(srv)
}
