package endpoints

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server"
)

// StatusResponse represents the response from the status endpoint
type StatusResponse struct {
	Version    string `json:"version"`
	Algorithm  string `json:"signing_algorithm"`
	SecretPath string `json:"public_key_secret"`
	Keys       int    `json:"keys"`
}

// RegisterStatusEndpoints registers the status endpoint
func RegisterStatusEndpoints(s *server.Server) {
	// GET / - Status page (no auth required)
	s.Router.HandleFunc("/", handleStatus(s.Keys)).Methods("GET")
}

func handleStatus(keys server.KeyRing) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := os.Getenv("EDGECONTEXT_VERSION_DISPLAY")
		if version == "" {
			version = "0.1.0"
		}
		status := StatusResponse{
			Version:    version,
			Algorithm:  keys.Algorithm(),
			SecretPath: keys.SecretPath(),
			Keys:       len(keys.Fingerprints()),
		}

		// Check if JSON is requested via Accept header or format query param
		accept := r.Header.Get("Accept")
		format := r.URL.Query().Get("format")
		if format == "json" || strings.Contains(accept, "application/json") {
			writeJSON(w, status)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprintf(w, "edgecontext %s is running\n\nsigning algorithm: %s\npublic key secret: %s\nkeys loaded: %d\n",
			status.Version, status.Algorithm, status.SecretPath, status.Keys)
	}
}
