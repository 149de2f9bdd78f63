package endpoints

import (
	"net/http"
	"strings"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server"
)

// RegisterPublicKeysEndpoints registers the public keys API endpoints
func RegisterPublicKeysEndpoints(s *server.Server) {
	// GET /public_keys - Fingerprints of the current token verification keys
	s.Router.HandleFunc("/public_keys", handleGetPublicKeys(s.Keys)).Methods("GET")
}

func handleGetPublicKeys(keys server.KeyRing) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fingerprints := keys.Fingerprints()

		// Return as plain text, one fingerprint per line, in verification order
		result := strings.Join(fingerprints, "\n")
		if len(fingerprints) > 0 {
			result += "\n"
		}

		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(result))
	}
}
