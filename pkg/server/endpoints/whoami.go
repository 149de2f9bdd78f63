package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/server/middleware"
)

// WhoamiResponse represents the response from the /whoami endpoint
type WhoamiResponse struct {
	LoggedIn      bool           `json:"logged_in"`
	UserID        string         `json:"user_id,omitempty"`
	LoID          string         `json:"loid,omitempty"`
	Roles         []string       `json:"roles,omitempty"`
	OAuthClientID string         `json:"oauth_client_id,omitempty"`
	Service       string         `json:"service,omitempty"`
	SessionID     string         `json:"session_id,omitempty"`
	DeviceID      string         `json:"device_id,omitempty"`
	OriginService string         `json:"origin_service,omitempty"`
	CountryCode   string         `json:"country_code,omitempty"`
	RequestID     string         `json:"request_id,omitempty"`
	EventFields   map[string]any `json:"event_fields"`
}

// RegisterWhoamiEndpoint registers the /whoami endpoints
func RegisterWhoamiEndpoint(s *server.Server) {
	s.Router.HandleFunc("/whoami", handleWhoami()).Methods("GET")

	userRouter := s.Router.PathPrefix("/whoami/user").Subrouter()
	userRouter.Use(middleware.RequireUser)
	userRouter.HandleFunc("", handleWhoamiUser()).Methods("GET")

	serviceRouter := s.Router.PathPrefix("/whoami/service").Subrouter()
	serviceRouter.Use(middleware.RequireService)
	serviceRouter.HandleFunc("", handleWhoamiService()).Methods("GET")
}

func handleWhoami() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ec, ok := edgecontext.Get(r.Context())
		if !ok {
			http.Error(w, "Unable to determine identity", http.StatusUnauthorized)
			return
		}

		user := ec.User()
		response := WhoamiResponse{
			LoggedIn:      user.IsLoggedIn(),
			LoID:          user.LoID(),
			SessionID:     ec.Session().ID,
			DeviceID:      ec.Device().ID,
			OriginService: ec.OriginService().Name,
			CountryCode:   ec.Geolocation().CountryCode,
			RequestID:     ec.RequestID().ID(),
			EventFields:   ec.EventFields(),
		}
		// Identity accessors fail without authentication; those fields are
		// left out of the response.
		response.UserID, _ = user.ID()
		if roles, err := user.Roles(); err == nil {
			response.Roles = roles.Sorted()
		}
		response.OAuthClientID, _ = ec.OAuthClient().ID()
		response.Service, _ = ec.Service().Name()

		writeJSON(w, response)
	}
}

func handleWhoamiUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ec, _ := edgecontext.Get(r.Context())
		id, _ := ec.User().ID()
		writeJSON(w, map[string]string{"user_id": id})
	}
}

func handleWhoamiService() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ec, _ := edgecontext.Get(r.Context())
		name, _ := ec.Service().Name()
		writeJSON(w, map[string]string{"service": name})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
