// Package server provides an HTTP host for edge request contexts.
//
// Every request routed through the server has its edge context header
// decoded lazily into an edgecontext.EdgeContext and attached to the request
// context. It uses gorilla/mux for routing and gorilla/handlers for access
// logging.
//
// # Server Setup
//
//	srv := server.NewServer(factory, ring, "X-Edge-Request", "127.0.0.1", "8080")
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - / - Status
//   - /whoami - Identity and event fields of the inbound edge context
//   - /whoami/user - Authenticated account, 401 without one
//   - /whoami/service - Authenticated service, 401 without one
//   - /public_keys - Fingerprints of the token verification keys
package server
