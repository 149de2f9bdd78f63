// Command edgectl hosts and inspects edge request contexts.
//
// An edge request context is a binary Thrift header that edge services
// attach to every request. It carries the caller's logged-out id, session,
// device, origin service, country and request id, plus a signed
// authentication token describing the user, OAuth client or internal
// service behind the request.
//
// # Quick Start
//
//	# Create the key table and store a public key
//	edgectl db migrate
//	edgectl keys put --slot current key.pub
//
//	# Mint a token and build a header carrying it
//	TOKEN=$(edgectl token mint --private-key key.pem --subject t2_example)
//	HEADER=$(edgectl header encode --loid t2_example --auth-token "$TOKEN")
//
//	# Start the server and ask who the header belongs to
//	edgectl serve
//	curl -H "X-Edge-Request: $HEADER" localhost:8080/whoami
//
// # Environment Variables
//
//   - EDGECONTEXT_CONFIG_PATH: directory holding edgecontext.yml
//   - EDGECONTEXT_SECRET_STORE: file or database
//   - EDGECONTEXT_SECRETS_FILE: path of the secrets JSON file
//   - EDGECONTEXT_DATABASE_URL: PostgreSQL connection string (or DATABASE_URL)
//   - EDGECONTEXT_LOG_LEVEL: debug, info, warn or error
//   - EDGECONTEXT_PORT: server port (default: 8080)
package main
