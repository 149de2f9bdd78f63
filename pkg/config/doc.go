// Package config provides configuration management for edge context hosts.
//
// # Configuration Sources
//
// Configuration is loaded from, in increasing precedence:
//
//   - Built-in defaults
//   - $EDGECONTEXT_CONFIG_PATH/edgecontext.yml (optional)
//   - EDGECONTEXT_* environment variables
//
// The source of every attribute is tracked and reported by Attributes.
//
// # Key Configuration Options
//
//   - EDGECONTEXT_SECRET_STORE: where token public keys are read from ("file" or "database")
//   - EDGECONTEXT_SECRETS_FILE: path of the secrets JSON file
//   - EDGECONTEXT_DATABASE_URL: PostgreSQL connection string
//   - EDGECONTEXT_LOG_LEVEL: logging verbosity
//   - EDGECONTEXT_PORT: server listen port
package config
