// Package secrets provides versioned secret storage backends.
//
// A versioned secret has a current value and optionally a previous and next
// value, which lets a key be rotated without a flag day: publish the new key as
// next, promote it to current, and keep the old one as previous until every
// signer has moved over. Stores also report a modification time so that
// consumers can cheaply tell whether anything changed since their last read.
//
// Three backends are available:
//
//   - FileStore reads a JSON secrets file written by a secrets fetcher sidecar.
//   - MemoryStore keeps secrets in process, mostly for tests.
//   - The gorm subpackage stores secrets in PostgreSQL.
package secrets
