// Package gorm stores versioned secrets in PostgreSQL.
//
// Each slot of a secret is a row in secret_versions keyed by (path, slot).
// The modification time of a secret is the newest updated_at among its rows,
// so a slot is cleared by writing an empty value rather than deleting the row.
package gorm
