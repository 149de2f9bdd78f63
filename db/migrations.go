// Package db embeds the SQL migrations for the database secret store.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
