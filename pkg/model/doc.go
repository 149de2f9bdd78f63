// Package model defines the database models for the database secret store.
//
// SecretVersion maps one slot of a versioned secret to a row of the
// secret_versions table created by the migrations in the db package.
package model
