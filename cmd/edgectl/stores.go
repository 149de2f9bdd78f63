package main

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/authtoken"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/config"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/db"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/secrets"
	secretsgorm "github.com/doodlesbykumbi/edgecontext-in-go/pkg/secrets/gorm"
)

// openSecretStore opens the configured secret store. For the file backend
// the secrets file is watched until ctx is done.
func openSecretStore(ctx context.Context, cfg *config.Config) (secrets.Store, error) {
	switch cfg.SecretStore {
	case config.SecretStoreFile:
		store, err := secrets.NewFileStore(cfg.SecretsFile, secrets.WithFileLogger(slog.Default()))
		if err != nil {
			return nil, err
		}
		go func() {
			if err := store.Watch(ctx); err != nil {
				slog.Warn("not watching secrets file, falling back to polling", "path", store.Path(), "error", err)
			}
		}()
		return store, nil
	case config.SecretStoreDatabase:
		database, err := connect(cfg)
		if err != nil {
			return nil, err
		}
		return secretsgorm.NewStore(database), nil
	default:
		return nil, fmt.Errorf("unknown secret store %q", cfg.SecretStore)
	}
}

func connect(cfg *config.Config) (*gorm.DB, error) {
	return db.Connect(db.Config{
		URL:   cfg.DatabaseURL,
		Debug: cfg.SlogLevel() <= slog.LevelDebug,
	})
}

// databaseStore opens the database secret store, which is the only backend
// that supports writes.
func databaseStore(cfg *config.Config) (*secretsgorm.Store, error) {
	if cfg.SecretStore != config.SecretStoreDatabase {
		return nil, fmt.Errorf("writing keys requires secret_store to be %q, got %q", config.SecretStoreDatabase, cfg.SecretStore)
	}
	database, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	return secretsgorm.NewStore(database), nil
}

func newRing(store secrets.Store, cfg *config.Config) (*keyring.Ring, error) {
	return keyring.New(store,
		keyring.WithSecretPath(cfg.PublicKeySecret),
		keyring.WithAlgorithm(cfg.SigningAlgorithm),
		keyring.WithLogger(slog.Default()),
	)
}

func newValidator(ring *keyring.Ring, cfg *config.Config) *authtoken.Validator {
	return authtoken.NewValidator(ring,
		authtoken.WithLeeway(cfg.Leeway()),
		authtoken.WithLogger(slog.Default()),
	)
}
