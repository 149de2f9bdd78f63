package keyring

import (
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/secrets"
)

const (
	// DefaultSecretPath is where the token public keys are stored.
	DefaultSecretPath = "secret/authentication/public-key"

	// DefaultAlgorithm is the token signing algorithm.
	DefaultAlgorithm = "RS256"
)

// SecretStore is the subset of a secret store the Ring reads from.
type SecretStore interface {
	GetVersionedAndMtime(path string) (secrets.VersionedSecret, time.Time, error)
}

type snapshot struct {
	mtime time.Time
	keys  []Key
}

// Ring caches the parsed public keys of a versioned secret.
type Ring struct {
	store     SecretStore
	path      string
	algorithm string
	logger    *slog.Logger

	current atomic.Pointer[snapshot]
	group   singleflight.Group
}

// Option configures a Ring.
type Option func(*Ring)

// WithSecretPath sets the secret the keys are read from.
func WithSecretPath(path string) Option {
	return func(r *Ring) {
		r.path = path
	}
}

// WithAlgorithm sets the signing algorithm, which determines how keys are parsed.
func WithAlgorithm(alg string) Option {
	return func(r *Ring) {
		r.algorithm = alg
	}
}

// WithLogger sets the logger used for store and parse failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ring) {
		r.logger = logger
	}
}

// New creates a Ring reading from store. No keys are loaded until the first
// call to CurrentKeys.
func New(store SecretStore, opts ...Option) (*Ring, error) {
	r := &Ring{
		store:     store,
		path:      DefaultSecretPath,
		algorithm: DefaultAlgorithm,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if !Supported(r.algorithm) {
		return nil, fmt.Errorf("keyring: unknown signing algorithm %q", r.algorithm)
	}
	r.current.Store(&snapshot{})
	return r, nil
}

// Algorithm returns the signing algorithm keys are parsed for.
func (r *Ring) Algorithm() string {
	return r.algorithm
}

// SecretPath returns the secret the keys are read from.
func (r *Ring) SecretPath() string {
	return r.path
}

// CurrentKeys returns the active keys in version order. The store is
// consulted on every call; keys are re-parsed only when its modification time
// is newer than that of the cached snapshot. If the store fails, the cached
// keys are returned.
func (r *Ring) CurrentKeys() []Key {
	cached := r.current.Load()

	secret, mtime, err := r.store.GetVersionedAndMtime(r.path)
	if err != nil {
		r.logger.Warn("unable to read token public keys, serving cached keys",
			"path", r.path, "cached", len(cached.keys), "error", err)
		return slices.Clone(cached.keys)
	}
	if !mtime.After(cached.mtime) {
		return slices.Clone(cached.keys)
	}

	v, _, _ := r.group.Do(mtime.Format(time.RFC3339Nano), func() (any, error) {
		return r.refresh(secret, mtime), nil
	})
	return slices.Clone(v.(*snapshot).keys)
}

// Fingerprints returns the fingerprints of the current keys.
func (r *Ring) Fingerprints() []string {
	keys := r.CurrentKeys()
	fingerprints := make([]string, 0, len(keys))
	for _, k := range keys {
		fingerprints = append(fingerprints, k.Fingerprint)
	}
	return fingerprints
}

// refresh parses secret and publishes it unless a snapshot at least as new
// is already in place. It returns whichever snapshot ends up current.
func (r *Ring) refresh(secret secrets.VersionedSecret, mtime time.Time) *snapshot {
	latest := r.current.Load()
	if !mtime.After(latest.mtime) {
		return latest
	}

	versions := secret.AllVersions()
	keys := r.parse(versions)
	if len(keys) == 0 && len(versions) > 0 {
		r.logger.Error("no usable token public keys in secret, keeping previous keys",
			"path", r.path, "versions", len(versions))
	}

	for {
		next := &snapshot{mtime: mtime, keys: keys}
		if len(keys) == 0 && len(versions) > 0 {
			next.keys = latest.keys
		}
		if r.current.CompareAndSwap(latest, next) {
			r.logger.Debug("token public keys refreshed",
				"path", r.path, "keys", len(next.keys), "mtime", mtime)
			return next
		}
		latest = r.current.Load()
		if !mtime.After(latest.mtime) {
			return latest
		}
	}
}

func (r *Ring) parse(versions []string) []Key {
	keys := make([]Key, 0, len(versions))
	for i, v := range versions {
		pub, err := ParsePublicKey(r.algorithm, []byte(v))
		if err != nil {
			r.logger.Warn("unable to parse token public key", "path", r.path, "version", i, "error", err)
			continue
		}
		fingerprint, err := Fingerprint(pub)
		if err != nil {
			r.logger.Warn("unable to fingerprint token public key", "path", r.path, "version", i, "error", err)
		}
		keys = append(keys, Key{Fingerprint: fingerprint, Public: pub, Version: i})
	}
	return keys
}
