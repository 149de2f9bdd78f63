package secrets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// secretsDocument mirrors the JSON file written by the secrets fetcher.
type secretsDocument struct {
	Secrets map[string]secretEntry `json:"secrets"`
	Vault   json.RawMessage        `json:"vault,omitempty"`
}

type secretEntry struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding,omitempty"`
	Value    string `json:"value,omitempty"`
	Current  string `json:"current,omitempty"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}

func (e secretEntry) versioned() (VersionedSecret, error) {
	var v VersionedSecret
	switch e.Type {
	case "versioned":
		v = VersionedSecret{Current: e.Current, Previous: e.Previous, Next: e.Next}
	case "simple":
		v = VersionedSecret{Current: e.Value}
	default:
		return VersionedSecret{}, fmt.Errorf("%w: type %q", ErrNotVersioned, e.Type)
	}

	switch e.Encoding {
	case "", "identity":
		return v, nil
	case "base64":
		var err error
		decode := func(s string) string {
			if s == "" || err != nil {
				return s
			}
			var b []byte
			b, err = base64.StdEncoding.DecodeString(s)
			return string(b)
		}
		v = VersionedSecret{Current: decode(v.Current), Previous: decode(v.Previous), Next: decode(v.Next)}
		if err != nil {
			return VersionedSecret{}, fmt.Errorf("secrets: invalid base64 value: %w", err)
		}
		return v, nil
	default:
		return VersionedSecret{}, fmt.Errorf("secrets: unknown encoding %q", e.Encoding)
	}
}

// FileStore serves secrets from a JSON secrets file. The file is re-read
// whenever its modification time changes, or, while Watch is running, as soon
// as the filesystem reports a change.
//
// The reported mtime never moves backwards, even when the file is replaced by
// one with an older timestamp.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	doc       secretsDocument
	fileMtime time.Time
	mtime     time.Time

	watching atomic.Bool
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithFileLogger sets the logger used for reload failures.
func WithFileLogger(logger *slog.Logger) FileStoreOption {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// NewFileStore loads the secrets file at path.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	s := &FileStore{
		path:   filepath.Clean(path),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the secrets file.
func (s *FileStore) Path() string {
	return s.path
}

// Reload re-reads the secrets file. On error the previously loaded secrets
// are kept.
func (s *FileStore) Reload() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("secrets: stat %s: %w", s.path, err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("secrets: read %s: %w", s.path, err)
	}

	var doc secretsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("secrets: parse %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.doc = doc
	s.fileMtime = info.ModTime()
	s.mtime = forward(s.mtime, info.ModTime())
	s.mu.Unlock()
	return nil
}

// forward returns next, or a nanosecond past prev if next is not after it.
func forward(prev, next time.Time) time.Time {
	if !next.After(prev) && !prev.IsZero() {
		return prev.Add(time.Nanosecond)
	}
	return next
}

func (s *FileStore) reloadIfModified() {
	info, err := os.Stat(s.path)
	if err != nil {
		s.logger.Warn("unable to stat secrets file", "path", s.path, "error", err)
		return
	}

	s.mu.RLock()
	unchanged := info.ModTime().Equal(s.fileMtime)
	s.mu.RUnlock()
	if unchanged {
		return
	}

	if err := s.Reload(); err != nil {
		s.logger.Warn("unable to reload secrets file", "path", s.path, "error", err)
	}
}

// GetVersionedAndMtime returns the versioned secret at name and the
// modification time of the secrets file it was read from.
func (s *FileStore) GetVersionedAndMtime(name string) (VersionedSecret, time.Time, error) {
	if !s.watching.Load() {
		s.reloadIfModified()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.doc.Secrets[name]
	if !ok {
		return VersionedSecret{}, s.mtime, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	v, err := entry.versioned()
	if err != nil {
		return VersionedSecret{}, s.mtime, fmt.Errorf("secret %s: %w", name, err)
	}
	return v, s.mtime, nil
}

// Watch reloads the secrets file whenever it changes until ctx is done. The
// parent directory is watched so that files replaced by rename are noticed.
func (s *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	s.watching.Store(true)
	defer s.watching.Store(false)

	// Changes between the initial load and the watch being armed.
	s.reloadIfModified()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				s.logger.Debug("secrets file changed", "path", s.path, "op", event.Op.String())
				if err := s.Reload(); err != nil {
					s.logger.Warn("unable to reload secrets file", "path", s.path, "error", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("secrets watcher error", "path", s.path, "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}
