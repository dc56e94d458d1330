// internal/keystore/keystore.go
//
// Device-local storage for the plaintext instance secret.
//
// Context
// -------
// The secret lives in exactly one file on one device, mode 0600.  That
// file is the only place the plaintext exists outside request bodies in
// transit.  Watch() raises a notification when the file disappears — the
// equivalent of another browser tab clearing shared storage — so the
// session guard can prompt for re-entry without polling alone.
//
// Notes
// -----
// • The fsnotify watch is on the parent directory, not the file: a watch
//   on the file itself dies with the inode when the file is removed.
// • Oxford commas, two spaces after periods.
package keystore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store is a file-backed secret holder.  Safe for use from one process;
// cross-process coordination happens through the filesystem itself.
type Store struct {
	path string
}

// New returns a Store for the given keyfile path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the keyfile location.
func (s *Store) Path() string { return s.path }

// Load reads the stored secret.  ok == false when no secret is stored.
func (s *Store) Load() (secret string, ok bool, err error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	sec := strings.TrimSpace(string(b))
	if sec == "" {
		return "", false, nil
	}
	return sec, true, nil
}

// Save writes the secret with owner-only permissions, creating the
// parent directory when needed.
func (s *Store) Save(secret string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(secret+"\n"), 0o600)
}

// Clear removes the keyfile.  Already-absent is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Watch emits on the returned channel whenever the keyfile is removed or
// renamed away.  Events are dropped, not queued, when the consumer is
// busy; the guard's periodic recheck covers any missed notification.
// The watcher shuts down when ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer w.Close()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, open := <-w.Events:
				if !open {
					return
				}
				if ev.Name != s.path {
					continue
				}
				if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
					select {
					case out <- struct{}{}:
					default: // consumer busy; the next tick catches up
					}
				}
			case err, open := <-w.Errors:
				if !open {
					return
				}
				zap.S().Warnw("keystore watch error", "err", err)
			}
		}
	}()
	return out, nil
}
