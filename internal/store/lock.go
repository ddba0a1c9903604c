package store

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
)

const lockFile = "engine.lock"

// ErrLocked means another engine owns the data dir.
var ErrLocked = errors.New("data dir is locked by another engine")

// LockDataDir takes an exclusive lock on dir. Call Unlock on shutdown.
func LockDataDir(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "store: create data dir")
	}
	fl := flock.New(filepath.Join(dir, lockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, eris.Wrap(err, "store: lock data dir")
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl, nil
}
