package internal

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another daemon holds the instance lock.
var ErrAlreadyRunning = errors.New("another fubuki instance is already running")

// lockPath is the instance lock guarding a database. Two daemons on the same
// list would push every update twice.
func lockPath(sqlitePath string) string {
	return sqlitePath + ".lock"
}

// acquireLock takes the instance lock without blocking.
func acquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}
