package runtimedir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	lockName    = "stagehand.lock"
	sessionName = "session"
)

// Claim represents exclusive ownership of a runtime directory for the
// duration of one session.
type Claim struct {
	Dir       string
	SessionID string

	lock *flock.Flock
}

// Acquire takes the session lock inside dir and records a fresh session ID.
// A second session attempting to claim the same directory fails immediately
// rather than blocking.
func Acquire(dir string) (*Claim, error) {
	lock := flock.New(filepath.Join(dir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("runtime directory %q already claimed by another session", dir)
	}

	id := uuid.NewString()
	if err := os.WriteFile(filepath.Join(dir, sessionName), []byte(id+"\n"), 0o600); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("record session id: %w", err)
	}

	return &Claim{Dir: dir, SessionID: id, lock: lock}, nil
}

// Release drops the session lock and removes the session record. Safe to
// call on a nil claim.
func (c *Claim) Release() error {
	if c == nil || c.lock == nil {
		return nil
	}
	_ = os.Remove(filepath.Join(c.Dir, sessionName))
	if err := c.lock.Unlock(); err != nil {
		return fmt.Errorf("release session lock: %w", err)
	}
	c.lock = nil
	return nil
}
