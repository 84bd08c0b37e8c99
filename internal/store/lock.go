package store

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"github.com/franz/project-janitor/internal/util"
)

// StageLock serialises scan and classify passes against one database
type StageLock struct {
	fl *flock.Flock
}

// LockPath returns the lock file guarding dbPath
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}

// LockStage takes the stage lock without waiting. It fails with
// ErrStoreBusy when another pass holds it.
func LockStage(dbPath string) (*StageLock, error) {
	fl := flock.New(LockPath(dbPath))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire stage lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: another scan or classify pass holds %s", util.ErrStoreBusy, fl.Path())
	}
	return &StageLock{fl: fl}, nil
}

// Unlock releases the stage lock
func (l *StageLock) Unlock() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}

// StageLocked reports whether a pass currently holds the stage lock
func StageLocked(dbPath string) (bool, error) {
	lock, err := LockStage(dbPath)
	if err != nil {
		if errors.Is(err, util.ErrStoreBusy) {
			return true, nil
		}
		return false, err
	}
	return false, lock.Unlock()
}
