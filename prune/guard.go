package prune

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

// lockFileName is the name of the advisory lock file inside the data
// directory. The same file is locked by a running node, so holding the lock
// guarantees no other process is mutating the data directory while the purge
// runs.
const lockFileName = ".lock"

// ErrLockUnavailable is returned when the data directory lock is already held
// by another process, most likely a running node instance.
var ErrLockUnavailable = errors.New("cannot obtain a lock on the data directory - " +
	"fbcd is probably already running")

// dirLock holds an exclusive advisory lock on a data directory for the
// duration of a maintenance operation.
type dirLock struct {
	file *os.File
}

// acquireDirLock takes an exclusive flock on the lock file inside dataDir.
// The attempt is non-blocking: if another process holds the lock this fails
// immediately with ErrLockUnavailable instead of waiting, since the right
// response to a running node is to report, not to queue behind it.
func acquireDirLock(dataDir string) (*dirLock, error) {
	lockPath := filepath.Join(dataDir, lockFileName)
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open lock file %s", lockPath)
	}

	err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		_ = file.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, errors.WithStack(ErrLockUnavailable)
		}
		return nil, errors.Wrapf(err, "could not lock %s", lockPath)
	}

	log.Tracef("Acquired data directory lock %s", lockPath)
	return &dirLock{file: file}, nil
}

// release drops the lock. It is safe to call on every exit path; errors are
// logged rather than propagated because there is nothing actionable left for
// the caller to do with them.
func (l *dirLock) release() {
	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	if err != nil {
		log.Warnf("Could not unlock data directory: %s", err)
	}
	err = l.file.Close()
	if err != nil {
		log.Warnf("Could not close lock file: %s", err)
	}
}
