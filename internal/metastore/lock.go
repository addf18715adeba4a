package metastore

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// fileLockRetryInterval is the interval between consecutive attempts to
// acquire the schema file lock. 50ms balances responsiveness after the
// holder releases against CPU overhead from busy-polling.
const fileLockRetryInterval = 50 * time.Millisecond

// acquireFileLock acquires an exclusive lock on the given file path,
// retrying at fileLockRetryInterval until successful or ctx is done.
func acquireFileLock(ctx context.Context, lockPath string) (*flock.Flock, error) {
	fl := flock.New(lockPath)

	locked, err := fl.TryLockContext(ctx, fileLockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock %s: %w", lockPath, err)
	}

	if !locked {
		// TryLockContext should return an error when it fails; handle the
		// case where it returns (false, nil) anyway.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquiring file lock %s: %w", lockPath, ctx.Err())
		}
		return nil, fmt.Errorf("acquiring file lock %s: lock not acquired", lockPath)
	}

	return fl, nil
}

// releaseFileLock releases the lock and closes its file descriptor. The lock
// file stays on disk: removing it could invalidate a lock concurrently
// acquired by another process. Best-effort cleanup, errors are not returned.
func releaseFileLock(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Close()
	}
}
