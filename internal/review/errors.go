package review

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidRating means the rating is not one of 1 (Again), 2 (Hard), 3 (Good), 4 (Easy).
	// It is detected before storage is touched and must not be retried.
	ErrInvalidRating = errors.New("invalid rating")
	// ErrInvalidArgument means a learner or item identifier is missing.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoDueItems is the normal "nothing to review" outcome of starting a session.
	ErrNoDueItems = errors.New("no due items")
	// ErrStorageUnavailable is matched by every storage failure. Callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrSessionNotFound means the session does not exist or belongs to another learner.
	ErrSessionNotFound = errors.New("review session not found")
	// ErrSessionClosed means the session is already completed or expired.
	ErrSessionClosed = errors.New("review session is closed")
)

// StorageError wraps a failure of the progress or session store.
type StorageError struct {
	Op  string
	Err error
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return e.Op + ": " + ErrStorageUnavailable.Error() + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorageUnavailable) hold for any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}
