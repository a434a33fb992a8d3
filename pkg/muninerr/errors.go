// Package muninerr defines the error taxonomy shared by the locking, retry and
// publishing helpers.
//
// Every failure is reported as an *Error carrying the operation, the path it
// concerned and, for retried operations, the number of attempts made. An
// *Error matches both its kind sentinel and the underlying cause:
//
//	if errors.Is(err, muninerr.ErrLockTimeout) {
//	    // another instance kept the lock for too long
//	}
//	if errors.Is(err, fs.ErrPermission) {
//	    // the lock directory is not writable
//	}
package muninerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindWouldBlock means the lock is held by someone else. Retryable.
	KindWouldBlock Kind = iota + 1
	// KindLockTimeout means retries were exhausted while the lock stayed busy.
	KindLockTimeout
	// KindIOFailure covers filesystem errors other than contention.
	KindIOFailure
	// KindPublishFailed means flushing, syncing or renaming a published file failed.
	KindPublishFailed
)

// Sentinel errors usable with errors.Is.
var (
	ErrWouldBlock    = errors.New("lock is held by another process")
	ErrLockTimeout   = errors.New("timed out waiting for lock")
	ErrIOFailure     = errors.New("filesystem operation failed")
	ErrPublishFailed = errors.New("publishing file failed")
)

func (k Kind) String() string {
	switch k {
	case KindWouldBlock:
		return "would block"
	case KindLockTimeout:
		return "lock timeout"
	case KindIOFailure:
		return "io failure"
	case KindPublishFailed:
		return "publish failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinel returns the sentinel error for the kind.
func (k Kind) Sentinel() error {
	switch k {
	case KindWouldBlock:
		return ErrWouldBlock
	case KindLockTimeout:
		return ErrLockTimeout
	case KindIOFailure:
		return ErrIOFailure
	case KindPublishFailed:
		return ErrPublishFailed
	default:
		return nil
	}
}

// Error is a classified failure with enough context to act on it.
type Error struct {
	Kind     Kind
	Op       string
	Path     string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind.Sentinel())
	if e.Attempts > 0 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.Sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// New creates an *Error of the given kind.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsRetryable reports whether err is lock contention.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}
