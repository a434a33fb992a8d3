package lockfile

import (
	"log/slog"
	"sync"

	"github.com/gofrs/flock"
	"munin.szuro.net/internal/logger"
	"munin.szuro.net/internal/metrics"
	"munin.szuro.net/pkg/muninerr"
)

// Handle is a held advisory lock on a file.
type Handle struct {
	path  string
	flock *flock.Flock

	mu   sync.Mutex
	held bool
}

// TryAcquire takes an exclusive lock on path without blocking, creating the
// file if needed. It fails with muninerr.ErrWouldBlock when another holder has
// the lock and with muninerr.ErrIOFailure for any other error.
func TryAcquire(path string) (*Handle, error) {
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		metrics.LockAttempts.WithLabelValues(metrics.ResultError).Inc()
		return nil, muninerr.New(muninerr.KindIOFailure, "acquire", path, err)
	}
	if !locked {
		metrics.LockAttempts.WithLabelValues(metrics.ResultContended).Inc()
		return nil, muninerr.New(muninerr.KindWouldBlock, "acquire", path, nil)
	}

	metrics.LockAttempts.WithLabelValues(metrics.ResultAcquired).Inc()
	logger.Debug("Acquired lock", slog.String("path", path))

	return &Handle{
		path:  path,
		flock: fl,
		held:  true,
	}, nil
}

// Path returns the lock file path.
func (h *Handle) Path() string {
	return h.path
}

// Held reports whether the handle still holds the lock.
func (h *Handle) Held() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.held
}

// Release drops the lock and closes the file. Releasing an already released
// handle is a no-op. The lock file itself is not removed.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.held {
		return nil
	}
	h.held = false

	if err := h.flock.Unlock(); err != nil {
		return muninerr.New(muninerr.KindIOFailure, "release", h.path, err)
	}
	logger.Debug("Released lock", slog.String("path", h.path))
	return nil
}
