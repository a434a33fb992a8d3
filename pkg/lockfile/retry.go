package lockfile

import (
	"errors"
	"log/slog"

	"munin.szuro.net/internal/logger"
	"munin.szuro.net/internal/metrics"
	"munin.szuro.net/pkg/backoff"
	"munin.szuro.net/pkg/muninerr"
)

// Acquire takes the lock on path, retrying while it is contended. Waits
// between attempts come from policy; a nil policy means backoff.Default().
// When the policy is exhausted the error is a *muninerr.Error of kind
// KindLockTimeout carrying the number of attempts. Errors other than
// contention are returned immediately.
func Acquire(path string, policy *backoff.Policy) (*Handle, error) {
	if policy == nil {
		policy = backoff.Default()
	}

	state := policy.Start()
	for {
		h, err := TryAcquire(path)
		state.Record()
		if err == nil {
			if state.Attempt > 1 {
				logger.Debug("Acquired lock after contention",
					slog.String("path", path),
					slog.Int("attempts", state.Attempt))
			}
			return h, nil
		}
		if !errors.Is(err, muninerr.ErrWouldBlock) {
			return nil, err
		}

		if policy.Exhausted(state) {
			metrics.LockTimeouts.Inc()
			logger.Warn("Giving up on busy lock",
				slog.String("path", path),
				slog.Int("attempts", state.Attempt))
			return nil, &muninerr.Error{
				Kind:     muninerr.KindLockTimeout,
				Op:       "lock",
				Path:     path,
				Attempts: state.Attempt,
			}
		}

		wait := policy.NextWait(state)
		logger.Debug("Lock is busy, retrying",
			slog.String("path", path),
			slog.Int("attempt", state.Attempt),
			slog.Duration("wait", wait))
		metrics.LockWaitSeconds.Add(wait.Seconds())
		policy.Wait(wait)
	}
}

// WithLock runs op while holding the lock on path and returns its result
// unchanged. The lock is released exactly once on every exit path, including
// a failing or panicking op.
func WithLock[T any](path string, policy *backoff.Policy, op func() (T, error)) (result T, err error) {
	h, err := Acquire(path, policy)
	if err != nil {
		return result, err
	}
	defer func() {
		if relErr := h.Release(); relErr != nil {
			logger.Error("Failed to release lock", slog.String("path", path), slog.Any("error", relErr))
			if err == nil {
				err = relErr
			}
		}
	}()

	return op()
}

// Do is WithLock for operations without a result.
func Do(path string, policy *backoff.Policy, op func() error) error {
	_, err := WithLock(path, policy, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
