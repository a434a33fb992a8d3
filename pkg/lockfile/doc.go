// Package lockfile provides cross-process mutual exclusion on a well-known
// lock file.
//
// TryAcquire takes an advisory exclusive lock without blocking and returns a
// Handle. WithLock and Do retry contended acquisitions following a
// backoff.Policy and run an operation while the lock is held:
//
//	err := lockfile.Do("/var/lib/munin/plugin-state/cpu1sec.lock", backoff.Default(), func() error {
//	    return appendSample()
//	})
//
// The lock is advisory: only processes using this package (or flock(2) on the
// same file) are excluded. Lock files are created on demand and left in place
// after release so the path stays reusable.
package lockfile
