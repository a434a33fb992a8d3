package lockfile

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"munin.szuro.net/pkg/muninerr"
)

func TestTryAcquireCreatesLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin.lock")

	h, err := TryAcquire(path)
	require.NoError(t, err)
	require.True(t, h.Held())
	require.Equal(t, path, h.Path())

	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, h.Release())
	require.False(t, h.Held())

	// the file stays so the path can be reused
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestReleaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin.lock")

	h, err := TryAcquire(path)
	require.NoError(t, err)

	require.NoError(t, h.Release())
	require.NoError(t, h.Release())
	require.NoError(t, h.Release())

	var nilHandle *Handle
	require.NoError(t, nilHandle.Release())

	// a double release must not drop somebody else's lock
	other, err := TryAcquire(path)
	require.NoError(t, err)
	defer other.Release()

	require.NoError(t, h.Release())
	require.True(t, other.Held())
	_, err = TryAcquire(path)
	require.ErrorIs(t, err, muninerr.ErrWouldBlock)
}

func TestTryAcquireWouldBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin.lock")

	first, err := TryAcquire(path)
	require.NoError(t, err)

	second, err := TryAcquire(path)
	require.Nil(t, second)
	require.ErrorIs(t, err, muninerr.ErrWouldBlock)
	require.Equal(t, muninerr.KindWouldBlock, muninerr.KindOf(err))

	require.NoError(t, first.Release())

	third, err := TryAcquire(path)
	require.NoError(t, err)
	require.NoError(t, third.Release())
}

func TestTryAcquireMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "plugin.lock")

	h, err := TryAcquire(path)
	require.Nil(t, h)
	require.ErrorIs(t, err, muninerr.ErrIOFailure)
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.False(t, muninerr.IsRetryable(err))
}
