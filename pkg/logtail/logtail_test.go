package logtail

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"munin.szuro.net/pkg/backoff"
	"munin.szuro.net/pkg/muninerr"
	"munin.szuro.net/pkg/state"
)

func openStore(t *testing.T) *state.Store {
	s, err := state.Open(filepath.Join(t.TempDir(), "state.db"), &backoff.Policy{
		BaseInterval: time.Millisecond,
		MaxWait:      time.Millisecond,
		MaxAttempts:  3,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func appendLog(t *testing.T, path, data string) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func collect(t *testing.T, r *Reader) []string {
	var lines []string
	_, err := r.ReadNew(func(line string) error {
		lines = append(lines, line)
		return nil
	})
	require.NoError(t, err)
	return lines
}

func TestReadNewOnlyReturnsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendLog(t, path, "first\nsecond\n")
	r := New(openStore(t), path)

	require.Equal(t, []string{"first", "second"}, collect(t, r))
	require.Empty(t, collect(t, r))

	appendLog(t, path, "third\n")
	require.Equal(t, []string{"third"}, collect(t, r))

	offset, err := r.Offset()
	require.NoError(t, err)
	require.Equal(t, int64(len("first\nsecond\nthird\n")), offset)
}

func TestReadNewKeepsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendLog(t, path, "done\nhalf")
	r := New(openStore(t), path)

	require.Equal(t, []string{"done"}, collect(t, r))

	appendLog(t, path, " written\n")
	require.Equal(t, []string{"half written"}, collect(t, r))
}

func TestReadNewAfterRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendLog(t, path, "old line one\nold line two\n")
	r := New(openStore(t), path)
	require.Len(t, collect(t, r), 2)

	require.NoError(t, os.WriteFile(path, []byte("new\n"), 0o644))
	require.Equal(t, []string{"new"}, collect(t, r))
}

func TestReadNewStopsOnCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendLog(t, path, "a\nb\nc\n")
	r := New(openStore(t), path)

	stop := errors.New("stop")
	n, err := r.ReadNew(func(line string) error {
		if line == "b" {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, n)

	require.Equal(t, []string{"b", "c"}, collect(t, r))
}

func TestReadNewMissingFile(t *testing.T) {
	r := New(openStore(t), filepath.Join(t.TempDir(), "missing.log"))

	_, err := r.ReadNew(func(string) error { return nil })
	require.ErrorIs(t, err, muninerr.ErrIOFailure)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendLog(t, path, "x\n")
	r := New(openStore(t), path)

	require.Len(t, collect(t, r), 1)
	require.NoError(t, r.Reset())
	require.Equal(t, []string{"x"}, collect(t, r))
}
