package muninerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := New(KindIOFailure, "acquire", "/nonexistent/x.lock", fs.ErrPermission)

	require.ErrorIs(t, err, ErrIOFailure)
	require.ErrorIs(t, err, fs.ErrPermission)
	require.NotErrorIs(t, err, ErrWouldBlock)
	require.False(t, IsRetryable(err))
}

func TestKindOfThroughWrapping(t *testing.T) {
	inner := &Error{Kind: KindLockTimeout, Op: "lock", Path: "/tmp/p.lock", Attempts: 3}
	wrapped := fmt.Errorf("running plugin: %w", inner)

	require.Equal(t, KindLockTimeout, KindOf(wrapped))
	require.ErrorIs(t, wrapped, ErrLockTimeout)
	require.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "With attempts",
			err:      &Error{Kind: KindLockTimeout, Op: "lock", Path: "/tmp/plugin.lock", Attempts: 3},
			expected: "lock /tmp/plugin.lock: timed out waiting for lock after 3 attempts",
		},
		{
			name:     "With cause",
			err:      New(KindPublishFailed, "rename", "/tmp/out.dat", errors.New("cross-device link")),
			expected: "rename /tmp/out.dat: publishing file failed: cross-device link",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(New(KindWouldBlock, "acquire", "/tmp/a.lock", nil)))
	require.False(t, IsRetryable(New(KindLockTimeout, "lock", "/tmp/a.lock", nil)))
}
