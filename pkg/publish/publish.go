// Package publish replaces files atomically.
//
// Content is written to a temporary file next to the target, flushed, synced
// and renamed over the target, so a concurrent reader sees either the old
// bytes or the new ones and never a partial write. On failure the temporary
// file is removed and the target is left untouched.
package publish

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"munin.szuro.net/internal/logger"
	"munin.szuro.net/internal/metrics"
	"munin.szuro.net/pkg/muninerr"
)

// DefaultPerm is applied to newly published files.
const DefaultPerm fs.FileMode = 0o644

// syncFile is replaced in tests.
var syncFile = func(f *os.File) error {
	return f.Sync()
}

// Publish atomically replaces target with the bytes produced by write.
//
// The temporary file lives in the target's directory, so the rename never
// crosses filesystems. An existing target keeps its permission bits.
// Errors from write are returned wrapped with their cause intact; creating the
// temporary file fails with muninerr.ErrIOFailure, and flushing, syncing or
// renaming fails with muninerr.ErrPublishFailed.
func Publish(target string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(target)

	pf, err := renameio.NewPendingFile(target,
		renameio.WithTempDir(dir),
		renameio.WithPermissions(DefaultPerm),
		renameio.IgnoreUmask(),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		metrics.Publishes.WithLabelValues(metrics.ResultFailed).Inc()
		return muninerr.New(muninerr.KindIOFailure, "create temp", target, err)
	}

	defer func() {
		if err != nil {
			metrics.Publishes.WithLabelValues(metrics.ResultFailed).Inc()
		} else {
			metrics.Publishes.WithLabelValues(metrics.ResultOK).Inc()
		}
		// no-op once the file was renamed
		if cerr := pf.Cleanup(); cerr != nil {
			logger.Warn("Failed to remove temporary file", slog.String("path", pf.Name()), slog.Any("error", cerr))
		}
	}()

	bw := bufio.NewWriter(pf)
	if err := write(bw); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if err := bw.Flush(); err != nil {
		return muninerr.New(muninerr.KindPublishFailed, "flush", target, err)
	}
	if err := syncFile(pf.File); err != nil {
		return muninerr.New(muninerr.KindPublishFailed, "sync", target, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return muninerr.New(muninerr.KindPublishFailed, "rename", target, err)
	}

	if err := syncDir(dir); err != nil {
		logger.Warn("Directory sync failed, file was published", slog.String("dir", dir), slog.Any("error", err))
	}
	logger.Debug("Published file", slog.String("path", target))
	return nil
}

// PublishBytes atomically replaces target with data.
func PublishBytes(target string, data []byte) error {
	return Publish(target, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// IsTemp reports whether name looks like a temporary file Publish created for
// target: a dot, the target's base name and a random number.
func IsTemp(name, target string) bool {
	if filepath.Dir(name) != filepath.Dir(target) {
		return false
	}
	suffix, ok := strings.CutPrefix(filepath.Base(name), "."+filepath.Base(target))
	if !ok || suffix == "" {
		return false
	}
	return strings.Trim(suffix, "0123456789") == ""
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
