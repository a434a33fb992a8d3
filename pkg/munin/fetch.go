package munin

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"munin.szuro.net/internal/logger"
	"munin.szuro.net/pkg/lockfile"
)

// DefaultFetch is the fetch behaviour used when a plugin does not implement
// Fetcher. Standard plugins acquire their values directly into w, streaming
// plugins hand out the cache via DrainCache.
func DefaultFetch(p Plugin, w io.Writer, cfg *Config) error {
	if !cfg.Daemonize {
		return p.Acquire(w, cfg, 0)
	}
	return DrainCache(w, cfg)
}

// DrainCache moves the streaming cache aside under the cache lock and copies
// it to w. Samples appended after the move start a fresh cache file, so
// nothing is handed out twice and nothing is lost between copy and delete.
// A missing cache produces no output.
func DrainCache(w io.Writer, cfg *Config) error {
	drained, err := lockfile.WithLock(cfg.CacheLockFile(), cfg.lockPolicy(), func() (string, error) {
		return moveAside(cfg.CacheFile)
	})
	if err != nil {
		return err
	}
	if drained == "" {
		logger.Debug("No cached values", slog.String("cache", cfg.CacheFile))
		return nil
	}
	defer func() {
		if err := os.Remove(drained); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove drained cache", slog.String("path", drained), slog.Any("error", err))
		}
	}()

	f, err := os.Open(drained)
	if err != nil {
		return fmt.Errorf("opening drained cache: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return fmt.Errorf("copying cache %s: %w", cfg.CacheFile, err)
	}
	logger.Debug("Drained cache", slog.String("cache", cfg.CacheFile), slog.Int64("bytes", n))
	return nil
}

// moveAside renames cache to a fresh name in the same directory and returns
// that name, or "" when there is no cache yet.
func moveAside(cache string) (string, error) {
	dir, base := filepath.Split(cache)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".fetch*")
	if err != nil {
		return "", fmt.Errorf("creating fetch file next to %s: %w", cache, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := os.Rename(cache, tmpPath); err != nil {
		os.Remove(tmpPath)
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("moving cache %s aside: %w", cache, err)
	}
	return tmpPath, nil
}
