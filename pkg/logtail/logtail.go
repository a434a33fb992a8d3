// Package logtail reads the lines appended to a log file since the previous
// plugin run. The read offset is kept in a state.Store, so every complete
// line is handed out once. A file that shrank is assumed to be rotated and
// read from the start.
package logtail

import (
	"io"
	"log/slog"
	"os"

	"github.com/nxadm/tail"
	"munin.szuro.net/internal/logger"
	"munin.szuro.net/pkg/muninerr"
	"munin.szuro.net/pkg/state"
)

const keyPrefix = "logtail:"

// Reader tails one file.
type Reader struct {
	store *state.Store
	path  string
}

func New(store *state.Store, path string) *Reader {
	return &Reader{store: store, path: path}
}

func (r *Reader) key() string {
	return keyPrefix + r.path
}

// Offset returns where the next ReadNew starts.
func (r *Reader) Offset() (int64, error) {
	fi, err := os.Stat(r.path)
	if err != nil {
		return 0, muninerr.New(muninerr.KindIOFailure, "stat", r.path, err)
	}
	return r.offset(fi.Size())
}

func (r *Reader) offset(size int64) (int64, error) {
	offset, err := r.store.GetInt64(r.key(), 0)
	if err != nil {
		return 0, err
	}
	// offset greater than size means the file was rotated
	if offset > size {
		logger.Info("Log file shrank, reading from the start",
			slog.String("file", r.path),
			slog.Int64("offset", offset),
			slog.Int64("size", size))
		offset = 0
	}
	return offset, nil
}

// ReadNew calls fn for every complete line written since the last call and
// returns how many lines were handed out. A trailing line without a newline
// is left for the next call. When fn fails, the offset is advanced past the
// lines fn accepted.
func (r *Reader) ReadNew(fn func(line string) error) (n int, err error) {
	fi, err := os.Stat(r.path)
	if err != nil {
		return 0, muninerr.New(muninerr.KindIOFailure, "stat", r.path, err)
	}
	size := fi.Size()

	start, err := r.offset(size)
	if err != nil {
		return 0, err
	}
	if start == size {
		return 0, r.store.SetInt64(r.key(), start)
	}

	t, err := tail.TailFile(r.path, tail.Config{
		Location:      &tail.SeekInfo{Offset: start, Whence: io.SeekStart},
		MustExist:     true,
		Follow:        false,
		CompleteLines: true,
		Logger:        logger.Default(),
	})
	if err != nil {
		return 0, muninerr.New(muninerr.KindIOFailure, "tail", r.path, err)
	}
	defer t.Cleanup()

	offset := start
	for line := range t.Lines {
		end := offset + int64(len(line.Text)) + 1
		if end > size {
			// partial line, or written after we looked
			break
		}
		if err = fn(line.Text); err != nil {
			break
		}
		offset = end
		n++
	}
	t.Stop()

	if serr := r.store.SetInt64(r.key(), offset); serr != nil && err == nil {
		err = serr
	}
	logger.Debug("Read log lines",
		slog.String("file", r.path),
		slog.Int("lines", n),
		slog.Int64("offset", offset))
	return n, err
}

// Reset forgets the stored offset.
func (r *Reader) Reset() error {
	return r.store.Delete(r.key())
}
