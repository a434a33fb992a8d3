package munin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"munin.szuro.net/internal/logger"
	"munin.szuro.net/internal/metrics"
	"munin.szuro.net/pkg/lockfile"
	"munin.szuro.net/pkg/muninerr"
	"munin.szuro.net/pkg/publish"
)

// metricsEvery is how many samples the daemon takes between two metrics
// textfile updates.
const metricsEvery = 60

// Daemon samples the plugin into the cache once per Interval until ctx is
// done. It holds Config.LockFile while running; if another daemon holds it,
// Daemon returns nil immediately.
func (r *Runner) Daemon(ctx context.Context) error {
	cfg := r.Config

	h, err := lockfile.TryAcquire(cfg.LockFile)
	if errors.Is(err, muninerr.ErrWouldBlock) {
		logger.Debug("Daemon already running", slog.String("lock", cfg.LockFile))
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		if relErr := h.Release(); relErr != nil {
			logger.Error("Failed to release lock", slog.String("path", cfg.LockFile), slog.Any("error", relErr))
		}
	}()

	pid := strconv.Itoa(os.Getpid()) + "\n"
	if err := publish.PublishBytes(cfg.PidFile, []byte(pid)); err != nil {
		return fmt.Errorf("writing pidfile: %w", err)
	}
	defer os.Remove(cfg.PidFile)

	if cfg.MetricsAddr != "" {
		addr, stop, err := serveMetrics(cfg.MetricsAddr)
		if err != nil {
			logger.Warn("Failed to serve metrics", slog.String("address", cfg.MetricsAddr), slog.Any("error", err))
		} else {
			logger.Info("Serving metrics", slog.String("address", addr.String()))
			defer stop()
		}
	}

	logger.Info("Streaming daemon started",
		slog.String("plugin", cfg.PluginName),
		slog.Duration("interval", cfg.Interval),
		slog.String("cache", cfg.CacheFile))

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for samples := 1; ctx.Err() == nil; samples++ {
		if err := r.sample(r.now()); err != nil {
			return err
		}
		if samples%metricsEvery == 0 {
			r.writeMetrics()
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}

	logger.Info("Streaming daemon stopping", slog.String("plugin", cfg.PluginName))
	return nil
}

// sample appends one Acquire call to the cache while holding the cache lock,
// so a concurrent fetch never moves the file away mid-write.
func (r *Runner) sample(now time.Time) error {
	cfg := r.Config
	epoch := uint64(now.Unix())

	return lockfile.Do(cfg.CacheLockFile(), cfg.lockPolicy(), func() error {
		f, err := os.OpenFile(cfg.CacheFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		bw := bufio.NewWriterSize(f, cfg.FetchSize)
		if err := r.Plugin.Acquire(bw, cfg, epoch); err != nil {
			f.Close()
			return err
		}
		if err := bw.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("writing cache: %w", err)
		}
		metrics.AcquireSamples.Inc()
		return f.Close()
	})
}

// serveMetrics exposes the default registry on /metrics until stop is called.
func serveMetrics(addr string) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", slog.Any("error", err))
		}
	}()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
	return ln.Addr(), stop, nil
}
