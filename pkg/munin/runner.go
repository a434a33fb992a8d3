package munin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slices"
	"munin.szuro.net/internal/logger"
	"munin.szuro.net/internal/metrics"
	"munin.szuro.net/pkg/lockfile"
	"munin.szuro.net/pkg/muninerr"
	"munin.szuro.net/pkg/publish"
)

// Arguments munin-node passes to a plugin. No argument means fetch.
const (
	ModeFetch    = "fetch"
	ModeConfig   = "config"
	ModeAutoconf = "autoconf"
	ModeAcquire  = "acquire"
)

var knownModes = []string{ModeConfig, ModeAutoconf, ModeAcquire}

// ErrTooManyArguments is returned when a plugin gets more than one argument.
var ErrTooManyArguments = errors.New("plugins accept at most one argument")

// Runner dispatches a plugin invocation.
type Runner struct {
	Plugin Plugin
	Config *Config

	// Stdout receives protocol output, os.Stdout by default.
	Stdout io.Writer

	// Executable is started with the acquire argument to launch the
	// streaming daemon. Defaults to the running binary.
	Executable string

	// replaced in tests
	spawnFn func() error
	sleepFn func(time.Duration)
	nowFn   func() time.Time
}

// NewRunner wires p and cfg to the process stdout.
func NewRunner(p Plugin, cfg *Config) *Runner {
	return &Runner{
		Plugin: p,
		Config: cfg,
		Stdout: os.Stdout,
	}
}

// Start runs the plugin with the process arguments until it finishes or the
// process is signalled.
func Start(p Plugin, cfg *Config) error {
	logger.Debug("Plugin start", slog.String("plugin", cfg.PluginName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return NewRunner(p, cfg).Run(ctx, os.Args[1:])
}

// SimpleStart builds the config for name, applies MUNIN_PLUGIN_CONFIG if set
// and starts the plugin.
func SimpleStart(p Plugin, name string) error {
	cfg := NewConfig(name)
	if err := cfg.LoadFromEnv(); err != nil {
		logger.Error("Failed to load plugin config", slog.Any("error", err))
		return err
	}
	return Start(p, cfg)
}

// Run handles one invocation. args excludes the program name.
func (r *Runner) Run(ctx context.Context, args []string) (err error) {
	mode := ModeFetch
	switch len(args) {
	case 0:
	case 1:
		mode = args[0]
	default:
		return ErrTooManyArguments
	}

	defer func() {
		result := metrics.ResultOK
		if err != nil {
			result = metrics.ResultFailed
			logger.Error("Plugin run failed",
				slog.String("plugin", r.Config.PluginName),
				slog.String("mode", mode),
				slog.Any("error", err))
		}
		if mode == ModeFetch || slices.Contains(knownModes, mode) {
			metrics.Runs.WithLabelValues(mode, result).Inc()
		}
		r.writeMetrics()
	}()

	switch mode {
	case ModeFetch:
		if r.Config.Daemonize {
			if err := r.ensureDaemon(); err != nil {
				return err
			}
		}
		return r.writeFetch()
	case ModeConfig:
		return r.writeConfig()
	case ModeAutoconf:
		return r.autoconf()
	case ModeAcquire:
		if err := r.Daemon(ctx); err != nil {
			return fmt.Errorf("could not start plugin %s in daemon mode to gather data: %w", r.Config.PluginName, err)
		}
		return nil
	default:
		logger.Debug("Unsupported argument", slog.String("argument", mode))
		return nil
	}
}

// Fetch writes the plugin's current values to w, using the plugin's own
// Fetcher when it has one.
func (r *Runner) Fetch(w io.Writer) error {
	if f, ok := r.Plugin.(Fetcher); ok {
		return f.Fetch(w, r.Config)
	}
	return DefaultFetch(r.Plugin, w, r.Config)
}

func (r *Runner) writeFetch() error {
	bw := bufio.NewWriterSize(r.stdout(), r.Config.FetchSize)
	if err := r.Fetch(bw); err != nil {
		return err
	}
	return bw.Flush()
}

func (r *Runner) writeConfig() error {
	bw := bufio.NewWriterSize(r.stdout(), r.Config.ConfigSize)
	if err := r.Plugin.Config(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	if r.Config.DirtyConfig {
		logger.Debug("Munin supports dirtyconfig, sending data now")
		return r.writeFetch()
	}
	return nil
}

func (r *Runner) autoconf() error {
	answer := "no"
	if a, ok := r.Plugin.(Autoconfigurer); ok && a.CheckAutoconf() {
		answer = "yes"
	}
	_, err := fmt.Fprintln(r.stdout(), answer)
	return err
}

// ensureDaemon starts the streaming daemon unless one holds the daemon lock,
// then gives it one interval to produce data.
func (r *Runner) ensureDaemon() error {
	h, err := lockfile.TryAcquire(r.Config.LockFile)
	if errors.Is(err, muninerr.ErrWouldBlock) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := h.Release(); err != nil {
		return err
	}

	logger.Debug("Daemon lock is free, spawning acquire", slog.String("plugin", r.Config.PluginName))
	if err := r.spawnDaemon(); err != nil {
		return fmt.Errorf("failed to execute acquire: %w", err)
	}
	r.doSleep(r.Config.Interval)
	return nil
}

func (r *Runner) spawnDaemon() error {
	if r.spawnFn != nil {
		return r.spawnFn()
	}

	exe := r.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return err
		}
	}

	cmd := exec.Command(exe, ModeAcquire)
	cmd.Dir = os.TempDir()
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// writeMetrics publishes the metrics textfile. Failures are logged only, a
// plugin run never fails because of its own metrics.
func (r *Runner) writeMetrics() {
	if r.Config.MetricsFile == "" {
		return
	}
	if err := publish.Publish(r.Config.MetricsFile, metrics.WriteText); err != nil {
		logger.Warn("Failed to write metrics textfile",
			slog.String("path", r.Config.MetricsFile),
			slog.Any("error", err))
	}
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *Runner) doSleep(d time.Duration) {
	if r.sleepFn != nil {
		r.sleepFn(d)
		return
	}
	time.Sleep(d)
}

func (r *Runner) now() time.Time {
	if r.nowFn != nil {
		return r.nowFn()
	}
	return time.Now()
}
