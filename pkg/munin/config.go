package munin

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"munin.szuro.net/internal/config"
	"munin.szuro.net/internal/logger"
	"munin.szuro.net/pkg/backoff"
	"munin.szuro.net/pkg/filter"
)

const (
	// DefaultPluginName is used when no name is given.
	DefaultPluginName = "Simple munin plugin in Go"

	// StateDirEnv names the plugin state directory, set by munin-node.
	StateDirEnv = "MUNIN_PLUGSTATE"

	// DirtyConfigEnv is "1" when munin-node accepts values right after config.
	DirtyConfigEnv = "MUNIN_CAP_DIRTYCONFIG"

	// ConfigFileEnv optionally points at a YAML file overriding the defaults.
	ConfigFileEnv = "MUNIN_PLUGIN_CONFIG"

	fallbackStateDir = "/tmp"
)

// Config holds everything a plugin run needs to know about its environment.
type Config struct {
	// PluginName is used to derive file names.
	PluginName string

	// StateDir holds the cache, pid and lock files. Taken from MUNIN_PLUGSTATE,
	// falling back to /tmp.
	StateDir string

	// CacheFile collects the samples of a streaming plugin between fetches.
	CacheFile string

	// DirtyConfig is true when munin supports receiving values right after
	// the config output.
	DirtyConfig bool

	// Daemonize selects a streaming plugin.
	Daemonize bool

	// PidFile receives the PID of the streaming daemon.
	PidFile string

	// LockFile is held by the streaming daemon for its whole lifetime.
	LockFile string

	// ConfigSize and FetchSize are the buffer sizes used for config and fetch
	// output. Multigraph plugins with a lot of config may want more.
	ConfigSize int
	FetchSize  int

	// Interval between two samples of a streaming plugin.
	Interval time.Duration

	// MetricsFile, when set, receives the plugin's own Prometheus metrics
	// after every run.
	MetricsFile string

	// MetricsAddr, when set, makes the streaming daemon serve its metrics
	// over HTTP on /metrics.
	MetricsAddr string

	// Lock controls retrying on busy lock files.
	Lock *backoff.Policy

	// Filter is an optional line filter for plugins reading logs.
	Filter *filter.Filter
}

// DefaultConfig returns defaults based on the munin environment. The cache
// file gets a random name; use NewConfig for stable names.
func DefaultConfig() *Config {
	stateDir := os.Getenv(StateDirEnv)
	if stateDir == "" {
		stateDir = fallbackStateDir
	}

	return &Config{
		PluginName:  DefaultPluginName,
		StateDir:    stateDir,
		CacheFile:   filepath.Join(stateDir, fmt.Sprintf("munin.%s.value", randomAlnum(10))),
		DirtyConfig: os.Getenv(DirtyConfigEnv) == "1",
		Daemonize:   false,
		PidFile:     filepath.Join(stateDir, "munin-plugin.pid"),
		LockFile:    filepath.Join(stateDir, "munin-plugin.lock"),
		ConfigSize:  config.DEFAULT_BUFFER_SIZE,
		FetchSize:   config.DEFAULT_BUFFER_SIZE,
		Interval:    config.DEFAULT_INTERVAL,
		Lock:        backoff.Default(),
	}
}

// NewConfig returns the defaults with file names derived from name.
func NewConfig(name string) *Config {
	logger.Debug("Creating new config", "plugin", name)
	cfg := DefaultConfig()
	cfg.PluginName = name
	cfg.PidFile = filepath.Join(cfg.StateDir, name+".pid")
	cfg.LockFile = filepath.Join(cfg.StateDir, name+".lock")
	cfg.CacheFile = filepath.Join(cfg.StateDir, fmt.Sprintf("munin.%s.value", name))
	return cfg
}

// CacheLockFile guards appends to and drains of CacheFile.
func (c *Config) CacheLockFile() string {
	return c.CacheFile + ".lock"
}

// SetStateDir moves the cache, pid and lock files into dir, keeping their
// names.
func (c *Config) SetStateDir(dir string) {
	c.StateDir = dir
	c.CacheFile = filepath.Join(dir, filepath.Base(c.CacheFile))
	c.PidFile = filepath.Join(dir, filepath.Base(c.PidFile))
	c.LockFile = filepath.Join(dir, filepath.Base(c.LockFile))
}

// LoadFile overlays the YAML file at path and applies its log level.
func (c *Config) LoadFile(path string) error {
	pf, err := config.ParsePluginFile(path)
	if err != nil {
		return err
	}
	c.apply(pf)
	logger.SetLogLevel(pf.GetLogLevel())
	return nil
}

// LoadFromEnv calls LoadFile when MUNIN_PLUGIN_CONFIG is set.
func (c *Config) LoadFromEnv() error {
	path := os.Getenv(ConfigFileEnv)
	if path == "" {
		return nil
	}
	return c.LoadFile(path)
}

func (c *Config) apply(pf config.PluginFile) {
	if pf.StateDir != "" {
		c.SetStateDir(pf.StateDir)
	}
	if pf.Daemonize != nil {
		c.Daemonize = *pf.Daemonize
	}
	c.ConfigSize = pf.ConfigSize
	c.FetchSize = pf.FetchSize
	c.Interval = pf.Interval
	if pf.MetricsFile != "" {
		c.MetricsFile = pf.MetricsFile
	}
	if pf.MetricsAddr != "" {
		c.MetricsAddr = pf.MetricsAddr
	}
	c.Lock = pf.Lock
	if pf.Filter != nil {
		c.Filter = pf.Filter
	}
}

// lockPolicy never returns nil.
func (c *Config) lockPolicy() *backoff.Policy {
	if c.Lock == nil {
		return backoff.Default()
	}
	return c.Lock
}

const alnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomAlnum(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alnum[rand.IntN(len(alnum))]
	}
	return string(b)
}
