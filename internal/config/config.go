package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"munin.szuro.net/pkg/backoff"
	"munin.szuro.net/pkg/filter"
)

const (
	DEFAULT_BUFFER_SIZE = 8192
	MIN_BUFFER_SIZE     = 512
	DEFAULT_INTERVAL    = 1 * time.Second
)

// PluginFile is the optional YAML file overriding the defaults a plugin
// derives from the munin environment. Zero values mean "keep the default".
type PluginFile struct {
	StateDir    string          `yaml:"state_dir"`
	Daemonize   *bool           `yaml:"daemonize"`
	ConfigSize  int             `yaml:"config_size"`
	FetchSize   int             `yaml:"fetch_size"`
	Interval    time.Duration   `yaml:"interval"`
	MetricsFile string          `yaml:"metrics_file"`
	MetricsAddr string          `yaml:"metrics_listen"`
	LogLevel    string          `yaml:"log_level"`
	Lock        *backoff.Policy `yaml:"lock"`
	Filter      *filter.Filter  `yaml:"filter"`
	slogLevel   slog.Level
}

func (pf *PluginFile) setLogLevel() {
	switch strings.ToUpper(pf.LogLevel) {
	case "DEBUG":
		pf.slogLevel = slog.LevelDebug
	case "INFO":
		pf.slogLevel = slog.LevelInfo
	case "WARN":
		pf.slogLevel = slog.LevelWarn
	case "ERROR":
		pf.slogLevel = slog.LevelError
	default:
		pf.slogLevel = slog.LevelInfo
	}
}

func (pf *PluginFile) GetLogLevel() slog.Level {
	return pf.slogLevel
}

func (pf *PluginFile) setBuffers() {
	pf.ConfigSize = normalizeBuffer(pf.ConfigSize)
	pf.FetchSize = normalizeBuffer(pf.FetchSize)
}

func normalizeBuffer(size int) int {
	switch {
	case size <= 0:
		return DEFAULT_BUFFER_SIZE
	case size < MIN_BUFFER_SIZE:
		return MIN_BUFFER_SIZE
	default:
		return size
	}
}

func (pf *PluginFile) setInterval() {
	if pf.Interval <= 0 {
		pf.Interval = DEFAULT_INTERVAL
	}
}

// setLock fills unset policy fields from backoff.Default.
func (pf *PluginFile) setLock() {
	def := backoff.Default()
	if pf.Lock == nil {
		pf.Lock = def
		return
	}
	if pf.Lock.BaseInterval == 0 {
		pf.Lock.BaseInterval = def.BaseInterval
	}
	if pf.Lock.Growth == "" {
		pf.Lock.Growth = def.Growth
	}
	if pf.Lock.MaxWait == 0 {
		pf.Lock.MaxWait = def.MaxWait
	}
	if pf.Lock.MaxAttempts == 0 && pf.Lock.MaxElapsed == 0 {
		pf.Lock.MaxAttempts = def.MaxAttempts
	}
}

// Parse decodes and normalizes a plugin config document.
func Parse(data []byte) (conf PluginFile, err error) {
	if err = yaml.Unmarshal(data, &conf); err != nil {
		return conf, fmt.Errorf("cannot parse plugin config: %w", err)
	}

	conf.setBuffers()
	conf.setInterval()
	conf.setLock()
	conf.setLogLevel()

	if err = conf.Lock.Validate(); err != nil {
		return conf, fmt.Errorf("invalid lock policy: %w", err)
	}
	if conf.Filter != nil {
		if err = conf.Filter.Compile(); err != nil {
			return conf, fmt.Errorf("invalid filter: %w", err)
		}
	}
	return conf, nil
}

// ParsePluginFile reads and parses the YAML file at path.
func ParsePluginFile(path string) (PluginFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PluginFile{}, fmt.Errorf("cannot read plugin config %s: %w", path, err)
	}
	return Parse(data)
}
