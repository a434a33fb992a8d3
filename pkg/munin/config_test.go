package munin

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"munin.szuro.net/pkg/backoff"
)

func TestDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(StateDirEnv, dir)
	t.Setenv(DirtyConfigEnv, "1")

	cfg := DefaultConfig()
	require.Equal(t, DefaultPluginName, cfg.PluginName)
	require.Equal(t, dir, cfg.StateDir)
	require.True(t, cfg.DirtyConfig)
	require.False(t, cfg.Daemonize)
	require.Equal(t, 8192, cfg.ConfigSize)
	require.Equal(t, 8192, cfg.FetchSize)
	require.Equal(t, time.Second, cfg.Interval)
	require.Equal(t, filepath.Join(dir, "munin-plugin.pid"), cfg.PidFile)
	require.Equal(t, backoff.Default(), cfg.Lock)

	// the cache name is random
	require.NotEqual(t, cfg.CacheFile, DefaultConfig().CacheFile)
	require.Equal(t, dir, filepath.Dir(cfg.CacheFile))
}

func TestDefaultConfigWithoutMuninEnvironment(t *testing.T) {
	t.Setenv(StateDirEnv, "")
	t.Setenv(DirtyConfigEnv, "yes")

	cfg := DefaultConfig()
	require.Equal(t, "/tmp", cfg.StateDir)
	require.False(t, cfg.DirtyConfig)
}

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(StateDirEnv, dir)

	cfg := NewConfig("Lala")
	require.Equal(t, "Lala", cfg.PluginName)
	require.Equal(t, filepath.Join(dir, "Lala.pid"), cfg.PidFile)
	require.Equal(t, filepath.Join(dir, "Lala.lock"), cfg.LockFile)
	require.Equal(t, filepath.Join(dir, "munin.Lala.value"), cfg.CacheFile)
	require.Equal(t, filepath.Join(dir, "munin.Lala.value.lock"), cfg.CacheLockFile())

	// names are stable, unlike DefaultConfig
	require.Equal(t, cfg, NewConfig("Lala"))
}

func TestLoadFile(t *testing.T) {
	t.Setenv(StateDirEnv, t.TempDir())
	stateDir := t.TempDir()
	path := filepath.Join(t.TempDir(), "cpu1sec.yaml")
	doc := "state_dir: " + stateDir + "\n" + `daemonize: true
fetch_size: 65536
interval: 250ms
lock:
  max_attempts: 3
  base_interval: 10ms
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg := NewConfig("cpu1sec")
	require.NoError(t, cfg.LoadFile(path))

	require.Equal(t, stateDir, cfg.StateDir)
	require.Equal(t, filepath.Join(stateDir, "cpu1sec.pid"), cfg.PidFile)
	require.Equal(t, filepath.Join(stateDir, "munin.cpu1sec.value"), cfg.CacheFile)
	require.True(t, cfg.Daemonize)
	require.Equal(t, 65536, cfg.FetchSize)
	require.Equal(t, 8192, cfg.ConfigSize)
	require.Equal(t, 250*time.Millisecond, cfg.Interval)
	require.Equal(t, 3, cfg.Lock.MaxAttempts)
	require.Equal(t, 10*time.Millisecond, cfg.Lock.BaseInterval)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(StateDirEnv, t.TempDir())

	t.Setenv(ConfigFileEnv, "")
	cfg := NewConfig("load")
	require.NoError(t, cfg.LoadFromEnv())

	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, cfg.LoadFromEnv())
}
