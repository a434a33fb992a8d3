package collector

import (
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/hashicorp/go-plugin"
	"munin.szuro.net/internal/logger"
	"munin.szuro.net/internal/metrics"
	"munin.szuro.net/pkg/munin"
)

// Host runs a collector process and exposes it as a munin.Plugin.
type Host struct {
	Path string

	client *plugin.Client
	impl   Collector
}

var (
	_ munin.Plugin         = (*Host)(nil)
	_ munin.Autoconfigurer = (*Host)(nil)
)

// Launch starts the collector binary at path and connects to it.
func Launch(path string, args ...string) (*Host, error) {
	logger.Debug("Launching collector", slog.String("path", path))

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          PluginMap(nil),
		Cmd:              exec.Command(path, args...),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Logger:           logger.NewHCLogAdapter(),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to connect to collector %s: %w", path, err)
	}

	raw, err := rpcClient.Dispense(PluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense collector from %s: %w", path, err)
	}

	impl, ok := raw.(Collector)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("%s did not return a valid collector", path)
	}

	return &Host{Path: path, client: client, impl: impl}, nil
}

// NewHost wraps an already connected collector.
func NewHost(impl Collector) *Host {
	return &Host{impl: impl}
}

// Kill stops the collector process.
func (h *Host) Kill() {
	if h.client != nil {
		h.client.Kill()
	}
}

func (h *Host) Config(w io.Writer) error {
	out, err := h.impl.Config()
	record("config", err)
	if err != nil {
		return fmt.Errorf("collector config: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func (h *Host) Acquire(w io.Writer, cfg *munin.Config, epoch uint64) error {
	out, err := h.impl.Acquire(epoch)
	record("acquire", err)
	if err != nil {
		return fmt.Errorf("collector acquire: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func (h *Host) CheckAutoconf() bool {
	ok, err := h.impl.Autoconf()
	record("autoconf", err)
	if err != nil {
		logger.Warn("Collector autoconf failed", slog.String("path", h.Path), slog.Any("error", err))
		return false
	}
	return ok
}

func record(method string, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultFailed
	}
	metrics.CollectorCalls.WithLabelValues(method, result).Inc()
}
