package logger

import (
	"io"
	"log"
	"log/slog"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter adapts PluginLogger to the hashicorp/go-hclog.Logger interface
// so go-plugin client output lands in the plugin log on stderr.
type HCLogAdapter struct {
	logger  *PluginLogger
	name    string
	implied []interface{}
}

// NewHCLogAdapter creates a new HCLog adapter wrapping the default logger.
func NewHCLogAdapter() hclog.Logger {
	return &HCLogAdapter{
		logger: Default(),
		name:   "collector",
	}
}

func (h *HCLogAdapter) args(args []interface{}) []any {
	out := make([]any, 0, len(h.implied)+len(args)+2)
	out = append(out, slog.String("logger", h.name))
	out = append(out, h.implied...)
	return append(out, args...)
}

func (h *HCLogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		h.Debug(msg, args...)
	case hclog.Info:
		h.Info(msg, args...)
	case hclog.Warn:
		h.Warn(msg, args...)
	case hclog.Error:
		h.Error(msg, args...)
	}
}

func (h *HCLogAdapter) Trace(msg string, args ...interface{}) {
	h.logger.Debug(msg, h.args(args)...)
}

func (h *HCLogAdapter) Debug(msg string, args ...interface{}) {
	h.logger.Debug(msg, h.args(args)...)
}

func (h *HCLogAdapter) Info(msg string, args ...interface{}) {
	h.logger.Info(msg, h.args(args)...)
}

func (h *HCLogAdapter) Warn(msg string, args ...interface{}) {
	h.logger.Warn(msg, h.args(args)...)
}

func (h *HCLogAdapter) Error(msg string, args ...interface{}) {
	h.logger.Error(msg, h.args(args)...)
}

// Trace has no slog counterpart and is folded into debug.
func (h *HCLogAdapter) IsTrace() bool {
	return false
}

func (h *HCLogAdapter) IsDebug() bool {
	return h.logger.Enabled(slog.LevelDebug)
}

func (h *HCLogAdapter) IsInfo() bool {
	return h.logger.Enabled(slog.LevelInfo)
}

func (h *HCLogAdapter) IsWarn() bool {
	return h.logger.Enabled(slog.LevelWarn)
}

func (h *HCLogAdapter) IsError() bool {
	return h.logger.Enabled(slog.LevelError)
}

func (h *HCLogAdapter) ImpliedArgs() []interface{} {
	return h.implied
}

func (h *HCLogAdapter) With(args ...interface{}) hclog.Logger {
	implied := make([]interface{}, 0, len(h.implied)+len(args))
	implied = append(implied, h.implied...)
	implied = append(implied, args...)
	return &HCLogAdapter{
		logger:  h.logger,
		name:    h.name,
		implied: implied,
	}
}

func (h *HCLogAdapter) Name() string {
	return h.name
}

func (h *HCLogAdapter) Named(name string) hclog.Logger {
	return &HCLogAdapter{
		logger:  h.logger,
		name:    h.name + "." + name,
		implied: h.implied,
	}
}

func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return &HCLogAdapter{
		logger:  h.logger,
		name:    name,
		implied: h.implied,
	}
}

// SetLevel is a no-op, the level is owned by SetLogLevel.
func (h *HCLogAdapter) SetLevel(level hclog.Level) {}

func (h *HCLogAdapter) GetLevel() hclog.Level {
	switch level := GetLogLevel(); {
	case level <= slog.LevelDebug:
		return hclog.Debug
	case level <= slog.LevelInfo:
		return hclog.Info
	case level <= slog.LevelWarn:
		return hclog.Warn
	default:
		return hclog.Error
	}
}

func (h *HCLogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(h.StandardWriter(opts), "", 0)
}

func (h *HCLogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return &stdWriter{h: h}
}

type stdWriter struct {
	h *HCLogAdapter
}

func (w *stdWriter) Write(p []byte) (int, error) {
	msg := string(p)
	for len(msg) > 0 && (msg[len(msg)-1] == '\n' || msg[len(msg)-1] == '\r') {
		msg = msg[:len(msg)-1]
	}
	w.h.Debug(msg)
	return len(p), nil
}
