package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

var pluginLogger atomic.Pointer[PluginLogger]

var logLevel = new(slog.LevelVar)

func init() {
	pluginLogger.Store(NewPluginLogger())
}

// PluginLogger writes structured records to stderr. Munin reads stdout, so
// nothing here may ever end up there.
type PluginLogger struct {
	slogger *slog.Logger
}

func NewPluginLogger() *PluginLogger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	return &PluginLogger{
		slogger: slog.New(handler),
	}
}

func Default() *PluginLogger {
	return pluginLogger.Load()
}

// SetDefault replaces the process-wide logger, mostly useful in tests.
func SetDefault(l *PluginLogger) {
	pluginLogger.Store(l)
}

// FromSlog wraps an existing slog logger.
func FromSlog(l *slog.Logger) *PluginLogger {
	return &PluginLogger{slogger: l}
}

func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

func GetLogLevel() slog.Level {
	return logLevel.Level()
}

// slog wrapper

func Debug(msg string, args ...any) {
	pluginLogger.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	pluginLogger.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	pluginLogger.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	pluginLogger.Load().Error(msg, args...)
}

func (l *PluginLogger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

func (l *PluginLogger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

func (l *PluginLogger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

func (l *PluginLogger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// With returns a logger that adds args to every record.
func (l *PluginLogger) With(args ...any) *PluginLogger {
	return &PluginLogger{slogger: l.slogger.With(args...)}
}

func (l *PluginLogger) Enabled(level slog.Level) bool {
	return l.slogger.Enabled(context.Background(), level)
}

// badger.Logger

func (l *PluginLogger) Errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.slogger.Error(msg)
}

func (l *PluginLogger) Warningf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.slogger.Warn(msg)
}

// Infof logs at debug; badger reports routine compaction at info.
func (l *PluginLogger) Infof(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.slogger.Debug(msg)
}

func (l *PluginLogger) Debugf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.slogger.Debug(msg)
}

// tail.logger

func (l *PluginLogger) Fatal(v ...interface{}) {
	l.slogger.Error("tail failed", genericPairs(v...)...)
}

func (l *PluginLogger) Fatalf(format string, v ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, v...))
}

func (l *PluginLogger) Fatalln(v ...interface{}) {
	l.slogger.Error(fmt.Sprint(v...))
}

func (l *PluginLogger) Panic(v ...interface{}) {
	l.slogger.Error("tail panicked", genericPairs(v...)...)
}

func (l *PluginLogger) Panicf(format string, v ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, v...))
}

func (l *PluginLogger) Panicln(v ...interface{}) {
	l.slogger.Error(fmt.Sprint(v...))
}

func (l *PluginLogger) Print(v ...interface{}) {
	l.slogger.Debug(fmt.Sprint(v...))
}

func (l *PluginLogger) Printf(format string, v ...interface{}) {
	l.slogger.Debug(fmt.Sprintf(format, v...))
}

func (l *PluginLogger) Println(v ...interface{}) {
	l.slogger.Debug(fmt.Sprint(v...))
}

func genericPairs(v ...interface{}) []any {
	pairs := make([]any, 0, len(v)/2)
	for i := 0; i < len(v)-1; i += 2 {
		key, ok := v[i].(string)
		if !ok {
			key = fmt.Sprintf("non_string_key_%d", i)
		}
		pairs = append(pairs, slog.Any(key, v[i+1]))
	}
	if len(v)%2 == 1 {
		pairs = append(pairs, slog.Any("value", v[len(v)-1]))
	}
	return pairs
}
