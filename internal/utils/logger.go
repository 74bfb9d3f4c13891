// internal/utils/logger.go
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a charmbracelet logger writing to stdout and, once
// InitLogger has run, to a rotated file as well.
type Logger struct {
	mu   sync.RWMutex
	base *log.Logger
	file *lumberjack.Logger
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

func newBaseLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
		Level:           level,
		Prefix:          "moodrecap",
	})
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		globalLogger = &Logger{
			base: newBaseLogger(os.Stdout, log.InfoLevel),
		}
	})
	return globalLogger
}

// InitLogger points the global logger at logDir/server.log (rotated) plus
// stdout, at the given level name ("debug", "info", "warn", "error").
func InitLogger(logDir, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "server.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}

	logger := GetLogger()
	logger.mu.Lock()
	defer logger.mu.Unlock()

	if logger.file != nil {
		logger.file.Close()
	}
	logger.file = rotated
	logger.base = newBaseLogger(io.MultiWriter(os.Stdout, rotated), lvl)
	return nil
}

// SetOutput redirects the logger, mainly for tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.base = newBaseLogger(w, l.base.GetLevel())
}

// SetConsole swaps the console side of the output. The rotated file, when
// InitLogger has set one up, keeps receiving every entry.
func (l *Logger) SetConsole(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		w = io.MultiWriter(w, l.file)
	}
	l.base = newBaseLogger(w, l.base.GetLevel())
}

// SetLogLevel sets the minimum level for logging
func (l *Logger) SetLogLevel(level log.Level) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.base.SetLevel(level)
}

// Close releases the rotated log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) logger() *log.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.base
}

// keyvals flattens fields into sorted key/value pairs so output is stable.
func keyvals(fields map[string]interface{}) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		v := fields[k]
		if d, ok := v.(time.Duration); ok {
			v = d.String()
		}
		kv = append(kv, k, v)
	}
	return kv
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.logger().Debug(message, keyvals(fields)...)
}

// Info logs an info message
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.logger().Info(message, keyvals(fields)...)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.logger().Warn(message, keyvals(fields)...)
}

// Error logs an error message
func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.logger().Error(message, keyvals(fields)...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string, fields map[string]interface{}) {
	l.logger().Fatal(message, keyvals(fields)...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger().Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger().Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger().Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger().Errorf(format, args...)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logger().Fatalf(format, args...)
}
