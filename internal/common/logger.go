package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel maps a config string onto a LogLevel. Empty means info.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info", "":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return LogLevelInfo, fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", s)
	}
}

// Format selects the handler used to render records.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatColor Format = "color"
)

// ParseFormat maps a config string onto a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "color", "colour":
		return FormatColor, nil
	default:
		return FormatText, fmt.Errorf("invalid logging format: %s (valid: text, json, color)", s)
	}
}

// Logger provides a centralized logging interface for bizmsg.
// Records pass through a masking handler so bearer tokens and secrets
// never reach the output verbatim.
type Logger struct {
	*slog.Logger
	level  LogLevel
	masker *Masker
}

// NewLogger creates a text logger on stdout with the specified level
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(os.Stdout, level, FormatText)
}

// NewJSONLogger creates a structured logger with JSON output
func NewJSONLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(os.Stdout, level, FormatJSON)
}

// NewColorLogger creates a colorized logger on stdout
func NewColorLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(os.Stdout, level, FormatColor)
}

// NewLoggerWithWriter creates a logger writing to w in the given format.
func NewLoggerWithWriter(w io.Writer, level LogLevel, format Format) *Logger {
	opts := &slog.HandlerOptions{Level: level.ToSlogLevel()}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatColor:
		handler = NewColorHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	masker := NewMasker()
	return &Logger{
		Logger: slog.New(&maskingHandler{next: handler, masker: masker}),
		level:  level,
		masker: masker,
	}
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

// EnableMasking toggles masking of sensitive values for this logger.
func (l *Logger) EnableMasking(enabled bool) {
	if l.masker != nil {
		l.masker.SetEnabled(enabled)
	}
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
		masker: l.masker,
	}
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithEndpoint returns a logger with the remote endpoint attached
func (l *Logger) WithEndpoint(endpoint string) *Logger {
	return l.with("endpoint", endpoint)
}

// WithRequest returns a logger with HTTP request context
func (l *Logger) WithRequest(method, url string) *Logger {
	return l.with("method", method, "url", url)
}

// Errorf, Warnf and Debugf let the logger stand in for resty.Logger.

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Global default logger instance
var defaultLogger = NewLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	if logger == nil {
		return
	}
	defaultLogger = logger
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger
}
