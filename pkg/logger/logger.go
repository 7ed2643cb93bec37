package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields is an alias-compatible copy of logrus.Fields.
type Fields map[string]interface{}

// Log wraps logrus.Logger.
type Log struct {
	*logrus.Logger
}

// Entry wraps logrus.Entry so chained helpers keep returning *Entry.
type Entry struct {
	*logrus.Entry
}

var (
	globalMu     sync.RWMutex
	globalLogger = New()
)

// New returns a JSON logger writing to stdout at LOG_LEVEL (info by default).
func New() *Log {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetReportCaller(true)
	l.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
	l.SetFormatter(jsonFormatter())
	return &Log{Logger: l}
}

func jsonFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
		},
	}
}

func parseLevel(s string) logrus.Level {
	if lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(s))); err == nil {
		return lvl
	}
	return logrus.InfoLevel
}

// Get returns the process-wide logger.
func Get() *Log {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Configure replaces the process-wide logger. format is json or text; output
// is stdout, stderr or a file path, rotated by lumberjack when maxSizeMB > 0.
func Configure(level, format, output string, maxSizeMB int) (*Log, error) {
	l := New()

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	w, err := openOutput(output, maxSizeMB)
	if err != nil {
		return nil, err
	}
	l.SetOutput(w)

	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
	return l, nil
}

func openOutput(output string, maxSizeMB int) (io.Writer, error) {
	switch output = strings.TrimSpace(output); output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if maxSizeMB > 0 {
		return &lumberjack.Logger{
			Filename:   output,
			MaxSize:    maxSizeMB,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		}, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", output, err)
	}
	return f, nil
}

func (l *Log) WithComponent(component string) *Entry {
	return &Entry{Entry: l.Logger.WithField("component", component)}
}

func (l *Log) WithFields(fields Fields) *Entry {
	return &Entry{Entry: l.Logger.WithFields(logrus.Fields(fields))}
}

func (l *Log) WithError(err error) *Entry {
	return &Entry{Entry: l.Logger.WithError(err)}
}

func (e *Entry) WithComponent(component string) *Entry {
	return &Entry{Entry: e.Entry.WithField("component", component)}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{Entry: e.Entry.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *Log {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Log{Logger: l}
}
