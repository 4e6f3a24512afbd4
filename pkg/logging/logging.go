package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields holds structured log context
type Fields map[string]any

// Logger is the structured logging interface used by all analyzer components
type Logger interface {
	WithFields(fields Fields) Logger
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
}

var (
	root     *logrus.Logger
	initOnce sync.Once
)

func rootLogger() *logrus.Logger {
	initOnce.Do(func() {
		root = logrus.New()
		root.SetOutput(os.Stderr)
		root.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		root.SetLevel(logrus.InfoLevel)
	})
	return root
}

// SetLevel adjusts the process-wide log level ("debug", "info", "warn", "error")
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	rootLogger().SetLevel(parsed)
}

// WithFields returns a logger carrying the given structured context
func WithFields(fields Fields) Logger {
	return &logrusAdapter{entry: rootLogger().WithFields(logrus.Fields(fields))}
}

type logrusAdapter struct {
	entry *logrus.Entry
}

func (l *logrusAdapter) WithFields(fields Fields) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusAdapter) merged(fields []Fields) *logrus.Entry {
	entry := l.entry
	for _, f := range fields {
		entry = entry.WithFields(logrus.Fields(f))
	}
	return entry
}

func (l *logrusAdapter) Debug(msg string, fields ...Fields) {
	l.merged(fields).Debug(msg)
}

func (l *logrusAdapter) Info(msg string, fields ...Fields) {
	l.merged(fields).Info(msg)
}

func (l *logrusAdapter) Warn(msg string, fields ...Fields) {
	l.merged(fields).Warn(msg)
}

func (l *logrusAdapter) Error(err error, msg string, fields ...Fields) {
	entry := l.merged(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}
