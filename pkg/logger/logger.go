// Package logger provides structured logging for the claims layer.
//
// It wraps logrus behind a small configuration surface so services can be
// handed a component-scoped logger without caring about level or format
// plumbing.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingConfig controls logger construction.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`
	// Format is "json" or "text". Defaults to text.
	Format string `yaml:"format"`
	// Output is "stdout", "stderr" or "file". Defaults to stderr.
	Output string `yaml:"output"`
	// FilePrefix names the log file when Output is "file".
	FilePrefix string `yaml:"file_prefix"`
}

// Logger is a component-scoped structured logger. The embedded entry carries
// the component field, so WithField/WithError chains keep it.
type Logger struct {
	*logrus.Entry
	base *logrus.Logger
}

// New builds a logger from the supplied configuration.
func New(cfg LoggingConfig) *Logger {
	base := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "stdout":
		base.SetOutput(os.Stdout)
	case "file":
		prefix := cfg.FilePrefix
		if prefix == "" {
			prefix = "claims_layer"
		}
		name := fmt.Sprintf("%s-%s.log", prefix, time.Now().UTC().Format("20060102"))
		f, err := os.OpenFile(filepath.Clean(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			base.SetOutput(os.Stderr)
			base.WithError(err).Warn("falling back to stderr logging")
		} else {
			base.SetOutput(f)
		}
	default:
		base.SetOutput(os.Stderr)
	}

	return &Logger{Entry: logrus.NewEntry(base), base: base}
}

// NewDefault returns a text logger at info level scoped to the named
// component.
func NewDefault(component string) *Logger {
	log := New(LoggingConfig{})
	log.Entry = log.Entry.WithField("component", component)
	return log
}

// SetOutput redirects all output of the underlying logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.base.SetOutput(w)
}

// SetLevel adjusts the logging level at runtime.
func (l *Logger) SetLevel(level string) {
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return
	}
	l.base.SetLevel(parsed)
}
