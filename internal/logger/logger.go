package logger

import (
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

// Settings controls how New builds loggers. Zero values fall back to the
// ENVIRONMENT and LOG_LEVEL environment variables.
type Settings struct {
	Environment string
	Level       string
	Format      string // text or json; empty picks from Environment
	Output      io.Writer
}

var (
	settingsMu sync.RWMutex
	settings   Settings
)

// Configure replaces the process-wide settings used by New.
func Configure(s Settings) {
	settingsMu.Lock()
	settings = s
	settingsMu.Unlock()
}

func current() Settings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	s := settings
	if s.Environment == "" {
		s.Environment = os.Getenv("ENVIRONMENT")
	}
	if s.Level == "" {
		s.Level = os.Getenv("LOG_LEVEL")
	}
	if s.Output == nil {
		s.Output = os.Stdout
	}
	return s
}

func New() *Logger {
	s := current()
	base := logrus.New()

	// Local env = pretty console; others = JSON
	format := strings.ToLower(s.Format)
	if format == "" {
		if s.Environment == "" || s.Environment == "local" {
			format = "text"
		} else {
			format = "json"
		}
	}
	if format == "text" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			ForceColors:     isTerminal(s.Output),
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	base.SetOutput(s.Output)
	base.SetLevel(parseLevel(s.Level))

	return &Logger{Entry: logrus.NewEntry(base)}
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// WithRequest attaches request metadata and returns an entry
func (l *Logger) WithRequest(r *http.Request) *logrus.Entry {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.New().String()
	}

	return l.WithFields(logrus.Fields{
		"req_id":     reqID,
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote_ip":  r.RemoteAddr,
		"user_agent": r.UserAgent(),
	})
}

// WithRun tags every entry with the pipeline run identifier.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{Entry: l.Entry.WithField("run_id", runID)}
}

// WithComponent scopes the logger to one package or stage.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", name)}
}

// WithError standardizes error logging
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{Entry: logrus.NewEntry(base)}
}
