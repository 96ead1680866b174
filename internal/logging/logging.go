// Package logging provides the process-wide logger.
//
// Records go to a log file under the XDG state directory and, when running
// on a system with journald, to the systemd journal. stdout and stderr are
// left to the command's own output. Every record carries the run id and pid
// of the invocation so one switch can be followed across files:
//
//	journalctl -t audio-output-switcher RUN_ID=<id>
//
// Until InitLogger is called, all records are discarded.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
)

// Identifier is the syslog identifier used for journal records
const Identifier = "audio-output-switcher"

// Config represents logging configuration
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // text, json
	Path    string // log file; empty disables file output
	Journal bool   // also send to the systemd journal when available
}

var (
	mu      sync.RWMutex
	logger  = slog.New(discardHandler{})
	logFile *os.File
	runID   string
)

// DefaultPath returns the log file location under the XDG state directory
func DefaultPath() (string, error) {
	return xdg.StateFile(filepath.Join("audio_output_switcher", "switcher.log"))
}

// InitLogger sets up the process-wide logger and returns it. If the log file
// cannot be opened the logger is still installed without it, and the error
// is returned so the caller can decide whether that matters.
func InitLogger(cfg Config) (*slog.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	level := ParseLevel(cfg.Level)
	var handlers []slog.Handler

	_ = closeFileLocked()
	var fileErr error
	if cfg.Path != "" {
		f, err := openLogFile(cfg.Path)
		if err != nil {
			fileErr = err
		} else {
			logFile = f
			handlers = append(handlers, newStreamHandler(f, cfg.Format, level))
		}
	}

	if cfg.Journal && IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = discardHandler{}
	case 1:
		handler = handlers[0]
	default:
		handler = NewMultiHandler(handlers...)
	}

	runID = uuid.NewString()
	logger = slog.New(handler).With("run_id", runID, "pid", os.Getpid())
	if fileErr != nil {
		logger.Warn("log file disabled", "path", cfg.Path, "error", fileErr)
	}
	return logger, fileErr
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Close flushes and releases the log file
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	err := closeFileLocked()
	logger = slog.New(discardHandler{})
	return err
}

func closeFileLocked() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Logger returns the current process-wide logger
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// RunID returns the id attached to this invocation's records
func RunID() string {
	mu.RLock()
	defer mu.RUnlock()
	return runID
}

// Debug logs a formatted message at debug level
func Debug(format string, args ...any) { logf(slog.LevelDebug, format, args...) }

// Info logs a formatted message at info level
func Info(format string, args ...any) { logf(slog.LevelInfo, format, args...) }

// Warn logs a formatted message at warn level
func Warn(format string, args ...any) { logf(slog.LevelWarn, format, args...) }

// Error logs a formatted message at error level
func Error(format string, args ...any) { logf(slog.LevelError, format, args...) }

func logf(level slog.Level, format string, args ...any) {
	l := Logger()
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, fmt.Sprintf(format, args...))
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func newStreamHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel converts a level name to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
