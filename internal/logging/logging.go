// internal/logging/logging.go
// Package logging sets up the structured application log: JSON records in a
// size-rotated file under the config directory, or text on stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ColonelBlimp/cwcodec/internal/config"
)

// StderrDir selects text logging to stderr instead of a log file
const StderrDir = "-"

// LogFileName is the log file created in the log directory
const LogFileName = "cwcodec.slog"

type Logger struct {
	*slog.Logger
	// LogFile is the rotated file path, empty when logging to stderr
	LogFile string
	Start   time.Time

	closer io.Closer
}

// ParseLevel maps a config log_level to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%s: invalid log level", level)
	}
}

// New creates the application logger. An empty dir logs to the user config
// directory; StderrDir logs text to stderr.
func New(level, dir string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if dir == StderrDir {
		return &Logger{
			Logger: slog.New(slog.NewTextHandler(os.Stderr, opts)),
			Start:  time.Now(),
		}, nil
	}

	if dir == "" {
		dir = config.Dir()
	}
	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, LogFileName),
		MaxSize:    32, // MB
		MaxBackups: 1,
	}
	if lvl == slog.LevelDebug {
		w.MaxSize = 512
	}

	l := &Logger{
		Logger:  slog.New(slog.NewJSONHandler(w, opts)),
		LogFile: w.Filename,
		Start:   time.Now(),
		closer:  w,
	}

	l.Info("Hello logging", slog.Time("start", l.Start))
	l.Info("System information",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))
	if bi, ok := debug.ReadBuildInfo(); ok {
		l.Info("Build",
			slog.String("Go version", bi.GoVersion),
			slog.String("Path", bi.Path))
	}

	return l, nil
}

// SetDefault installs the logger as the process-wide slog default.
func (l *Logger) SetDefault() {
	slog.SetDefault(l.Logger)
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	l.Info("Goodbye logging", slog.Duration("elapsed", time.Since(l.Start)))
	return l.closer.Close()
}
