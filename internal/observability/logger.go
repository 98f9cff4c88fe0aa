package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	sl   *slog.Logger
	file *lumberjack.Logger
}

type Options struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Stderr overrides the console writer; nil means os.Stderr.
	Stderr io.Writer
}

// NewLogger пишет в stderr и, если задан Path, в файл с ротацией
func NewLogger(opts Options) *Logger {
	console := opts.Stderr
	if console == nil {
		console = os.Stderr
	}

	l := &Logger{}
	w := console
	if opts.Path != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(console, l.file)
	}

	l.sl = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}))
	return l
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *Logger {
	return &Logger{sl: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

func (l *Logger) Slog() *slog.Logger {
	return l.sl
}

func (l *Logger) With(fields ...any) *Logger {
	return &Logger{sl: l.sl.With(fields...), file: l.file}
}

func (l *Logger) Debug(msg string, fields ...any) {
	l.sl.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...any) {
	l.sl.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...any) {
	l.sl.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...any) {
	l.sl.Error(msg, fields...)
}

// Close flushes and closes the rotating file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
