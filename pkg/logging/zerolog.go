package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Format selects the zerolog writer: structured JSON, or zerolog's
// console writer for human-readable text.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FileLoggerConfig configures a ZerologLogger.
type FileLoggerConfig struct {
	// Path is the log file path.
	Path string
	// Format selects JSON or human-readable text output.
	Format Format
	// Level is the minimum log level.
	Level Level
	// MaxSizeMB is the size in megabytes before lumberjack rotates.
	MaxSizeMB int
	// MaxBackups is the number of rotated files lumberjack retains.
	MaxBackups int
}

// ZerologLogger implements Logger on top of zerolog, writing through a
// lumberjack.Logger for size-based rotation — replacing the teacher's
// hand-rolled JSON/text formatter and rotate() method with the ecosystem
// equivalents used elsewhere in the pack.
type ZerologLogger struct {
	logger zerolog.Logger
	closer io.Closer
}

// NewFileLogger opens (or creates) the log file at config.Path and
// returns a ZerologLogger writing to it.
func NewFileLogger(config FileLoggerConfig) (*ZerologLogger, error) {
	lj := &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    maxOr(config.MaxSizeMB, 50),
		MaxBackups: config.MaxBackups,
		Compress:   true,
	}

	var w io.Writer = lj
	if config.Format == FormatText {
		w = zerolog.ConsoleWriter{Out: lj, NoColor: true, TimeFormat: "2006-01-02T15:04:05.000Z"}
	}

	zl := zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(config.Level))

	return &ZerologLogger{logger: zl, closer: lj}, nil
}

func maxOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func toZerologLevel(l Level) zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func withFields(e *zerolog.Event, fields Fields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

func (l *ZerologLogger) Debug(ctx context.Context, msg string, fields Fields) {
	withFields(l.logger.Debug(), fields).Msg(msg)
}

func (l *ZerologLogger) Info(ctx context.Context, msg string, fields Fields) {
	withFields(l.logger.Info(), fields).Msg(msg)
}

func (l *ZerologLogger) Warn(ctx context.Context, msg string, fields Fields) {
	withFields(l.logger.Warn(), fields).Msg(msg)
}

func (l *ZerologLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	e := l.logger.Error()
	if err != nil {
		e = e.Err(err)
	}
	withFields(e, fields).Msg(msg)
}

func (l *ZerologLogger) WithFields(fields Fields) Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &ZerologLogger{logger: ctx.Logger(), closer: l.closer}
}

func (l *ZerologLogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// NewStderrLogger returns a ZerologLogger writing directly to stderr,
// for CLI invocations that don't want a log file.
func NewStderrLogger(level Level) *ZerologLogger {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(toZerologLevel(level))
	return &ZerologLogger{logger: zl}
}
