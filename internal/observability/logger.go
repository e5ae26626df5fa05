package observability

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const RequestIDKey = "request_id"

// Logger is the structured logger shared by the service and transport layers.
type Logger struct {
	*zerolog.Logger
}

// NewLogger creates a logger writing to stdout.  format "text" selects the
// human readable console writer; anything else emits JSON.
func NewLogger(level, format string) *Logger {
	var output io.Writer = os.Stdout
	if format == "text" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return newLogger(output, parseLogLevel(level))
}

// NewLoggerTo is NewLogger writing JSON to w.
func NewLoggerTo(w io.Writer, level string) *Logger {
	return newLogger(w, parseLogLevel(level))
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	logger := zerolog.Nop()
	return &Logger{Logger: &logger}
}

func newLogger(w io.Writer, lvl zerolog.Level) *Logger {
	logger := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return &Logger{Logger: &logger}
}

// WithRequestID returns a new logger with the request ID attached.
func (l *Logger) WithRequestID(id string) *Logger {
	logger := l.With().Str(RequestIDKey, id).Logger()
	return &Logger{Logger: &logger}
}

// WithOperation returns a new logger with the operation name attached.
func (l *Logger) WithOperation(op string) *Logger {
	logger := l.With().Str("op", op).Logger()
	return &Logger{Logger: &logger}
}

// WithEventID returns a new logger with the venue event ID attached.
func (l *Logger) WithEventID(id uint64) *Logger {
	logger := l.With().Uint64("event_id", id).Logger()
	return &Logger{Logger: &logger}
}

// WithError returns a new logger with the error attached.
func (l *Logger) WithError(err error) *Logger {
	logger := l.With().Err(err).Logger()
	return &Logger{Logger: &logger}
}

func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
