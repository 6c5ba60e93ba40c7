package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Warn(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type Options struct {
	Level  string    // debug, info, warn, error; defaults to info
	Output io.Writer // defaults to os.Stdout
}

type jsonLogger struct {
	zl zerolog.Logger
}

// New returns a JSON-lines logger tagged with the service name and host.
func New(service string, opts Options) Logger {
	hostname, _ := os.Hostname()

	level := zerolog.InfoLevel
	if opts.Level != "" {
		if parsed, err := zerolog.ParseLevel(opts.Level); err == nil {
			level = parsed
		}
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zl := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", service).
		Str("hostname", hostname).
		Logger()

	return &jsonLogger{zl: zl}
}

// Nop discards everything. Used by tests and tools.
func Nop() Logger {
	return &jsonLogger{zl: zerolog.Nop()}
}

func (l *jsonLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.log(l.zl.Info(), action, message, requestID, details)
}

func (l *jsonLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.log(l.zl.Debug(), action, message, requestID, details)
}

func (l *jsonLogger) Warn(action, message, requestID string, details map[string]interface{}) {
	l.log(l.zl.Warn(), action, message, requestID, details)
}

func (l *jsonLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.log(l.zl.Error().Err(err), action, message, requestID, details)
}

func (l *jsonLogger) log(ev *zerolog.Event, action, message, requestID string, details map[string]interface{}) {
	// nil when the level is disabled
	if ev == nil {
		return
	}
	ev = ev.Str("action", action)
	if requestID != "" {
		ev = ev.Str("request_id", requestID)
	}
	if len(details) > 0 {
		ev = ev.Interface("details", details)
	}
	ev.Msg(message)
}
