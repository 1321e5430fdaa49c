package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger takes a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// LoggerEnabled gates the output of loggers built by NewDefaultLogger.
var LoggerEnabled = true

type DefaultLogger struct {
	zl zerolog.Logger
}

// NewDefaultLogger writes human readable lines to stderr.
func NewDefaultLogger(name string) *DefaultLogger {
	return NewDefaultLoggerTo(name, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

// NewDefaultLoggerTo is NewDefaultLogger with an explicit sink.
func NewDefaultLoggerTo(name string, w io.Writer) *DefaultLogger {
	zl := zerolog.New(w).With().
		Str("logger", name).
		Timestamp().
		Logger()
	return &DefaultLogger{zl: zl}
}

func (d *DefaultLogger) Debug(msg string, args ...any) {
	if LoggerEnabled {
		emit(d.zl.Debug(), msg, args)
	}
}

func (d *DefaultLogger) Info(msg string, args ...any) {
	if LoggerEnabled {
		emit(d.zl.Info(), msg, args)
	}
}

func (d *DefaultLogger) Error(msg string, args ...any) {
	if LoggerEnabled {
		emit(d.zl.Error(), msg, args)
	}
}

// ZerologLogger adapts an existing zerolog.Logger.
type ZerologLogger struct {
	zl zerolog.Logger
}

func NewZerolog(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl}
}

func (z *ZerologLogger) Debug(msg string, args ...any) { emit(z.zl.Debug(), msg, args) }

func (z *ZerologLogger) Info(msg string, args ...any) { emit(z.zl.Info(), msg, args) }

func (z *ZerologLogger) Error(msg string, args ...any) { emit(z.zl.Error(), msg, args) }

// Nop discards everything.
func Nop() Logger {
	return NewZerolog(zerolog.Nop())
}

func emit(ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 == len(args) {
			ev = ev.Interface("!BADKEY", args[i])
			break
		}
		if err, isErr := args[i+1].(error); isErr {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}
