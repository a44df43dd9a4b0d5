package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// cmdLogger is the printf-style logging interface shared with the gateway
// packages.
type cmdLogger interface {
	Info(msg string, v ...interface{})
	Error(msg string, v ...interface{})
	Debug(msg string, v ...interface{})
}

// logLevel gates slog output; PersistentPreRunE raises it with --verbose.
var logLevel = func() *slog.LevelVar {
	v := new(slog.LevelVar)
	v.Set(slog.LevelWarn)
	return v
}()

// log is the package-level logger used by commands and injected into the
// workflow. Tests can swap this with a spy.
var log cmdLogger = slogAdapter{slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))}

func setLogVerbosity(verbose bool) {
	if verbose {
		logLevel.Set(slog.LevelDebug)
	} else {
		logLevel.Set(slog.LevelWarn)
	}
}

// slogAdapter bridges the printf-style interface onto slog.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Info(msg string, v ...interface{})  { a.l.Info(fmt.Sprintf(msg, v...)) }
func (a slogAdapter) Error(msg string, v ...interface{}) { a.l.Error(fmt.Sprintf(msg, v...)) }
func (a slogAdapter) Debug(msg string, v ...interface{}) { a.l.Debug(fmt.Sprintf(msg, v...)) }
