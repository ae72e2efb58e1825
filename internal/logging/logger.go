// Package logging configures logrus for the rentapp binaries and adapts it to
// the key/value Logger used by the core package.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"rentapp/internal/core"
)

type appNameHook struct {
	appName string
}

// Levels implements logrus.Hook.
func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *appNameHook) Fire(entry *logrus.Entry) error {
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

// New returns a text logger tagging every message with appName. An empty or
// unknown level falls back to info; a nil writer means stderr.
func New(appName, level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	name := strings.ToLower(strings.TrimSpace(level))
	if name == "" {
		name = "info"
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.AddHook(&appNameHook{appName: appName})
	return logger
}

// Adapter satisfies core.Logger on top of a logrus logger. Args are read as
// alternating key/value pairs; a trailing key without value is kept under
// "extra".
type Adapter struct {
	Logger *logrus.Logger
}

var _ core.Logger = Adapter{}

func (a Adapter) entry(args []any) *logrus.Entry {
	fields := make(logrus.Fields, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["extra"] = args[i]
			break
		}
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return a.Logger.WithFields(fields)
}

// Debug implements core.Logger.
func (a Adapter) Debug(msg string, args ...any) { a.entry(args).Debug(msg) }

// Info implements core.Logger.
func (a Adapter) Info(msg string, args ...any) { a.entry(args).Info(msg) }

// Warn implements core.Logger.
func (a Adapter) Warn(msg string, args ...any) { a.entry(args).Warn(msg) }

// Error implements core.Logger.
func (a Adapter) Error(msg string, args ...any) { a.entry(args).Error(msg) }
