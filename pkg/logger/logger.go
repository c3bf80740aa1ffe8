// Package logger adapts *slog.Logger to the logging interfaces expected by
// third-party libraries.
package logger

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Cron satisfies cron.Logger on top of slog.
type Cron struct {
	log *slog.Logger
}

var _ cron.Logger = Cron{}

// NewCron wraps log with a component attribute.
func NewCron(log *slog.Logger) Cron {
	if log == nil {
		log = slog.Default()
	}
	return Cron{log: log.With("component", "cron")}
}

// Info logs routine scheduler events at debug level; cron is chatty.
func (c Cron) Info(msg string, keysAndValues ...any) {
	c.log.Debug(msg, keysAndValues...)
}

func (c Cron) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
