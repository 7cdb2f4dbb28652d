// internal/infra/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"weekly_scheduler_bot/internal/infra/config"
)

// Log is the global logger instance
var Log = logrus.New()

// output is where Init points the logger.
var output io.Writer = os.Stdout

// Init points the global logger at stdout with the level and format the
// configuration asks for, then records what it chose.
func Init(cfg *config.AppConfig) {
	Log.SetOutput(output)
	Log.SetFormatter(formatterFor(cfg.Environment))

	level, levelErr := parseLevel(cfg.LogLevel)
	Log.SetLevel(level)
	if levelErr != nil {
		Log.WithError(levelErr).WithField("requested", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	Component("logger").WithFields(logrus.Fields{
		"log_level":   level.String(),
		"environment": cfg.Environment,
		"backend":     cfg.StateBackend,
		"channel":     cfg.ChannelRef(),
		"mirror":      cfg.MirrorEnabled(),
	}).Debug("Logger configured")
}

func parseLevel(raw string) (logrus.Level, error) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return logrus.InfoLevel, err
	}
	return level, nil
}

// formatterFor picks JSON for deployed environments and text for local runs.
func formatterFor(environment string) logrus.Formatter {
	switch strings.ToLower(environment) {
	case "production", "staging":
		return &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
	default:
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"}
	}
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
