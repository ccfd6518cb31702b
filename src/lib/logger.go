package lib

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ConfigureLogger applies the configured level and format to the standard
// logrus logger.
func ConfigureLogger(cfg Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
	}
}
