// Package logging configures the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Options select the level and output format.
type Options struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// New builds a logger writing to out. Unknown levels fall back to info.
func New(opts Options, out io.Writer) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.ToLower(opts.Format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)
	return log
}

// FromEnv reads LOG_LEVEL and LOG_FORMAT and builds a stderr logger.
func FromEnv() (*logrus.Logger, error) {
	var opts Options
	if err := env.Parse(&opts); err != nil {
		return nil, fmt.Errorf("parse log env: %w", err)
	}
	return New(opts, os.Stderr), nil
}
