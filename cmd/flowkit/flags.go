package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/flowkit/internal/logger"
)

var (
	logLevel  string
	logFormat string
	debug     bool
	// cfg is loaded once by setupLogging before any command runs.
	cfg Config
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, plain, json)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// setupLogging loads the config file and stores the configured logger in the
// context passed to every command.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	loaded, cfgErr := LoadConfig(configPath())
	cfg = loaded
	applyLoggingConfig(cmd, cfg, &logLevel, &logFormat)

	level := logLevel
	if debug {
		level = "debug"
	}
	log, err := logger.Setup(os.Stderr, logFormat, level)
	if err != nil {
		return ctx, err
	}
	if cfgErr != nil {
		log.Warn("ignoring config file", "path", configPath(), "error", cfgErr)
	}
	return logger.WithContext(ctx, log), nil
}
