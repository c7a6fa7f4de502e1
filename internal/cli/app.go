// Package cli defines the command-line interface of the service.
package cli

import (
	"github.com/lewisedginton/health_companion/pkg/logger"
	"github.com/urfave/cli/v2"
)

const (
	appName       = "health-companion"
	loggerKey     = "logger"
	flagConfig    = "config-file"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
)

// NewApp builds the CLI. Running it without a subcommand starts the server.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    appName,
		Usage:   "Voice skill backend that turns symptom descriptions into basic health advice",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Usage:   "Path to an optional YAML configuration file",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Value:   "info",
				Usage:   "Log level used before the configuration is loaded (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    flagLogFormat,
				Value:   "json",
				Usage:   "Log format used before the configuration is loaded (json, text)",
				EnvVars: []string{"LOG_FORMAT"},
			},
		},
		Before: func(ctx *cli.Context) error {
			log := logger.NewLogger(logger.Config{
				Level:   logger.ParseLevel(ctx.String(flagLogLevel)),
				Format:  ctx.String(flagLogFormat),
				Service: appName,
				Output:  ctx.App.ErrWriter,
			})
			ctx.App.Metadata = map[string]interface{}{loggerKey: log}
			return nil
		},
		Action: serveAction,
		Commands: []*cli.Command{
			ServeCommand(),
			ConfigCommand(),
			AdviseCommand(),
		},
	}
}

// getLogger retrieves the logger from the CLI context metadata
func getLogger(ctx *cli.Context) logger.Logger {
	if log, ok := ctx.App.Metadata[loggerKey].(logger.Logger); ok {
		return log
	}
	return logger.NewLogger(logger.Config{Level: logger.InfoLevel, Service: appName})
}
