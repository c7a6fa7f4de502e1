package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lewisedginton/health_companion/internal/completion"
	appconfig "github.com/lewisedginton/health_companion/internal/config"
	"github.com/lewisedginton/health_companion/internal/server"
	pkgconfig "github.com/lewisedginton/health_companion/pkg/config"
	"github.com/lewisedginton/health_companion/pkg/logger"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// ServeCommand starts the HTTP server.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the skill HTTP server",
		Action:  serveAction,
	}
}

// ConfigCommand validates the configuration and prints it with secrets redacted.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Validate and print the effective configuration",
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(redact(*cfg))
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = ctx.App.Writer.Write(out)
			return err
		},
	}
}

// AdviseCommand asks the completion API once, the same way the skill does.
func AdviseCommand() *cli.Command {
	return &cli.Command{
		Name:      "advise",
		Usage:     "Ask for advice about the given symptoms and print it",
		ArgsUsage: "<symptoms...>",
		Action: func(ctx *cli.Context) error {
			symptoms := strings.TrimSpace(strings.Join(ctx.Args().Slice(), " "))
			if symptoms == "" {
				return errors.New("symptoms are required")
			}

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			gen, _, err := NewGenerator(cfg)
			if err != nil {
				return err
			}
			client := completion.New(gen, server.CompletionSettings(cfg), log, nil)
			_, err = fmt.Fprintln(ctx.App.Writer, client.GetAdvice(ctx.Context, symptoms))
			return err
		},
	}
}

func serveAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	cfg.LogConfig(log)

	gen, probe, err := NewGenerator(cfg)
	if err != nil {
		log.Error("Failed to create completion client", logger.ErrorField(err))
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, gen, probe, log).Run(runCtx)
}

func loadConfig(ctx *cli.Context) (*appconfig.AppConfig, error) {
	var cfg appconfig.AppConfig
	if err := pkgconfig.GetConfig(&cfg, ctx.String(flagConfig), false); err != nil {
		getLogger(ctx).Error("Failed to load config", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func newLogger(cfg *appconfig.AppConfig) logger.Logger {
	return logger.NewLogger(cfg.LoggerConfig())
}

func redact(cfg appconfig.AppConfig) appconfig.AppConfig {
	if cfg.OpenAI.APIKey != "" {
		cfg.OpenAI.APIKey = "***"
	}
	if cfg.Anthropic.APIKey != "" {
		cfg.Anthropic.APIKey = "***"
	}
	return cfg
}
