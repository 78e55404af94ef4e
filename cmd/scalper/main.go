package main

import (
	"context"
	"log"
	"os"

	"github.com/rxtech-lab/argo-scalper/internal/config"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the CLI. Global flags are visible to every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "scalper",
		Usage:   "EMA/RSI/VWAP scalper for Binance USDT-M futures",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to the .env file with secrets",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			backtestCommand(),
			monteCarloCommand(),
			walkForwardCommand(),
			liveCommand(),
			downloadCommand(),
			schemaCommand(),
		},
	}
}

// loadConfig reads the configuration named by the global flags and builds the logger from it.
func loadConfig(cmd *cli.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env"))
	if err != nil {
		return nil, nil, err
	}

	if level := cmd.String("log-level"); level != "" {
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	log, err := logger.NewLoggerWithOptions(cfg.LoggerOptions())
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}
