package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	backtest "github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-scalper/internal/config"
	live "github.com/rxtech-lab/argo-scalper/internal/trading/engine/engine_v1"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	configSchemaName   = "scalper-config.json"
	liveSchemaName     = "live-trading-engine-v1-config.json"
	backtestSchemaName = "backtest-engine-v1-config.json"
	sampleConfigName   = "config.yaml"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Write JSON schemas and a sample configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory",
				Value:   "config",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			written, err := writeSchemas(cmd.String("out"))
			if err != nil {
				return err
			}

			for _, path := range written {
				fmt.Printf("Wrote %s\n", path)
			}

			return nil
		},
	}
}

// writeSchemas writes every schema into dir. The sample config is only
// written when none exists yet.
func writeSchemas(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to create schema directory", err)
	}

	configSchema, err := config.GetConfigSchema()
	if err != nil {
		return nil, err
	}

	liveConfig := live.DefaultLiveConfig()

	liveSchema, err := liveConfig.GenerateSchemaJSON()
	if err != nil {
		return nil, err
	}

	backtestConfig := backtest.EmptyConfig()

	backtestSchema, err := backtestConfig.GenerateSchemaJSON()
	if err != nil {
		return nil, err
	}

	schemas := []struct {
		name    string
		content string
	}{
		{configSchemaName, configSchema},
		{liveSchemaName, liveSchema},
		{backtestSchemaName, backtestSchema},
	}

	written := make([]string, 0, len(schemas)+1)

	for _, schema := range schemas {
		path := filepath.Join(dir, schema.name)
		if err := os.WriteFile(path, []byte(schema.content), 0644); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to write %s", path)
		}

		written = append(written, path)
	}

	samplePath := filepath.Join(dir, sampleConfigName)
	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		yamlBytes, err := yaml.Marshal(config.Default())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to marshal sample config", err)
		}

		yamlBytes = append([]byte("# yaml-language-server: $schema="+configSchemaName+"\n"), yamlBytes...)
		if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to write %s", samplePath)
		}

		written = append(written, samplePath)
	}

	return written, nil
}
