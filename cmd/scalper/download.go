package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/datasource"
	tradingprovider "github.com/rxtech-lab/argo-scalper/internal/trading/provider"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical futures klines of the configured symbol",
		Flags: []cli.Flag{
			&cli.TimestampFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to now.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file (.parquet or .csv). Defaults to data/<symbol>_<timeframe>.parquet",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	start := cmd.Timestamp("start").UTC()
	end := cmd.Timestamp("end").UTC()

	if !end.After(start) {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "end %s must be after start %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	out := cmd.String("out")
	if out == "" {
		out = defaultDownloadPath(cfg.Strategy.Symbol, cfg.Strategy.Timeframe)
	}

	provider, err := tradingprovider.NewBinanceFuturesProvider(cfg.ProviderConfig(), cfg.API.UseTestnet, cfg.Execution.Retry, log)
	if err != nil {
		return err
	}

	log.Info("Starting download",
		zap.String("symbol", cfg.Strategy.Symbol),
		zap.String("timeframe", cfg.Strategy.Timeframe),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	bars, err := provider.GetKlinesRange(ctx, cfg.Strategy.Symbol, cfg.Strategy.Timeframe, start, end)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to create output directory", err)
	}

	if err := datasource.WriteBars(out, bars); err != nil {
		return err
	}

	fmt.Printf("Wrote %d bars to %s\n", len(bars), out)

	return nil
}

func defaultDownloadPath(symbol string, timeframe string) string {
	return filepath.Join("data", fmt.Sprintf("%s_%s.parquet", strings.ToUpper(symbol), timeframe))
}
