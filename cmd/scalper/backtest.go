package main

import (
	"context"
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/analytics"
	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine"
	backtest "github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-scalper/internal/config"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/risk"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// dataFlags select the bars a historical command runs over.
func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "CSV or parquet file with OHLCV bars (overrides backtest.data_path)",
		},
		&cli.StringFlag{
			Name:    "start",
			Aliases: []string{"s"},
			Usage:   "First day to simulate in `YYYY-MM-DD` format (overrides backtest.start_date)",
		},
		&cli.StringFlag{
			Name:    "end",
			Aliases: []string{"e"},
			Usage:   "Last day to simulate in `YYYY-MM-DD` format, inclusive (overrides backtest.end_date)",
		},
	}
}

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Simulate the strategy bar by bar over historical data",
		Flags: append(dataFlags(),
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Folder for trades, equity and stats output (overrides backtest.results_folder)",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Do not draw the progress bar",
			},
		),
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadHistoricalConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if results := cmd.String("results"); results != "" {
		cfg.Backtest.ResultsFolder = results
	}

	bars, err := loadBars(cfg, log)
	if err != nil {
		return err
	}

	backtester, err := newBacktester(cfg, log)
	if err != nil {
		return err
	}
	defer backtester.Close()

	callbacks := engine.LifecycleCallbacks{}
	if !cmd.Bool("no-progress") {
		callbacks = progressCallbacks(fmt.Sprintf("Backtesting %s %s", cfg.Strategy.Symbol, cfg.Strategy.Timeframe))
	}

	result, err := backtester.Run(ctx, bars, callbacks)
	if err != nil {
		return err
	}

	fmt.Println(renderBacktest(cfg.Strategy.Symbol, len(bars), result))

	if cfg.Backtest.ResultsFolder == "" {
		return nil
	}

	folder, err := backtester.WriteResults(result)
	if err != nil {
		return err
	}

	log.Info("Results written", zap.String("folder", folder))

	return nil
}

func monteCarloCommand() *cli.Command {
	return &cli.Command{
		Name:  "montecarlo",
		Usage: "Backtest once, then reshuffle the trade sequence to estimate outcome dispersion",
		Flags: append(dataFlags(),
			&cli.IntFlag{
				Name:    "runs",
				Aliases: []string{"n"},
				Usage:   "Number of reshuffled sequences",
				Value:   1000,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Random seed for a reproducible run",
			},
		),
		Action: monteCarloAction,
	}
}

func monteCarloAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadHistoricalConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	runs := int(cmd.Int("runs"))
	if runs <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "runs must be positive, got %d", runs)
	}

	bars, err := loadBars(cfg, log)
	if err != nil {
		return err
	}

	backtester, err := newBacktester(cfg, log)
	if err != nil {
		return err
	}
	defer backtester.Close()

	result, err := backtester.Run(ctx, bars, engine.LifecycleCallbacks{})
	if err != nil {
		return err
	}

	seed := optional.None[int64]()
	if cmd.IsSet("seed") {
		seed = optional.Some(int64(cmd.Int("seed")))
	}

	returns := tradeReturns(result)
	finals := analytics.Summarize(analytics.MonteCarloFinalEquity(returns, runs, seed))
	drawdowns := analytics.Summarize(analytics.MonteCarloDrawdowns(returns, runs, seed))

	fmt.Println(renderBacktest(cfg.Strategy.Symbol, len(bars), result))
	fmt.Println(renderDistributions(runs, len(returns), finals, drawdowns))

	return nil
}

func walkForwardCommand() *cli.Command {
	return &cli.Command{
		Name:  "walkforward",
		Usage: "Split the bars into train/test windows and backtest each test window",
		Flags: append(dataFlags(),
			&cli.FloatFlag{
				Name:  "train-pct",
				Usage: "Share of each window used for training",
				Value: 0.7,
			},
			&cli.IntFlag{
				Name:  "step",
				Usage: "Roll windows forward by this many bars (single split when unset)",
			},
		),
		Action: walkForwardAction,
	}
}

func walkForwardAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadHistoricalConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	trainPct := cmd.Float("train-pct")
	if trainPct <= 0 || trainPct >= 1 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "train-pct must be in (0, 1), got %g", trainPct)
	}

	step := optional.None[int]()
	if cmd.IsSet("step") {
		if cmd.Int("step") <= 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "step must be positive, got %d", cmd.Int("step"))
		}

		step = optional.Some(int(cmd.Int("step")))
	}

	bars, err := loadBars(cfg, log)
	if err != nil {
		return err
	}

	results, err := runWalkForward(ctx, cfg, log, bars, analytics.SplitWindows(len(bars), trainPct, step))
	if err != nil {
		return err
	}

	fmt.Println(renderWalkForward(results))

	return nil
}

// windowResult is the out-of-sample run of one walk-forward window.
type windowResult struct {
	Window analytics.WalkForwardWindow
	Start  types.Bar
	End    types.Bar
	Result types.BacktestResult
}

// runWalkForward backtests the test slice of every window with a fresh engine
// and risk state. Up to MinBars() train bars before the test slice warm the
// indicators so that every test bar is simulated.
func runWalkForward(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	bars []types.Bar,
	windows []analytics.WalkForwardWindow,
) ([]windowResult, error) {
	if len(windows) == 0 {
		return nil, errors.NewInsufficientDataError(2, len(bars), cfg.Strategy.Symbol, "not enough bars for a walk-forward split")
	}

	results := make([]windowResult, 0, len(windows))

	for _, window := range windows {
		testBars := bars[window.TestStart:window.TestEnd]
		if len(testBars) == 0 {
			continue
		}

		backtester, err := newBacktester(cfg, log)
		if err != nil {
			return nil, err
		}

		from := max(window.TrainStart, window.TestStart-backtester.MinBars())
		if window.TestStart-from < backtester.MinBars() {
			log.Warn("Walk-forward window has too little history, its first test bars are skipped",
				zap.Int("test_start", window.TestStart),
				zap.Int("history", window.TestStart-from),
				zap.Int("min_bars", backtester.MinBars()),
			)
		}

		result, err := backtester.RunWithWarmup(ctx, bars[from:window.TestEnd], window.TestStart-from, engine.LifecycleCallbacks{})
		_ = backtester.Close()

		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeBacktestInitFailed, err,
				"window %d-%d failed", window.TestStart, window.TestEnd)
		}

		log.Debug("Walk-forward window done",
			zap.Int("test_start", window.TestStart),
			zap.Int("test_end", window.TestEnd),
			zap.Int("trades", len(result.Trades)),
		)

		results = append(results, windowResult{
			Window: window,
			Start:  testBars[0],
			End:    testBars[len(testBars)-1],
			Result: result,
		})
	}

	return results, nil
}

// loadHistoricalConfig loads the configuration and applies the data flags on top of it.
func loadHistoricalConfig(cmd *cli.Command) (*config.Config, *logger.Logger, error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	if data := cmd.String("data"); data != "" {
		cfg.Backtest.DataPath = data
	}

	if start := cmd.String("start"); start != "" {
		cfg.Backtest.StartDate = start
	}

	if end := cmd.String("end"); end != "" {
		cfg.Backtest.EndDate = end
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

// loadBars reads the configured data file through an in-memory DuckDB view.
func loadBars(cfg *config.Config, log *logger.Logger) ([]types.Bar, error) {
	if cfg.Backtest.DataPath == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "no data file: set backtest.data_path or pass --data")
	}

	ds, err := datasource.NewDataSource("", log)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	if err := ds.Initialize(cfg.Backtest.DataPath); err != nil {
		return nil, err
	}

	start, end, err := cfg.BacktestRange()
	if err != nil {
		return nil, err
	}

	bars, err := datasource.LoadBars(ds, start, end)
	if err != nil {
		return nil, err
	}

	log.Info("Loaded bars",
		zap.String("path", cfg.Backtest.DataPath),
		zap.Int("count", len(bars)),
	)

	return bars, nil
}

// newBacktester wires strategy, risk manager and engine from the configuration.
// Exchange filters are unknown offline, so the default ones are used.
func newBacktester(cfg *config.Config, log *logger.Logger) (*backtest.BacktestEngineV1, error) {
	strat, err := cfg.BuildStrategy()
	if err != nil {
		return nil, err
	}

	riskManager, err := risk.NewManager(cfg.Risk, types.DefaultSymbolFilters(), log)
	if err != nil {
		return nil, err
	}

	engineConfig, err := cfg.BacktestEngineConfig()
	if err != nil {
		return nil, err
	}

	return backtest.NewBacktestEngineV1(engineConfig, strat, riskManager, log)
}

// tradeReturns expresses each trade pnl as a fraction of the starting capital,
// so resampled equity paths start at 1.
func tradeReturns(result types.BacktestResult) []float64 {
	returns := make([]float64, 0, len(result.Trades))
	if result.InitialEquity <= 0 {
		return returns
	}

	for _, trade := range result.Trades {
		returns = append(returns, trade.PnL/result.InitialEquity)
	}

	return returns
}

func progressCallbacks(description string) engine.LifecycleCallbacks {
	var bar *progressbar.ProgressBar

	onRunStart := engine.OnRunStartCallback(func(_ string, totalBars int) error {
		bar = progressbar.NewOptions(totalBars,
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
		)

		return nil
	})
	onProcessData := engine.OnProcessDataCallback(func(current int, _ int) error {
		if bar == nil {
			return nil
		}

		return bar.Set(current)
	})
	onBacktestEnd := engine.OnBacktestEndCallback(func(_ error) {
		if bar != nil {
			_ = bar.Finish()
			fmt.Println()
		}
	})

	return engine.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnBacktestEnd: &onBacktestEnd,
	}
}
