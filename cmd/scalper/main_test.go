package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/analytics"
	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-scalper/internal/config"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/mocks"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ScalperCmdTestSuite struct {
	suite.Suite
	tempDir    string
	dataPath   string
	configPath string
}

func TestScalperCmdSuite(t *testing.T) {
	suite.Run(t, new(ScalperCmdTestSuite))
}

func (suite *ScalperCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.dataPath = filepath.Join(suite.tempDir, "bars.parquet")
	suite.configPath = filepath.Join(suite.tempDir, "config.yaml")

	suite.Require().NoError(datasource.WriteBars(suite.dataPath, mocks.GenerateBars(42, 600)))

	content := "logging:\n  level: warn\n  log_dir: \"\"\n" +
		"backtest:\n  data_path: " + suite.dataPath + "\n  results_folder: " + filepath.Join(suite.tempDir, "results") + "\n"
	suite.Require().NoError(os.WriteFile(suite.configPath, []byte(content), 0644))
}

func (suite *ScalperCmdTestSuite) run(args ...string) error {
	base := []string{"scalper", "--config", suite.configPath, "--env", filepath.Join(suite.tempDir, "missing.env")}

	return newApp().Run(context.Background(), append(base, args...))
}

func (suite *ScalperCmdTestSuite) loadConfig() *config.Config {
	cfg, err := config.Load(suite.configPath, "")
	suite.Require().NoError(err)

	return cfg
}

func (suite *ScalperCmdTestSuite) TestBacktestWritesResults() {
	suite.Require().NoError(suite.run("backtest", "--no-progress"))

	var stats []string
	err := filepath.WalkDir(filepath.Join(suite.tempDir, "results"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.Name() == "stats.yaml" {
			stats = append(stats, path)
		}

		return nil
	})
	suite.Require().NoError(err)
	suite.Len(stats, 1)
}

func (suite *ScalperCmdTestSuite) TestBacktestWithoutData() {
	content := "logging:\n  log_dir: \"\"\n"
	suite.Require().NoError(os.WriteFile(suite.configPath, []byte(content), 0644))

	err := suite.run("backtest", "--no-progress")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *ScalperCmdTestSuite) TestBacktestRejectsInvertedRange() {
	err := suite.run("backtest", "--no-progress", "--start", "2024-02-01", "--end", "2024-01-01")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *ScalperCmdTestSuite) TestMonteCarlo() {
	suite.NoError(suite.run("montecarlo", "--runs", "50", "--seed", "7"))
}

func (suite *ScalperCmdTestSuite) TestMonteCarloRejectsZeroRuns() {
	err := suite.run("montecarlo", "--runs", "0")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *ScalperCmdTestSuite) TestWalkForwardRejectsBadTrainPct() {
	err := suite.run("walkforward", "--train-pct", "1.5")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *ScalperCmdTestSuite) TestRunWalkForwardSingleSplit() {
	cfg := suite.loadConfig()
	bars := mocks.GenerateBars(7, 600)

	results, err := runWalkForward(context.Background(), cfg, logger.NewNopLogger(), bars,
		analytics.SplitWindows(len(bars), 0.5, optional.None[int]()))
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Equal(bars[300].Time, results[0].Start.Time)
	suite.Equal(bars[599].Time, results[0].End.Time)
}

func (suite *ScalperCmdTestSuite) TestRunWalkForwardRolling() {
	cfg := suite.loadConfig()
	bars := mocks.GenerateBars(7, 600)
	windows := analytics.SplitWindows(len(bars), 0.5, optional.Some(100))

	results, err := runWalkForward(context.Background(), cfg, logger.NewNopLogger(), bars, windows)
	suite.Require().NoError(err)
	suite.Len(results, len(windows))

	for i := 1; i < len(results); i++ {
		suite.True(results[i].Start.Time.After(results[i-1].Start.Time))
	}
}

func (suite *ScalperCmdTestSuite) TestRunWalkForwardShortStepSimulatesEveryTestBar() {
	cfg := suite.loadConfig()
	bars := mocks.GenerateBars(7, 600)

	strat, err := cfg.BuildStrategy()
	suite.Require().NoError(err)

	step := 20
	suite.Require().Less(step, strat.MinBars())

	windows := analytics.SplitWindows(len(bars), 0.5, optional.Some(step))
	results, err := runWalkForward(context.Background(), cfg, logger.NewNopLogger(), bars, windows)
	suite.Require().NoError(err)
	suite.Require().Len(results, len(windows))

	for _, r := range results {
		suite.Len(r.Result.EquityCurve, r.Window.TestEnd-r.Window.TestStart)
		suite.Equal(bars[r.Window.TestStart].Time, r.Result.EquityCurve[0].Time)
		suite.Equal(bars[r.Window.TestStart].Time, r.Start.Time)
	}
}

func (suite *ScalperCmdTestSuite) TestRunWalkForwardNoWindows() {
	cfg := suite.loadConfig()

	_, err := runWalkForward(context.Background(), cfg, logger.NewNopLogger(), nil, nil)
	suite.Require().Error(err)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *ScalperCmdTestSuite) TestTradeReturns() {
	result := types.BacktestResult{
		InitialEquity: 1000,
		Trades: []types.TradeRecord{
			{PnL: 10},
			{PnL: -5},
		},
	}

	suite.Equal([]float64{0.01, -0.005}, tradeReturns(result))
	suite.Empty(tradeReturns(types.BacktestResult{Trades: result.Trades}))
}

func (suite *ScalperCmdTestSuite) TestWriteSchemas() {
	dir := filepath.Join(suite.tempDir, "schemas")

	written, err := writeSchemas(dir)
	suite.Require().NoError(err)
	suite.Len(written, 4)

	for _, name := range []string{configSchemaName, liveSchemaName, backtestSchemaName} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		suite.Require().NoError(err)
		suite.NotEmpty(content)
	}

	// the sample config loads back as a valid configuration
	cfg, err := config.Load(filepath.Join(dir, sampleConfigName), "")
	suite.Require().NoError(err)
	suite.Equal(config.Default().Strategy.Symbol, cfg.Strategy.Symbol)
}

func (suite *ScalperCmdTestSuite) TestWriteSchemasKeepsExistingSample() {
	dir := filepath.Join(suite.tempDir, "schemas")
	suite.Require().NoError(os.MkdirAll(dir, 0755))

	samplePath := filepath.Join(dir, sampleConfigName)
	suite.Require().NoError(os.WriteFile(samplePath, []byte("strategy:\n  symbol: BTCUSDT\n"), 0644))

	written, err := writeSchemas(dir)
	suite.Require().NoError(err)
	suite.Len(written, 3)

	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Contains(string(content), "BTCUSDT")
}

func (suite *ScalperCmdTestSuite) TestDefaultDownloadPath() {
	suite.Equal(filepath.Join("data", "SOLUSDT_1m.parquet"), defaultDownloadPath("solusdt", "1m"))
}
