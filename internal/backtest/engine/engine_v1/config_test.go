package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(1000.0, config.InitialCapital)
	suite.Equal(commission_fee.FeeModelBps, config.FeeModel)
	suite.Equal(2.0, config.SlippageBps)
	suite.Equal(4.0, config.FeeBps)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.True(config.Interval.IsNone())
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalYAML() {
	input := `
symbol: ETHUSDT
initial_capital: 5000
slippage_bps: 0
fee_model: zero_commission
interval: 5m
start_time: 2024-01-01T00:00:00Z
end_time: 2024-02-01T00:00:00Z
`

	var config BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal([]byte(input), &config))

	suite.Equal("ETHUSDT", config.Symbol)
	suite.Equal(5000.0, config.InitialCapital)
	suite.Equal(0.0, config.SlippageBps)
	// omitted keys keep defaults
	suite.Equal(4.0, config.FeeBps)
	suite.Equal("results", config.ResultsFolder)
	suite.Equal(commission_fee.FeeModelZero, config.FeeModel)
	suite.Equal(datasource.Interval5m, config.Interval.Unwrap())
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap())
	suite.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), config.EndTime.Unwrap())
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestValidate() {
	tests := []struct {
		name   string
		mutate func(c *BacktestEngineV1Config)
		code   errors.ErrorCode
	}{
		{
			name:   "zero capital",
			mutate: func(c *BacktestEngineV1Config) { c.InitialCapital = 0 },
			code:   errors.ErrCodeBacktestConfigError,
		},
		{
			name:   "negative slippage",
			mutate: func(c *BacktestEngineV1Config) { c.SlippageBps = -1 },
			code:   errors.ErrCodeBacktestConfigError,
		},
		{
			name:   "unknown fee model",
			mutate: func(c *BacktestEngineV1Config) { c.FeeModel = "maker_rebate" },
			code:   errors.ErrCodeBacktestConfigError,
		},
		{
			name: "end before start",
			mutate: func(c *BacktestEngineV1Config) {
				var parsed BacktestEngineV1Config
				_ = yaml.Unmarshal([]byte("start_time: 2024-02-01T00:00:00Z\nend_time: 2024-01-01T00:00:00Z\n"), &parsed)
				c.StartTime = parsed.StartTime
				c.EndTime = parsed.EndTime
			},
			code: errors.ErrCodeInvalidPeriod,
		},
		{
			name: "bad interval",
			mutate: func(c *BacktestEngineV1Config) {
				var parsed BacktestEngineV1Config
				_ = yaml.Unmarshal([]byte("interval: 2w\n"), &parsed)
				c.Interval = parsed.Interval
			},
			code: errors.ErrCodeInvalidTimeframe,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := EmptyConfig()
			tc.mutate(&config)

			err := config.Validate()
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, tc.code), err.Error())
		})
	}
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	var parsed map[string]any
	suite.NoError(json.Unmarshal([]byte(schemaJSON), &parsed))
	suite.Contains(schemaJSON, "fee_model")
	suite.Contains(schemaJSON, "zero_commission")
}
