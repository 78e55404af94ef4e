package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1Config struct {
	Symbol         string                  `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Symbol recorded on every trade,default=BTCUSDT" validate:"required"`
	InitialCapital float64                 `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital in quote currency,minimum=0,default=1000" validate:"gt=0"`
	SlippageBps    float64                 `yaml:"slippage_bps" json:"slippage_bps" jsonschema:"title=Slippage (bps),description=Adverse slippage applied to entries and stop/target exits,minimum=0,default=2" validate:"gte=0"`
	FeeBps         float64                 `yaml:"fee_bps" json:"fee_bps" jsonschema:"title=Fee (bps),description=Taker fee per side,minimum=0,default=4" validate:"gte=0"`
	FeeModel       commission_fee.FeeModel `yaml:"fee_model" json:"fee_model" jsonschema:"title=Fee Model,description=How fees are charged"`
	// Interval aggregates the data file to a coarser timeframe before simulating.
	Interval      optional.Option[datasource.Interval] `yaml:"interval" json:"interval" jsonschema:"title=Interval,description=Optional resampling interval for the data file"`
	StartTime     optional.Option[time.Time]           `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime       optional.Option[time.Time]           `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	ResultsFolder string                               `yaml:"results_folder" json:"results_folder" jsonschema:"title=Results Folder,description=Directory for trades, equity and stats exports,default=results"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type Config struct {
		Symbol         string                  `yaml:"symbol"`
		InitialCapital float64                 `yaml:"initial_capital"`
		SlippageBps    *float64                `yaml:"slippage_bps"`
		FeeBps         *float64                `yaml:"fee_bps"`
		FeeModel       commission_fee.FeeModel `yaml:"fee_model"`
		Interval       *datasource.Interval    `yaml:"interval"`
		StartTime      *time.Time              `yaml:"start_time"`
		EndTime        *time.Time              `yaml:"end_time"`
		ResultsFolder  string                  `yaml:"results_folder"`
	}

	var config Config
	if err := value.Decode(&config); err != nil {
		return err
	}

	*c = EmptyConfig()

	if config.Symbol != "" {
		c.Symbol = config.Symbol
	}

	if config.InitialCapital != 0 {
		c.InitialCapital = config.InitialCapital
	}

	if config.SlippageBps != nil {
		c.SlippageBps = *config.SlippageBps
	}

	if config.FeeBps != nil {
		c.FeeBps = *config.FeeBps
	}

	if config.FeeModel != "" {
		c.FeeModel = config.FeeModel
	}

	if config.ResultsFolder != "" {
		c.ResultsFolder = config.ResultsFolder
	}

	if config.Interval != nil {
		c.Interval = optional.Some(*config.Interval)
	}

	if config.StartTime != nil {
		c.StartTime = optional.Some(config.StartTime.UTC())
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(config.EndTime.UTC())
	}

	return nil
}

// Validate checks struct tags and the relation between the optional fields.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	switch c.FeeModel {
	case commission_fee.FeeModelBps, commission_fee.FeeModelZero:
	default:
		return errors.Newf(errors.ErrCodeBacktestConfigError, "unsupported fee model %q", c.FeeModel)
	}

	if c.Interval.IsSome() {
		if _, err := c.Interval.Unwrap().Minutes(); err != nil {
			return err
		}
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidPeriod, "end_time is before start_time")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "datasource.Interval") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: []any{
						datasource.Interval1m, datasource.Interval3m, datasource.Interval5m,
						datasource.Interval15m, datasource.Interval30m, datasource.Interval1h,
						datasource.Interval4h, datasource.Interval1d,
					},
				}
			}

			if strings.Contains(t.String(), "commission_fee.FeeModel") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllFeeModels,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Symbol:         "BTCUSDT",
		InitialCapital: 1000,
		SlippageBps:    2,
		FeeBps:         4,
		FeeModel:       commission_fee.FeeModelBps,
		Interval:       optional.None[datasource.Interval](),
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
		ResultsFolder:  "results",
	}
}
