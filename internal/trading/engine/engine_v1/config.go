package engine_v1

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-scalper/internal/utils"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// LiveTradingEngineV1Config controls the live polling loop.
type LiveTradingEngineV1Config struct {
	Symbol            string        `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Futures symbol to trade,default=SOLUSDT" validate:"required"`
	Timeframe         string        `yaml:"timeframe" json:"timeframe" jsonschema:"title=Timeframe,description=Kline interval such as 1m or 5m,default=1m" validate:"required"`
	Leverage          int           `yaml:"leverage" json:"leverage" jsonschema:"title=Leverage,description=Leverage set on the symbol at startup,minimum=1,maximum=125,default=5" validate:"gte=1,lte=125"`
	Testnet           bool          `yaml:"testnet" json:"testnet" jsonschema:"title=Testnet,description=Trade against the exchange testnet,default=true"`
	KlineLimit        int           `yaml:"kline_limit" json:"kline_limit" jsonschema:"title=Kline Limit,description=Bars fetched per poll,minimum=50,default=300" validate:"gte=50,lte=1500"`
	AccountTradeLimit int           `yaml:"account_trade_limit" json:"account_trade_limit" jsonschema:"title=Account Trade Limit,description=Account fills fetched per poll for the daily loss,default=500" validate:"gte=1,lte=1000"`
	PollInterval      time.Duration `yaml:"poll_interval" json:"poll_interval" jsonschema:"title=Poll Interval,description=Wait between polls while flat,type=string,default=1s" validate:"gt=0"`
	PositionWait      time.Duration `yaml:"position_wait" json:"position_wait" jsonschema:"title=Position Wait,description=Wait between polls while a position is open,type=string,default=5s" validate:"gt=0"`
	CapWait           time.Duration `yaml:"cap_wait" json:"cap_wait" jsonschema:"title=Cap Wait,description=Wait between polls after the daily loss cap is hit,type=string,default=1m" validate:"gt=0"`
	ErrorWait         time.Duration `yaml:"error_wait" json:"error_wait" jsonschema:"title=Error Wait,description=Wait after a failed iteration,type=string,default=5s" validate:"gt=0"`
	SummaryInterval   time.Duration `yaml:"summary_interval" json:"summary_interval" jsonschema:"title=Summary Interval,description=Minimum time between open position summaries,type=string,default=55m" validate:"gt=0"`
	DataOutputPath    string        `yaml:"data_output_path" json:"data_output_path" jsonschema:"title=Data Output Path,description=Directory for session journals. Empty keeps the session in memory"`
}

// DefaultLiveConfig returns the loop timings of the reference bot.
func DefaultLiveConfig() LiveTradingEngineV1Config {
	return LiveTradingEngineV1Config{
		Symbol:            "SOLUSDT",
		Timeframe:         "1m",
		Leverage:          5,
		Testnet:           true,
		KlineLimit:        300,
		AccountTradeLimit: 500,
		PollInterval:      time.Second,
		PositionWait:      5 * time.Second,
		CapWait:           time.Minute,
		ErrorWait:         5 * time.Second,
		SummaryInterval:   55 * time.Minute,
		DataOutputPath:    "",
	}
}

// Validate checks struct tags and the timeframe.
func (c LiveTradingEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid live trading config", err)
	}

	if _, err := utils.ParseTimeframe(c.Timeframe); err != nil {
		return err
	}

	return nil
}

// Cooldown is one timeframe. A new entry is not attempted sooner than this
// after the previous successful one.
func (c LiveTradingEngineV1Config) Cooldown() time.Duration {
	d, err := utils.TimeframeDuration(c.Timeframe)
	if err != nil {
		return 0
	}

	return d
}

// GenerateSchemaJSON generates a JSON schema string for the LiveTradingEngineV1Config
func (c *LiveTradingEngineV1Config) GenerateSchemaJSON() (string, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(c)
	schema.Title = "live-trading-engine-v1-config"
	schema.Description = "Configuration schema for LiveTradingEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
