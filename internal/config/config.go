// Package config loads the scalper configuration from config.yaml, a .env
// file and environment variables, in increasing order of precedence.
// API keys are expected in the environment, never in config.yaml.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/moznion/go-optional"
	backtest "github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/notify"
	"github.com/rxtech-lab/argo-scalper/internal/risk"
	"github.com/rxtech-lab/argo-scalper/internal/strategy"
	live "github.com/rxtech-lab/argo-scalper/internal/trading/engine/engine_v1"
	tradingprovider "github.com/rxtech-lab/argo-scalper/internal/trading/provider"
	"github.com/rxtech-lab/argo-scalper/internal/utils"
	"github.com/rxtech-lab/argo-scalper/internal/version"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// API selects the exchange environment. Keys are filled from the environment.
type API struct {
	UseTestnet bool   `yaml:"use_testnet" json:"use_testnet" jsonschema:"title=Use testnet,default=true"`
	APIKey     string `yaml:"binance_api_key,omitempty" json:"-"`
	APISecret  string `yaml:"binance_api_secret,omitempty" json:"-"`
	BaseURL    string `yaml:"base_url,omitempty" json:"base_url,omitempty" jsonschema:"title=Base URL,description=Override of the futures REST endpoint"`
}

// Strategy names the strategy, the market it runs on and its parameters.
type Strategy struct {
	Name      string `yaml:"name" json:"name" jsonschema:"title=Strategy,enum=ema_rsi_vwap,default=ema_rsi_vwap"`
	Symbol    string `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,default=ZECUSDT" validate:"required"`
	Timeframe string `yaml:"timeframe" json:"timeframe" jsonschema:"title=Timeframe,default=5m" validate:"required"`

	strategy.EmaRsiVwapConfig `yaml:",inline"`
}

// Execution holds order and fee settings shared by live trading and backtests.
type Execution struct {
	Leverage    int                         `yaml:"leverage" json:"leverage" jsonschema:"title=Leverage,default=5" validate:"gte=1,lte=125"`
	SlippageBps float64                     `yaml:"slippage_bps" json:"slippage_bps" jsonschema:"title=Slippage (bps),default=5" validate:"gte=0"`
	FeeBps      float64                     `yaml:"fee_bps" json:"fee_bps" jsonschema:"title=Fee (bps),default=4" validate:"gte=0"`
	Retry       tradingprovider.RetryPolicy `yaml:"retry" json:"retry"`
}

// Live holds the polling loop settings.
type Live struct {
	KlineLimit        int           `yaml:"kline_limit" json:"kline_limit" jsonschema:"default=300"`
	AccountTradeLimit int           `yaml:"account_trade_limit" json:"account_trade_limit" jsonschema:"default=500"`
	PollInterval      time.Duration `yaml:"poll_interval" json:"poll_interval"`
	PositionWait      time.Duration `yaml:"position_wait" json:"position_wait"`
	CapWait           time.Duration `yaml:"cap_wait" json:"cap_wait"`
	ErrorWait         time.Duration `yaml:"error_wait" json:"error_wait"`
	SummaryInterval   time.Duration `yaml:"summary_interval" json:"summary_interval"`
	DataOutputPath    string        `yaml:"data_output_path" json:"data_output_path" jsonschema:"description=Directory for session journals. Empty keeps the session in memory"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	LogDir string `yaml:"log_dir" json:"log_dir" jsonschema:"default=logs"`
	File   string `yaml:"log_file" json:"log_file" jsonschema:"default=trading_bot.log"`
}

// Backtest bounds and funds a historical run.
type Backtest struct {
	StartDate      string  `yaml:"start_date,omitempty" json:"start_date,omitempty" jsonschema:"format=date"`
	EndDate        string  `yaml:"end_date,omitempty" json:"end_date,omitempty" jsonschema:"format=date"`
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" jsonschema:"default=10000" validate:"gt=0"`
	DataPath       string  `yaml:"data_path,omitempty" json:"data_path,omitempty" jsonschema:"description=CSV or parquet file with time/open/high/low/close/volume columns"`
	ResultsFolder  string  `yaml:"results_folder" json:"results_folder" jsonschema:"default=results"`
}

// Metrics configures the prometheus and status endpoint of live mode.
type Metrics struct {
	Addr string `yaml:"addr" json:"addr" jsonschema:"description=Listen address such as :9090. Empty disables the server"`
}

// Config is the whole configuration.
type Config struct {
	ConfigVersion string                `yaml:"config_version,omitempty" json:"config_version,omitempty" jsonschema:"title=Config version,description=Engine version the file was written for"`
	API           API                   `yaml:"api" json:"api"`
	Strategy      Strategy              `yaml:"strategy" json:"strategy"`
	Risk          risk.Config           `yaml:"risk" json:"risk"`
	Execution     Execution             `yaml:"execution" json:"execution"`
	Live          Live                  `yaml:"live" json:"live"`
	Telegram      notify.TelegramConfig `yaml:"telegram" json:"telegram"`
	Logging       Logging               `yaml:"logging" json:"logging"`
	Backtest      Backtest              `yaml:"backtest" json:"backtest"`
	Metrics       Metrics               `yaml:"metrics" json:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	liveDefaults := live.DefaultLiveConfig()

	return Config{
		ConfigVersion: "",
		API:           API{UseTestnet: true},
		Strategy: Strategy{
			Name:             strategy.StrategyEmaRsiVwap,
			Symbol:           "ZECUSDT",
			Timeframe:        "5m",
			EmaRsiVwapConfig: strategy.DefaultEmaRsiVwapConfig(),
		},
		Risk: risk.DefaultConfig(),
		Execution: Execution{
			Leverage:    5,
			SlippageBps: 5,
			FeeBps:      4,
			Retry:       tradingprovider.DefaultRetryPolicy(),
		},
		Live: Live{
			KlineLimit:        liveDefaults.KlineLimit,
			AccountTradeLimit: liveDefaults.AccountTradeLimit,
			PollInterval:      liveDefaults.PollInterval,
			PositionWait:      liveDefaults.PositionWait,
			CapWait:           liveDefaults.CapWait,
			ErrorWait:         liveDefaults.ErrorWait,
			SummaryInterval:   liveDefaults.SummaryInterval,
			DataOutputPath:    "",
		},
		Telegram: notify.TelegramConfig{},
		Logging:  Logging{Level: "info", LogDir: "logs", File: "trading_bot.log"},
		Backtest: Backtest{InitialCapital: 10000, ResultsFolder: "results"},
		Metrics:  Metrics{},
	}
}

// Load reads configPath (skipped when missing), loads envPath into the process
// environment (skipped when missing) and applies environment overrides.
func Load(configPath string, envPath string) (*Config, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load %s", envPath)
			}
		}
	}

	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)

		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to decode config yaml", err)
			}
		case !os.IsNotExist(err):
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
		}
	}

	if err := version.CheckConfigCompatibility(version.GetVersion(), cfg.ConfigVersion); err != nil {
		return nil, err
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) {
	env := envReader{lookup: lookup}

	c.API.UseTestnet = env.boolean("USE_TESTNET", c.API.UseTestnet)

	// dedicated testnet and mainnet keys can live side by side in .env
	prefix := "BINANCE_MAINNET_"
	if c.API.UseTestnet {
		prefix = "BINANCE_TESTNET_"
	}

	c.API.APIKey = env.firstOf(c.API.APIKey, prefix+"API_KEY", "BINANCE_API_KEY")
	c.API.APISecret = env.firstOf(c.API.APISecret, prefix+"API_SECRET", "BINANCE_API_SECRET")

	c.Strategy.Symbol = strings.ToUpper(env.str("SYMBOL", c.Strategy.Symbol))
	c.Strategy.Timeframe = env.str("TIMEFRAME", c.Strategy.Timeframe)
	c.Execution.Leverage = env.integer("LEVERAGE", c.Execution.Leverage)

	s := &c.Strategy.EmaRsiVwapConfig
	s.EMAFast = env.integer("EMA_FAST", s.EMAFast)
	s.EMASlow = env.integer("EMA_SLOW", s.EMASlow)
	s.RSILen = env.integer("RSI_LEN", s.RSILen)
	s.ATRLen = env.integer("ATR_LEN", s.ATRLen)
	s.ATRStopMult = env.float("ATR_STOP_MULT", s.ATRStopMult)
	s.ATRTPMult = env.float("ATR_TP_MULT", s.ATRTPMult)
	s.VolMult = env.float("VOL_MULT", s.VolMult)
	s.VolMALen = env.integer("VOL_MA_LEN", s.VolMALen)
	s.RSILongMin = env.float("RSI_LONG_MIN", s.RSILongMin)
	s.RSIShortMax = env.float("RSI_SHORT_MAX", s.RSIShortMax)
	s.CooldownCandles = env.integer("COOLDOWN_CANDLES", s.CooldownCandles)

	r := &c.Risk
	r.RiskPerTradeUSD = env.float("RISK_PER_TRADE_USD", r.RiskPerTradeUSD)
	r.MaxDailyLossUSD = env.float("MAX_DAILY_LOSS_USD", r.MaxDailyLossUSD)
	r.MaxDrawdownPct = env.float("MAX_DRAWDOWN_PCT", r.MaxDrawdownPct)
	r.MinNotional = env.float("MIN_NOTIONAL", r.MinNotional)
	r.MaxPositionPctCapital = env.float("MAX_POSITION_PCT_CAPITAL", r.MaxPositionPctCapital)
	r.TrailingStopATRMult = env.float("TRAILING_STOP_ATR_MULT", r.TrailingStopATRMult)
	r.MinRiskReward = env.float("MIN_RISK_REWARD", r.MinRiskReward)

	c.Execution.SlippageBps = env.float("SLIPPAGE_BPS", c.Execution.SlippageBps)
	c.Execution.FeeBps = env.float("FEE_BPS", c.Execution.FeeBps)

	c.Telegram.BotToken = env.str("TELEGRAM_BOT_TOKEN", c.Telegram.BotToken)
	c.Telegram.ChatID = env.str("TELEGRAM_CHAT_ID", c.Telegram.ChatID)

	c.Metrics.Addr = env.str("METRICS_ADDR", c.Metrics.Addr)
}

// envReader reads typed overrides. Unparsable values keep the current value.
type envReader struct {
	lookup lookupFunc
}

func (e envReader) str(key string, current string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}

	return current
}

func (e envReader) firstOf(current string, keys ...string) string {
	for _, key := range keys {
		if v := e.str(key, ""); v != "" {
			return v
		}
	}

	return current
}

func (e envReader) boolean(key string, current bool) bool {
	v, ok := e.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return current
	}

	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func (e envReader) integer(key string, current int) int {
	v := e.str(key, "")
	if v == "" {
		return current
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return current
	}

	return n
}

func (e envReader) float(key string, current float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return current
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return current
	}

	return f
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if _, err := utils.ParseTimeframe(c.Strategy.Timeframe); err != nil {
		return err
	}

	if err := c.Risk.Validate(); err != nil {
		return err
	}

	if _, _, err := c.BacktestRange(); err != nil {
		return err
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid log level", err)
	}

	return nil
}

// BacktestRange parses the optional backtest dates. The end date is inclusive.
func (c Config) BacktestRange() (optional.Option[time.Time], optional.Option[time.Time], error) {
	start := optional.None[time.Time]()
	end := optional.None[time.Time]()

	if c.Backtest.StartDate != "" {
		t, err := time.Parse(dateLayout, c.Backtest.StartDate)
		if err != nil {
			return start, end, errors.Wrapf(errors.ErrCodeInvalidPeriod, err, "invalid backtest start_date %q", c.Backtest.StartDate)
		}

		start = optional.Some(t.UTC())
	}

	if c.Backtest.EndDate != "" {
		t, err := time.Parse(dateLayout, c.Backtest.EndDate)
		if err != nil {
			return start, end, errors.Wrapf(errors.ErrCodeInvalidPeriod, err, "invalid backtest end_date %q", c.Backtest.EndDate)
		}

		end = optional.Some(t.UTC().Add(24*time.Hour - time.Nanosecond))
	}

	if start.IsSome() && end.IsSome() && end.Unwrap().Before(start.Unwrap()) {
		return start, end, errors.New(errors.ErrCodeInvalidPeriod, "backtest end_date is before start_date")
	}

	return start, end, nil
}

// BuildStrategy constructs the configured strategy.
func (c Config) BuildStrategy() (strategy.Strategy, error) {
	return strategy.NewStrategy(c.Strategy.Name, c.Strategy.EmaRsiVwapConfig)
}

// LoggerOptions maps the logging section to logger options.
func (c Config) LoggerOptions() logger.Options {
	return logger.Options{Level: c.Logging.Level, Dir: c.Logging.LogDir, File: c.Logging.File}
}

// ProviderType picks the Binance environment.
func (c Config) ProviderType() tradingprovider.ProviderType {
	return tradingprovider.ProviderForTestnet(c.API.UseTestnet)
}

// ProviderConfig returns the exchange credentials.
func (c Config) ProviderConfig() tradingprovider.BinanceProviderConfig {
	return tradingprovider.BinanceProviderConfig{
		ApiKey:    c.API.APIKey,
		SecretKey: c.API.APISecret,
		BaseURL:   c.API.BaseURL,
	}
}

// LiveEngineConfig maps the configuration to the live loop settings.
func (c Config) LiveEngineConfig() live.LiveTradingEngineV1Config {
	return live.LiveTradingEngineV1Config{
		Symbol:            c.Strategy.Symbol,
		Timeframe:         c.Strategy.Timeframe,
		Leverage:          c.Execution.Leverage,
		Testnet:           c.API.UseTestnet,
		KlineLimit:        c.Live.KlineLimit,
		AccountTradeLimit: c.Live.AccountTradeLimit,
		PollInterval:      c.Live.PollInterval,
		PositionWait:      c.Live.PositionWait,
		CapWait:           c.Live.CapWait,
		ErrorWait:         c.Live.ErrorWait,
		SummaryInterval:   c.Live.SummaryInterval,
		DataOutputPath:    c.Live.DataOutputPath,
	}
}

// BacktestEngineConfig maps the configuration to the backtest engine settings.
func (c Config) BacktestEngineConfig() (backtest.BacktestEngineV1Config, error) {
	start, end, err := c.BacktestRange()
	if err != nil {
		return backtest.BacktestEngineV1Config{}, err
	}

	cfg := backtest.EmptyConfig()
	cfg.Symbol = c.Strategy.Symbol
	cfg.InitialCapital = c.Backtest.InitialCapital
	cfg.SlippageBps = c.Execution.SlippageBps
	cfg.FeeBps = c.Execution.FeeBps
	cfg.FeeModel = commission_fee.FeeModelBps
	cfg.StartTime = start
	cfg.EndTime = end
	cfg.ResultsFolder = c.Backtest.ResultsFolder

	return cfg, nil
}

// GetConfigSchema returns the JSON schema of the configuration file.
func GetConfigSchema() (string, error) {
	return utils.ToJSONSchema(Config{})
}
