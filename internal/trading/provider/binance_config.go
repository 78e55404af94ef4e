package tradingprovider

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// BinanceProviderConfig contains the credentials of a Binance USDT-M futures account.
type BinanceProviderConfig struct {
	ApiKey    string `yaml:"api_key" json:"apiKey" jsonschema:"title=API Key,description=Binance futures API key" validate:"required"`
	SecretKey string `yaml:"api_secret" json:"secretKey" jsonschema:"title=Secret Key,description=Binance futures API secret" validate:"required"`
	// BaseURL overrides the endpoint picked by the provider type.
	BaseURL string `yaml:"base_url,omitempty" json:"baseUrl,omitempty" jsonschema:"title=Base URL,description=Override of the futures REST endpoint"`
}

// Validate validates the BinanceProviderConfig struct.
func (c *BinanceProviderConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance provider config", err)
	}

	return nil
}

// parseBinanceConfig parses a JSON configuration string into a BinanceProviderConfig.
func parseBinanceConfig(jsonConfig string) (*BinanceProviderConfig, error) {
	var config BinanceProviderConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse binance config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
