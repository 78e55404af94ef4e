package tradingprovider

import (
	"sort"

	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/trading"
	"github.com/rxtech-lab/argo-scalper/internal/utils"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

type ProviderType string

const (
	ProviderBinancePaper ProviderType = "binance-paper"
	ProviderBinanceLive  ProviderType = "binance-live"
)

type ProviderInfo struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderBinancePaper: {
		Name:           string(ProviderBinancePaper),
		DisplayName:    "Binance Futures Testnet",
		Description:    "Binance USDT-M futures testnet for paper trading without real funds",
		IsPaperTrading: true,
	},
	ProviderBinanceLive: {
		Name:           string(ProviderBinanceLive),
		DisplayName:    "Binance Futures",
		Description:    "Binance USDT-M futures with real funds",
		IsPaperTrading: false,
	},
}

// ProviderForTestnet maps the testnet switch of the config file to a provider type.
func ProviderForTestnet(testnet bool) ProviderType {
	if testnet {
		return ProviderBinancePaper
	}

	return ProviderBinanceLive
}

// GetSupportedProviders returns the registered provider names in sorted order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific trading provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported trading provider: %s", providerName)
	}

	return info, nil
}

// GetProviderConfigSchema returns the JSON schema for a provider's configuration.
func GetProviderConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderBinancePaper, ProviderBinanceLive:
		return utils.ToJSONSchema(BinanceProviderConfig{
			ApiKey:    "",
			SecretKey: "",
			BaseURL:   "",
		})
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported trading provider: %s", providerName)
	}
}

// ParseProviderConfig parses a JSON configuration string for the given provider.
func ParseProviderConfig(providerName string, jsonConfig string) (*BinanceProviderConfig, error) {
	switch ProviderType(providerName) {
	case ProviderBinancePaper, ProviderBinanceLive:
		return parseBinanceConfig(jsonConfig)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported trading provider: %s", providerName)
	}
}

// NewExecutionClient creates the execution client of the given provider type.
func NewExecutionClient(providerType ProviderType, config BinanceProviderConfig, retry RetryPolicy, log *logger.Logger) (trading.ExecutionClient, error) {
	switch providerType {
	case ProviderBinancePaper:
		return NewBinanceFuturesProvider(config, true, retry, log)
	case ProviderBinanceLive:
		return NewBinanceFuturesProvider(config, false, retry, log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported trading provider: %s", providerType)
	}
}
